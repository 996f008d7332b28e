package index

import (
	"errors"
	"math"
	"testing"

	"github.com/lexigraph/lexigraph/internal/models"
)

func testOpts() TermOptions {
	return TermOptions{MaxVocabulary: 5000, MinDocumentCount: 1, MaxDocumentRatio: 0.8}
}

func corpus() []*models.Document {
	return []*models.Document{
		{ID: "d1", Title: "Usability Testing", Content: "usability testing with real participants measures task success"},
		{ID: "d2", Title: "Cognitive Load", Content: "cognitive load theory explains working memory limits in interface design"},
		{ID: "d3", Title: "Interface Design", Content: "interface design patterns reduce cognitive friction for users"},
	}
}

func TestBuildTermIndexEmptyCorpus(t *testing.T) {
	if _, err := BuildTermIndex(nil, testOpts()); !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("want ErrEmptyVocabulary, got %v", err)
	}
}

func TestBuildTermIndexSingleDocEmptiesVocabulary(t *testing.T) {
	docs := []*models.Document{{ID: "d1", Title: "Solo", Content: "every term appears in all documents"}}
	if _, err := BuildTermIndex(docs, testOpts()); !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("want ErrEmptyVocabulary for single-document corpus, got %v", err)
	}
}

func TestSelfSimilarityIsOne(t *testing.T) {
	idx, err := BuildTermIndex(corpus(), testOpts())
	if err != nil {
		t.Fatal(err)
	}
	// A query identical to a document's text scores cosine 1.0 against it,
	// up to vocabulary filtering dropping out-of-vocab query terms.
	doc := corpus()[0]
	vec := idx.QueryVector(doc.Title + " " + doc.Content)
	score := idx.Score(vec, doc.ID)
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("self similarity = %f, want 1.0", score)
	}
}

func TestScoreRanksRelevantDocHigher(t *testing.T) {
	idx, err := BuildTermIndex(corpus(), testOpts())
	if err != nil {
		t.Fatal(err)
	}
	vec := idx.QueryVector("cognitive load")
	if len(vec) == 0 {
		t.Fatal("query vector empty")
	}
	s2 := idx.Score(vec, "d2")
	s1 := idx.Score(vec, "d1")
	if s2 <= s1 {
		t.Errorf("d2 (%f) should outrank d1 (%f) for 'cognitive load'", s2, s1)
	}
}

func TestQueryVectorOutOfVocabulary(t *testing.T) {
	idx, err := BuildTermIndex(corpus(), testOpts())
	if err != nil {
		t.Fatal(err)
	}
	vec := idx.QueryVector("zebra xylophone")
	if len(vec) != 0 {
		t.Errorf("expected empty vector, got %v", vec)
	}
	if idx.Score(vec, "d1") != 0 {
		t.Error("empty query vector should score 0")
	}
}

func TestMaxVocabularyCap(t *testing.T) {
	opts := testOpts()
	opts.MaxVocabulary = 3
	idx, err := BuildTermIndex(corpus(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if idx.VocabularySize() != 3 {
		t.Errorf("vocabulary = %d, want 3", idx.VocabularySize())
	}
}

func TestMaxDocumentRatioExcludesUbiquitousTerms(t *testing.T) {
	docs := []*models.Document{
		{ID: "d1", Content: "widget alpha"},
		{ID: "d2", Content: "widget beta"},
		{ID: "d3", Content: "widget gamma"},
		{ID: "d4", Content: "widget delta"},
		{ID: "d5", Content: "widget epsilon"},
	}
	idx, err := BuildTermIndex(docs, testOpts())
	if err != nil {
		t.Fatal(err)
	}
	// "widget" appears in 100% of docs, above the 0.8 cap.
	if vec := idx.QueryVector("widget"); len(vec) != 0 {
		t.Errorf("ubiquitous term should be excluded, got %v", vec)
	}
	if vec := idx.QueryVector("alpha"); len(vec) == 0 {
		t.Error("rare term should be in vocabulary")
	}
}

func TestSmoothedIDF(t *testing.T) {
	idx, err := BuildTermIndex(corpus(), testOpts())
	if err != nil {
		t.Fatal(err)
	}
	// "usability" appears in 1 of 3 docs: idf = ln(4/2) + 1.
	want := math.Log(2) + 1
	if got := idx.idf["usability"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("idf = %f, want %f", got, want)
	}
}
