package extract

import (
	"strings"
	"unicode/utf8"
)

// readPlain returns content as a string, replacing invalid UTF-8 sequences
// with the replacement character.
func readPlain(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), "�")
}
