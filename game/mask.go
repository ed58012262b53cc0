package game

import (
	"strings"

	"github.com/rivo/uniseg"
)

const maskChar = "_"

func graphemes(word string) []string {
	res := make([]string, 0, len(word))
	g := uniseg.NewGraphemes(word)
	for g.Next() {
		res = append(res, g.Str())
	}
	return res
}

// maskWord hides every grapheme of word except spaces.
func maskWord(word string) string {
	var sb strings.Builder
	for _, c := range graphemes(word) {
		if c == " " {
			sb.WriteString(c)
			continue
		}
		sb.WriteString(maskChar)
	}
	return sb.String()
}
