package game

import (
	"math/rand/v2"
	"strings"
	"time"
)

// ProgressiveHints reveals one more grapheme at even intervals of the draw
// time, never giving away more than half of the word.
type ProgressiveHints struct {
	perm func(n int) []int
}

func NewProgressiveHints() *ProgressiveHints {
	return &ProgressiveHints{perm: rand.Perm}
}

func (ph *ProgressiveHints) RevealHints(word string, drawTime time.Duration) []Hint {
	chars := graphemes(word)
	hidden := make([]int, 0, len(chars))
	for i, c := range chars {
		if c != " " {
			hidden = append(hidden, i)
		}
	}

	count := len(hidden) / 2
	hints := make([]Hint, 0, count)
	if count == 0 {
		return hints
	}

	current := make([]string, len(chars))
	for i, c := range chars {
		if c == " " {
			current[i] = c
		} else {
			current[i] = maskChar
		}
	}

	order := ph.perm(len(hidden))
	interval := drawTime / time.Duration(count+1)

	for k := 1; k <= count; k++ {
		idx := hidden[order[k-1]]
		current[idx] = chars[idx]
		hints = append(hints, Hint{
			Hint:        strings.Join(current, ""),
			DisplayTime: int((drawTime - time.Duration(k)*interval).Seconds()),
		})
	}

	return hints
}
