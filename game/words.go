package game

import (
	"context"
	_ "embed"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// WordChoices is how many candidates the drawer picks from.
const WordChoices = 3

//go:embed words.txt
var wordsFile string

// EmbeddedWords proposes words from the list compiled into the binary.
type EmbeddedWords struct {
	words []string
	perm  func(n int) []int
}

func NewEmbeddedWords() *EmbeddedWords {
	return newEmbeddedWords(wordsFile)
}

func newEmbeddedWords(list string) *EmbeddedWords {
	seen := map[string]struct{}{}
	words := []string{}
	for _, line := range strings.Split(list, "\n") {
		w := strings.TrimSpace(line)
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return &EmbeddedWords{words: words, perm: rand.Perm}
}

func (ew *EmbeddedWords) Len() int {
	return len(ew.words)
}

func (ew *EmbeddedWords) ProposeWords(ctx context.Context, roomId string) []string {
	n := min(WordChoices, len(ew.words))
	res := make([]string, 0, n)
	for _, i := range ew.perm(len(ew.words))[:n] {
		res = append(res, ew.words[i])
	}
	return res
}

type WordBank interface {
	RandomWords(ctx context.Context, count int) ([]string, error)
}

// BankWords draws candidates from a word bank and falls back when the bank
// fails or runs short.
type BankWords struct {
	bank     WordBank
	fallback WordSupplier
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewBankWords(bank WordBank, fallback WordSupplier, logger zerolog.Logger) *BankWords {
	return &BankWords{
		bank:     bank,
		fallback: fallback,
		timeout:  2 * time.Second,
		logger:   logger,
	}
}

func (bw *BankWords) ProposeWords(ctx context.Context, roomId string) []string {
	ctx, cancel := context.WithTimeout(ctx, bw.timeout)
	defer cancel()

	words, err := bw.bank.RandomWords(ctx, WordChoices)
	if err != nil {
		bw.logger.Warn().Err(err).Str("room", roomId).Msg("word bank unavailable, using fallback list")
		return bw.fallback.ProposeWords(ctx, roomId)
	}
	if len(words) < WordChoices {
		bw.logger.Warn().Int("got", len(words)).Str("room", roomId).Msg("word bank ran short, using fallback list")
		return bw.fallback.ProposeWords(ctx, roomId)
	}
	return words
}
