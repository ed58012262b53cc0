package game

import (
	"slices"

	"github.com/Low-P1ng/Doodlerush/domain"
)

// DrawerBonus is what the drawer earns for every correct guess.
const DrawerBonus = 250

// ledger holds scores and per-turn guess state. Only the session goroutine touches it.
type ledger struct {
	scores          map[string]int
	guessed         map[string]bool
	guessedThisTurn int
}

func newLedger(roster []domain.Profile) *ledger {
	l := &ledger{
		scores:  make(map[string]int, len(roster)),
		guessed: make(map[string]bool, len(roster)),
	}
	for _, p := range roster {
		l.scores[p.Id] = 0
		l.guessed[p.Id] = false
	}
	return l
}

func (l *ledger) resetTurn() {
	for id := range l.guessed {
		l.guessed[id] = false
	}
	l.guessedThisTurn = 0
}

func (l *ledger) has(id string) bool {
	_, ok := l.scores[id]
	return ok
}

func (l *ledger) hasGuessed(id string) bool {
	return l.guessed[id]
}

// award adds points. Negative awards are ignored.
func (l *ledger) award(id string, points int) {
	if points > 0 {
		l.scores[id] += points
	}
}

func (l *ledger) markGuessed(id string) {
	if !l.guessed[id] {
		l.guessed[id] = true
		l.guessedThisTurn++
	}
}

func (l *ledger) score(id string) int {
	return l.scores[id]
}

// standings ranks the roster by score, keeping roster order on ties.
func (l *ledger) standings(roster []domain.Profile) []domain.Standing {
	res := make([]domain.Standing, 0, len(roster))
	for _, p := range roster {
		res = append(res, domain.Standing{Id: p.Id, Name: p.Name, Score: l.scores[p.Id]})
	}
	slices.SortStableFunc(res, func(a, b domain.Standing) int {
		return b.Score - a.Score
	})
	return res
}
