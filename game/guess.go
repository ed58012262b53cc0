package game

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Guesses this close to the word, but not equal, earn a private hint.
const closeGuessDistance = 3

func (s *Session) normalize(text string) string {
	return strings.TrimSpace(s.lower.String(text))
}

// evaluate classifies a chat message against the active word.
func (s *Session) evaluate(senderId, raw string) {
	guess := s.normalize(raw)
	if guess == "" {
		return
	}

	name := s.nameOf(senderId)
	chat := ChatMessage{Message: raw, Name: name}

	if s.secretWord == "" {
		s.svc.broadcaster.EmitToRoom(s.roomId, EventMessage, chat)
		return
	}

	distance := levenshtein.ComputeDistance(guess, s.normalize(s.secretWord))
	eligible := senderId != s.drawerId && s.ledger.has(senderId) && !s.ledger.hasGuessed(senderId)

	switch {
	case distance == 0:
		s.svc.broadcaster.EmitToParticipant(senderId, EventMessage, chat)
		if eligible {
			s.scoreCorrectGuess(senderId, name)
		}
	case distance < closeGuessDistance:
		s.svc.broadcaster.EmitToRoom(s.roomId, EventMessage, chat)
		if eligible {
			s.svc.broadcaster.EmitToParticipant(senderId, EventCloseGuess, Notice{Message: closeGuessMsg})
		}
	default:
		s.svc.broadcaster.EmitToRoom(s.roomId, EventMessage, chat)
	}
}

func (s *Session) scoreCorrectGuess(senderId, name string) {
	b := s.svc.broadcaster

	b.EmitToParticipant(senderId, EventCorrectGuess, Notice{Message: correctGuessPrivateMsg, Id: senderId})
	b.EmitToRoomExcept(s.roomId, senderId, EventCorrectGuess, Notice{
		Message: fmt.Sprintf(correctGuessRoomMsg, name),
		Id:      senderId,
	})

	s.ledger.markGuessed(senderId)
	s.ledger.award(senderId, s.svc.formula.ComputePoints(s.turnStart, s.settings.DrawTime))
	s.ledger.award(s.drawerId, DrawerBonus)
	score := s.ledger.score(senderId)
	drawerScore := s.ledger.score(s.drawerId)

	b.EmitToRoom(s.roomId, EventUpdateScore, ScoreUpdate{
		PlayerId:    senderId,
		Score:       score,
		DrawerId:    s.drawerId,
		DrawerScore: drawerScore,
	})

	s.logger.Debug().
		Str("player", senderId).
		Int("score", score).
		Int("guessed", s.ledger.guessedThisTurn).
		Msg("correct guess")

	if !s.signalled && s.ledger.guessedThisTurn >= s.roomSize()-1 {
		s.signalled = true
		select {
		case s.everybodyGuessed <- struct{}{}:
		default:
		}
	}
}
