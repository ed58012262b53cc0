package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
)

// Connection is a live participant as seen by a session.
type Connection interface {
	ID() string
	Username() string
	// Done is closed once the participant disconnects.
	Done() <-chan struct{}
}

type ConnectionRegistry interface {
	Lookup(playerId string) (Connection, bool)
}

type Broadcaster interface {
	EmitToRoom(roomId, event string, payload any)
	EmitToParticipant(playerId, event string, payload any)
	EmitToRoomExcept(roomId, playerId, event string, payload any)
}

// RosterSource lists the participants currently connected to a room, in join order.
type RosterSource interface {
	Players(roomId string) []domain.Profile
}

type WordSupplier interface {
	ProposeWords(ctx context.Context, roomId string) []string
}

type HintGenerator interface {
	RevealHints(word string, drawTime time.Duration) []Hint
}

// ScoreFormula must never award more points for a later guess.
type ScoreFormula interface {
	ComputePoints(turnStart time.Time, drawTime time.Duration) int
}

type Timer interface {
	After(d time.Duration) <-chan time.Time
}

type PeriodicTickerChannelCreator interface {
	Create(d time.Duration) <-chan time.Time
}

type ResultRecorder interface {
	SaveGameResult(ctx context.Context, roomId string, standings []domain.Standing) error
}

type Settings struct {
	Rounds   int
	DrawTime time.Duration
}

type Kind int

const (
	KindMessage Kind = iota
	KindChooseWord
	KindDrawing
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindChooseWord:
		return "chooseWord"
	case KindDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Envelope is one participant input queued for a session.
type Envelope struct {
	Kind Kind
	From string
	Text string
	Word string
	Data json.RawMessage
}
