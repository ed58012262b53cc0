package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Collaborators wires a Service. Words, Hints, Formula and Timer fall back to
// the in-process defaults when nil. Recorder is optional.
type Collaborators struct {
	Registry    ConnectionRegistry
	Broadcaster Broadcaster
	Roster      RosterSource
	Words       WordSupplier
	Hints       HintGenerator
	Formula     ScoreFormula
	Timer       Timer
	Recorder    ResultRecorder
	Logger      zerolog.Logger
}

type Service struct {
	store       *SessionStore
	registry    ConnectionRegistry
	broadcaster Broadcaster
	roster      RosterSource
	words       WordSupplier
	hints       HintGenerator
	formula     ScoreFormula
	timer       Timer
	recorder    ResultRecorder
	now         func() time.Time
	logger      zerolog.Logger
}

func NewService(store *SessionStore, c Collaborators) *Service {
	svc := &Service{
		store:       store,
		registry:    c.Registry,
		broadcaster: c.Broadcaster,
		roster:      c.Roster,
		words:       c.Words,
		hints:       c.Hints,
		formula:     c.Formula,
		timer:       c.Timer,
		recorder:    c.Recorder,
		now:         time.Now,
		logger:      c.Logger,
	}
	if svc.words == nil {
		svc.words = NewEmbeddedWords()
	}
	if svc.hints == nil {
		svc.hints = NewProgressiveHints()
	}
	if svc.formula == nil {
		svc.formula = NewLinearScore()
	}
	if svc.timer == nil {
		svc.timer = NewWallClock()
	}
	return svc
}

func (svc *Service) CreateSession(roomId string, settings Settings) error {
	_, err := svc.store.Create(roomId, settings)
	return err
}

// Deliver queues a participant input for the room's session.
func (svc *Service) Deliver(roomId string, env Envelope) error {
	session, ok := svc.store.Get(roomId)
	if !ok {
		return ErrSessionNotFound
	}
	select {
	case <-session.Done():
		return ErrSessionNotFound
	default:
	}
	select {
	case session.inbox <- env:
		return nil
	default:
		return ErrInboxFull
	}
}

// Start plays the room's whole game on the calling goroutine and removes the
// session once it is over. It returns ctx's error if the game was cut short.
func (svc *Service) Start(ctx context.Context, roomId string) error {
	session, ok := svc.store.Get(roomId)
	if !ok {
		svc.logger.Warn().Err(ErrSessionNotFound).Str("room", roomId).Msg("cannot start game")
		return ErrSessionNotFound
	}
	if !session.started.CompareAndSwap(false, true) {
		return ErrSessionRunning
	}

	defer func() {
		svc.store.Delete(roomId)
		close(session.done)
	}()

	session.attach(svc)
	return session.run(ctx)
}

// Wait blocks until every session known at call time has ended.
func (svc *Service) Wait(ctx context.Context) error {
	for _, s := range svc.store.Snapshot() {
		svc.logger.Debug().Str("room", s.RoomId()).Msg("waiting for game to end")
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (svc *Service) Running() int {
	return svc.store.Len()
}
