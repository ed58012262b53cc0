package game

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const inboxSize = 256

// Session is the game state of one room. Everything below the channels is
// owned by the goroutine running Service.Start for that room.
type Session struct {
	roomId           string
	settings         Settings
	inbox            chan Envelope
	everybodyGuessed chan struct{}
	done             chan struct{}
	started          atomic.Bool

	svc          *Service
	logger       zerolog.Logger
	lower        cases.Caser
	roster       []domain.Profile
	names        map[string]string
	ledger       *ledger
	round        int
	playerIndex  int
	drawerId     string
	prevDrawerId string
	secretWord   string
	turnStart    time.Time
	signalled    bool
}

func newSession(roomId string, settings Settings) *Session {
	return &Session{
		roomId:           roomId,
		settings:         settings,
		inbox:            make(chan Envelope, inboxSize),
		everybodyGuessed: make(chan struct{}, 1),
		done:             make(chan struct{}),
		lower:            cases.Lower(language.Und),
	}
}

func (s *Session) RoomId() string {
	return s.roomId
}

// Done is closed once the session has ended and left the store.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// attach binds the session to its collaborators and snapshots the roster.
func (s *Session) attach(svc *Service) {
	s.svc = svc
	s.logger = svc.logger.With().Str("room", s.roomId).Logger()
	s.roster = svc.roster.Players(s.roomId)
	s.names = make(map[string]string, len(s.roster))
	for _, p := range s.roster {
		s.names[p.Id] = p.Name
	}
	s.ledger = newLedger(s.roster)
}

func (s *Session) run(ctx context.Context) error {
	s.svc.broadcaster.EmitToRoom(s.roomId, EventStartGame, nil)
	s.logger.Info().
		Int("players", len(s.roster)).
		Int("rounds", s.settings.Rounds).
		Dur("drawTime", s.settings.DrawTime).
		Msg("game started")

	var err error
loop:
	for s.round = 0; s.round < s.settings.Rounds; s.round++ {
		for s.playerIndex = 0; s.playerIndex < len(s.roster); s.playerIndex++ {
			if err = ctx.Err(); err != nil {
				break loop
			}
			s.playTurn(ctx, s.roster[s.playerIndex].Id)
		}
	}

	s.finish(ctx)
	return err
}

func (s *Session) finish(ctx context.Context) {
	standings := s.ledger.standings(s.roster)
	s.svc.broadcaster.EmitToRoom(s.roomId, EventEndGame, EndGamePayload{Standings: standings})
	s.logger.Info().Msg("game ended")

	if s.svc.recorder == nil || len(standings) == 0 {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.svc.recorder.SaveGameResult(saveCtx, s.roomId, standings); err != nil {
		s.logger.Error().Err(err).Msg("saving game result")
	}
}

// dispatch handles one queued input while the session is waiting.
func (s *Session) dispatch(env Envelope) {
	switch env.Kind {
	case KindMessage:
		s.evaluate(env.From, env.Text)
	case KindChooseWord:
		s.logger.Debug().Str("player", env.From).Msg("ignoring word choice outside of selection")
	case KindDrawing:
		s.relayDrawing(env)
	default:
		s.logger.Warn().Stringer("kind", env.Kind).Str("player", env.From).Msg("unknown envelope")
	}
}

func (s *Session) relayDrawing(env Envelope) {
	if s.secretWord == "" || env.From != s.drawerId {
		return
	}
	s.svc.broadcaster.EmitToRoomExcept(s.roomId, s.drawerId, EventDrawing, env.Data)
}

func (s *Session) nameOf(playerId string) string {
	if name, ok := s.names[playerId]; ok {
		return name
	}
	if conn, ok := s.svc.registry.Lookup(playerId); ok {
		return conn.Username()
	}
	return "Player"
}

// roomSize counts the roster members that are still connected, drawer included.
func (s *Session) roomSize() int {
	n := 0
	for _, p := range s.roster {
		if _, ok := s.svc.registry.Lookup(p.Id); ok {
			n++
		}
	}
	return n
}
