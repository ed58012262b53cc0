package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

func (s *Session) playTurn(ctx context.Context, drawerId string) {
	logger := s.logger.With().Str("drawer", drawerId).Int("round", s.round).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("turn aborted")
		}
		s.endTurn(drawerId)
	}()

	s.beginTurn(drawerId)

	if s.prevDrawerId != "" {
		s.svc.broadcaster.EmitToParticipant(s.prevDrawerId, EventDisableCanvas, nil)
	}
	s.svc.broadcaster.EmitToRoomExcept(s.roomId, drawerId, EventChoosing, ChoosingPayload{Name: s.nameOf(drawerId)})

	err := s.runTurn(ctx, drawerId)
	switch {
	case err == nil:
	case errors.Is(err, ErrConnectionNotFound), errors.Is(err, ErrDrawerDisconnected):
		logger.Warn().Err(err).Msg("turn skipped")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info().Err(err).Msg("turn interrupted")
	default:
		logger.Error().Err(err).Msg("turn failed")
	}
}

func (s *Session) beginTurn(drawerId string) {
	s.ledger.resetTurn()
	s.secretWord = ""
	s.drawerId = drawerId
	s.signalled = false
	select {
	case <-s.everybodyGuessed:
	default:
	}
}

func (s *Session) endTurn(drawerId string) {
	s.secretWord = ""
	s.drawerId = ""
	s.prevDrawerId = drawerId
}

func (s *Session) runTurn(ctx context.Context, drawerId string) error {
	drawer, ok := s.svc.registry.Lookup(drawerId)
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, drawerId)
	}

	choices := s.svc.words.ProposeWords(ctx, s.roomId)
	s.svc.broadcaster.EmitToParticipant(drawerId, EventChooseWord, choices)

	word, err := s.awaitWord(ctx, drawer, choices)
	if err != nil {
		return err
	}

	s.secretWord = word
	s.svc.broadcaster.EmitToRoom(s.roomId, EventClearCanvas, nil)
	s.svc.broadcaster.EmitToRoom(s.roomId, EventHideWord, WordPayload{Word: maskWord(word)})
	s.svc.broadcaster.EmitToRoomExcept(s.roomId, drawerId, EventHints, s.svc.hints.RevealHints(word, s.settings.DrawTime))
	s.turnStart = s.svc.now()
	s.svc.broadcaster.EmitToRoom(s.roomId, EventStartTimer, TimerPayload{Time: int(s.settings.DrawTime.Seconds())})

	leftEarly, err := s.awaitRoundEnd(ctx, drawer)
	if err != nil {
		return err
	}
	if leftEarly {
		s.svc.broadcaster.EmitToRoomExcept(s.roomId, drawerId, EventLastWord, WordPayload{Word: word})
	}
	return nil
}

// awaitWord blocks until the drawer picks one of choices or disconnects.
// Other inputs are handled while waiting.
func (s *Session) awaitWord(ctx context.Context, drawer Connection, choices []string) (string, error) {
	for {
		select {
		case env := <-s.inbox:
			if env.Kind != KindChooseWord || env.From != drawer.ID() {
				s.dispatch(env)
				continue
			}
			if !slices.Contains(choices, env.Word) {
				s.logger.Debug().Str("player", env.From).Str("word", env.Word).Msg("word was not offered")
				continue
			}
			return env.Word, nil
		case <-drawer.Done():
			return "", fmt.Errorf("%w: %s", ErrDrawerDisconnected, drawer.ID())
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// awaitRoundEnd blocks until the draw time elapses, every guesser found the
// word, or the drawer leaves. leftEarly reports the last case.
func (s *Session) awaitRoundEnd(ctx context.Context, drawer Connection) (leftEarly bool, err error) {
	timeout := s.svc.timer.After(s.settings.DrawTime)
	for {
		select {
		case <-timeout:
			return false, nil
		case <-s.everybodyGuessed:
			return false, nil
		case <-drawer.Done():
			return true, nil
		case env := <-s.inbox:
			s.dispatch(env)
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
