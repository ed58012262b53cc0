package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, *MockGameRunner) {
	t.Helper()
	runner := &MockGameRunner{}
	h := NewHub(context.Background(), &MockPeriodicTickerChannelCreator{}, zerolog.Nop())
	h.SetGameRunner(runner)
	return h, runner
}

func newRoomConfig() RoomConfig {
	return RoomConfig{Rounds: 3, DrawTime: 60, MaxPlayers: 3}
}

func joinPlayer(t *testing.T, h *Hub, roomId, id, name string) *Player {
	t.Helper()
	p := NewPlayer(id, name, roomId, zerolog.Nop())
	require.NoError(t, h.Join(p))
	return p
}

// drain reads everything queued for p.
func drain(t *testing.T, p *Player) []Packet {
	t.Helper()
	res := []Packet{}
	for {
		select {
		case data := <-p.inbox:
			var pkt Packet
			require.NoError(t, json.Unmarshal(data, &pkt))
			res = append(res, pkt)
		default:
			return res
		}
	}
}

func events(pkts []Packet) []string {
	res := make([]string, 0, len(pkts))
	for _, p := range pkts {
		res = append(res, p.Event)
	}
	return res
}

func TestHub_JoinAndLeave(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub(t)
	roomId := h.CreateRoom("A", newRoomConfig(), "")

	alice := joinPlayer(t, h, roomId, "A", "alice")
	bob := joinPlayer(t, h, roomId, "B", "bob")

	assert.Equal(t, []domain.Profile{{Id: "A", Name: "alice"}, {Id: "B", Name: "bob"}}, h.Players(roomId))

	pkts := drain(t, alice)
	require.Len(t, pkts, 2)
	var roster []domain.Profile
	require.NoError(t, json.Unmarshal(pkts[1].Data, &roster))
	assert.Equal(t, EventGetPlayers, pkts[1].Event)
	assert.Equal(t, h.Players(roomId), roster)

	conn, ok := h.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, "bob", conn.Username())

	drain(t, bob)
	h.Leave(alice)
	_, ok = h.Lookup("A")
	assert.False(t, ok)
	assert.Equal(t, []string{EventGetPlayers}, events(drain(t, bob)))

	h.locker.RLock()
	assert.Equal(t, "B", h.rooms[roomId].hostId)
	h.locker.RUnlock()

	h.Leave(bob)
	assert.False(t, h.RoomExists(roomId))
}

func TestHub_Reconnect(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub(t)
	roomId := h.CreateRoom("A", newRoomConfig(), "")

	first := joinPlayer(t, h, roomId, "A", "alice")
	second := joinPlayer(t, h, roomId, "A", "alice")

	select {
	case <-first.Done():
	default:
		assert.Fail(t, "old connection should be kicked")
	}
	assert.Equal(t, "replaced", first.closeReason)

	// the old read pump leaving must not evict the new connection
	h.Leave(first)
	conn, ok := h.Lookup("A")
	require.True(t, ok)
	assert.Same(t, second, conn)
	assert.Len(t, h.Players(roomId), 1)
}

func TestHub_CheckJoin(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub(t)
	cfg := newRoomConfig()
	cfg.MaxPlayers = 2
	roomId := h.CreateRoom("A", cfg, "hash")
	joinPlayer(t, h, roomId, "A", "alice")
	joinPlayer(t, h, roomId, "B", "bob")

	_, err := h.CheckJoin("nope", "C")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = h.CheckJoin(roomId, "C")
	assert.ErrorIs(t, err, ErrRoomFull)

	hash, err := h.CheckJoin(roomId, "B")
	assert.NoError(t, err)
	assert.Equal(t, "hash", hash)

	assert.ErrorIs(t, h.Join(NewPlayer("C", "carol", roomId, zerolog.Nop())), ErrRoomFull)
	assert.ErrorIs(t, h.Join(NewPlayer("C", "carol", "nope", zerolog.Nop())), ErrRoomNotFound)
}

func TestHub_Emit(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub(t)
	roomId := h.CreateRoom("A", newRoomConfig(), "")
	otherRoom := h.CreateRoom("C", newRoomConfig(), "")
	alice := joinPlayer(t, h, roomId, "A", "alice")
	bob := joinPlayer(t, h, roomId, "B", "bob")
	carol := joinPlayer(t, h, otherRoom, "C", "carol")
	drain(t, alice)
	drain(t, bob)
	drain(t, carol)

	h.EmitToRoom(roomId, EventClearCanvas, nil)
	h.EmitToRoomExcept(roomId, "A", EventHints, []Hint{{Hint: "a____", DisplayTime: 40}})
	h.EmitToParticipant("A", EventChooseWord, []string{"apple"})
	h.EmitToParticipant("Z", EventChooseWord, []string{"apple"})

	alicePkts := drain(t, alice)
	assert.Equal(t, []string{EventClearCanvas, EventChooseWord}, events(alicePkts))
	assert.Nil(t, alicePkts[0].Data)
	assert.JSONEq(t, `["apple"]`, string(alicePkts[1].Data))

	bobPkts := drain(t, bob)
	assert.Equal(t, []string{EventClearCanvas, EventHints}, events(bobPkts))
	assert.JSONEq(t, `[{"hint":"a____","displayTime":40}]`, string(bobPkts[1].Data))

	assert.Empty(t, drain(t, carol))
}

func TestHub_SlowPlayerIsKicked(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub(t)
	roomId := h.CreateRoom("A", newRoomConfig(), "")
	alice := joinPlayer(t, h, roomId, "A", "alice")

	for len(alice.inbox) < cap(alice.inbox) {
		alice.inbox <- []byte("x")
	}
	h.EmitToRoom(roomId, EventClearCanvas, nil)

	select {
	case <-alice.Done():
	default:
		assert.Fail(t, "slow player should be kicked")
	}
	assert.Equal(t, ErrSendBufferFull.Error(), alice.closeReason)
}

func TestHub_PublicRooms(t *testing.T) {
	t.Parallel()
	h, _ := newTestHub(t)
	ids := []string{"r1", "r2", "r3"}
	h.idgen = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	public := h.CreateRoom("A", newRoomConfig(), "hash")
	private := newRoomConfig()
	private.Private = true
	h.CreateRoom("B", private, "")
	playing := h.CreateRoom("C", newRoomConfig(), "")
	joinPlayer(t, h, public, "A", "alice")
	h.locker.Lock()
	h.rooms[playing].playing = true
	h.locker.Unlock()

	assert.Equal(t, []RoomDescription{{
		Id:         "r1",
		Host:       "alice",
		Players:    1,
		MaxPlayers: 3,
		Rounds:     3,
		DrawTime:   60,
		Locked:     true,
	}}, h.PublicRooms())
}

func TestHub_RouteChat(t *testing.T) {
	t.Parallel()
	h, runner := newTestHub(t)
	roomId := h.CreateRoom("A", newRoomConfig(), "")
	alice := joinPlayer(t, h, roomId, "A", "alice")
	bob := joinPlayer(t, h, roomId, "B", "bob")

	runner.On("Deliver", roomId, Envelope{Kind: KindMessage, From: "A", Text: "hello"}).Return(ErrSessionNotFound).Once()
	runner.On("Deliver", roomId, Envelope{Kind: KindMessage, From: "A", Text: "  "}).Return(ErrSessionNotFound).Once()
	runner.On("Deliver", roomId, Envelope{Kind: KindMessage, From: "B", Text: "apple"}).Return(nil).Once()
	drain(t, alice)
	drain(t, bob)

	h.Route(alice, Packet{Event: EventMessage, Data: json.RawMessage(`{"message":"hello"}`)})
	h.Route(alice, Packet{Event: EventMessage, Data: json.RawMessage(`{"message":"  "}`)})
	h.Route(bob, Packet{Event: EventMessage, Data: json.RawMessage(`{"message":"apple"}`)})
	h.Route(bob, Packet{Event: EventMessage, Data: json.RawMessage(`not json`)})

	pkts := drain(t, bob)
	require.Len(t, pkts, 1)
	assert.Equal(t, EventMessage, pkts[0].Event)
	assert.JSONEq(t, `{"message":"hello","name":"alice"}`, string(pkts[0].Data))
	runner.AssertExpectations(t)
}

func TestHub_RouteGameInputs(t *testing.T) {
	t.Parallel()
	h, runner := newTestHub(t)
	roomId := h.CreateRoom("A", newRoomConfig(), "")
	alice := joinPlayer(t, h, roomId, "A", "alice")
	bob := joinPlayer(t, h, roomId, "B", "bob")
	drain(t, alice)
	drain(t, bob)

	stroke := json.RawMessage(`{"x":1}`)
	runner.On("Deliver", roomId, Envelope{Kind: KindChooseWord, From: "A", Word: "apple"}).Return(nil).Once()
	runner.On("Deliver", roomId, Envelope{Kind: KindDrawing, From: "A", Data: stroke}).Return(ErrSessionNotFound).Once()

	h.Route(alice, Packet{Event: EventChooseWord, Data: json.RawMessage(`{"word":"apple"}`)})
	h.Route(alice, Packet{Event: EventDrawing, Data: stroke})
	h.Route(alice, Packet{Event: "dance"})
	h.Route(bob, Packet{Event: EventGetPlayers})

	runner.AssertExpectations(t)
	assert.Equal(t, []string{EventGetPlayers}, events(drain(t, alice)))
}

func TestHub_StartGame(t *testing.T) {
	t.Parallel()

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()
		h, runner := newTestHub(t)
		roomId := h.CreateRoom("A", newRoomConfig(), "")
		alice := joinPlayer(t, h, roomId, "A", "alice")

		h.Route(alice, Packet{Event: EventStartGame})
		pkts := drain(t, alice)
		require.NotEmpty(t, pkts)
		assert.JSONEq(t, `{"error":"not-enough-players"}`, string(pkts[len(pkts)-1].Data))

		bob := joinPlayer(t, h, roomId, "B", "bob")
		drain(t, bob)
		h.Route(bob, Packet{Event: EventStartGame})
		pkts = drain(t, bob)
		require.Len(t, pkts, 1)
		assert.Equal(t, EventError, pkts[0].Event)
		assert.JSONEq(t, `{"error":"not-host"}`, string(pkts[0].Data))

		runner.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("host starts the game", func(t *testing.T) {
		t.Parallel()
		h, runner := newTestHub(t)
		roomId := h.CreateRoom("A", newRoomConfig(), "")
		alice := joinPlayer(t, h, roomId, "A", "alice")
		joinPlayer(t, h, roomId, "B", "bob")

		release := make(chan struct{})
		started := make(chan struct{})
		runner.On("CreateSession", roomId, Settings{Rounds: 3, DrawTime: time.Minute}).Return(nil).Once()
		runner.On("Start", mock.Anything, roomId).Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(nil).Once()

		h.Route(alice, Packet{Event: EventStartGame})
		<-started
		assert.Empty(t, h.PublicRooms())

		h.Route(alice, Packet{Event: EventStartGame})
		pkts := drain(t, alice)
		assert.JSONEq(t, `{"error":"game-already-started"}`, string(pkts[len(pkts)-1].Data))

		close(release)
		require.Eventually(t, func() bool {
			return len(h.PublicRooms()) == 1
		}, time.Second, time.Millisecond)
		runner.AssertExpectations(t)
	})

	t.Run("session already exists", func(t *testing.T) {
		t.Parallel()
		h, runner := newTestHub(t)
		roomId := h.CreateRoom("A", newRoomConfig(), "")
		alice := joinPlayer(t, h, roomId, "A", "alice")
		joinPlayer(t, h, roomId, "B", "bob")
		runner.On("CreateSession", roomId, mock.Anything).Return(ErrSessionRunning).Once()

		h.Route(alice, Packet{Event: EventStartGame})

		pkts := drain(t, alice)
		assert.JSONEq(t, `{"error":"session-running"}`, string(pkts[len(pkts)-1].Data))
		assert.Len(t, h.PublicRooms(), 1)
		runner.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	})
}

func TestHub_Run(t *testing.T) {
	t.Parallel()
	ticks := make(chan time.Time)
	tickerCreator := &MockPeriodicTickerChannelCreator{}
	tickerCreator.On("Create", pingInterval).Return(ticks)
	h := NewHub(context.Background(), tickerCreator, zerolog.Nop())
	roomId := h.CreateRoom("A", newRoomConfig(), "")
	alice := joinPlayer(t, h, roomId, "A", "alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	ticks <- time.Now()
	ticks <- time.Now()
	cancel()
	<-done

	assert.Len(t, alice.pingChan, 1)
	tickerCreator.AssertExpectations(t)
}
