package game

import (
	"context"
	"sync"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/Low-P1ng/Doodlerush/storage"
	"github.com/stretchr/testify/mock"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- WordSupplier ---

type MockWordSupplier struct {
	mock.Mock
}

func (m *MockWordSupplier) ProposeWords(ctx context.Context, roomId string) []string {
	args := m.Called(ctx, roomId)
	return args.Get(0).([]string)
}

// --- WordBank ---

type MockWordBank struct {
	mock.Mock
}

func (m *MockWordBank) RandomWords(ctx context.Context, count int) ([]string, error) {
	args := m.Called(ctx, count)
	return args.Get(0).([]string), args.Error(1)
}

// --- HintGenerator ---

type MockHintGenerator struct {
	mock.Mock
}

func (m *MockHintGenerator) RevealHints(word string, drawTime time.Duration) []Hint {
	args := m.Called(word, drawTime)
	return args.Get(0).([]Hint)
}

// --- ScoreFormula ---

type MockScoreFormula struct {
	mock.Mock
}

func (m *MockScoreFormula) ComputePoints(turnStart time.Time, drawTime time.Duration) int {
	args := m.Called(turnStart, drawTime)
	return args.Int(0)
}

// --- ResultRecorder ---

type MockResultRecorder struct {
	mock.Mock
}

func (m *MockResultRecorder) SaveGameResult(ctx context.Context, roomId string, standings []domain.Standing) error {
	args := m.Called(ctx, roomId, standings)
	return args.Error(0)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- PacketRouter ---

type MockPacketRouter struct {
	mock.Mock
}

func (m *MockPacketRouter) Route(p *Player, pkt Packet) {
	m.Called(p, pkt)
}

func (m *MockPacketRouter) Leave(p *Player) {
	m.Called(p)
}

// --- GameRunner ---

type MockGameRunner struct {
	mock.Mock
}

func (m *MockGameRunner) CreateSession(roomId string, settings Settings) error {
	args := m.Called(roomId, settings)
	return args.Error(0)
}

func (m *MockGameRunner) Start(ctx context.Context, roomId string) error {
	args := m.Called(ctx, roomId)
	return args.Error(0)
}

func (m *MockGameRunner) Deliver(roomId string, env Envelope) error {
	args := m.Called(roomId, env)
	return args.Error(0)
}

// --- PasswordHasher ---

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Compare(hash, password string) (bool, error) {
	args := m.Called(hash, password)
	return args.Bool(0), args.Error(1)
}

// --- ResultsReader ---

type MockResultsReader struct {
	mock.Mock
}

func (m *MockResultsReader) RecentResults(ctx context.Context, limit int) ([]storage.GameResult, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]storage.GameResult), args.Error(1)
}

// --- Fakes ---

const (
	scopeRoom   = "room"
	scopePlayer = "player"
	scopeExcept = "except"
)

type emission struct {
	Scope   string
	Target  string
	Except  string
	Event   string
	Payload any
}

func toRoom(event string, payload any) emission {
	return emission{Scope: scopeRoom, Target: testRoom, Event: event, Payload: payload}
}

func toPlayer(id, event string, payload any) emission {
	return emission{Scope: scopePlayer, Target: id, Event: event, Payload: payload}
}

func toRoomExcept(id, event string, payload any) emission {
	return emission{Scope: scopeExcept, Target: testRoom, Except: id, Event: event, Payload: payload}
}

type recordingBroadcaster struct {
	mu        sync.Mutex
	emissions []emission
	events    chan emission
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{events: make(chan emission, 1024)}
}

func (rb *recordingBroadcaster) record(e emission) {
	rb.mu.Lock()
	rb.emissions = append(rb.emissions, e)
	rb.mu.Unlock()
	select {
	case rb.events <- e:
	default:
	}
}

func (rb *recordingBroadcaster) EmitToRoom(roomId, event string, payload any) {
	rb.record(emission{Scope: scopeRoom, Target: roomId, Event: event, Payload: payload})
}

func (rb *recordingBroadcaster) EmitToParticipant(playerId, event string, payload any) {
	rb.record(emission{Scope: scopePlayer, Target: playerId, Event: event, Payload: payload})
}

func (rb *recordingBroadcaster) EmitToRoomExcept(roomId, playerId, event string, payload any) {
	rb.record(emission{Scope: scopeExcept, Target: roomId, Except: playerId, Event: event, Payload: payload})
}

func (rb *recordingBroadcaster) all() []emission {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return append([]emission{}, rb.emissions...)
}

func (rb *recordingBroadcaster) reset() {
	rb.mu.Lock()
	rb.emissions = nil
	rb.mu.Unlock()
}

func (rb *recordingBroadcaster) byEvent(event string) []emission {
	res := []emission{}
	for _, e := range rb.all() {
		if e.Event == event {
			res = append(res, e)
		}
	}
	return res
}

type fakeConn struct {
	id       string
	name     string
	done     chan struct{}
	leftOnce sync.Once
}

func newFakeConn(id, name string) *fakeConn {
	return &fakeConn{id: id, name: name, done: make(chan struct{})}
}

func (fc *fakeConn) ID() string            { return fc.id }
func (fc *fakeConn) Username() string      { return fc.name }
func (fc *fakeConn) Done() <-chan struct{} { return fc.done }

func (fc *fakeConn) leave() {
	fc.leftOnce.Do(func() { close(fc.done) })
}

type fakeRegistry struct {
	mu    sync.RWMutex
	conns map[string]Connection
}

func newFakeRegistry(conns ...*fakeConn) *fakeRegistry {
	r := &fakeRegistry{conns: map[string]Connection{}}
	for _, c := range conns {
		r.conns[c.id] = c
	}
	return r
}

func (r *fakeRegistry) Lookup(playerId string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[playerId]
	return c, ok
}

func (r *fakeRegistry) remove(playerId string) {
	r.mu.Lock()
	delete(r.conns, playerId)
	r.mu.Unlock()
}

type fakeRoster []domain.Profile

func (fr fakeRoster) Players(roomId string) []domain.Profile {
	return append([]domain.Profile{}, fr...)
}

type fakeTimer struct {
	fire chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{fire: make(chan time.Time)}
}

func (ft *fakeTimer) After(d time.Duration) <-chan time.Time {
	return ft.fire
}
