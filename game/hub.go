package game

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const pingInterval = 30 * time.Second

// GameRunner is the part of Service the hub drives.
type GameRunner interface {
	CreateSession(roomId string, settings Settings) error
	Start(ctx context.Context, roomId string) error
	Deliver(roomId string, env Envelope) error
}

type RoomConfig struct {
	Rounds     int    `json:"rounds"`
	DrawTime   int    `json:"drawTime"`
	MaxPlayers int    `json:"maxPlayers"`
	Private    bool   `json:"private"`
	Password   string `json:"password"`
}

type RoomDescription struct {
	Id         string `json:"id"`
	Host       string `json:"host"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Rounds     int    `json:"rounds"`
	DrawTime   int    `json:"drawTime"`
	Locked     bool   `json:"locked"`
}

type room struct {
	id           string
	hostId       string
	private      bool
	passwordHash string
	maxPlayers   int
	settings     Settings
	playing      bool
	members      []string
}

// Hub tracks connected players and rooms. It is the connection registry,
// roster source and broadcaster of every session in the process.
type Hub struct {
	ctx           context.Context
	locker        sync.RWMutex
	players       map[string]*Player
	rooms         map[string]*room
	game          GameRunner
	idgen         func() string
	tickerCreator PeriodicTickerChannelCreator
	logger        zerolog.Logger
}

// NewHub creates a hub. Games it starts run under ctx.
func NewHub(ctx context.Context, tickerCreator PeriodicTickerChannelCreator, logger zerolog.Logger) *Hub {
	return &Hub{
		ctx:           ctx,
		players:       map[string]*Player{},
		rooms:         map[string]*room{},
		idgen:         uuid.NewString,
		tickerCreator: tickerCreator,
		logger:        logger,
	}
}

func (h *Hub) SetGameRunner(g GameRunner) {
	h.game = g
}

// Run pings every player until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	pingTicker := h.tickerCreator.Create(pingInterval)
	for {
		select {
		case <-pingTicker:
			h.pingPlayers()
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *Hub) pingPlayers() {
	h.locker.RLock()
	defer h.locker.RUnlock()
	for _, p := range h.players {
		p.Ping()
	}
}

func (h *Hub) CreateRoom(hostId string, cfg RoomConfig, passwordHash string) string {
	r := &room{
		id:           h.idgen(),
		hostId:       hostId,
		private:      cfg.Private,
		passwordHash: passwordHash,
		maxPlayers:   cfg.MaxPlayers,
		settings: Settings{
			Rounds:   cfg.Rounds,
			DrawTime: time.Duration(cfg.DrawTime) * time.Second,
		},
		members: make([]string, 0, cfg.MaxPlayers),
	}

	h.locker.Lock()
	h.rooms[r.id] = r
	h.locker.Unlock()

	h.logger.Info().Str("room", r.id).Str("host", hostId).Bool("private", r.private).Msg("room created")
	return r.id
}

func (h *Hub) RoomExists(roomId string) bool {
	h.locker.RLock()
	defer h.locker.RUnlock()
	_, ok := h.rooms[roomId]
	return ok
}

// CheckJoin reports whether playerId may join roomId, and the room's password
// hash if it has one.
func (h *Hub) CheckJoin(roomId, playerId string) (string, error) {
	h.locker.RLock()
	defer h.locker.RUnlock()

	r, ok := h.rooms[roomId]
	if !ok {
		return "", ErrRoomNotFound
	}
	if !r.hasMember(playerId) && len(r.members) >= r.maxPlayers {
		return "", ErrRoomFull
	}
	return r.passwordHash, nil
}

// Join registers p in its room. A previous connection of the same player is kicked.
func (h *Hub) Join(p *Player) error {
	h.locker.Lock()
	r, ok := h.rooms[p.roomId]
	if !ok {
		h.locker.Unlock()
		return ErrRoomNotFound
	}

	rejoin := r.hasMember(p.id)
	if !rejoin && len(r.members) >= r.maxPlayers {
		h.locker.Unlock()
		return ErrRoomFull
	}

	if old, exists := h.players[p.id]; exists {
		if old.roomId != p.roomId {
			h.removeLocked(old)
		}
		old.Kick("replaced")
	}

	h.players[p.id] = p
	if !rejoin {
		r.members = append(r.members, p.id)
	}
	h.locker.Unlock()

	p.logger.Info().Msg("player joined")
	h.EmitToRoom(p.roomId, EventGetPlayers, h.Players(p.roomId))
	return nil
}

// Leave unregisters p. It is a no-op for a connection that was already replaced.
func (h *Hub) Leave(p *Player) {
	h.locker.Lock()
	if h.players[p.id] != p {
		h.locker.Unlock()
		return
	}
	h.removeLocked(p)
	h.locker.Unlock()

	p.logger.Info().Msg("player left")
	h.EmitToRoom(p.roomId, EventGetPlayers, h.Players(p.roomId))
}

func (h *Hub) removeLocked(p *Player) {
	delete(h.players, p.id)

	r, ok := h.rooms[p.roomId]
	if !ok {
		return
	}
	for i, id := range r.members {
		if id == p.id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}

	if len(r.members) == 0 {
		if !r.playing {
			delete(h.rooms, r.id)
		}
		return
	}
	if r.hostId == p.id {
		r.hostId = r.members[0]
	}
}

func (h *Hub) PublicRooms() []RoomDescription {
	h.locker.RLock()
	defer h.locker.RUnlock()

	res := make([]RoomDescription, 0, len(h.rooms))
	for _, r := range h.rooms {
		if r.private || r.playing {
			continue
		}
		desc := RoomDescription{
			Id:         r.id,
			Players:    len(r.members),
			MaxPlayers: r.maxPlayers,
			Rounds:     r.settings.Rounds,
			DrawTime:   int(r.settings.DrawTime.Seconds()),
			Locked:     r.passwordHash != "",
		}
		if host, ok := h.players[r.hostId]; ok {
			desc.Host = host.username
		}
		res = append(res, desc)
	}
	return res
}

func (h *Hub) Lookup(playerId string) (Connection, bool) {
	h.locker.RLock()
	defer h.locker.RUnlock()
	p, ok := h.players[playerId]
	if !ok {
		return nil, false
	}
	return p, true
}

func (h *Hub) Players(roomId string) []domain.Profile {
	h.locker.RLock()
	defer h.locker.RUnlock()

	r, ok := h.rooms[roomId]
	if !ok {
		return []domain.Profile{}
	}
	res := make([]domain.Profile, 0, len(r.members))
	for _, id := range r.members {
		if p, ok := h.players[id]; ok {
			res = append(res, p.Profile())
		}
	}
	return res
}

func (h *Hub) EmitToRoom(roomId, event string, payload any) {
	h.emit(h.roomPlayers(roomId, ""), event, payload)
}

func (h *Hub) EmitToRoomExcept(roomId, playerId, event string, payload any) {
	h.emit(h.roomPlayers(roomId, playerId), event, payload)
}

func (h *Hub) EmitToParticipant(playerId, event string, payload any) {
	h.locker.RLock()
	p, ok := h.players[playerId]
	h.locker.RUnlock()
	if !ok {
		return
	}
	h.emit([]*Player{p}, event, payload)
}

func (h *Hub) roomPlayers(roomId, except string) []*Player {
	h.locker.RLock()
	defer h.locker.RUnlock()

	r, ok := h.rooms[roomId]
	if !ok {
		return nil
	}
	res := make([]*Player, 0, len(r.members))
	for _, id := range r.members {
		if id == except {
			continue
		}
		if p, ok := h.players[id]; ok {
			res = append(res, p)
		}
	}
	return res
}

func (h *Hub) emit(to []*Player, event string, payload any) {
	if len(to) == 0 {
		return
	}
	data, err := encodePacket(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("encoding packet")
		return
	}
	for _, p := range to {
		if err := p.Send(data); err != nil {
			p.logger.Warn().Err(err).Str("event", event).Msg("dropping slow player")
			p.Kick(err.Error())
		}
	}
}

func encodePacket(event string, payload any) ([]byte, error) {
	pkt := Packet{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		pkt.Data = data
	}
	return json.Marshal(pkt)
}

func (h *Hub) Route(p *Player, pkt Packet) {
	roomId := p.RoomId()
	switch pkt.Event {
	case EventStartGame:
		h.startGame(p)

	case EventMessage:
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(pkt.Data, &msg); err != nil {
			return
		}
		err := h.game.Deliver(roomId, Envelope{Kind: KindMessage, From: p.id, Text: msg.Message})
		switch {
		case errors.Is(err, ErrSessionNotFound):
			if strings.TrimSpace(msg.Message) != "" {
				h.EmitToRoom(roomId, EventMessage, ChatMessage{Message: msg.Message, Name: p.username})
			}
		case err != nil:
			p.logger.Warn().Err(err).Msg("dropping chat message")
		}

	case EventChooseWord:
		var choice WordPayload
		if err := json.Unmarshal(pkt.Data, &choice); err != nil {
			return
		}
		if err := h.game.Deliver(roomId, Envelope{Kind: KindChooseWord, From: p.id, Word: choice.Word}); err != nil {
			p.logger.Debug().Err(err).Msg("dropping word choice")
		}

	case EventDrawing:
		if err := h.game.Deliver(roomId, Envelope{Kind: KindDrawing, From: p.id, Data: pkt.Data}); err != nil {
			p.logger.Debug().Err(err).Msg("dropping drawing")
		}

	case EventGetPlayers:
		h.EmitToRoom(roomId, EventGetPlayers, h.Players(roomId))

	default:
		p.logger.Debug().Str("event", pkt.Event).Msg("unknown event")
	}
}

func (h *Hub) startGame(p *Player) {
	settings, err := h.claimStart(p)
	if err != nil {
		h.EmitToParticipant(p.id, EventError, ErrorPayload{Error: err.Error()})
		return
	}

	if err := h.game.CreateSession(p.roomId, settings); err != nil {
		h.gameOver(p.roomId)
		h.EmitToParticipant(p.id, EventError, ErrorPayload{Error: err.Error()})
		return
	}

	go func() {
		defer h.gameOver(p.roomId)
		if err := h.game.Start(h.ctx, p.roomId); err != nil {
			h.logger.Warn().Err(err).Str("room", p.roomId).Msg("game stopped early")
		}
	}()
}

func (h *Hub) claimStart(p *Player) (Settings, error) {
	h.locker.Lock()
	defer h.locker.Unlock()

	r, ok := h.rooms[p.roomId]
	switch {
	case !ok:
		return Settings{}, ErrRoomNotFound
	case r.hostId != p.id:
		return Settings{}, ErrNotHost
	case r.playing:
		return Settings{}, ErrGameAlreadyStarted
	case len(r.members) < 2:
		return Settings{}, ErrNotEnoughPlayers
	}
	r.playing = true
	return r.settings, nil
}

func (h *Hub) gameOver(roomId string) {
	h.locker.Lock()
	defer h.locker.Unlock()

	r, ok := h.rooms[roomId]
	if !ok {
		return
	}
	r.playing = false
	if len(r.members) == 0 {
		delete(h.rooms, roomId)
	}
}

func (r *room) hasMember(playerId string) bool {
	return slices.Contains(r.members, playerId)
}
