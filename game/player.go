package game

import (
	"encoding/json"
	"sync"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type WebsocketConnection interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// PacketRouter receives what a player's socket reads.
type PacketRouter interface {
	Route(p *Player, pkt Packet)
	Leave(p *Player)
}

type Player struct {
	id          string
	username    string
	roomId      string
	rateLimiter *rate.Limiter
	inbox       chan []byte
	pingChan    chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	closeReason string
	logger      zerolog.Logger
}

func NewPlayer(id, username, roomId string, logger zerolog.Logger) *Player {
	return &Player{
		id:          id,
		username:    username,
		roomId:      roomId,
		rateLimiter: rate.NewLimiter(2, 5),
		inbox:       make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
		done:        make(chan struct{}),
		logger:      logger.With().Str("player", id).Str("room", roomId).Logger(),
	}
}

func (p *Player) ID() string            { return p.id }
func (p *Player) Username() string      { return p.username }
func (p *Player) RoomId() string        { return p.roomId }
func (p *Player) Done() <-chan struct{} { return p.done }

func (p *Player) Profile() domain.Profile {
	return domain.Profile{Id: p.id, Name: p.username}
}

// Send queues data for the write pump without blocking.
func (p *Player) Send(data []byte) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	select {
	case p.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *Player) Ping() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// Kick disconnects the player. The write pump closes the socket with reason.
func (p *Player) Kick(reason string) {
	p.closeOnce.Do(func() {
		p.closeReason = reason
		close(p.done)
	})
}

func (p *Player) ReadPump(socket WebsocketConnection, router PacketRouter) {
	defer func() {
		p.Kick("")
		router.Leave(p)
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			return
		}

		var pkt Packet
		if err := json.Unmarshal(data, &pkt); err != nil || pkt.Event == "" {
			p.logger.Debug().Msg("dropping malformed packet")
			continue
		}

		if pkt.Event == EventMessage && !p.rateLimiter.Allow() {
			p.logger.Debug().Msg("chat rate limit hit")
			continue
		}

		router.Route(p, pkt)
	}
}

func (p *Player) WritePump(socket WebsocketConnection) {
	for {
		select {
		case data := <-p.inbox:
			if err := socket.Write(data); err != nil {
				p.Kick("")
				socket.Close("")
				return
			}
		case <-p.pingChan:
			if err := socket.Ping(); err != nil {
				p.Kick("")
				socket.Close("")
				return
			}
		case <-p.done:
			socket.Close(p.closeReason)
			return
		}
	}
}
