package game

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/Low-P1ng/Doodlerush/storage"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

var (
	ErrUnauthenticatedStr      = "unauthenticated"
	ErrInvalidRequestFormatStr = "invalid-request-format"
	ErrUnknownStr              = "unknown-error"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type ResultsReader interface {
	RecentResults(ctx context.Context, limit int) ([]storage.GameResult, error)
}

type gameHandler struct {
	hub       *Hub
	hasher    PasswordHasher
	results   ResultsReader
	publicURL string
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

// NewGameHandler builds the game routes' handlers. results may be nil when
// no archive is configured.
func NewGameHandler(hub *Hub, hasher PasswordHasher, results ResultsReader, publicURL string, allowedOrigins []string, logger zerolog.Logger) *gameHandler {
	return &gameHandler{
		hub:       hub,
		hasher:    hasher,
		results:   results,
		publicURL: publicURL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		logger: logger,
	}
}

func validateRoomConfig(cfg RoomConfig) error {
	switch {
	case cfg.Rounds < 1:
		return errors.New("rounds must be at least 1")
	case cfg.Rounds > 10:
		return errors.New("rounds cannot exceed 10")
	case cfg.DrawTime < 30:
		return errors.New("drawTime must be at least 30")
	case cfg.DrawTime > 300:
		return errors.New("drawTime cannot exceed 300")
	case cfg.MaxPlayers < 2:
		return errors.New("maxPlayers must be at least 2")
	case cfg.MaxPlayers > 20:
		return errors.New("maxPlayers cannot exceed 20")
	case len(cfg.Password) > 64:
		return errors.New("password cannot exceed 64 characters")
	}
	return nil
}

func (h *gameHandler) CreateRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		ctx.String(http.StatusUnauthorized, ErrUnauthenticatedStr)
		ctx.Abort()
		return
	}

	var cfg RoomConfig
	if err := ctx.ShouldBindJSON(&cfg); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	if err := validateRoomConfig(cfg); err != nil {
		ctx.String(http.StatusBadRequest, err.Error())
		ctx.Abort()
		return
	}

	passwordHash := ""
	if cfg.Password != "" {
		hash, err := h.hasher.Hash(cfg.Password)
		if err != nil {
			h.logger.Error().Err(err).Str("player", id).Msg("hashing room password")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
			ctx.Abort()
			return
		}
		passwordHash = hash
	}

	roomId := h.hub.CreateRoom(id, cfg, passwordHash)
	ctx.JSON(http.StatusCreated, gin.H{"roomId": roomId})
}

func (h *gameHandler) ListRoomsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.hub.PublicRooms())
}

func (h *gameHandler) JoinRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	name := ctx.GetString("name")
	if id == "" {
		ctx.String(http.StatusUnauthorized, ErrUnauthenticatedStr)
		ctx.Abort()
		return
	}

	roomId := ctx.Param("roomid")
	passwordHash, err := h.hub.CheckJoin(roomId, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			ctx.String(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRoomFull):
			ctx.String(http.StatusConflict, err.Error())
		default:
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	if passwordHash != "" {
		match, err := h.hasher.Compare(passwordHash, ctx.Query("password"))
		if err != nil {
			h.logger.Error().Err(err).Str("room", roomId).Msg("comparing room password")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
			ctx.Abort()
			return
		}
		if !match {
			ctx.String(http.StatusForbidden, ErrWrongPassword.Error())
			ctx.Abort()
			return
		}
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("room", roomId).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	player := NewPlayer(id, name, roomId, h.logger)
	if err := h.hub.Join(player); err != nil {
		socket.Close(err.Error())
		return
	}

	go player.WritePump(socket)
	go player.ReadPump(socket, h.hub)
}

func (h *gameHandler) QRCodeHandler(ctx *gin.Context) {
	roomId := ctx.Param("roomid")
	if !h.hub.RoomExists(roomId) {
		ctx.String(http.StatusNotFound, ErrRoomNotFound.Error())
		ctx.Abort()
		return
	}

	png, err := qrcode.Encode(fmt.Sprintf("%s/rooms/%s", h.publicURL, roomId), qrcode.Medium, 256)
	if err != nil {
		h.logger.Error().Err(err).Str("room", roomId).Msg("encoding qr code")
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		ctx.Abort()
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}

func (h *gameHandler) ResultsHandler(ctx *gin.Context) {
	if h.results == nil {
		ctx.String(http.StatusNotFound, "history-disabled")
		ctx.Abort()
		return
	}

	limit := 10
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			ctx.String(http.StatusBadRequest, "limit must be between 1 and 50")
			ctx.Abort()
			return
		}
		limit = n
	}

	results, err := h.results.RecentResults(ctx.Request.Context(), limit)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			ctx.String(http.StatusGatewayTimeout, "server-timeout")
		case errors.Is(err, context.Canceled):
			ctx.Status(499)
		default:
			h.logger.Error().Err(err).Msg("reading game results")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	ctx.JSON(http.StatusOK, results)
}
