package game

import "errors"

var (
	ErrSessionNotFound    = errors.New("session-not-found")
	ErrSessionRunning     = errors.New("session-running")
	ErrConnectionNotFound = errors.New("connection-not-found")
	ErrDrawerDisconnected = errors.New("drawer-disconnected")
	ErrInboxFull          = errors.New("inbox-full")
)

var (
	ErrRoomNotFound       = errors.New("room-not-found")
	ErrRoomFull           = errors.New("room-full")
	ErrWrongPassword      = errors.New("wrong-password")
	ErrNotHost            = errors.New("not-host")
	ErrNotEnoughPlayers   = errors.New("not-enough-players")
	ErrGameAlreadyStarted = errors.New("game-already-started")
)

var ErrSendBufferFull = errors.New("send-buffer-full")
