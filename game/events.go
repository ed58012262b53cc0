package game

import (
	"encoding/json"

	"github.com/Low-P1ng/Doodlerush/domain"
)

const (
	EventStartGame     = "startGame"
	EventChooseWord    = "chooseWord"
	EventHideWord      = "hideWord"
	EventDisableCanvas = "disableCanvas"
	EventChoosing      = "choosing"
	EventClearCanvas   = "clearCanvas"
	EventHints         = "hints"
	EventStartTimer    = "startTimer"
	EventLastWord      = "lastWord"
	EventMessage       = "message"
	EventCorrectGuess  = "correctGuess"
	EventCloseGuess    = "closeGuess"
	EventUpdateScore   = "updateScore"
	EventGetPlayers    = "getPlayers"
	EventEndGame       = "endGame"
	EventDrawing       = "drawing"
	EventError         = "error"
)

const (
	correctGuessPrivateMsg = "You guessed it right!"
	correctGuessRoomMsg    = "%s has guessed the word!"
	closeGuessMsg          = "That was very close!"
)

// Packet is the wire envelope in both directions.
type Packet struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ChatMessage struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

type ChoosingPayload struct {
	Name string `json:"name"`
}

type WordPayload struct {
	Word string `json:"word"`
}

type TimerPayload struct {
	Time int `json:"time"`
}

type Notice struct {
	Message string `json:"message"`
	Id      string `json:"id,omitempty"`
}

type ScoreUpdate struct {
	PlayerId    string `json:"playerId"`
	Score       int    `json:"score"`
	DrawerId    string `json:"drawerId"`
	DrawerScore int    `json:"drawerScore"`
}

type EndGamePayload struct {
	Standings []domain.Standing `json:"standings"`
}

// Hint is the word as it should look once the countdown reaches DisplayTime.
type Hint struct {
	Hint        string `json:"hint"`
	DisplayTime int    `json:"displayTime"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
