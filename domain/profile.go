package domain

// Profile is what other participants get to see about a player.
type Profile struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// Standing is one line of a finished game's scoreboard.
type Standing struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
