package game

import "time"

type ticker struct{}

func (t *ticker) Create(duration time.Duration) <-chan time.Time {
	return time.NewTicker(duration).C
}

func NewTickerGen() *ticker {
	return &ticker{}
}

type wallClock struct{}

func (wallClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func NewWallClock() Timer {
	return wallClock{}
}
