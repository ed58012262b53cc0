package game

import "time"

// LinearScore decays linearly from Max points at turn start down to Min
// points when the draw time runs out.
type LinearScore struct {
	Max int
	Min int
	Now func() time.Time
}

func NewLinearScore() *LinearScore {
	return &LinearScore{Max: 500, Min: 50, Now: time.Now}
}

func (ls *LinearScore) ComputePoints(turnStart time.Time, drawTime time.Duration) int {
	if drawTime <= 0 {
		return ls.Min
	}

	elapsed := ls.Now().Sub(turnStart)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > drawTime {
		elapsed = drawTime
	}

	span := ls.Max - ls.Min
	return ls.Max - int(int64(span)*int64(elapsed)/int64(drawTime))
}
