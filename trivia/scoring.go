/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"math"
	"time"
)

const (
	basePoints  = 100
	bonusPerSec = 10
)

// Score returns the points awarded for submitting the given option after
// elapsed time. Correct answers earn basePoints plus a bonus that decays
// linearly to zero at the question's time limit; wrong answers earn nothing.
func Score(q Question, submitted int, elapsed time.Duration) int {
	if submitted != q.CorrectOption {
		return 0
	}

	remaining := math.Max(0, float64(q.TimeLimit)-math.Max(0, elapsed.Seconds()))

	return basePoints + int(math.Floor(remaining*bonusPerSec))
}
