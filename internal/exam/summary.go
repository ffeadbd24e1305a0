package exam

import (
	"fmt"
	"math"
	"time"
)

// Summary is derived from a finished attempt. It is computed on read and
// never stored by the session engine.
type Summary struct {
	Total        int
	Correct      int
	AverageScore int
	Elapsed      time.Duration
}

// Summarize computes the summary of graded results. elapsedSeconds is the
// configured duration minus the remaining time.
func Summarize(results []GradingResult, elapsedSeconds int) Summary {
	s := Summary{
		Total:   len(results),
		Elapsed: time.Duration(max(elapsedSeconds, 0)) * time.Second,
	}
	if len(results) == 0 {
		return s
	}

	sum := 0
	for _, r := range results {
		sum += r.Score
		if r.IsCorrect {
			s.Correct++
		}
	}
	s.AverageScore = int(math.Round(float64(sum) / float64(len(results))))
	return s
}

// FormatClock renders seconds as MM:SS, or H:MM:SS past an hour.
func FormatClock(seconds int) string {
	seconds = max(seconds, 0)
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
