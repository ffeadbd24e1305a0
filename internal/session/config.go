package session

import (
	"fmt"
	"strings"
	"time"
)

// Exam defaults.
const (
	DefaultExamLength   = 25
	DefaultDuration     = 90 * time.Minute
	DefaultTickInterval = time.Second
)

// StartPolicy decides what Start does while a session is already active.
type StartPolicy int

const (
	StartOverwrite StartPolicy = iota // Replace the active session
	StartReject                       // Fail with ErrSessionAlreadyActive
)

func (p StartPolicy) String() string {
	if p == StartReject {
		return "reject"
	}
	return "overwrite"
}

// ParseStartPolicy parses "overwrite" or "reject". Empty means overwrite.
func ParseStartPolicy(s string) (StartPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return StartOverwrite, nil
	case "reject":
		return StartReject, nil
	}
	return StartOverwrite, fmt.Errorf("unknown start policy %q (want overwrite or reject)", s)
}

// Config holds the fixed parameters of every session.
type Config struct {
	// ExamLength is the exact number of problems a session starts with.
	// Zero accepts any non-empty problem set.
	ExamLength int

	// Duration is the time allowed per session. It is counted in whole
	// seconds.
	Duration time.Duration

	// TickInterval is the wall-clock cadence of the countdown. Each tick
	// removes exactly one second regardless of the interval.
	TickInterval time.Duration

	StartPolicy StartPolicy
}

// DefaultConfig returns the standard 25 problem, 90 minute exam.
func DefaultConfig() Config {
	return Config{
		ExamLength:   DefaultExamLength,
		Duration:     DefaultDuration,
		TickInterval: DefaultTickInterval,
		StartPolicy:  StartOverwrite,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.ExamLength < 0 {
		return fmt.Errorf("exam length must not be negative, got %d", c.ExamLength)
	}
	if c.Duration < time.Second {
		return fmt.Errorf("exam duration must be at least one second, got %s", c.Duration)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	return nil
}

// TotalSeconds is the starting value of the countdown.
func (c Config) TotalSeconds() int {
	return int(c.Duration / time.Second)
}
