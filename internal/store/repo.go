package store

import (
	"context"
	"time"

	"github.com/abhisek/mockexam/internal/exam"
)

// QueryOpts configures queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates requests by purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo is the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns requests newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns one request, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

// ProblemRecord is a generated problem kept in the history.
type ProblemRecord struct {
	Sequence  int64
	CreatedAt time.Time
	exam.Problem
}

// ProblemRepo keeps every generated problem.
type ProblemRepo interface {
	SaveProblem(ctx context.Context, p exam.Problem) error

	// RecentProblems returns problems newest first, optionally filtered by
	// subject (empty means all).
	RecentProblems(ctx context.Context, subject exam.Subject, opts QueryOpts) ([]ProblemRecord, error)
}

// Attempt is a finished exam attempt. In-progress sessions are never
// stored.
type Attempt struct {
	ID         string               `json:"id" yaml:"id"`
	Sequence   int64                `json:"sequence" yaml:"sequence"`
	StartedAt  time.Time            `json:"startedAt" yaml:"started_at"`
	FinishedAt time.Time            `json:"finishedAt" yaml:"finished_at"`
	Subject    exam.Subject         `json:"subject" yaml:"subject"`
	Difficulty exam.Difficulty      `json:"difficulty" yaml:"difficulty"`
	Summary    AttemptSummary       `json:"summary" yaml:"summary"`
	Forced     bool                 `json:"forced" yaml:"forced"`
	Problems   []exam.Problem       `json:"problems" yaml:"problems"`
	Answers    map[string]string    `json:"answers" yaml:"answers"`
	Results    []exam.GradingResult `json:"results" yaml:"results"`
}

// AttemptSummary mirrors exam.Summary in a serializable form.
type AttemptSummary struct {
	Total          int `json:"total" yaml:"total"`
	Correct        int `json:"correct" yaml:"correct"`
	AverageScore   int `json:"averageScore" yaml:"average_score"`
	ElapsedSeconds int `json:"elapsedSeconds" yaml:"elapsed_seconds"`
}

// AttemptRepo keeps finished attempts.
type AttemptRepo interface {
	SaveAttempt(ctx context.Context, a *Attempt) error

	// ListAttempts returns attempts newest first without problem detail.
	ListAttempts(ctx context.Context, opts QueryOpts) ([]Attempt, error)

	// GetAttempt returns one attempt with detail, or nil if not found.
	GetAttempt(ctx context.Context, id string) (*Attempt, error)
}
