package session

// EventType identifies an Engine notification.
type EventType int

const (
	EventStateChanged   EventType = iota // Any accepted command changed the session
	EventGradingStarted                  // A grading pass began
	EventGradingFailed                   // A grading pass failed; Err is set
	EventSubmitted                       // Results were committed
)

func (t EventType) String() string {
	switch t {
	case EventGradingStarted:
		return "grading_started"
	case EventGradingFailed:
		return "grading_failed"
	case EventSubmitted:
		return "submitted"
	}
	return "state_changed"
}

// Event carries a snapshot of the session after a transition.
type Event struct {
	Type    EventType
	Session Session
	Err     error
}
