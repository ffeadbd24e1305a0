package session

import "errors"

var (
	// ErrInvalidSessionConfig is returned by Start for an unusable problem set.
	ErrInvalidSessionConfig = errors.New("invalid session config")

	// ErrSessionAlreadyActive is returned by Start under StartReject.
	ErrSessionAlreadyActive = errors.New("a session is already active")

	ErrNoActiveSession   = errors.New("no active session")
	ErrSessionSubmitted  = errors.New("session already submitted")
	ErrGradingInProgress = errors.New("grading in progress")
	ErrUnknownProblem    = errors.New("unknown problem")

	// ErrSessionEnded is returned to Submit callers whose session was ended
	// or replaced before grading finished.
	ErrSessionEnded = errors.New("session ended before grading finished")

	// ErrResultMismatch marks a grading pass that did not return one result
	// per problem.
	ErrResultMismatch = errors.New("grading returned a wrong number of results")

	// ErrEngineClosed is returned by every Engine call after Close.
	ErrEngineClosed = errors.New("session engine closed")
)
