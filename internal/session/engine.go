package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mockexam/internal/exam"
)

// Grader grades a whole exam. Implementations must return either one
// result per problem or an error, never both.
type Grader interface {
	GradeAll(ctx context.Context, problems []exam.Problem, answers map[string]string) ([]exam.GradingResult, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithTicker replaces the wall-clock ticker.
func WithTicker(fn TickerFunc) Option {
	return func(e *Engine) { e.newTicker = fn }
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock replaces time.Now for session start times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) Option {
	return func(e *Engine) { e.events = make(chan Event, n) }
}

// WithSubmitted enables the Submitted channel with capacity n.
func WithSubmitted(n int) Option {
	return func(e *Engine) { e.submitted = make(chan Session, n) }
}

type request struct {
	cmd   Command
	reply chan reply // nil for internal commands
	wait  bool       // register a submission waiter
}

type reply struct {
	session Session
	err     error
	done    <-chan error // set for waiting submissions
}

// Engine owns the single session of the process. Commands and timer ticks
// are applied one at a time on the engine's goroutine; grading runs
// concurrently and reports back through the same queue.
type Engine struct {
	cfg       Config
	grader    Grader
	newTicker TickerFunc
	logger    *slog.Logger
	now       func() time.Time

	cmds      chan request
	events    chan Event
	submitted chan Session
	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	snapshot  atomic.Pointer[Session]

	// Owned by the loop goroutine.
	state       Session
	ticker      Ticker
	tickerEpoch uint64
	waiters     []chan error
}

// NewEngine starts an engine with an idle session.
func NewEngine(grader Grader, cfg Config, opts ...Option) (*Engine, error) {
	if grader == nil {
		return nil, errors.New("session engine needs a grader")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:       cfg,
		grader:    grader,
		newTicker: NewTimeTicker,
		logger:    slog.Default(),
		now:       time.Now,
		cmds:      make(chan request),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		state:     Idle(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.publish(e.state)

	go e.loop()
	return e, nil
}

// Config returns the engine's session parameters.
func (e *Engine) Config() Config { return e.cfg }

// Events delivers notifications. Events are dropped when the buffer is full,
// so consumers that must see every submission use Submitted instead.
func (e *Engine) Events() <-chan Event { return e.events }

// Submitted delivers every graded session exactly once, in submission
// order while the buffer has room. Deliveries are never dropped; once the
// buffer is full they wait until the channel is read or the engine closes.
// It is nil unless the engine was created WithSubmitted.
func (e *Engine) Submitted() <-chan Session { return e.submitted }

// Snapshot returns a copy of the current session.
func (e *Engine) Snapshot() Session {
	return e.snapshot.Load().Clone()
}

// Start begins a new session with problems.
func (e *Engine) Start(problems []exam.Problem) error {
	_, err := e.do(Start{ID: uuid.NewString(), Problems: problems, Now: e.now()})
	return err
}

// End abandons the current session. Results of a grading pass still in
// flight are discarded.
func (e *Engine) End() error {
	_, err := e.do(End{})
	return err
}

// Next moves to the next problem.
func (e *Engine) Next() error {
	_, err := e.do(Next{})
	return err
}

// Previous moves to the previous problem.
func (e *Engine) Previous() error {
	_, err := e.do(Previous{})
	return err
}

// SetAnswer records text as the answer to problemID.
func (e *Engine) SetAnswer(problemID, text string) error {
	_, err := e.do(SetAnswer{ProblemID: problemID, Text: text})
	return err
}

// Submit starts grading, or joins the pass already running, and waits
// for it. It returns the grading error, ErrSessionEnded when the session is
// ended or replaced first, or ctx's error. A cancelled wait does not stop
// the pass.
func (e *Engine) Submit(ctx context.Context) error {
	r, err := e.send(request{cmd: Submit{}, reply: make(chan reply, 1), wait: true})
	if err != nil {
		return err
	}
	if r.done == nil {
		return nil
	}
	select {
	case err := <-r.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineClosed
	}
}

// SubmitAsync starts grading without waiting.
func (e *Engine) SubmitAsync() error {
	_, err := e.do(Submit{})
	return err
}

// Close stops the engine. The context of in-flight grading is cancelled
// and its outcome discarded. Events is never closed.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.cancel()
		<-e.stopped
	})
}

func (e *Engine) do(cmd Command) (Session, error) {
	r, err := e.send(request{cmd: cmd, reply: make(chan reply, 1)})
	return r.session, err
}

func (e *Engine) send(req request) (reply, error) {
	select {
	case e.cmds <- req:
	case <-e.done:
		return reply{}, ErrEngineClosed
	}
	select {
	case r := <-req.reply:
		return r, r.err
	case <-e.done:
		return reply{}, ErrEngineClosed
	}
}

func (e *Engine) loop() {
	defer close(e.stopped)
	defer e.stopTicker()

	for {
		var tickC <-chan time.Time
		if e.ticker != nil {
			tickC = e.ticker.C()
		}

		select {
		case req := <-e.cmds:
			r := e.handle(req)
			if req.reply != nil {
				req.reply <- r
			}
		case <-tickC:
			e.handle(request{cmd: Tick{}})
		case <-e.done:
			e.resolveWaiters(ErrEngineClosed)
			return
		}
	}
}

func (e *Engine) handle(req request) reply {
	prev := e.state
	next, effect, err := Apply(prev, req.cmd, e.cfg)
	if err != nil {
		e.logger.Debug("command rejected", "command", commandName(req.cmd), "error", err)
		return reply{session: prev, err: err}
	}
	if gf, ok := req.cmd.(GradingFinished); ok && (gf.Epoch != prev.Epoch || prev.Phase != PhaseGrading) {
		e.logger.Debug("discarded stale grading result", "epoch", gf.Epoch, "current", prev.Epoch)
		return reply{session: prev}
	}
	e.state = next

	if next.Epoch != prev.Epoch {
		e.resolveWaiters(ErrSessionEnded)
	}

	var done <-chan error
	if req.wait {
		done = e.addWaiter(next)
	}

	if effect.Grade != nil {
		e.launchGrading(*effect.Grade)
	}
	e.syncTicker()
	e.report(prev, next)

	return reply{session: next.Clone(), done: done}
}

// addWaiter returns nil when there is nothing to wait for.
func (e *Engine) addWaiter(s Session) <-chan error {
	if s.Phase != PhaseGrading {
		return nil
	}
	ch := make(chan error, 1)
	e.waiters = append(e.waiters, ch)
	return ch
}

func (e *Engine) resolveWaiters(err error) {
	for _, ch := range e.waiters {
		ch <- err
	}
	e.waiters = nil
}

func (e *Engine) launchGrading(job GradeJob) {
	e.logger.Info("grading started",
		"session", e.state.ID, "epoch", job.Epoch, "problems", len(job.Problems), "forced", job.Forced)

	go func() {
		results, err := e.grader.GradeAll(e.ctx, job.Problems, job.Answers)
		if err != nil {
			results = nil
		}
		select {
		case e.cmds <- request{cmd: GradingFinished{Epoch: job.Epoch, Results: results, Err: err}}:
		case <-e.done:
		}
	}()
}

// syncTicker keeps exactly one ticker running per live countdown.
func (e *Engine) syncTicker() {
	s := e.state
	want := s.Active && !s.Submitted && s.TimeRemaining > 0
	if !want {
		e.stopTicker()
		return
	}
	if e.ticker != nil && e.tickerEpoch == s.Epoch {
		return
	}
	e.stopTicker()
	e.ticker = e.newTicker(e.cfg.TickInterval)
	e.tickerEpoch = s.Epoch
}

func (e *Engine) stopTicker() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func (e *Engine) report(prev, next Session) {
	e.publish(next)
	e.emit(Event{Type: EventStateChanged, Session: next.Clone()})

	switch {
	case prev.Phase != PhaseGrading && next.Phase == PhaseGrading:
		e.emit(Event{Type: EventGradingStarted, Session: next.Clone()})

	case prev.Phase == PhaseGrading && next.Phase == PhaseFailed && next.Epoch == prev.Epoch:
		e.logger.Warn("grading failed", "session", next.ID, "error", next.LastError)
		e.resolveWaiters(next.LastError)
		e.emit(Event{Type: EventGradingFailed, Session: next.Clone(), Err: next.LastError})

	case !prev.Submitted && next.Submitted:
		sum, _ := next.Summary()
		e.logger.Info("session submitted",
			"session", next.ID, "forced", next.Forced, "average", sum.AverageScore, "correct", sum.Correct)
		e.resolveWaiters(nil)
		e.emit(Event{Type: EventSubmitted, Session: next.Clone()})
		e.deliverSubmitted(next.Clone())
	}
}

func (e *Engine) publish(s Session) {
	c := s.Clone()
	e.snapshot.Store(&c)
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Debug("event dropped", "type", ev.Type)
	}
}

func (e *Engine) deliverSubmitted(s Session) {
	if e.submitted == nil {
		return
	}
	select {
	case e.submitted <- s:
		return
	default:
	}
	e.logger.Warn("submission buffer full, delivering in background", "session", s.ID)
	go func() {
		select {
		case e.submitted <- s:
		case <-e.done:
			e.logger.Warn("submission not delivered before close", "session", s.ID)
		}
	}()
}

func commandName(cmd Command) string {
	switch cmd.(type) {
	case Start:
		return "start"
	case End:
		return "end"
	case Next:
		return "next"
	case Previous:
		return "previous"
	case SetAnswer:
		return "set_answer"
	case Tick:
		return "tick"
	case Submit:
		return "submit"
	case ForceSubmit:
		return "force_submit"
	case GradingFinished:
		return "grading_finished"
	}
	return "unknown"
}
