package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/grading"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/store"
)

type stillTicker struct{ c chan time.Time }

func (t stillTicker) C() <-chan time.Time { return t.c }
func (t stillTicker) Stop()               {}

func stillClock(time.Duration) session.Ticker { return stillTicker{c: make(chan time.Time)} }

type fakeSource struct {
	mu  sync.Mutex
	n   int
	err error
}

func (f *fakeSource) Generate(_ context.Context, in problemgen.GenerateInput) (*exam.Problem, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return &exam.Problem{
		ID:          fmt.Sprintf("p%d", f.n),
		Subject:     in.Subject,
		Difficulty:  in.Difficulty,
		Question:    fmt.Sprintf("question %d", f.n),
		Answer:      "answer",
		Explanation: "because",
		Type:        exam.ResponseShort,
		Keywords:    []string{"key"},
	}, nil
}

type fakeGrader struct {
	mu  sync.Mutex
	err error
}

func (g *fakeGrader) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakeGrader) GradeAll(_ context.Context, problems []exam.Problem, answers map[string]string) ([]exam.GradingResult, error) {
	g.mu.Lock()
	err := g.err
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]exam.GradingResult, len(problems))
	for i, p := range problems {
		ok := answers[p.ID] == p.Answer
		score := 0
		if ok {
			score = 100
		}
		out[i] = exam.GradingResult{IsCorrect: ok, Score: score, UserAnswer: answers[p.ID], CorrectAnswer: p.Answer}
	}
	return out, nil
}

type fixture struct {
	engine *session.Engine
	grader *fakeGrader
	source *fakeSource
	srv    *httptest.Server
}

func newFixture(t *testing.T, policy session.StartPolicy, opts ...Option) *fixture {
	t.Helper()
	cfg := session.DefaultConfig()
	cfg.ExamLength = 3
	cfg.StartPolicy = policy

	g := &fakeGrader{}
	eng, err := session.NewEngine(g, cfg, session.WithTicker(stillClock), session.WithSubmitted(4))
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	src := &fakeSource{}
	s := New(eng, append([]Option{WithSource(src)}, opts...)...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &fixture{engine: eng, grader: g, source: src, srv: ts}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (f *fixture) start(t *testing.T) map[string]any {
	t.Helper()
	status, body := f.do(t, http.MethodPost, "/api/session", `{"subject":"network","difficulty":"advanced"}`)
	require.Equal(t, http.StatusCreated, status, body)
	return body
}

func problemsOf(body map[string]any) []map[string]any {
	raw, _ := body["problems"].([]any)
	out := make([]map[string]any, len(raw))
	for i, p := range raw {
		out[i], _ = p.(map[string]any)
	}
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	status, body := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestGetIdleSession(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	status, body := f.do(t, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["active"])
	assert.Equal(t, "idle", body["phase"])
	assert.Equal(t, "1:30:00", body["clock"])
}

func TestStartSession(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	body := f.start(t)

	assert.Equal(t, true, body["active"])
	problems := problemsOf(body)
	require.Len(t, problems, 3)
	for _, p := range problems {
		assert.Equal(t, "network", p["subject"])
		assert.Equal(t, "advanced", p["difficulty"])
		assert.Empty(t, p["answer"], "model answers stay hidden before submission")
		assert.Empty(t, p["explanation"])
	}
	assert.Equal(t, float64(5400), body["timeRemaining"])
}

func TestStartUsesDefaultSelection(t *testing.T) {
	f := newFixture(t, session.StartOverwrite, WithDefaultSelection(exam.SubjectSecurity, exam.DifficultyIntermediate))
	status, body := f.do(t, http.MethodPost, "/api/session", "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "security", problemsOf(body)[0]["subject"])
	assert.Equal(t, "intermediate", problemsOf(body)[0]["difficulty"])
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)

	status, _ := f.do(t, http.MethodPost, "/api/session", `{"subject":"astrology"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPost, "/api/session", `{"difficulty":"legendary"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPost, "/api/session", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStartWithoutSource(t *testing.T) {
	cfg := session.DefaultConfig()
	eng, err := session.NewEngine(&fakeGrader{}, cfg, session.WithTicker(stillClock))
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	ts := httptest.NewServer(New(eng).Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/api/session", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStartGenerationFailure(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	f.source.err = &problemgen.GenerationError{Kind: llm.FailureRateLimited, Err: errors.New("429")}

	status, body := f.do(t, http.MethodPost, "/api/session", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "rate_limited", body["kind"])
	assert.Equal(t, "the service is rate limiting requests", body["reason"])

	status, body = f.do(t, http.MethodPost, "/api/session", "", "Accept-Language", "ko")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "요청 한도를 초과했습니다", body["reason"])

	assert.False(t, f.engine.Snapshot().Active, "a failed generation never starts a session")
}

func TestStartWhileActive(t *testing.T) {
	f := newFixture(t, session.StartReject)
	f.start(t)

	status, _ := f.do(t, http.MethodPost, "/api/session", "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestCommandsWithoutSession(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/session/next", ""},
		{http.MethodPost, "/api/session/previous", ""},
		{http.MethodPut, "/api/session/answers/p1", `{"text":"x"}`},
	} {
		status, body := f.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusConflict, status, tc.path)
		assert.Contains(t, body["error"], "no active session")
	}

	// Ending an idle session is a no-op.
	status, _ := f.do(t, http.MethodDelete, "/api/session", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestAnswerAndNavigate(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	f.start(t)

	status, body := f.do(t, http.MethodPut, "/api/session/answers/p1", `{"text":"answer"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["answered"])

	status, body = f.do(t, http.MethodPost, "/api/session/next", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["currentIndex"])

	status, body = f.do(t, http.MethodPost, "/api/session/previous", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["currentIndex"])

	status, _ = f.do(t, http.MethodPut, "/api/session/answers/nope", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPut, "/api/session/answers/p1", `oops`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	f.start(t)
	f.do(t, http.MethodPut, "/api/session/answers/p1", `{"text":"answer"}`)
	f.do(t, http.MethodPut, "/api/session/answers/p2", `{"text":"wrong"}`)

	status, body := f.do(t, http.MethodPost, "/api/session/submit", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["submitted"])
	assert.Equal(t, "submitted", body["phase"])

	results, _ := body["results"].([]any)
	assert.Len(t, results, 3)

	summary, _ := body["summary"].(map[string]any)
	require.NotNil(t, summary)
	assert.Equal(t, float64(1), summary["correct"])
	assert.Equal(t, float64(33), summary["averageScore"])

	assert.Equal(t, "answer", problemsOf(body)[0]["answer"], "model answers are revealed after submission")

	status, _ = f.do(t, http.MethodPut, "/api/session/answers/p3", `{"text":"late"}`)
	assert.Equal(t, http.StatusConflict, status)

	// Navigation still works for reviewing results.
	status, _ = f.do(t, http.MethodPost, "/api/session/next", "")
	assert.Equal(t, http.StatusOK, status)

	// A second submit is a no-op.
	status, _ = f.do(t, http.MethodPost, "/api/session/submit", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestSubmitFailureKeepsAnswers(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	f.start(t)
	f.do(t, http.MethodPut, "/api/session/answers/p1", `{"text":"kept"}`)
	f.grader.fail(&grading.GradingError{Kind: llm.FailureAuthInvalid, ProblemID: "p2", Index: 1, Err: errors.New("401")})

	status, body := f.do(t, http.MethodPost, "/api/session/submit", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "auth_invalid", body["kind"])
	assert.Equal(t, "the API key was rejected", body["reason"])

	status, body = f.do(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "failed", body["phase"])
	assert.Equal(t, false, body["submitted"])
	answers, _ := body["answers"].(map[string]any)
	assert.Equal(t, "kept", answers["p1"])
	lastErr, _ := body["lastError"].(map[string]any)
	assert.Equal(t, "auth_invalid", lastErr["kind"])

	// Retrying after the failure succeeds.
	f.grader.fail(nil)
	status, body = f.do(t, http.MethodPost, "/api/session/submit", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["submitted"])
}

func TestEndSession(t *testing.T) {
	f := newFixture(t, session.StartOverwrite)
	f.start(t)

	status, body := f.do(t, http.MethodDelete, "/api/session", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["active"])
	assert.Empty(t, problemsOf(body))
}

func TestRecordAttempts(t *testing.T) {
	st, err := store.Open("file:api_attempts?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := newFixture(t, session.StartOverwrite)
	s := New(f.engine, WithAttempts(st.AttemptRepo()))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.RecordAttempts(ctx)

	body := f.start(t)
	id, _ := body["id"].(string)
	f.do(t, http.MethodPut, "/api/session/answers/p1", `{"text":"answer"}`)
	status, _ := f.do(t, http.MethodPost, "/api/session/submit", "")
	require.Equal(t, http.StatusOK, status)

	require.Eventually(t, func() bool {
		a, err := st.AttemptRepo().GetAttempt(context.Background(), id)
		return err == nil && a != nil
	}, 2*time.Second, 10*time.Millisecond)

	a, err := st.AttemptRepo().GetAttempt(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, exam.SubjectNetwork, a.Subject)
	assert.Equal(t, 1, a.Summary.Correct)
	assert.Len(t, a.Results, 3)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: no problems", session.ErrInvalidSessionConfig), http.StatusBadRequest},
		{session.ErrUnknownProblem, http.StatusBadRequest},
		{session.ErrSessionAlreadyActive, http.StatusConflict},
		{session.ErrSessionSubmitted, http.StatusConflict},
		{session.ErrGradingInProgress, http.StatusConflict},
		{session.ErrNoActiveSession, http.StatusConflict},
		{session.ErrSessionEnded, http.StatusConflict},
		{session.ErrEngineClosed, http.StatusServiceUnavailable},
		{&grading.GradingError{Kind: llm.FailureMalformedResponse, Err: errors.New("x")}, http.StatusBadGateway},
		{fmt.Errorf("problem 2 of 3: %w", &problemgen.GenerationError{Kind: llm.FailureServiceUnavailable, Err: errors.New("x")}), http.StatusBadGateway},
		{session.ErrResultMismatch, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, session.StartOverwrite, WithAllowedOrigins([]string{"http://localhost:3000"}))

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/session/submit", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
