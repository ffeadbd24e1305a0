package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/session"
)

const maxBodyBytes = 1 << 20

type startRequest struct {
	Subject    string `json:"subject"`
	Difficulty string `json:"difficulty"`
}

type answerRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r, http.StatusOK)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "no problem source is configured"})
		return
	}

	var req startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
			return
		}
	}

	subject, difficulty := s.subject, s.difficulty
	if req.Subject != "" {
		sub, err := exam.ParseSubject(req.Subject)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		subject = sub
	}
	if req.Difficulty != "" {
		d, err := exam.ParseDifficulty(req.Difficulty)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		difficulty = d
	}

	count := s.engine.Config().ExamLength
	s.logger.Info("generating exam", "subject", subject, "difficulty", difficulty, "count", count)
	problems, err := problemgen.BuildExam(r.Context(), s.source, problemgen.ExamRequest{
		Subject:    subject,
		Difficulty: difficulty,
		Count:      count,
	}, func(done, total int) {
		s.logger.Debug("problem generated", "done", done, "total", total)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.Start(problems); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusCreated)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.engine.End)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.engine.Next)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.engine.Previous)
}

func (s *Server) handleSetAnswer(w http.ResponseWriter, r *http.Request) {
	problemID := chi.URLParam(r, "problemID")

	var req answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	s.command(w, r, func() error { return s.engine.SetAnswer(problemID, req.Text) })
}

// handleSubmit waits for the grading pass. A client that disconnects does
// not stop grading.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Submit(r.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusOK)
}

func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func() error) {
	if err := fn(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusOK)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, status int) {
	tr := i18n.FromContext(r.Context())
	view := newSessionView(s.engine.Snapshot(), func(err error) *errorBody {
		return collaboratorError(tr, err)
	})
	writeJSON(w, status, view)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusBadGateway {
		body = *collaboratorError(i18n.FromContext(r.Context()), err)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

// statusOf maps engine and collaborator errors to HTTP status codes.
func statusOf(err error) int {
	var classified llm.Classified
	switch {
	case errors.Is(err, session.ErrInvalidSessionConfig),
		errors.Is(err, session.ErrUnknownProblem):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionAlreadyActive),
		errors.Is(err, session.ErrSessionSubmitted),
		errors.Is(err, session.ErrGradingInProgress),
		errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, session.ErrEngineClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &classified), errors.Is(err, session.ErrResultMismatch):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func collaboratorError(tr *i18n.Translator, err error) *errorBody {
	kind := kindOf(err)
	return &errorBody{
		Error:  err.Error(),
		Kind:   string(kind),
		Reason: tr.Reason(kind),
	}
}

func kindOf(err error) llm.FailureKind {
	if errors.Is(err, session.ErrResultMismatch) {
		return llm.FailureMalformedResponse
	}
	return llm.KindOf(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
