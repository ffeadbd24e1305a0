package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/mockexam/internal/store"
)

// LoggingProvider is a decorator that records every LLM request in the
// request log and emits a structured log line for it.
type LoggingProvider struct {
	inner    Provider
	provider string
	repo     store.EventRepo
	logger   *slog.Logger
}

// WithLogging wraps a Provider with request logging. repo may be nil, in
// which case requests are only written to the logger.
func WithLogging(p Provider, providerName string, repo store.EventRepo, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, provider: providerName, repo: repo, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		if data.ResponseBody == "" {
			data.ResponseBody = rejectedContent(err)
		}
		l.logger.Warn("llm request failed",
			"purpose", purpose, "model", data.Model, "kind", KindOf(err), "latency_ms", data.LatencyMs, "error", err)
	} else {
		l.logger.Debug("llm request",
			"purpose", purpose, "model", data.Model, "input_tokens", data.InputTokens,
			"output_tokens", data.OutputTokens, "latency_ms", data.LatencyMs)
	}

	if l.repo != nil {
		// A failed log write never fails the request.
		if logErr := l.repo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			l.logger.Warn("failed to record llm request", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// rejectedContent returns the model output behind a malformed or
// truncated response, so the request log shows what was rejected.
func rejectedContent(err error) string {
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		return string(invalid.Content)
	}
	var truncated *ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return string(truncated.Content)
	}
	return ""
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		if schemaDef, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
