package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockexam/internal/config"
	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/grading"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/store"
)

// env holds what every command builds from configuration.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	tr     *i18n.Translator
	store  *store.Store

	closers []io.Closer
}

// setup loads configuration and installs logging. With logToFile set, logs
// never reach the terminal.
func setup(cmd *cobra.Command, logToFile bool) (*env, error) {
	configFile, _ := cmd.Flags().GetString("config")
	v, err := config.New(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger, closer, err := config.SetupLogging(cfg.Log, logToFile)
	if err != nil {
		return nil, err
	}

	tr, err := i18n.New(cfg.Lang)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("load translations: %w", err)
	}

	return &env{cfg: cfg, logger: logger, tr: tr, closers: []io.Closer{closer}}, nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}

// dbPath returns the configured database path, then the default XDG path.
func (e *env) dbPath() (string, error) {
	if e.cfg.DB != "" {
		return e.cfg.DB, store.EnsureDir(e.cfg.DB)
	}
	return store.DefaultDBPath()
}

// openStore opens the database once per command.
func (e *env) openStore() (*store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	path, err := e.dbPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	e.logger.Debug("database opened", "path", path)
	e.store = st
	e.closers = append(e.closers, st)
	return st, nil
}

// provider builds the configured LLM provider. Requests are logged to the
// store when one is open.
func (e *env) provider(ctx context.Context) (llm.Provider, error) {
	if err := e.cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	var repo store.EventRepo
	if e.store != nil {
		repo = e.store.EventRepo()
	}
	return llm.NewProvider(ctx, e.cfg.LLM, repo, e.logger)
}

// source builds the problem source. Generated problems are recorded in the
// store when one is open.
func (e *env) source(p llm.Provider) problemgen.Source {
	cfg := problemgen.DefaultConfig()
	cfg.Language = e.tr.Lang()
	cfg.Logger = e.logger
	if e.store != nil {
		cfg.Recorder = e.store.ProblemRepo()
	}
	return problemgen.New(p, cfg)
}

// grader builds the grading pipeline used for exams and practice. Without a
// provider every grade fails as unavailable; nothing can be generated to
// grade in that case anyway.
func (e *env) grader(p llm.Provider, tracker *grading.Tracker) *grading.Pipeline {
	var oracle grading.Oracle = grading.OracleFunc(func(context.Context, exam.Problem, string) (*exam.GradingResult, error) {
		return nil, &llm.ErrProviderUnavailable{Err: errors.New("no LLM provider configured")}
	})
	if p != nil {
		cfg := grading.DefaultOracleConfig()
		cfg.Language = e.tr.Lang()
		cfg.FallbackFeedback = e.tr.T("FeedbackUnavailable")
		cfg.Logger = e.logger
		oracle = grading.NewLLMOracle(p, cfg)
	}

	opts := []grading.Option{
		grading.WithUnansweredFeedback(e.tr.T("FeedbackUnanswered")),
		grading.WithLogger(e.logger),
	}
	if tracker != nil {
		opts = append(opts, grading.WithProgress(tracker.Report))
	}
	return grading.NewPipeline(oracle, opts...)
}

// recentQuestions returns up to limit earlier questions on subject so new
// ones can avoid them. Without a store there are none.
func (e *env) recentQuestions(ctx context.Context, subject exam.Subject, limit int) []string {
	if e.store == nil {
		return nil
	}
	recent, err := e.store.ProblemRepo().RecentProblems(ctx, subject, store.QueryOpts{Limit: limit})
	if err != nil {
		e.logger.Warn("cannot load recent problems", "error", err)
		return nil
	}
	questions := make([]string, len(recent))
	for i, r := range recent {
		questions[i] = r.Question
	}
	return questions
}

// engine starts a session engine over grader.
func (e *env) engine(grader session.Grader, opts ...session.Option) (*session.Engine, error) {
	sc, err := e.cfg.Exam.Session()
	if err != nil {
		return nil, err
	}
	eng, err := session.NewEngine(grader, sc, append([]session.Option{session.WithLogger(e.logger)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("start session engine: %w", err)
	}
	return eng, nil
}
