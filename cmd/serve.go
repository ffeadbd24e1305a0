package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockexam/internal/api"
	"github.com/abhisek/mockexam/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the exam session over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		subject, difficulty, err := e.cfg.Exam.Selection()
		if err != nil {
			return err
		}

		st, err := e.openStore()
		if err != nil {
			return err
		}

		provider, err := e.provider(ctx)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		eng, err := e.engine(e.grader(provider, nil), session.WithSubmitted(16))
		if err != nil {
			return err
		}
		defer eng.Close()

		srv := api.New(eng,
			api.WithSource(e.source(provider)),
			api.WithAttempts(st.AttemptRepo()),
			api.WithLogger(e.logger),
			api.WithLanguage(e.tr.Lang()),
			api.WithAllowedOrigins(e.cfg.Serve.AllowedOrigins),
			api.WithDefaultSelection(subject, difficulty),
		)

		e.logger.Info("serving exam sessions",
			"addr", e.cfg.Serve.Addr,
			"provider", e.cfg.LLM.Provider,
			"length", eng.Config().ExamLength,
			"duration", eng.Config().Duration,
			"lang", e.tr.Lang(),
		)
		return srv.ListenAndServe(ctx, e.cfg.Serve.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	serveCmd.Flags().String("subject", "", "Default subject for new sessions")
	serveCmd.Flags().String("difficulty", "", "Default difficulty for new sessions")
	serveCmd.Flags().Int("length", 0, "Number of problems (default 25)")
	serveCmd.Flags().Duration("duration", 0, "Time limit (default 90m)")
}
