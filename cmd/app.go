package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockexam/internal/app"
	"github.com/abhisek/mockexam/internal/grading"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/selfupdate"
)

// runApp opens the store, builds dependencies, and launches the TUI. With
// direct set, the app starts inside an exam for the configured selection.
func runApp(cmd *cobra.Command, direct bool) error {
	ctx := cmd.Context()
	e, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	subject, difficulty, err := e.cfg.Exam.Selection()
	if err != nil {
		return err
	}

	deps := screen.Deps{
		Translator: e.tr,
		Logger:     e.logger,
		Subject:    subject,
		Difficulty: difficulty,
	}

	if st, err := e.openStore(); err != nil {
		e.logger.Warn("history unavailable", "error", err)
		fmt.Fprintln(os.Stderr, "Database unavailable:", err)
	} else {
		deps.Attempts = st.AttemptRepo()
		deps.Problems = st.ProblemRepo()
	}

	tracker := &grading.Tracker{}
	deps.Grading = tracker

	provider, providerErr := e.provider(ctx)
	if providerErr != nil {
		e.logger.Warn("LLM provider not configured", "error", providerErr)
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", providerErr)
		fmt.Fprintln(os.Stderr, "Exams cannot be generated until an API key is set.")
	} else {
		deps.Source = e.source(provider)
	}

	pipeline := e.grader(provider, tracker)
	if provider != nil {
		deps.Grader = pipeline
	}
	eng, err := e.engine(pipeline)
	if err != nil {
		return err
	}
	defer eng.Close()
	deps.Engine = eng

	deps.LatestVersion = latestVersion(ctx)

	if direct {
		if deps.Source == nil {
			return fmt.Errorf("cannot start an exam: %w", providerErr)
		}
		return app.RunExam(deps, problemgen.ExamRequest{
			Subject:    subject,
			Difficulty: difficulty,
			Count:      eng.Config().ExamLength,
		})
	}
	return app.Run(deps)
}

// latestVersion looks for a newer release without delaying startup for long.
func latestVersion(ctx context.Context) string {
	if version == "(devel)" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return selfupdate.NewChecker().LatestVersion(ctx, version)
}
