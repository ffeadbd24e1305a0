package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
)

// recentLimit is how many earlier questions a new problem is told to avoid.
const recentLimit = 30

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one problem and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		subject, difficulty, err := e.cfg.Exam.Selection()
		if err != nil {
			return err
		}

		if _, err := e.openStore(); err != nil {
			e.logger.Warn("problem will not be recorded", "error", err)
		}

		provider, err := e.provider(ctx)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		p, err := e.source(provider).Generate(ctx, problemgen.GenerateInput{
			Subject:        subject,
			Difficulty:     difficulty,
			PriorQuestions: e.recentQuestions(ctx, subject, recentLimit),
		})
		if err != nil {
			return fmt.Errorf("%s: %w", e.tr.Reason(llm.KindOf(err)), err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(p)
	},
}

func init() {
	generateCmd.Flags().String("subject", "", "Subject: database, system, software, network, security")
	generateCmd.Flags().String("difficulty", "", "Difficulty: basic, intermediate, advanced")
}
