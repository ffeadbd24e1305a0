package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/screen"
)

// maxAnswerBytes bounds an answer read from stdin.
const maxAnswerBytes = 16 << 10

var errNoAnswer = errors.New("no answer given")

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Answer one generated question and have it graded right away",
	Long: "Generate a single question, read your answer from --answer or stdin, and print\n" +
		"the grade, feedback and model answer. No clock runs and nothing is saved besides\n" +
		"the generated question.",
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

		answer := answerFrom(cmd)
		err = runPractice(ctx, cmd.OutOrStdout(), e.tr, e.source(provider), e.grader(provider, nil),
			problemgen.GenerateInput{
				Subject:        subject,
				Difficulty:     difficulty,
				PriorQuestions: e.recentQuestions(ctx, subject, recentLimit),
			}, answer)
		if err != nil && !errors.Is(err, errNoAnswer) {
			return fmt.Errorf("%s: %w", e.tr.Reason(llm.KindOf(err)), err)
		}
		return err
	},
}

// answerFrom returns the --answer flag, or reads stdin after a prompt on
// stderr.
func answerFrom(cmd *cobra.Command) func() (string, error) {
	return func() (string, error) {
		if cmd.Flags().Changed("answer") {
			return cmd.Flags().GetString("answer")
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Type your answer, then press Ctrl+D:")
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxAnswerBytes))
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return string(data), nil
	}
}

// runPractice generates one problem, shows it, takes the answer and
// prints the grade.
func runPractice(ctx context.Context, w io.Writer, tr *i18n.Translator, src problemgen.Source,
	grader screen.AnswerGrader, input problemgen.GenerateInput, answer func() (string, error)) error {
	p, err := src.Generate(ctx, input)
	if err != nil {
		return err
	}
	printQuestion(w, tr, p)

	text, err := answer()
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errNoAnswer
	}

	result, err := grader.Grade(ctx, *p, text)
	if err != nil {
		return err
	}
	printGrade(w, tr, result)
	return nil
}

func printQuestion(w io.Writer, tr *i18n.Translator, p *exam.Problem) {
	fmt.Fprintf(w, "%s · %s\n\n%s\n", tr.SubjectName(p.Subject), tr.DifficultyName(p.Difficulty), p.Question)
	if len(p.Keywords) > 0 {
		fmt.Fprintf(w, "\n%s: %s\n", tr.T("Keywords"), strings.Join(p.Keywords, ", "))
	}
	fmt.Fprintln(w)
}

func printGrade(w io.Writer, tr *i18n.Translator, r exam.GradingResult) {
	verdict := "✗ " + tr.T("VerdictIncorrect")
	if r.IsCorrect {
		verdict = "✓ " + tr.T("VerdictCorrect")
	}
	fmt.Fprintf(w, "%s  %s\n", verdict, tr.Td("ScorePoints", map[string]any{"Score": r.Score}))
	for _, section := range [][2]string{
		{tr.T("Feedback"), r.Feedback},
		{tr.T("YourAnswer"), r.UserAnswer},
		{tr.T("ModelAnswer"), r.CorrectAnswer},
		{tr.T("Explanation"), r.Explanation},
	} {
		fmt.Fprintf(w, "\n%s\n%s\n", section[0], section[1])
	}
}

func init() {
	practiceCmd.Flags().String("subject", "", "Subject: database, system, software, network, security")
	practiceCmd.Flags().String("difficulty", "", "Difficulty: basic, intermediate, advanced")
	practiceCmd.Flags().String("answer", "", "Answer to grade instead of reading stdin")
}
