package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/store"
)

var historyCmd = &cobra.Command{
	Use:       "history [attempts|problems]",
	Short:     "Show finished exam attempts or generated problems",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"attempts", "problems"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := "attempts"
		if len(args) == 1 {
			kind = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		subjectFlag, _ := cmd.Flags().GetString("subject")

		var subject exam.Subject
		if subjectFlag != "" {
			s, err := exam.ParseSubject(subjectFlag)
			if err != nil {
				return err
			}
			subject = s
		}

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.openStore()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		opts := store.QueryOpts{Limit: limit}
		switch kind {
		case "attempts":
			attempts, err := st.AttemptRepo().ListAttempts(ctx, opts)
			if err != nil {
				return fmt.Errorf("list attempts: %w", err)
			}
			if subject != "" {
				attempts = filterAttempts(attempts, subject)
			}
			return writeHistory(os.Stdout, format, attempts, func(w io.Writer) { printAttempts(w, attempts) })
		case "problems":
			problems, err := st.ProblemRepo().RecentProblems(ctx, subject, opts)
			if err != nil {
				return fmt.Errorf("list problems: %w", err)
			}
			return writeHistory(os.Stdout, format, problems, func(w io.Writer) { printProblems(w, problems) })
		default:
			return fmt.Errorf("unknown history kind %q (want attempts or problems)", kind)
		}
	},
}

func filterAttempts(attempts []store.Attempt, subject exam.Subject) []store.Attempt {
	out := attempts[:0]
	for _, a := range attempts {
		if a.Subject == subject {
			out = append(out, a)
		}
	}
	return out
}

// writeHistory renders v as JSON or YAML, or calls table for the table format.
func writeHistory(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "table", "":
		table(w)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func printAttempts(w io.Writer, attempts []store.Attempt) {
	if len(attempts) == 0 {
		fmt.Fprintln(w, "No finished exams yet.")
		return
	}

	fmt.Fprintf(w, "%-5s  %-16s  %-10s  %-12s  %7s  %5s  %8s  %s\n",
		"#", "Finished", "Subject", "Difficulty", "Correct", "Avg", "Elapsed", "")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, a := range attempts {
		forced := ""
		if a.Forced {
			forced = "time up"
		}
		fmt.Fprintf(w, "%-5d  %-16s  %-10s  %-12s  %3d/%-3d  %5d  %8s  %s\n",
			a.Sequence,
			a.FinishedAt.Local().Format("2006-01-02 15:04"),
			a.Subject,
			a.Difficulty,
			a.Summary.Correct, a.Summary.Total,
			a.Summary.AverageScore,
			exam.FormatClock(a.Summary.ElapsedSeconds),
			forced,
		)
	}
}

func printProblems(w io.Writer, problems []store.ProblemRecord) {
	if len(problems) == 0 {
		fmt.Fprintln(w, "No generated problems yet.")
		return
	}

	fmt.Fprintf(w, "%-5s  %-16s  %-10s  %-12s  %-6s  %s\n",
		"#", "Created", "Subject", "Difficulty", "Type", "Question")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, p := range problems {
		fmt.Fprintf(w, "%-5d  %-16s  %-10s  %-12s  %-6s  %s\n",
			p.Sequence,
			p.CreatedAt.Local().Format("2006-01-02 15:04"),
			p.Subject,
			p.Difficulty,
			p.Type,
			truncate(strings.Join(strings.Fields(p.Question), " "), 60),
		)
	}
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().StringP("format", "f", "table", "Output format: table, json or yaml")
	historyCmd.Flags().String("subject", "", "Only show this subject")
}
