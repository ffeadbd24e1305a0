package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect logged LLM requests, token usage and cost",
}

const timeLayout = "2006-01-02 15:04:05"

// withEventRepo opens the LLM request log for the duration of fn.
func withEventRepo(cmd *cobra.Command, fn func(store.EventRepo) error) error {
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.openStore()
	if err != nil {
		return err
	}
	return fn(st.EventRepo())
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		format, _ := cmd.Flags().GetString("format")

		return withEventRepo(cmd, func(repo store.EventRepo) error {
			opts := store.QueryOpts{Limit: limit}
			if purpose != "" {
				opts.Limit = 0
			}
			events, err := repo.QueryLLMEvents(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			events = filterEvents(events, purpose, limit)
			return writeHistory(os.Stdout, format, events, func(w io.Writer) { printEvents(w, events) })
		})
	},
}

// filterEvents keeps events for purpose, at most limit of them. An empty
// purpose keeps everything and a zero limit means no limit.
func filterEvents(events []store.LLMEventRecord, purpose string, limit int) []store.LLMEventRecord {
	out := events[:0]
	for _, e := range events {
		if limit > 0 && len(out) == limit {
			break
		}
		if purpose == "" || e.Purpose == purpose {
			out = append(out, e)
		}
	}
	return out
}

func printEvents(w io.Writer, events []store.LLMEventRecord) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No LLM requests logged yet.")
		return
	}

	t := newTable("ID", "Time", "Purpose", "Model", "In", "Out", "ms", "")
	for _, e := range events {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		t.Row(
			strconv.Itoa(e.ID),
			e.Timestamp.Local().Format(timeLayout),
			e.Purpose,
			truncate(e.Model, 28),
			strconv.Itoa(e.InputTokens),
			strconv.Itoa(e.OutputTokens),
			strconv.FormatInt(e.LatencyMs, 10),
			status,
		)
	}
	fmt.Fprintln(w, t.Render())
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withEventRepo(cmd, func(repo store.EventRepo) error {
			e, err := repo.GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}
			printEvent(os.Stdout, e)
			return nil
		})
	},
}

func printEvent(w io.Writer, e *store.LLMEventRecord) {
	fields := [][2]string{
		{"ID", strconv.Itoa(e.ID)},
		{"Time", e.Timestamp.Local().Format(timeLayout)},
		{"Provider", e.Provider},
		{"Model", e.Model},
		{"Purpose", e.Purpose},
		{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
		{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
		{"Success", strconv.FormatBool(e.Success)},
	}
	if e.ErrorMessage != "" {
		fields = append(fields, [2]string{"Error", e.ErrorMessage})
	}

	label := lipgloss.NewStyle().Bold(true).Width(10)
	for _, f := range fields {
		fmt.Fprintln(w, label.Render(f[0]+":")+f[1])
	}

	for _, section := range [][2]string{{"REQUEST", e.RequestBody}, {"RESPONSE", e.ResponseBody}} {
		body := section[1]
		if body == "" {
			body = "(not captured)"
		}
		fmt.Fprintf(w, "\n%s\n%s\n%s\n", lipgloss.NewStyle().Bold(true).Render(section[0]), strings.Repeat("─", 60), body)
	}
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventRepo(cmd, func(repo store.EventRepo) error {
			ctx := cmd.Context()
			byPurpose, err := repo.LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			byModel, err := repo.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			printUsage(os.Stdout, byPurpose, byModel)
			return nil
		})
	},
}

func printUsage(w io.Writer, byPurpose, byModel []store.LLMUsage) {
	if len(byPurpose) == 0 {
		fmt.Fprintln(w, "No LLM usage recorded yet.")
		return
	}

	var calls, in, out int
	t := newTable("Purpose", "Calls", "Input", "Output", "Total", "Avg ms")
	for _, u := range byPurpose {
		t.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens),
			strconv.Itoa(u.InputTokens+u.OutputTokens), strconv.FormatInt(u.AvgLatencyMs, 10))
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	t.Row("total", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(out), strconv.Itoa(in+out), "")
	fmt.Fprintln(w, "Usage by purpose")
	fmt.Fprintln(w, t.Render())

	if len(byModel) == 0 {
		return
	}

	var total float64
	var unpriced []string
	t = newTable("Model", "Calls", "Input", "Output", "Cost (USD)")
	for _, u := range byModel {
		price := "?"
		if c, ok := llm.EstimateCost(u.Model, u.InputTokens, u.OutputTokens); ok {
			total += c
			price = formatCost(c)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		t.Row(truncate(u.Model, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), price)
	}
	label := "total"
	if len(unpriced) > 0 {
		label = "total (partial)"
	}
	t.Row(label, "", "", "", formatCost(total))

	fmt.Fprintln(w, "\nEstimated cost")
	fmt.Fprintln(w, t.Render())
	if len(unpriced) > 0 {
		fmt.Fprintf(w, "No pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

// newTable returns a borderless table with a rule under the header and
// numbers aligned right.
func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderTop(false).BorderBottom(false).BorderLeft(false).BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if isNumeric(headers[col]) {
				return cell.Align(lipgloss.Right)
			}
			return cell
		})
}

func isNumeric(header string) bool {
	switch header {
	case "ID", "In", "Out", "ms", "Calls", "Input", "Output", "Total", "Avg ms", "Cost (USD)":
		return true
	}
	return false
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show this purpose (problem-gen or grading)")
	llmListCmd.Flags().StringP("format", "f", "table", "Output format: table, json or yaml")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
