package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mockexam",
	Short: "Timed mock exams graded by AI",
	Long: "mockexam generates a timed mock exam for an engineering subject, grades every answer\n" +
		"with an LLM when you submit, and keeps a history of your attempts.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, false)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a config file (default: mockexam.yaml in . or $XDG_CONFIG_HOME/mockexam)")
	pf.String("db", "", "Path to SQLite database file (overrides MOCKEXAM_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("log-file", "", "Write logs to this file")
	pf.String("lang", "", "Interface language: en or ko")
	pf.String("provider", "", "LLM provider: gemini, openai, anthropic, openrouter, mock")

	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
