package cmd

import (
	"github.com/spf13/cobra"
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Start a mock exam right away",
	Long: "Generate a problem set for the chosen subject and difficulty and start the exam\n" +
		"without going through the home screen.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, true)
	},
}

func init() {
	examCmd.Flags().String("subject", "", "Subject: database, system, software, network, security")
	examCmd.Flags().String("difficulty", "", "Difficulty: basic, intermediate, advanced")
	examCmd.Flags().Int("length", 0, "Number of problems (default 25)")
	examCmd.Flags().Duration("duration", 0, "Time limit (default 90m)")
}
