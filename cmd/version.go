package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time. Builds installed with
// go install fall back to the module version.
var version = "(devel)"

// revision is the short VCS commit the binary was built from, if known.
var revision string

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if version == "(devel)" && info.Main.Version != "" {
		version = info.Main.Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			revision = s.Value[:7]
		}
	}
}

func versionString() string {
	s := "mockexam " + version
	if revision != "" {
		s += " (" + revision + ")"
	}
	return fmt.Sprintf("%s %s %s/%s", s, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build details",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}
