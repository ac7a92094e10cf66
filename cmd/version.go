// =============================================================================
// Plan of Study Converter - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   posconv version
//
// OUTPUT:
//   Plan of Study Converter
//   Version:    1.0.0
//   Build Date: 2026-10-17
//   Go Version: go1.24.11
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/spf13/cobra"
)

// These variables are set at build time using ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/plan-of-study-converter/cmd.Version=1.0.0'"
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, plan schema version and Go runtime version.`,

	// No configuration is needed to print the version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },

	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Plan of Study Converter")
		fmt.Fprintf(out, "Version:        %s\n", Version)
		fmt.Fprintf(out, "Build Date:     %s\n", BuildDate)
		fmt.Fprintf(out, "Plan Schema:    v%d\n", plan.SchemaVersion)
		fmt.Fprintf(out, "Go Version:     %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
