package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactivity/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  reactivity
  ──────────
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "reactivity",
		Short: "Fine-grained reactivity engine tools",
		Long: `reactivity drives and inspects the reactive engine.

The engine records which effects read which keys of which objects,
and re-runs exactly those effects when a key is written. This tool:

  • Runs scripted scenarios and prints every effect run
  • Serves devtools with a live event feed and Prometheus metrics
  • Explains diagnostic codes
  • Writes a starter reactivity.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output (also honors NO_COLOR)")

	cmd.AddCommand(
		demoCmd(),
		devtoolsCmd(),
		explainCmd(),
		initCmd(),
		versionCmd(),
	)

	return cmd
}

// newLogger returns a text logger on stderr at level.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printBanner prints the CLI banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
