package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"drai/internal/diag"
	"drai/internal/trace"
	"drai/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "drai-expand [flags] [file]",
	Short: "Expand DRAI kernels into plain C++",
	Long: `drai-expand preprocesses a C++ translation unit, then replaces every
kernel definition with a wrapper that embeds the kernel's machine code from
the artifact given with -B, and every kernel launch with an explicit
launch-configuration push followed by a plain call.

The input is read from the file argument or, when it is "-" or missing,
from standard input.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runExpand,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(declsCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("timings", false, "print stage timings to stderr")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to collect")
	pf.String("min-severity", "note", "least severe diagnostic printed (note|warning|error)")
	pf.String("manifest", "", "path to drai.toml (default: search upwards from the working directory)")
	pf.Bool("no-manifest", false, "ignore drai.toml")
	pf.String("trace", "", "trace output file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", trace.DefaultRingSize, "events kept by the ring tracer")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if _, err := minSeverity(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	}
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) {
		if traceCleanup != nil {
			traceCleanup()
			traceCleanup = nil
		}
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		cmdFailed = true
		if traceCleanup != nil {
			traceCleanup()
		}
		reportError(rootCmd, err)
		os.Exit(1)
	}
}

var traceCleanup func()

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}

// minSeverity parses --min-severity.
func minSeverity(cmd *cobra.Command) (diag.Severity, error) {
	name, err := cmd.Root().PersistentFlags().GetString("min-severity")
	if err != nil {
		return diag.SevNote, err
	}
	return diag.ParseSeverity(name)
}

// useColor resolves --color against the terminal state of f.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f) && os.Getenv("NO_COLOR") == ""
	}
}
