package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"drai/internal/diagfmt"
	"drai/internal/observ"
	"drai/internal/pipeline"
)

func init() {
	f := rootCmd.Flags()
	f.StringArrayP("include", "I", nil, "add directory to the include search path")
	f.StringArrayP("define", "D", nil, "define macro (NAME or NAME=VALUE)")
	f.StringP("artifact", "B", "", "compiled artifact holding kernel machine code")
	f.StringP("output", "o", "-", "output file (\"-\" for stdout)")
	f.String("keep-ii", "", "also write the preprocessed intermediate to this file")
	f.String("target", "", "target triple for both front-end passes (default \"drai\")")
	f.StringArray("kernel-attribute", nil, "additional kernel attribute spelling")
}

func runExpand(cmd *cobra.Command, args []string) error {
	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	opts, err := expandOptions(cmd, input)
	if err != nil {
		return err
	}

	timer, err := timerFor(cmd)
	if err != nil {
		return err
	}
	opts.Timer = timer

	_, err = pipeline.Run(cmd.Context(), opts)
	printTimings(cmd, timer)
	return err
}

// expandOptions merges the drai.toml [expand] defaults with the command flags.
func expandOptions(cmd *cobra.Command, input string) (pipeline.Options, error) {
	f := cmd.Flags()
	includes, err := f.GetStringArray("include")
	if err != nil {
		return pipeline.Options{}, err
	}
	defines, err := f.GetStringArray("define")
	if err != nil {
		return pipeline.Options{}, err
	}
	artifact, err := f.GetString("artifact")
	if err != nil {
		return pipeline.Options{}, err
	}
	output, err := f.GetString("output")
	if err != nil {
		return pipeline.Options{}, err
	}
	keepII, err := f.GetString("keep-ii")
	if err != nil {
		return pipeline.Options{}, err
	}
	target, err := f.GetString("target")
	if err != nil {
		return pipeline.Options{}, err
	}
	attrs, err := f.GetStringArray("kernel-attribute")
	if err != nil {
		return pipeline.Options{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Input:            input,
		IncludeDirs:      includes,
		Defines:          defines,
		Artifact:         artifact,
		Output:           output,
		Target:           target,
		KeepII:           keepII,
		KernelAttributes: attrs,
		MaxDiagnostics:   maxDiagnostics,
		Stdin:            cmd.InOrStdin(),
		Stdout:           cmd.OutOrStdout(),
	}

	m, err := loadManifest(cmd)
	if err != nil {
		return pipeline.Options{}, err
	}
	if m != nil {
		applyManifest(&opts, m)
	}
	if opts.Artifact == "" {
		return pipeline.Options{}, errors.New("no artifact given (use -B <file>)")
	}
	return opts, nil
}

func timerFor(cmd *cobra.Command) (*observ.Timer, error) {
	on, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, err
	}
	if !on {
		return nil, nil
	}
	return observ.NewTimer(), nil
}

// reportError prints err to stderr: a one-line colored summary naming the
// stage, then any collected diagnostics with source context.
func reportError(cmd *cobra.Command, err error) {
	stderr := cmd.ErrOrStderr()
	colored := useColor(cmd, os.Stderr)
	label := color.New(color.FgRed, color.Bold)
	if colored {
		label.EnableColor()
	} else {
		label.DisableColor()
	}

	minSev, _ := minSeverity(cmd)
	for _, e := range flattenErrors(err) {
		fmt.Fprintf(stderr, "%s %v\n", label.Sprint("drai-expand:"), e)
		var se *pipeline.StageError
		if !errors.As(e, &se) || se.Diags == nil || se.Diags.Len() == 0 {
			continue
		}
		diagfmt.Pretty(stderr, se.Diags, se.Files, diagfmt.PrettyOpts{
			Color:       colored,
			Context:     1,
			PathMode:    diagfmt.PathModeRelative,
			ShowNotes:   true,
			MinSeverity: minSev,
		})
	}
}

// flattenErrors splits joined batch errors into the unit errors.
func flattenErrors(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, flattenErrors(e)...)
	}
	return out
}
