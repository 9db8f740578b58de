package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"drai/internal/pipeline"
	"drai/internal/project"
)

var batchCmd = &cobra.Command{
	Use:   "batch [unit...]",
	Short: "Expand the translation units listed in drai.toml",
	Long: `batch runs the expansion for every [[unit]] of the project manifest,
or only for the named units, with up to --jobs units in parallel. Every
unit runs to completion independently; the command fails if any unit did.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntP("jobs", "j", 0, "units expanded in parallel (default: GOMAXPROCS)")
	batchCmd.Flags().Var(&batchUI, "ui", "progress UI")
}

var batchUI = uiModeAuto

func runBatch(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	maxDiagnostics, err := pf.GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	showTimings, err := pf.GetBool("timings")
	if err != nil {
		return err
	}

	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	if m == nil {
		return errors.New("no drai.toml found (use --manifest)")
	}
	units, err := selectUnits(m, args)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return fmt.Errorf("%s: no [[unit]] entries", m.Path)
	}

	opts := make([]pipeline.Options, 0, len(units))
	for _, u := range units {
		r := m.Resolve(u)
		opts = append(opts, pipeline.Options{
			Input:            r.Input,
			IncludeDirs:      r.IncludeDirs,
			Defines:          r.Defines,
			Artifact:         r.Artifact,
			Output:           r.Output,
			Target:           r.Target,
			KernelAttributes: r.KernelAttributes,
			MaxDiagnostics:   maxDiagnostics,
			BaseDir:          m.Root,
			Unit:             r.Name,
		})
	}

	var results []pipeline.UnitResult
	if batchUI.useTUI() {
		title := fmt.Sprintf("drai-expand %s", filepath.Base(m.Root))
		results, err = runBatchWithUI(cmd.Context(), title, opts, jobs)
	} else {
		results, err = pipeline.Batch(cmd.Context(), opts, jobs)
		printBatchSummary(cmd, results)
	}
	if showTimings {
		for _, r := range results {
			if r.Result != nil {
				printStageTimings(cmd.ErrOrStderr(), r.Unit, r.Result.Timings)
			}
		}
	}
	return err
}

// selectUnits returns the manifest units named in args, or all of them.
func selectUnits(m *project.Manifest, names []string) ([]project.Unit, error) {
	if len(names) == 0 {
		return m.Units, nil
	}
	byName := make(map[string]project.Unit, len(m.Units))
	for _, u := range m.Units {
		byName[u.Name] = u
	}
	out := make([]project.Unit, 0, len(names))
	for _, name := range names {
		u, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%s: no unit named %q", m.Path, name)
		}
		out = append(out, u)
	}
	return out, nil
}

func printBatchSummary(cmd *cobra.Command, results []pipeline.UnitResult) {
	ok := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	if !useColor(cmd, os.Stdout) {
		ok.DisableColor()
		fail.DisableColor()
	} else {
		ok.EnableColor()
		fail.EnableColor()
	}
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s\n", fail.Sprint("failed"), r.Unit)
			continue
		}
		fmt.Fprintf(out, "%s %s (%d kernels, %d launches)\n", ok.Sprint("done  "), r.Unit, len(r.Result.Kernels), r.Result.Calls)
	}
}
