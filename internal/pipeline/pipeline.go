// Package pipeline runs one drai-expand transformation: macro expansion
// into an in-memory intermediate file, then kernel rewriting of that file
// against a compiled artifact, then output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fortio.org/safecast"

	"drai/internal/diag"
	"drai/internal/objfile"
	"drai/internal/observ"
	"drai/internal/parser"
	"drai/internal/preproc"
	"drai/internal/rewrite"
	"drai/internal/source"
	"drai/internal/trace"
	"drai/internal/vfs"
)

// StdinName is the file name the standard input is registered under.
const StdinName = "<stdin>"

// DefaultTarget is the synthetic triple both front-end passes run with.
const DefaultTarget = "drai"

// Options is the front-end configuration shared by both passes.
type Options struct {
	// Input is the source path; "-" reads Stdin.
	Input       string
	IncludeDirs []string
	Defines     []string
	// Artifact is the compiled object supplying kernel machine code.
	Artifact string
	// Output is the destination path; "" or "-" writes Stdout.
	Output string
	Target string
	// KeepII additionally writes the intermediate text to this path.
	KeepII           string
	KernelAttributes []string
	MaxDiagnostics   int

	// BaseDir is the directory diagnostics print relative paths against;
	// "" keeps the working directory.
	BaseDir string

	// FS is the read-only base layer; nil means the real filesystem.
	FS     vfs.FS
	Stdin  io.Reader
	Stdout io.Writer

	// Unit labels progress events and timer phases.
	Unit     string
	Progress ProgressSink
	Timer    *observ.Timer
}

// Result is a successful run.
type Result struct {
	// Intermediate is the preprocessed text, as published in the overlay.
	Intermediate []byte
	Text         []byte
	Kernels      []*rewrite.Kernel
	Calls        int
	Diags        *diag.Bag
	Files        *source.FileSet
	Timings      Timings
}

// IntermediateName is the overlay name of the preprocessed input.
func IntermediateName(input string) string {
	if input == "-" || input == "" {
		input = StdinName
	}
	return input + ".ii"
}

type run struct {
	opts    Options
	files   *source.FileSet
	overlay *vfs.Layered
	bag     *diag.Bag
	rep     diag.Reporter
	res     *Result
}

// Run performs the whole transformation. Any failure aborts the run and is
// returned as a *StageError; nothing is written on failure.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Target == "" {
		opts.Target = DefaultTarget
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	if opts.Unit == "" {
		opts.Unit = opts.Input
	}
	r := &run{
		opts:    opts,
		files:   source.NewFileSet(),
		overlay: vfs.NewLayered(opts.FS),
		bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	if opts.BaseDir != "" {
		r.files.SetBaseDir(opts.BaseDir)
	}
	r.rep = diag.NewDedupReporter(diag.BagReporter{Bag: r.bag})
	r.res = &Result{Diags: r.bag, Files: r.files}

	ctx, unit := trace.Start(ctx, trace.ScopeUnit, "unit")
	unit.WithExtra("input", opts.Input)
	emit(opts.Progress, opts.Unit, StageExpandMacro, StatusQueued, nil, 0)

	err := r.stage(ctx, StageExpandMacro, r.expandMacros)
	if err == nil {
		err = r.stage(ctx, StageExpand, r.expandKernels)
	}
	if err == nil {
		err = r.stage(ctx, StageWriteOutput, r.writeOutput)
	}
	if err != nil {
		unit.End("failed")
		return nil, err
	}
	unit.End("")
	emit(opts.Progress, opts.Unit, StageWriteOutput, StatusDone, nil, r.res.Timings.Sum(StageExpandMacro, StageExpand, StageWriteOutput))
	return r.res, nil
}

func (r *run) stage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err, Diags: r.bag, Files: r.files}
	}
	emit(r.opts.Progress, r.opts.Unit, stage, StatusWorking, nil, 0)
	ctx, span := trace.Start(ctx, trace.ScopeStage, string(stage))
	phase := r.opts.Timer.Begin(r.opts.Unit + "/" + string(stage))
	start := time.Now()

	err := fn(ctx)

	elapsed := time.Since(start)
	r.res.Timings.Set(stage, elapsed)
	if err != nil {
		r.opts.Timer.End(phase, "failed")
		span.End(err.Error())
		emit(r.opts.Progress, r.opts.Unit, stage, StatusError, err, elapsed)
		return &StageError{Stage: stage, Err: err, Diags: r.bag, Files: r.files}
	}
	r.opts.Timer.End(phase, "")
	span.End("")
	return nil
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Errors() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// diagErr turns error diagnostics collected so far into an error.
func (r *run) diagErr() error {
	if !r.bag.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDiagnostics, firstError(r.bag, r.files))
}

func (r *run) loadInput() (source.FileID, error) {
	if r.opts.Input == "-" || r.opts.Input == "" {
		in := r.opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", StdinName, err)
		}
		r.overlay.AddFile(StdinName, data)
		return r.files.AddVirtual(StdinName, data), nil
	}
	id, err := r.files.LoadFrom(r.overlay, r.opts.Input)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", r.opts.Input, err)
	}
	return id, nil
}

func (r *run) expandMacros(ctx context.Context) error {
	id, err := r.loadInput()
	if err != nil {
		return err
	}
	pp, err := preproc.Preprocess(ctx, r.files, id, preproc.Options{
		IncludeDirs: r.opts.IncludeDirs,
		Defines:     r.opts.Defines,
		Target:      r.opts.Target,
		FS:          r.overlay,
		Reporter:    r.rep,
	})
	if err != nil {
		return err
	}
	if err := r.diagErr(); err != nil {
		return err
	}
	r.overlay.AddFile(IntermediateName(r.opts.Input), pp.Text)
	r.res.Intermediate = pp.Text
	trace.Point(ctx, trace.ScopeStage, "intermediate", IntermediateName(r.opts.Input))
	if r.opts.KeepII != "" {
		if err := writeAtomic(r.opts.KeepII, pp.Text); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) expandKernels(ctx context.Context) error {
	// the artifact must open before any traversal starts
	store, err := objfile.Open(r.opts.Artifact)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// a fresh invocation for the intermediate file: nothing from the first
	// pass but the overlay carries over
	id, err := r.files.LoadFrom(r.overlay, IntermediateName(r.opts.Input))
	if err != nil {
		return err
	}
	maxErrors, err := safecast.Conv[uint](r.opts.MaxDiagnostics)
	if err != nil {
		return err
	}
	f, parseBag := parser.ParseFile(r.files.Get(id), parser.Options{
		KernelAttributes: r.opts.KernelAttributes,
		MaxErrors:        maxErrors,
		Reporter:         r.rep,
	})
	// a broken tree is never rewritten
	if parseBag.HasErrors() {
		err := r.diagErr()
		if hasCode(parseBag, diag.SynMalformedKernelCall) {
			err = fmt.Errorf("%w: %w", rewrite.ErrMalformedKernelCall, err)
		}
		return err
	}
	out, err := rewrite.Rewrite(ctx, f, store, rewrite.Options{Reporter: r.rep})
	if err != nil {
		return err
	}
	r.res.Text = out.Text
	r.res.Kernels = out.Kernels
	r.res.Calls = out.Calls
	return nil
}

func (r *run) writeOutput(context.Context) error {
	if r.opts.Output == "" || r.opts.Output == "-" {
		w := r.opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		if _, err := w.Write(r.res.Text); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		return nil
	}
	return writeAtomic(r.opts.Output, r.res.Text)
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputWrite, path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w %s: %w", ErrOutputWrite, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputWrite, path, err)
	}
	// #nosec G302 -- generated source is meant to be readable
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputWrite, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputWrite, path, err)
	}
	return nil
}

// IsStage reports whether err failed in stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
