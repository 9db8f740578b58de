package rewrite

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"drai/internal/ast"
	"drai/internal/diag"
	"drai/internal/mangle"
	"drai/internal/source"
	"drai/internal/tmpl"
	"drai/internal/trace"
)

var (
	// ErrMalformedKernelCall is returned for a launch without a usable
	// configuration or argument list.
	ErrMalformedKernelCall = errors.New("malformed kernel call")
	// ErrTemplateArgs is returned when the template arguments of a kernel
	// instantiation cannot be determined.
	ErrTemplateArgs = errors.New("cannot determine kernel template arguments")
	// ErrUnknownKernel is returned for a specialization of an undefined kernel template.
	ErrUnknownKernel = errors.New("unknown kernel template")
)

// Symbols supplies kernel machine code by linkage name.
type Symbols interface {
	Lookup(name string) ([]byte, error)
}

type Options struct {
	// Reporter receives a positioned diagnostic for every failure.
	Reporter diag.Reporter
}

// Result is the rewritten translation unit.
type Result struct {
	Text    []byte
	Kernels []*Kernel
	// Calls is the number of rewritten launches.
	Calls int
}

type engine struct {
	file    *ast.File
	src     *source.File
	syms    Symbols
	opts    Options
	res     *mangle.Resolver
	rec     *Record
	kernels []*Kernel
	// done holds linkage names that already have a wrapper.
	done map[string]bool
	// replaced lists regions whose original text is gone.
	replaced []source.Span
	generics map[string]*ast.FuncDecl
}

// Rewrite expands the kernels and launches of f. Kernel machine code comes
// from syms; the first failure aborts the rewrite.
func Rewrite(ctx context.Context, f *ast.File, syms Symbols, opts Options) (*Result, error) {
	e := &engine{
		file:     f,
		src:      f.Source,
		syms:     syms,
		opts:     opts,
		res:      mangle.NewResolver(f),
		rec:      NewRecord(f.Source),
		done:     map[string]bool{},
		generics: map[string]*ast.FuncDecl{},
	}
	for _, fn := range f.Kernels() {
		if fn.Template == ast.TemplateGeneric && (fn.HasBody || e.generics[genericKey(fn)] == nil) {
			e.generics[genericKey(fn)] = fn
		}
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"kernels", e.rewriteKernels},
		{"instantiations", e.rewriteInstantiations},
		{"calls", e.rewriteCalls},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepCtx, span := trace.Start(ctx, trace.ScopePass, "rewrite/"+step.name)
		err := step.run(stepCtx)
		span.End("")
		if err != nil {
			return nil, err
		}
	}

	prologue, err := tmpl.Prologue.Render(nil)
	if err != nil {
		return nil, err
	}
	if err := e.rec.InsertBefore(0, prologue); err != nil {
		return nil, err
	}
	calls := 0
	for _, c := range f.Calls {
		if !e.isReplaced(c.Span) {
			calls++
		}
	}
	return &Result{Text: e.rec.Apply(), Kernels: e.kernels, Calls: calls}, nil
}

func genericKey(fn *ast.FuncDecl) string {
	return fn.QualifiedName()
}

// fail reports a positioned diagnostic and returns err annotated with the
// position.
func (e *engine) fail(code diag.Code, sp source.Span, err error) error {
	if e.opts.Reporter != nil {
		e.opts.Reporter.Report(code, diag.SevError, sp, err.Error(), nil)
	}
	return fmt.Errorf("%s: %w", e.src.Position(sp.Start), err)
}

func (e *engine) isReplaced(sp source.Span) bool {
	return slices.ContainsFunc(e.replaced, func(r source.Span) bool { return r.Contains(sp) })
}

func (e *engine) rewriteKernels(ctx context.Context) error {
	for _, fn := range e.file.Kernels() {
		if !fn.HasBody {
			continue
		}
		switch fn.Template {
		case ast.TemplateGeneric:
			// only instantiations get wrappers; the generic body goes away
			if err := e.rec.Replace(fn.Body, ";\n"); err != nil {
				return err
			}
			e.replaced = append(e.replaced, fn.Body)
		case ast.TemplateNone:
			k, text, err := e.wrapper(ctx, fn.WrittenName(), fn, fn, fn.Params, nil)
			if err != nil {
				return err
			}
			if err := e.rec.Replace(fn.Span, text); err != nil {
				return err
			}
			e.replaced = append(e.replaced, fn.Span)
			e.kernels = append(e.kernels, k)
		case ast.TemplateSpecialization:
			gen := e.lookupGeneric(fn.Scope, fn.Qualifier, fn.Name, false)
			if gen == nil {
				return e.fail(diag.SynUnknownKernel, fn.NameSpan, fmt.Errorf("%w: %s", ErrUnknownKernel, fn.QualifiedName()))
			}
			args, err := e.completeArgs(gen, fn.SpecArgs, fn.Params, fn.NameSpan)
			if err != nil {
				return err
			}
			k, text, err := e.wrapper(ctx, fn.Name, gen, fn, fn.Params, args)
			if err != nil {
				return err
			}
			if e.done[k.LinkageName] {
				continue
			}
			if err := e.rec.InsertAfter(fn.Span.End, text); err != nil {
				return err
			}
			e.done[k.LinkageName] = true
			e.kernels = append(e.kernels, k)
		}
	}
	return nil
}

// wrapper renders the wrapper for fn. sig is the declaration whose
// signature determines the linkage name (the generic for instantiations).
func (e *engine) wrapper(ctx context.Context, name string, sig, fn *ast.FuncDecl, params []ast.Param, args []ast.TemplateArg) (*Kernel, string, error) {
	linkage, err := mangle.Name(sig, args, e.res)
	if err != nil {
		return nil, "", e.fail(diag.AbiUnsupportedType, fn.NameSpan, fmt.Errorf("kernel %s: %w", fn.QualifiedName(), err))
	}
	trace.Point(ctx, trace.ScopePass, "kernel", linkage)
	var k *Kernel
	if sig.Template == ast.TemplateGeneric && fn == sig {
		k = newKernel(name, fn, params, args, linkage)
	} else {
		k = newKernel(name, fn, params, nil, linkage)
		k.Args = args
	}
	binary, err := e.syms.Lookup(linkage)
	if err != nil {
		return nil, "", e.fail(diag.AbiSymbolNotFound, fn.NameSpan, fmt.Errorf("kernel %s: %w", fn.QualifiedName(), err))
	}
	text, err := k.Wrapper(binary)
	if err != nil {
		return nil, "", err
	}
	return k, text, nil
}

// lookupGeneric resolves a possibly qualified kernel template name as seen
// from scope.
func (e *engine) lookupGeneric(scope, qual []string, name string, global bool) *ast.FuncDecl {
	outer := [][]string{nil}
	if !global {
		outer = outer[:0]
		for n := len(scope); n >= 0; n-- {
			outer = append(outer, scope[:n])
		}
	}
	for _, s := range outer {
		path := append(slices.Clone(s), qual...)
		path = append(path, name)
		if fn, ok := e.generics[strings.Join(path, "::")]; ok {
			return fn
		}
	}
	return nil
}

// instantiation is a use of a kernel template with concrete arguments.
type instantiation struct {
	generic *ast.FuncDecl
	args    []ast.TemplateArg
	params  []ast.Param
	at      source.Span
}

func (e *engine) rewriteInstantiations(ctx context.Context) error {
	var insts []instantiation
	for _, c := range e.file.Calls {
		if c.Name == "" || c.Malformed != "" || e.isReplaced(c.Span) {
			continue
		}
		gen := e.lookupGeneric(c.Scope, c.Qualifier, c.Name, c.Global)
		if gen == nil {
			continue
		}
		if !c.HasTemplateArgs {
			return e.fail(diag.SynCannotDeduceTemplate, c.Callee,
				fmt.Errorf("%w: launch of %s needs explicit template arguments", ErrTemplateArgs, gen.QualifiedName()))
		}
		insts = append(insts, instantiation{generic: gen, args: c.TemplateArgs, at: c.Callee})
	}
	for _, in := range e.file.Instantiations {
		gen := e.lookupGeneric(in.Scope, in.Qualifier, in.Name, false)
		if gen == nil {
			continue
		}
		var args []ast.TemplateArg
		if in.HasTemplateArgs {
			args = in.TemplateArgs
		}
		insts = append(insts, instantiation{generic: gen, args: args, params: in.Params, at: in.Span})
	}

	for _, in := range insts {
		if err := ctx.Err(); err != nil {
			return err
		}
		args, err := e.completeArgs(in.generic, in.args, in.params, in.at)
		if err != nil {
			return err
		}
		linkage, err := mangle.Name(in.generic, args, e.res)
		if err != nil {
			return e.fail(diag.AbiUnsupportedType, in.at, fmt.Errorf("kernel %s: %w", in.generic.QualifiedName(), err))
		}
		if e.done[linkage] {
			continue
		}
		if !in.generic.HasBody {
			return e.fail(diag.SynUnknownKernel, in.at,
				fmt.Errorf("%w: %s is declared but never defined", ErrUnknownKernel, in.generic.QualifiedName()))
		}
		k, text, err := e.wrapper(ctx, in.generic.Name, in.generic, in.generic, in.generic.Params, args)
		if err != nil {
			return err
		}
		if err := e.rec.InsertAfter(in.generic.Span.End, text); err != nil {
			return err
		}
		e.done[linkage] = true
		e.kernels = append(e.kernels, k)
	}
	return nil
}

// completeArgs matches written template arguments to the generic's
// parameters: constants spelled as names become values, missing trailing
// arguments come from defaults or, failing that, from params.
func (e *engine) completeArgs(gen *ast.FuncDecl, written []ast.TemplateArg, params []ast.Param, at source.Span) ([]ast.TemplateArg, error) {
	tps := gen.TemplateParams
	if len(written) > len(tps) {
		return nil, e.fail(diag.SynBadTemplateArgs, at,
			fmt.Errorf("%w: %s takes %d template arguments, got %d", ErrTemplateArgs, gen.QualifiedName(), len(tps), len(written)))
	}
	args := make([]ast.TemplateArg, len(tps))
	known := make([]bool, len(tps))
	for i, a := range written {
		if tps[i].Kind == ast.TemplateValueParam && a.Type != nil {
			a = ast.TemplateArg{Value: a.Type.String()}
		}
		args[i], known[i] = a, true
	}
	if len(params) > 0 {
		for i, p := range gen.Params {
			if i < len(params) {
				unify(p.Type, params[i].Type, args, known)
			}
		}
	}
	for i, tp := range tps {
		if known[i] {
			continue
		}
		if tp.Default == nil {
			return nil, e.fail(diag.SynCannotDeduceTemplate, at,
				fmt.Errorf("%w: no argument for %s of %s", ErrTemplateArgs, tp.Name, gen.QualifiedName()))
		}
		def := *tp.Default
		if def.Type != nil {
			def = ast.TemplateArg{Type: def.Type.Subst(args[:i])}
		}
		args[i], known[i] = def, true
	}
	return args, nil
}

// unify binds template parameters of pattern from the matching parts of concrete.
func unify(pattern, concrete *ast.Type, args []ast.TemplateArg, known []bool) {
	if pattern == nil || concrete == nil {
		return
	}
	switch pattern.Kind {
	case ast.TypeParam:
		if pattern.Index < len(args) && !known[pattern.Index] {
			bound := concrete.Unqualified()
			// const T* against const int*: the qualifier belongs to the pattern
			bound = bound.WithQuals(&ast.Type{
				Const:    concrete.Const && !pattern.Const,
				Volatile: concrete.Volatile && !pattern.Volatile,
			})
			args[pattern.Index], known[pattern.Index] = ast.TemplateArg{Type: bound}, true
		}
	case ast.TypePointer, ast.TypeLValueRef, ast.TypeRValueRef:
		if concrete.Kind == pattern.Kind {
			unify(pattern.Elem, concrete.Elem, args, known)
		}
	case ast.TypeNamed:
		if concrete.Kind == ast.TypeNamed && concrete.Name == pattern.Name {
			for i, a := range pattern.Args {
				if i < len(concrete.Args) && a.Type != nil && concrete.Args[i].Type != nil {
					unify(a.Type, concrete.Args[i].Type, args, known)
				}
			}
		}
	}
}

func (e *engine) rewriteCalls(ctx context.Context) error {
	calls := make([]*ast.KernelCall, 0, len(e.file.Calls))
	for _, c := range e.file.Calls {
		if e.isReplaced(c.Span) {
			continue
		}
		if c.Malformed != "" {
			return e.fail(diag.SynMalformedKernelCall, c.Span, fmt.Errorf("%w: %s", ErrMalformedKernelCall, c.Malformed))
		}
		calls = append(calls, c)
	}
	// inner launches first: their rewritten text feeds the outer ones
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].Span.Len() < calls[j].Span.Len()
	})
	for _, c := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg := make([]string, len(c.Config))
		for i, sp := range c.Config {
			cfg[i] = e.rec.Text(sp)
		}
		args := make([]string, len(c.Args))
		for i, sp := range c.Args {
			args[i] = e.rec.Text(sp)
		}
		text, err := tmpl.KernelCall.Render(callBindings(cfg, string(e.src.Slice(c.Callee)), args))
		if err != nil {
			return err
		}
		e.rec.Drop(c.Span)
		if err := e.rec.Replace(c.Span, text); err != nil {
			return err
		}
	}
	return nil
}

func callBindings(config []string, callee string, args []string) tmpl.Bindings {
	return tmpl.Bindings{
		tmpl.Config:  strings.Join(config, ", "),
		tmpl.Callee:  strings.TrimSpace(callee),
		tmpl.ArgVars: strings.Join(args, ", "),
	}
}
