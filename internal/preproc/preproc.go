package preproc

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"drai/internal/diag"
	"drai/internal/lexer"
	"drai/internal/source"
	"drai/internal/token"
	"drai/internal/vfs"
)

// ppToken is a token in flight through macro expansion.
type ppToken struct {
	token.Token
	hide hideSet
	// Layout anchor: expansion results carry their invocation site.
	file string
	line uint32
	col  uint32
	// space: whitespace precedes the token on its output line.
	space bool
	// noExpand: the token was painted and is never expanded again.
	noExpand bool
}

type condState struct {
	taken    bool
	seenElse bool
	at       source.Span
}

type frame struct {
	file      *source.File
	lx        *lexer.Lexer
	conds     []condState
	presumed  string
	lineDelta int64
	// retLine is the parent line to report when this frame is popped.
	retLine uint32
	dirIdx  int // include-path index this file was found at, for #include_next
}

// Preprocessor expands one translation unit.
type Preprocessor struct {
	ctx      context.Context
	fileSet  *source.FileSet
	opts     Options
	fs       vfs.FS
	reporter diag.Reporter
	macros   map[string]*Macro
	stack    []*frame
	once     map[string]bool
	entered  map[string]bool
	out      *printer
	result   *Result
	counter  int
	silent   bool
	err      error
}

// Preprocess expands fileID and returns the printed result. Diagnostics go
// to opts.Reporter; the returned error is non-nil only when ctx is cancelled.
func Preprocess(ctx context.Context, fileSet *source.FileSet, fileID source.FileID, opts Options) (*Result, error) {
	if opts.FS == nil {
		opts.FS = vfs.OS()
	}
	if opts.MaxIncludeDepth <= 0 {
		opts.MaxIncludeDepth = defaultMaxIncludeDepth
	}
	p := &Preprocessor{
		ctx:      ctx,
		fileSet:  fileSet,
		opts:     opts,
		fs:       opts.FS,
		reporter: diag.NewDedupReporter(opts.Reporter),
		macros:   make(map[string]*Macro),
		once:     make(map[string]bool),
		entered:  make(map[string]bool),
		out:      newPrinter(),
		result:   &Result{},
	}

	main := fileSet.Get(fileID)
	if isModuleMap(main.Path) {
		p.result.Text = moduleMapText(main)
		return p.result, nil
	}

	p.defineBuiltins()
	if err := p.runPredefines(); err != nil {
		return nil, err
	}

	p.out.marker(1, main.Path, "")
	p.push(main, main.Path, -1)
	e := p.newExpander(p.lexNext)
	for {
		t := e.next()
		if t.Kind == token.EOF {
			break
		}
		p.out.token(t)
	}
	if p.err != nil {
		return nil, p.err
	}
	p.result.Text = p.out.bytes()
	return p.result, nil
}

func isModuleMap(path string) bool {
	return strings.HasSuffix(path, ".modulemap")
}

// moduleMapText frames a module map so that the compiler reading the output
// sees the map followed by its (empty) contents marker.
func moduleMapText(f *source.File) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# 1 %q\n", f.Path)
	b.Write(f.Content)
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("#pragma clang module contents\n")
	return []byte(b.String())
}

func (p *Preprocessor) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *Preprocessor) push(f *source.File, presumed string, dirIdx int) {
	p.stack = append(p.stack, &frame{
		file:     f,
		lx:       lexer.New(f, lexer.Options{Reporter: p.reporter}),
		presumed: presumed,
		dirIdx:   dirIdx,
	})
}

// lexNext is the bottom token source: raw tokens of the innermost file with
// directives executed and end-of-file popping back to the includer.
func (p *Preprocessor) lexNext() ppToken {
	for {
		f := p.top()
		if f == nil {
			return ppToken{Token: token.Token{Kind: token.EOF}}
		}
		tok := f.lx.Next()
		if tok.Kind == token.EOF {
			for _, c := range f.conds {
				p.errorf(diag.PPUnterminatedCond, c.at, "unterminated conditional directive")
			}
			p.stack = p.stack[:len(p.stack)-1]
			if parent := p.top(); parent != nil && !p.silent {
				p.out.marker(f.retLine, parent.presumed, "2")
			}
			continue
		}
		if tok.Kind == token.Hash && tok.BOL {
			p.directive(f, tok)
			if p.err != nil {
				return ppToken{Token: token.Token{Kind: token.EOF}}
			}
			continue
		}
		return p.wrap(f, tok)
	}
}

func (p *Preprocessor) wrap(f *frame, tok token.Token) ppToken {
	lc := f.file.LineCol(tok.Span.Start)
	return ppToken{
		Token: tok,
		file:  f.presumed,
		line:  presumedLine(lc.Line, f.lineDelta),
		col:   lc.Col,
		space: tok.HasSpace(),
	}
}

func presumedLine(phys uint32, delta int64) uint32 {
	v := int64(phys) + delta
	if v < 1 {
		return 1
	}
	return uint32(v) // #nosec G115 -- line numbers stay far below 2^32
}

// lineTokens reads the remaining tokens of the current directive line.
func (p *Preprocessor) lineTokens(f *frame) []token.Token {
	var out []token.Token
	for {
		t := f.lx.Peek()
		if t.BOL || t.Kind == token.EOF {
			return out
		}
		out = append(out, f.lx.Next())
	}
}

func (p *Preprocessor) skipLine(f *frame) {
	for {
		t := f.lx.Peek()
		if t.BOL || t.Kind == token.EOF {
			return
		}
		f.lx.Next()
	}
}

func (p *Preprocessor) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
}

func (p *Preprocessor) warnf(code diag.Code, sp source.Span, format string, args ...any) {
	p.reporter.Report(code, diag.SevWarning, sp, fmt.Sprintf(format, args...), nil)
}

// runPredefines executes the built-in and command-line #define lines
// without producing output.
func (p *Preprocessor) runPredefines() error {
	var b strings.Builder
	target := p.opts.Target
	if target == "" {
		target = "drai"
	}
	fmt.Fprintf(&b, "#define __cplusplus %s\n", CPlusPlus)
	b.WriteString("#define __STDC_HOSTED__ 1\n")
	b.WriteString("#define __DRAI__ 1\n")
	fmt.Fprintf(&b, "#define __%s__ 1\n", sanitizeIdent(target))
	for _, d := range p.opts.Defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok {
			value = "1"
		}
		fmt.Fprintf(&b, "#define %s %s\n", name, value)
	}

	id := p.fileSet.AddVirtual("<command line>", []byte(b.String()))
	p.silent = true
	p.push(p.fileSet.Get(id), "<command line>", -1)
	for {
		t := p.lexNext()
		if t.Kind == token.EOF {
			break
		}
	}
	p.silent = false
	return p.err
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// resolveInclude searches for name. Quoted includes look next to the
// including file first. startDir skips include-path entries for #include_next.
func (p *Preprocessor) resolveInclude(name string, angled bool, from *frame, startDir int) (string, int, bool) {
	if filepath.IsAbs(name) {
		return name, -1, vfs.IsFile(p.fs, name)
	}
	if !angled && startDir < 0 && from != nil {
		cand := filepath.Join(filepath.Dir(from.file.Path), name)
		if vfs.IsFile(p.fs, cand) {
			return cand, -1, true
		}
	}
	for i := max(startDir, 0); i < len(p.opts.IncludeDirs); i++ {
		cand := filepath.Join(p.opts.IncludeDirs[i], name)
		if vfs.IsFile(p.fs, cand) {
			return cand, i, true
		}
	}
	return "", -1, false
}
