package parser

import (
	"slices"
	"strconv"

	"drai/internal/ast"
	"drai/internal/diag"
	"drai/internal/lexer"
	"drai/internal/source"
	"drai/internal/token"
)

type Options struct {
	// KernelAttributes adds attribute spellings that mark a kernel.
	KernelAttributes []string
	MaxErrors        uint
	CurrentErrors    uint
	Reporter         diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser - состояние разбора одного файла
type Parser struct {
	file *source.File
	toks []token.Token // все токены файла без директив, последний - EOF
	// match[i] - индекс парной скобки для ( [ { и ) ] }
	match []int
	opts  Options
	attrs []string
	out   *ast.File
	scope []string
	// externC > 0 внутри extern "C"
	externC int
}

// ParseFile разбирает препроцессированный файл. Диагностики копятся в
// возвращаемом Bag и дублируются в opts.Reporter, если он задан.
func ParseFile(file *source.File, opts Options) (*ast.File, *diag.Bag) {
	bag := diag.NewBag(int(max(opts.MaxErrors, 100)))
	rep := diag.Reporter(diag.BagReporter{Bag: bag})
	if opts.Reporter != nil {
		rep = teeReporter{bag: diag.BagReporter{Bag: bag}, next: opts.Reporter}
	}
	opts.Reporter = rep

	p := &Parser{
		file:  file,
		opts:  opts,
		attrs: kernelAttributeNames(opts.KernelAttributes),
		out:   &ast.File{Source: file},
	}
	p.tokenize()
	p.pairBrackets()
	p.parseDecls(0, len(p.toks)-1)
	p.inheritKernelAttribute()
	return p.out, bag
}

type teeReporter struct {
	bag  diag.Reporter
	next diag.Reporter
}

func (t teeReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	t.bag.Report(code, sev, primary, msg, notes)
	t.next.Report(code, sev, primary, msg, notes)
}

// tokenize собирает токены, пропуская строки директив (маркеры строк,
// #pragma, непрояснённые #include).
func (p *Parser) tokenize() {
	lx := lexer.New(p.file, lexer.Options{Reporter: p.opts.Reporter})
	for {
		tok := lx.Next()
		if tok.Kind == token.Hash && tok.BOL {
			var line []token.Token
			for {
				next := lx.Peek()
				if next.BOL || next.Kind == token.EOF {
					break
				}
				line = append(line, lx.Next())
			}
			p.lineMarker(tok, line)
			continue
		}
		p.toks = append(p.toks, tok)
		if tok.Kind == token.EOF {
			return
		}
	}
}

// lineMarker records `# N "file"` and `#line N "file"` on the file so that
// positions resolve to the original sources.
func (p *Parser) lineMarker(hash token.Token, rest []token.Token) {
	if len(rest) > 0 && rest[0].Is("line") {
		rest = rest[1:]
	}
	if len(rest) < 2 || rest[0].Kind != token.Number || rest[1].Kind != token.StringLit {
		return
	}
	n, err := strconv.ParseUint(rest[0].Text, 10, 32)
	if err != nil {
		return
	}
	path, err := strconv.Unquote(rest[1].Text)
	if err != nil {
		return
	}
	line := p.file.LineCol(hash.Span.Start).Line
	if int(line) > len(p.file.LineIdx) {
		return // маркер на последней строке без '\n'
	}
	p.file.AddLineMarker(p.file.LineIdx[line-1]+1, uint32(n), path)
}

func (p *Parser) tok(i int) token.Token {
	if i < 0 || i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) kindAt(i int) token.Kind {
	return p.tok(i).Kind
}

func (p *Parser) at_or(i int, kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.kindAt(i))
}

// spanOf covers tokens [from, to] inclusive.
func (p *Parser) spanOf(from, to int) source.Span {
	return p.tok(from).Span.Cover(p.tok(to).Span)
}

// textOf returns the source text of tokens [from, to] inclusive.
func (p *Parser) textOf(from, to int) string {
	if to < from {
		return ""
	}
	return string(p.file.Slice(p.spanOf(from, to)))
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if p.opts.Reporter == nil {
		return false
	}
	if sev == diag.SevError {
		p.opts.CurrentErrors++
	}
	if p.opts.Enough() {
		return false // достигли максимального количества ошибок
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil)
	return true
}

func (p *Parser) err(code diag.Code, at int, msg string) bool {
	return p.report(code, diag.SevError, p.tok(at).Span, msg)
}

func (p *Parser) warn(code diag.Code, at int, msg string) bool {
	return p.report(code, diag.SevWarning, p.tok(at).Span, msg)
}

func (p *Parser) currentScope() []string {
	return slices.Clone(p.scope)
}

// inheritKernelAttribute: повторное объявление ядра остаётся ядром,
// даже если атрибут написан только у первого объявления.
func (p *Parser) inheritKernelAttribute() {
	for i, fn := range p.out.Funcs {
		if fn.Kernel {
			continue
		}
		for _, prev := range p.out.Funcs[:i] {
			if prev.Kernel && sameEntity(prev, fn) {
				fn.Kernel = true
				break
			}
		}
	}
}

func sameEntity(a, b *ast.FuncDecl) bool {
	return a.Name == b.Name &&
		slices.Equal(a.FullScope(), b.FullScope()) &&
		len(a.Params) == len(b.Params) &&
		(a.Template == ast.TemplateNone) == (b.Template == ast.TemplateNone)
}
