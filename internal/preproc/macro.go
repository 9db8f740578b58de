package preproc

import (
	"drai/internal/diag"
	"drai/internal/source"
	"drai/internal/token"
)

type builtinKind uint8

const (
	notBuiltin builtinKind = iota
	builtinFile
	builtinLine
	builtinCounter
)

// Macro is one #define.
type Macro struct {
	Name     string
	FuncLike bool
	Params   []string
	Variadic bool
	Body     []ppToken
	Def      source.Span
	builtin  builtinKind
}

func (m *Macro) paramIndex(name string) int {
	if !m.FuncLike {
		return -1
	}
	for i, p := range m.Params {
		if p == name {
			return i
		}
	}
	return -1
}

func (m *Macro) sameAs(o *Macro) bool {
	if m.FuncLike != o.FuncLike || m.Variadic != o.Variadic || len(m.Params) != len(o.Params) || len(m.Body) != len(o.Body) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range m.Body {
		if m.Body[i].Text != o.Body[i].Text || (i > 0 && m.Body[i].space != o.Body[i].space) {
			return false
		}
	}
	return true
}

func (p *Preprocessor) defineBuiltins() {
	for name, kind := range map[string]builtinKind{
		"__FILE__":    builtinFile,
		"__LINE__":    builtinLine,
		"__COUNTER__": builtinCounter,
	} {
		p.macros[name] = &Macro{Name: name, builtin: kind}
	}
}

// parseDefine handles the tokens after "#define".
func (p *Preprocessor) parseDefine(f *frame, hash token.Token) {
	line := p.lineTokens(f)
	if len(line) == 0 || !line[0].IsWord() {
		sp := hash.Span
		if len(line) > 0 {
			sp = line[0].Span
		}
		p.errorf(diag.PPBadDefine, sp, "macro name must be an identifier")
		return
	}
	nameTok := line[0]
	m := &Macro{Name: nameTok.Text, Def: nameTok.Span}
	rest := line[1:]

	if len(rest) > 0 && rest[0].Kind == token.LParen && !rest[0].HasSpace() {
		m.FuncLike = true
		params, n, ok := p.parseParams(m, rest)
		if !ok {
			return
		}
		m.Params = params
		rest = rest[n:]
	}

	for i, t := range rest {
		pt := ppToken{Token: t, space: i > 0 && t.HasSpace()}
		m.Body = append(m.Body, pt)
	}
	if !p.checkBody(m) {
		return
	}

	if prev, ok := p.macros[m.Name]; ok {
		if prev.builtin != notBuiltin {
			p.warnf(diag.PPMacroRedefined, nameTok.Span, "redefining builtin macro '%s'", m.Name)
		} else if !prev.sameAs(m) {
			diag.ReportWarning(p.reporter, diag.PPMacroRedefined, nameTok.Span, "'"+m.Name+"' macro redefined").
				WithNote(prev.Def, "previous definition is here").
				Emit()
		}
	}
	p.macros[m.Name] = m
}

// parseParams reads "( params )" from rest and returns how many tokens it used.
func (p *Preprocessor) parseParams(m *Macro, rest []token.Token) ([]string, int, bool) {
	var params []string
	i := 1
	if i < len(rest) && rest[i].Kind == token.RParen {
		return params, i + 1, true
	}
	for {
		if i >= len(rest) {
			p.errorf(diag.PPBadDefine, m.Def, "missing ')' in macro parameter list")
			return nil, 0, false
		}
		t := rest[i]
		switch {
		case t.Kind == token.Ellipsis:
			m.Variadic = true
			params = append(params, "__VA_ARGS__")
			i++
		case t.IsWord():
			params = append(params, t.Text)
			i++
			if i < len(rest) && rest[i].Kind == token.Ellipsis {
				m.Variadic = true
				i++
			}
		default:
			p.errorf(diag.PPBadDefine, t.Span, "invalid token in macro parameter list")
			return nil, 0, false
		}
		if i >= len(rest) {
			p.errorf(diag.PPBadDefine, m.Def, "missing ')' in macro parameter list")
			return nil, 0, false
		}
		if rest[i].Kind == token.RParen {
			return params, i + 1, true
		}
		if rest[i].Kind != token.Comma || m.Variadic {
			p.errorf(diag.PPBadDefine, rest[i].Span, "expected ',' or ')' in macro parameter list")
			return nil, 0, false
		}
		i++
	}
}

func (p *Preprocessor) checkBody(m *Macro) bool {
	n := len(m.Body)
	if n == 0 {
		return true
	}
	if m.Body[0].Kind == token.HashHash || m.Body[n-1].Kind == token.HashHash {
		bad := m.Body[0]
		if bad.Kind != token.HashHash {
			bad = m.Body[n-1]
		}
		p.errorf(diag.PPBadPaste, bad.Span, "'##' cannot appear at either end of a macro expansion")
		return false
	}
	if !m.FuncLike {
		return true
	}
	for i, t := range m.Body {
		if t.Kind != token.Hash {
			continue
		}
		if i+1 >= n || m.paramIndex(m.Body[i+1].Text) < 0 || !m.Body[i+1].IsWord() {
			p.errorf(diag.PPBadStringify, t.Span, "'#' is not followed by a macro parameter")
			return false
		}
	}
	return true
}

func (p *Preprocessor) undef(f *frame, hash token.Token) {
	line := p.lineTokens(f)
	if len(line) == 0 || !line[0].IsWord() {
		p.errorf(diag.PPBadDefine, hash.Span, "macro name must be an identifier")
		return
	}
	if m, ok := p.macros[line[0].Text]; ok && m.builtin != notBuiltin {
		p.warnf(diag.PPUndefBuiltin, line[0].Span, "undefining builtin macro '%s'", m.Name)
	}
	delete(p.macros, line[0].Text)
}
