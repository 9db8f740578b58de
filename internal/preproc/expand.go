package preproc

import (
	"strconv"
	"strings"

	"drai/internal/diag"
	"drai/internal/lexer"
	"drai/internal/source"
	"drai/internal/token"
)

// expander rescans a token source, replacing macro invocations.
// Pending tokens form a stack: the last element is read next.
type expander struct {
	p       *Preprocessor
	src     func() ppToken
	pending []ppToken
}

func (p *Preprocessor) newExpander(src func() ppToken) *expander {
	return &expander{p: p, src: src}
}

func (e *expander) read() ppToken {
	if n := len(e.pending); n > 0 {
		t := e.pending[n-1]
		e.pending = e.pending[:n-1]
		return t
	}
	return e.src()
}

func (e *expander) unread(toks ...ppToken) {
	for i := len(toks) - 1; i >= 0; i-- {
		e.pending = append(e.pending, toks[i])
	}
}

// next returns the next fully expanded token.
func (e *expander) next() ppToken {
	for {
		t := e.read()
		if !t.IsWord() || t.noExpand {
			return t
		}
		m := e.p.macros[t.Text]
		if m == nil {
			return t
		}
		if t.hide.has(t.Text) {
			t.noExpand = true
			return t
		}
		if m.builtin != notBuiltin {
			return e.p.builtinToken(m, t)
		}
		if !m.FuncLike {
			e.unread(e.subst(m, nil, t.hide.with(m.Name), t)...)
			continue
		}

		open := e.read()
		if open.Kind != token.LParen {
			e.unread(open)
			return t
		}
		args, closing, ok := e.collectArgs(m, t)
		if !ok {
			continue
		}
		hs := t.hide.intersect(closing.hide).with(m.Name)
		e.unread(e.subst(m, args, hs, t)...)
	}
}

// collectArgs reads raw argument tokens up to the matching ')'.
func (e *expander) collectArgs(m *Macro, site ppToken) ([][]ppToken, ppToken, bool) {
	var (
		args  [][]ppToken
		cur   []ppToken
		depth int
	)
	for {
		t := e.read()
		switch t.Kind {
		case token.EOF:
			e.p.errorf(diag.PPUnterminatedArgs, site.Span, "unterminated argument list invoking macro '%s'", m.Name)
			e.unread(t)
			return nil, t, false
		case token.LParen:
			depth++
		case token.RParen:
			if depth == 0 {
				args = append(args, cur)
				if !e.arityOK(m, site, args) {
					return nil, t, false
				}
				return padArgs(m, args), t, true
			}
			depth--
		case token.Comma:
			// the variadic parameter swallows the remaining commas
			if depth == 0 && !(m.Variadic && len(args) == len(m.Params)-1) {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
}

func (e *expander) arityOK(m *Macro, site ppToken, args [][]ppToken) bool {
	n := len(m.Params)
	switch {
	case len(args) == n:
		return true
	case n == 0 && len(args) == 1 && len(args[0]) == 0:
		return true
	case m.Variadic && len(args) == n-1:
		return true
	}
	e.p.errorf(diag.PPArgCount, site.Span, "macro '%s' requires %d arguments, but %d given", m.Name, n, len(args))
	return false
}

func padArgs(m *Macro, args [][]ppToken) [][]ppToken {
	n := len(m.Params)
	if n == 0 {
		return nil
	}
	for len(args) < n {
		args = append(args, nil)
	}
	return args
}

// subst builds the replacement list for one invocation.
func (e *expander) subst(m *Macro, args [][]ppToken, hs hideSet, site ppToken) []ppToken {
	body := m.Body
	var out []ppToken
	expanded := make(map[int][]ppToken)
	argExpanded := func(idx int) []ppToken {
		if v, ok := expanded[idx]; ok {
			return v
		}
		v := e.p.expandList(args[idx])
		expanded[idx] = v
		return v
	}

	for i := 0; i < len(body); {
		t := body[i]

		var cur []ppToken
		switch idx := m.paramIndex(t.Text); {
		case m.FuncLike && t.Kind == token.Hash && i+1 < len(body) && m.paramIndex(body[i+1].Text) >= 0:
			cur = []ppToken{e.p.stringify(args[m.paramIndex(body[i+1].Text)], t)}
			i += 2
		case idx >= 0 && t.IsWord():
			if i+1 < len(body) && body[i+1].Kind == token.HashHash {
				cur = copyTokens(args[idx])
			} else {
				cur = copyTokens(argExpanded(idx))
			}
			if len(cur) > 0 {
				cur[0].space = t.space
			}
			i++
		default:
			cur = []ppToken{t}
			i++
		}

		for i+1 < len(body) && body[i].Kind == token.HashHash {
			rt := body[i+1]
			i += 2
			var rhs []ppToken
			switch idx := m.paramIndex(rt.Text); {
			case idx >= 0 && rt.IsWord():
				rhs = copyTokens(args[idx])
				if m.Variadic && idx == len(m.Params)-1 && len(cur) > 0 && cur[len(cur)-1].Kind == token.Comma {
					// GNU ", ## __VA_ARGS__": the comma goes away with an empty
					// argument, otherwise nothing is pasted
					if len(rhs) == 0 {
						cur = cur[:len(cur)-1]
					} else {
						cur = append(cur, copyTokens(argExpanded(idx))...)
					}
					continue
				}
			default:
				rhs = []ppToken{rt}
			}
			cur = e.p.paste(cur, rhs)
		}
		out = append(out, cur...)
	}

	for i := range out {
		out[i].hide = out[i].hide.union(hs)
		out[i].file, out[i].line, out[i].col = site.file, site.line, site.col
		if i == 0 {
			out[i].space = site.space
		}
	}
	return out
}

func copyTokens(in []ppToken) []ppToken {
	return append([]ppToken(nil), in...)
}

// expandList fully expands a detached token list, as done for macro
// arguments before substitution and for #if / #include operands.
func (p *Preprocessor) expandList(in []ppToken) []ppToken {
	i := 0
	src := func() ppToken {
		if i >= len(in) {
			return ppToken{Token: token.Token{Kind: token.EOF}}
		}
		t := in[i]
		i++
		return t
	}
	e := p.newExpander(src)
	var out []ppToken
	for {
		t := e.next()
		if t.Kind == token.EOF {
			return out
		}
		out = append(out, t)
	}
}

// paste joins the last token of lhs with the first of rhs.
func (p *Preprocessor) paste(lhs, rhs []ppToken) []ppToken {
	if len(lhs) == 0 {
		return rhs
	}
	if len(rhs) == 0 {
		return lhs
	}
	left := lhs[len(lhs)-1]
	text := left.Text + rhs[0].Text

	scratch := &source.File{Path: "<paste>", Content: []byte(text)}
	lx := lexer.New(scratch, lexer.Options{})
	first := lx.Next()
	second := lx.Next()
	if first.Kind == token.Invalid || second.Kind != token.EOF || first.HasSpace() {
		p.errorf(diag.PPBadPaste, left.Span,
			"pasting %q and %q does not give a valid preprocessing token", left.Text, rhs[0].Text)
		out := append(copyTokens(lhs), rhs...)
		return out
	}

	pasted := left
	pasted.Kind = first.Kind
	pasted.Text = text
	pasted.Leading = left.Leading
	out := append(copyTokens(lhs[:len(lhs)-1]), pasted)
	return append(out, rhs[1:]...)
}

// stringify implements the '#' operator.
func (p *Preprocessor) stringify(arg []ppToken, at ppToken) ppToken {
	var b strings.Builder
	b.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.space {
			b.WriteByte(' ')
		}
		if t.Kind == token.StringLit || t.Kind == token.CharLit {
			for j := 0; j < len(t.Text); j++ {
				c := t.Text[j]
				if c == '"' || c == '\\' {
					b.WriteByte('\\')
				}
				b.WriteByte(c)
			}
			continue
		}
		b.WriteString(t.Text)
	}
	b.WriteByte('"')
	out := at
	out.Kind = token.StringLit
	out.Text = b.String()
	return out
}

func (p *Preprocessor) builtinToken(m *Macro, site ppToken) ppToken {
	out := site
	out.noExpand = true
	switch m.builtin {
	case builtinFile:
		out.Kind = token.StringLit
		out.Text = strconv.Quote(site.file)
	case builtinLine:
		out.Kind = token.Number
		out.Text = strconv.FormatUint(uint64(site.line), 10)
	case builtinCounter:
		out.Kind = token.Number
		out.Text = strconv.Itoa(p.counter)
		p.counter++
	}
	return out
}
