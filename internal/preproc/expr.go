package preproc

import (
	"strconv"
	"strings"

	"drai/internal/diag"
	"drai/internal/source"
	"drai/internal/token"
)

// value is a preprocessor arithmetic value: intmax_t or uintmax_t.
type value struct {
	v        uint64
	unsigned bool
}

func (v value) signed() int64 { return int64(v.v) } // #nosec G115 -- two's complement reinterpretation
func (v value) truth() bool   { return v.v != 0 }

func boolValue(b bool) value {
	if b {
		return value{v: 1}
	}
	return value{}
}

// evalCondition reads the rest of an #if/#elif line and evaluates it.
func (p *Preprocessor) evalCondition(f *frame, hash token.Token) bool {
	line := p.lineTokens(f)
	if len(line) == 0 {
		p.errorf(diag.PPIfSyntax, hash.Span, "#if with no expression")
		return false
	}

	toks := make([]ppToken, 0, len(line))
	for i := 0; i < len(line); i++ {
		t := line[i]
		switch {
		case t.Is("defined"):
			name, n, ok := operand(line[i+1:], false)
			if !ok {
				p.errorf(diag.PPIfSyntax, t.Span, "macro name missing after 'defined'")
				return false
			}
			_, def := p.macros[name]
			toks = append(toks, numberToken(p.wrap(f, t), def))
			i += n
		case t.Is("__has_include") || t.Is("__has_include_next"):
			name, angled, n, ok := p.hasIncludeOperand(f, line[i+1:])
			if !ok {
				p.errorf(diag.PPIfSyntax, t.Span, "invalid operand for %s", t.Text)
				return false
			}
			_, _, found := p.resolveInclude(name, angled, f, -1)
			toks = append(toks, numberToken(p.wrap(f, t), found))
			i += n
		case t.Is("__has_attribute") || t.Is("__has_cpp_attribute") || t.Is("__has_builtin") ||
			t.Is("__has_feature") || t.Is("__has_extension") || t.Is("__has_warning"):
			_, n, ok := operand(line[i+1:], true)
			if !ok {
				p.errorf(diag.PPIfSyntax, t.Span, "invalid operand for %s", t.Text)
				return false
			}
			toks = append(toks, numberToken(p.wrap(f, t), false))
			i += n
		default:
			toks = append(toks, p.wrap(f, t))
		}
	}

	expanded := p.expandList(toks)
	ev := &evaluator{p: p, toks: expanded, at: hash.Span}
	v, ok := ev.parse(0)
	if ok && ev.pos < len(ev.toks) {
		p.errorf(diag.PPIfSyntax, ev.toks[ev.pos].Span, "token is not a valid binary operator in a preprocessor subexpression")
		ok = false
	}
	return ok && v.truth()
}

func numberToken(at ppToken, b bool) ppToken {
	at.Kind = token.Number
	at.Text = "0"
	if b {
		at.Text = "1"
	}
	at.noExpand = true
	return at
}

// operand parses "NAME" or "( NAME )" (anyTokens: any balanced contents).
func operand(toks []token.Token, anyTokens bool) (string, int, bool) {
	if len(toks) == 0 {
		return "", 0, false
	}
	if toks[0].Kind != token.LParen {
		if anyTokens || !toks[0].IsWord() {
			return "", 0, false
		}
		return toks[0].Text, 1, true
	}
	depth := 0
	for i, t := range toks {
		switch t.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				if !anyTokens && (i != 2 || !toks[1].IsWord()) {
					return "", 0, false
				}
				return toks[1].Text, i + 1, true
			}
		}
	}
	return "", 0, false
}

func (p *Preprocessor) hasIncludeOperand(f *frame, toks []token.Token) (string, bool, int, bool) {
	if len(toks) < 3 || toks[0].Kind != token.LParen {
		return "", false, 0, false
	}
	for i := 1; i < len(toks); i++ {
		if toks[i].Kind == token.RParen {
			name, angled, ok := p.headerName(f, toks[1:i])
			return name, angled, i + 1, ok
		}
	}
	return "", false, 0, false
}

type evaluator struct {
	p    *Preprocessor
	toks []ppToken
	pos  int
	at   source.Span
	// skipping suppresses division errors in unevaluated operands
	skipping int
}

func (ev *evaluator) peek() ppToken {
	if ev.pos < len(ev.toks) {
		return ev.toks[ev.pos]
	}
	return ppToken{Token: token.Token{Kind: token.EOF, Span: ev.at}}
}

func (ev *evaluator) fail(t ppToken, msg string) (value, bool) {
	sp := t.Span
	if t.Kind == token.EOF {
		sp = ev.at
	}
	ev.p.errorf(diag.PPIfSyntax, sp, "%s", msg)
	return value{}, false
}

var binaryPrec = map[token.Kind]int{
	token.OrOr: 1, token.AndAnd: 2, token.Pipe: 3, token.Caret: 4, token.Amp: 5,
	token.EqEq: 6, token.BangEq: 6,
	token.Lt: 7, token.Gt: 7, token.LtEq: 7, token.GtEq: 7,
	token.Shl: 8, token.Shr: 8,
	token.Plus: 9, token.Minus: 9,
	token.Star: 10, token.Slash: 10, token.Percent: 10,
}

// parse is precedence climbing; the conditional operator binds loosest.
func (ev *evaluator) parse(minPrec int) (value, bool) {
	lhs, ok := ev.unary()
	if !ok {
		return value{}, false
	}
	for {
		op := ev.peek()
		if op.Kind == token.Question && minPrec == 0 {
			ev.pos++
			if !lhs.truth() {
				ev.skipping++
			}
			a, ok := ev.parse(0)
			if !lhs.truth() {
				ev.skipping--
			}
			if !ok {
				return value{}, false
			}
			if c := ev.peek(); c.Kind != token.Colon {
				return ev.fail(c, "expected ':' in conditional expression")
			}
			ev.pos++
			if lhs.truth() {
				ev.skipping++
			}
			b, ok := ev.parse(0)
			if lhs.truth() {
				ev.skipping--
			}
			if !ok {
				return value{}, false
			}
			if lhs.truth() {
				lhs = a
			} else {
				lhs = b
			}
			lhs.unsigned = a.unsigned || b.unsigned
			continue
		}
		prec, isBin := binaryPrec[op.Kind]
		if !isBin || prec <= minPrec {
			return lhs, true
		}
		ev.pos++

		short := (op.Kind == token.AndAnd && !lhs.truth()) || (op.Kind == token.OrOr && lhs.truth())
		if short {
			ev.skipping++
		}
		rhs, ok := ev.parse(prec)
		if short {
			ev.skipping--
		}
		if !ok {
			return value{}, false
		}
		lhs, ok = ev.apply(op, lhs, rhs)
		if !ok {
			return value{}, false
		}
	}
}

func (ev *evaluator) apply(op ppToken, a, b value) (value, bool) {
	uns := a.unsigned || b.unsigned
	out := value{unsigned: uns}
	switch op.Kind {
	case token.OrOr:
		return boolValue(a.truth() || b.truth()), true
	case token.AndAnd:
		return boolValue(a.truth() && b.truth()), true
	case token.Pipe:
		out.v = a.v | b.v
	case token.Caret:
		out.v = a.v ^ b.v
	case token.Amp:
		out.v = a.v & b.v
	case token.EqEq:
		return boolValue(a.v == b.v), true
	case token.BangEq:
		return boolValue(a.v != b.v), true
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		var less, eq bool
		if uns {
			less, eq = a.v < b.v, a.v == b.v
		} else {
			less, eq = a.signed() < b.signed(), a.v == b.v
		}
		switch op.Kind {
		case token.Lt:
			return boolValue(less), true
		case token.Gt:
			return boolValue(!less && !eq), true
		case token.LtEq:
			return boolValue(less || eq), true
		default:
			return boolValue(!less), true
		}
	case token.Shl:
		out.v = a.v << (b.v & 63)
		out.unsigned = a.unsigned
	case token.Shr:
		if a.unsigned {
			out.v = a.v >> (b.v & 63)
		} else {
			out.v = uint64(a.signed() >> (b.v & 63)) // #nosec G115
		}
		out.unsigned = a.unsigned
	case token.Plus:
		out.v = a.v + b.v
	case token.Minus:
		out.v = a.v - b.v
	case token.Star:
		out.v = a.v * b.v
	case token.Slash, token.Percent:
		if b.v == 0 {
			if ev.skipping > 0 {
				return out, true
			}
			ev.p.errorf(diag.PPDivByZero, op.Span, "division by zero in preprocessor expression")
			return value{}, false
		}
		switch {
		case uns && op.Kind == token.Slash:
			out.v = a.v / b.v
		case uns:
			out.v = a.v % b.v
		case op.Kind == token.Slash:
			out.v = uint64(a.signed() / b.signed()) // #nosec G115
		default:
			out.v = uint64(a.signed() % b.signed()) // #nosec G115
		}
	}
	return out, true
}

func (ev *evaluator) unary() (value, bool) {
	t := ev.peek()
	switch t.Kind {
	case token.Plus, token.Minus, token.Bang, token.Tilde:
		ev.pos++
		v, ok := ev.unary()
		if !ok {
			return value{}, false
		}
		switch t.Kind {
		case token.Minus:
			v.v = -v.v
		case token.Bang:
			return boolValue(!v.truth()), true
		case token.Tilde:
			v.v = ^v.v
		}
		return v, true
	case token.LParen:
		ev.pos++
		v, ok := ev.parse(0)
		if !ok {
			return value{}, false
		}
		if c := ev.peek(); c.Kind != token.RParen {
			return ev.fail(c, "expected ')' in preprocessor expression")
		}
		ev.pos++
		return v, true
	case token.Number:
		ev.pos++
		v, ok := parseInteger(t.Text)
		if !ok {
			return ev.fail(t, "invalid integer constant '"+t.Text+"' in preprocessor expression")
		}
		return v, true
	case token.CharLit:
		ev.pos++
		v, ok := charValue(t.Text)
		if !ok {
			return ev.fail(t, "invalid character constant in preprocessor expression")
		}
		return v, true
	case token.EOF:
		return ev.fail(t, "expected value in expression")
	}
	if t.IsWord() {
		// identifiers left after expansion evaluate to 0; true is the exception
		ev.pos++
		return boolValue(t.Text == "true"), true
	}
	return ev.fail(t, "invalid token at start of a preprocessor expression")
}

func parseInteger(text string) (value, bool) {
	s := strings.ReplaceAll(text, "'", "")
	uns := false
	for len(s) > 0 {
		c := s[len(s)-1]
		if c == 'u' || c == 'U' {
			uns = true
		} else if c != 'l' && c != 'L' && c != 'z' && c != 'Z' {
			break
		}
		s = s[:len(s)-1]
	}
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		s = "0o" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return value{}, false
	}
	if v > 1<<63-1 {
		uns = true
	}
	return value{v: v, unsigned: uns}, true
}

func charValue(text string) (value, bool) {
	i := strings.IndexByte(text, '\'')
	if i < 0 || len(text) < i+3 {
		return value{}, false
	}
	body := text[i+1 : len(text)-1]
	r, _, tail, err := strconv.UnquoteChar(body, '\'')
	if err != nil || tail != "" {
		return value{}, false
	}
	return value{v: uint64(r)}, true // #nosec G115 -- runes are non-negative here
}
