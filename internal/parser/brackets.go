package parser

import (
	"drai/internal/diag"
	"drai/internal/token"
)

func closerOf(k token.Kind) token.Kind {
	switch k {
	case token.LParen:
		return token.RParen
	case token.LBracket:
		return token.RBracket
	case token.LBrace:
		return token.RBrace
	}
	return token.Invalid
}

func isCloser(k token.Kind) bool {
	return k == token.RParen || k == token.RBracket || k == token.RBrace
}

// pairBrackets fills p.match. Unclosed openers pair with EOF; stray
// closers pair with themselves.
func (p *Parser) pairBrackets() {
	p.match = make([]int, len(p.toks))
	for i := range p.match {
		p.match[i] = -1
	}
	var stack []int
	eof := len(p.toks) - 1
	for i, t := range p.toks {
		switch {
		case closerOf(t.Kind) != token.Invalid:
			stack = append(stack, i)
		case isCloser(t.Kind):
			found := -1
			for j := len(stack) - 1; j >= 0; j-- {
				if closerOf(p.toks[stack[j]].Kind) == t.Kind {
					found = j
					break
				}
			}
			if found < 0 {
				p.err(diag.SynUnexpectedToken, i, "unexpected '"+t.Text+"'")
				p.match[i] = i
				continue
			}
			for j := len(stack) - 1; j > found; j-- {
				p.unclosed(stack[j], i)
			}
			open := stack[found]
			p.match[open], p.match[i] = i, open
			stack = stack[:found]
		}
	}
	for j := len(stack) - 1; j >= 0; j-- {
		p.unclosed(stack[j], eof)
	}
}

func (p *Parser) unclosed(open, at int) {
	p.err(diag.SynUnclosedDelimiter, open, "unclosed '"+p.toks[open].Text+"'")
	p.match[open] = at
}

// skipGroup returns the index after the group opened at i.
func (p *Parser) skipGroup(i int) int {
	if m := p.match[i]; m > i {
		return m + 1
	}
	return i + 1
}

// matchAngle finds the '>' closing the '<' at i, skipping bracket groups.
// A '>>' token closes two levels. Returns -1 when not closed before limit.
func (p *Parser) matchAngle(i, limit int) int {
	depth := 0
	for j := i; j < limit; {
		switch p.kindAt(j) {
		case token.Lt:
			depth++
		case token.Gt:
			depth--
		case token.Shr:
			depth -= 2
		case token.GtGtGt:
			depth -= 3
		case token.LParen, token.LBracket, token.LBrace:
			j = p.skipGroup(j)
			continue
		case token.Semicolon, token.RBrace, token.RParen, token.RBracket, token.EOF:
			return -1
		}
		if depth <= 0 {
			return j
		}
		j++
	}
	// "A<B<int>>": the inner list is closed by the split '>>' at limit
	if depth > 0 && limit < len(p.toks) && (p.kindAt(limit) == token.Shr || p.kindAt(limit) == token.GtGtGt) {
		return limit
	}
	return -1
}

// matchAngleBack is matchAngle walking left from a closing '>' at i.
func (p *Parser) matchAngleBack(i, limit int) int {
	depth := 0
	for j := i; j >= limit; {
		switch p.kindAt(j) {
		case token.Gt:
			depth++
		case token.Shr:
			depth += 2
		case token.Lt:
			depth--
		case token.RParen, token.RBracket:
			if m := p.match[j]; m >= 0 && m < j {
				j = m - 1
				continue
			}
		case token.Semicolon, token.LBrace, token.RBrace:
			return -1
		}
		if depth <= 0 {
			return j
		}
		j--
	}
	return -1
}

// splitTop splits tokens [from, to) at commas outside brackets. With
// angles set, '<' '>' also nest.
func (p *Parser) splitTop(from, to int, angles bool) [][2]int {
	if from >= to {
		return nil
	}
	var parts [][2]int
	start := from
	depth := 0
	nest := angles
	for j := from; j < to; {
		switch p.kindAt(j) {
		case token.LParen, token.LBracket, token.LBrace:
			j = min(p.skipGroup(j), to)
			continue
		case token.Lt:
			if angles {
				depth++
			}
		case token.Gt:
			if angles && depth > 0 {
				depth--
			}
		case token.Shr:
			if angles && depth > 0 {
				depth = max(depth-2, 0)
			}
		case token.LtLtLt:
			depth += 3
		case token.GtGtGt:
			depth = max(depth-3, 0)
		case token.Assign:
			// default arguments are expressions: stop nesting angles
			if depth == 0 {
				angles = false
			}
		case token.Comma:
			if depth == 0 {
				parts = append(parts, [2]int{start, j})
				start = j + 1
				angles = nest
			}
		}
		j++
	}
	return append(parts, [2]int{start, to})
}
