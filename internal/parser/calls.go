package parser

import (
	"drai/internal/ast"
	"drai/internal/diag"
	"drai/internal/source"
	"drai/internal/token"
)

// scanCalls collects every launch "callee<<<config>>>(args)" in [from, end].
func (p *Parser) scanCalls(from, end int) {
	for j := from; j <= end && j < len(p.toks)-1; j++ {
		if p.kindAt(j) != token.LtLtLt {
			continue
		}
		call := p.parseKernelCall(j, from, end)
		if call.Malformed != "" {
			p.err(diag.SynMalformedKernelCall, j, call.Malformed)
		}
		p.out.Calls = append(p.out.Calls, call)
	}
}

func (p *Parser) parseKernelCall(at, from, end int) *ast.KernelCall {
	call := &ast.KernelCall{Scope: p.currentScope()}
	first := p.calleeStart(at, from)
	if first >= at {
		call.Malformed = "missing kernel name before '<<<'"
		call.Span = p.tok(at).Span
		return call
	}
	call.Callee = source.Span{File: p.tok(first).Span.File, Start: p.tok(first).Span.Start, End: p.tok(at).Span.Start}
	p.resolveCallee(call, first, at)

	closeCfg := p.launchClose(at, end)
	if closeCfg < 0 {
		call.Malformed = "unterminated launch configuration"
		call.Span = p.spanOf(first, at)
		return call
	}
	call.Span = p.spanOf(first, closeCfg)
	if closeCfg == at+1 {
		call.Malformed = "empty launch configuration"
		return call
	}
	for _, part := range p.splitTop(at+1, closeCfg, false) {
		if part[0] >= part[1] {
			call.Malformed = "empty expression in launch configuration"
			return call
		}
		call.Config = append(call.Config, p.spanOf(part[0], part[1]-1))
	}
	open := closeCfg + 1
	if p.kindAt(open) != token.LParen || open > end {
		call.Malformed = "expected '(' after launch configuration"
		return call
	}
	closeArgs := p.match[open]
	call.Span = p.spanOf(first, closeArgs)
	if closeArgs == open+1 {
		return call
	}
	for _, part := range p.splitTop(open+1, closeArgs, false) {
		if part[0] >= part[1] {
			call.Malformed = "empty kernel argument"
			return call
		}
		call.Args = append(call.Args, p.spanOf(part[0], part[1]-1))
	}
	return call
}

// calleeStart walks left from "<<<" over a postfix expression:
// names joined by '.', '->' or '::', template-ids, calls and subscripts.
func (p *Parser) calleeStart(at, from int) int {
	start := at
	needOperand := true
	for j := at - 1; j >= from; {
		k := p.kindAt(j)
		if !needOperand {
			if k == token.Dot || k == token.Arrow || k == token.ColonColon {
				start = j
				j--
				needOperand = true
				continue
			}
			break
		}
		switch {
		case k == token.Ident:
			start = j
			j--
			needOperand = false
			continue
		case k == token.RParen || k == token.RBracket:
			m := p.match[j]
			if m < from || m >= j {
				return start
			}
			start = m
			j = m - 1
			// f(x)<<<, a[i]<<<: the group may follow another operand
			needOperand = j >= from && (p.kindAt(j) == token.Ident || isCloser(p.kindAt(j)) || p.kindAt(j) == token.Gt)
			if !needOperand {
				return start
			}
			continue
		case k == token.Gt || k == token.Shr:
			open := p.matchAngleBack(j, from)
			if open <= from || p.kindAt(open-1) != token.Ident {
				return start
			}
			start = open
			j = open - 1
			continue
		}
		break
	}
	return start
}

// resolveCallee fills the name of a plain "[::]a::b<args>" callee. Any
// other callee expression keeps an empty Name and is rewritten verbatim.
func (p *Parser) resolveCallee(call *ast.KernelCall, first, at int) {
	last := at - 1
	if k := p.kindAt(last); k == token.Gt || k == token.Shr {
		open := p.matchAngleBack(last, first)
		if open <= first {
			return
		}
		call.TemplateArgs = p.parseTemplateArgs(open+1, last, nil)
		call.HasTemplateArgs = true
		last = open - 1
	}
	j := first
	if p.kindAt(j) == token.ColonColon {
		call.Global = true
		j++
	}
	var names []string
	for j <= last {
		if p.kindAt(j) != token.Ident {
			call.TemplateArgs, call.HasTemplateArgs = nil, false
			return
		}
		names = append(names, p.tok(j).Text)
		j++
		if j > last {
			break
		}
		if p.kindAt(j) != token.ColonColon {
			call.TemplateArgs, call.HasTemplateArgs = nil, false
			return
		}
		j++
	}
	if len(names) == 0 {
		return
	}
	call.Name = names[len(names)-1]
	call.Qualifier = names[:len(names)-1]
}

// launchClose finds the ">>>" matching the "<<<" at i.
func (p *Parser) launchClose(i, end int) int {
	depth := 0
	for j := i; j <= end; {
		switch p.kindAt(j) {
		case token.LtLtLt:
			depth++
		case token.GtGtGt:
			depth--
			if depth == 0 {
				return j
			}
		case token.LParen, token.LBracket, token.LBrace:
			j = p.skipGroup(j)
			continue
		case token.Semicolon, token.RBrace, token.EOF:
			return -1
		}
		j++
	}
	return -1
}
