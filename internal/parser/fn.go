package parser

import (
	"slices"

	"drai/internal/ast"
	"drai/internal/token"
)

type funcResult struct {
	ast.FuncDecl
	// hasSpecArgs is set when the name carries "<...>", even an empty one.
	hasSpecArgs bool
}

// parseFunction recognizes a function declarator in tokens [i, end]. It
// returns nil for anything else (variables, operators, constructors).
func (p *Parser) parseFunction(start, i, end, body int, hdr *templateHeader) *funcResult {
	limit := end + 1
	if body >= 0 {
		limit = body
	}
	kernel := false
	j := i
	for j < limit {
		t := p.tok(j)
		if p.isAttrStart(j) {
			var names []string
			j, names = p.skipAttr(j)
			kernel = kernel || p.anyKernelAttr(names)
			continue
		}
		if t.Kind == token.KwExtern || (t.Kind == token.Ident && (specifierWords[t.Text] || p.isKernelWord(t))) {
			kernel = kernel || p.isKernelWord(t)
			j++
			continue
		}
		break
	}
	typeStart := j

	dp := p.declaratorParen(typeStart, limit)
	if dp < 0 {
		return nil
	}
	var tps []ast.TemplateParam
	if hdr != nil {
		tps = hdr.params
	}

	fr := &funcResult{}
	nameEnd := dp - 1
	var specFrom, specTo int
	if k := p.kindAt(nameEnd); k == token.Gt || k == token.Shr {
		open := p.matchAngleBack(nameEnd, typeStart)
		if open <= typeStart {
			return nil
		}
		specFrom, specTo = open+1, nameEnd
		fr.hasSpecArgs = true
		nameEnd = open - 1
	}
	if p.kindAt(nameEnd) != token.Ident || p.kindAt(nameEnd-1) == token.Tilde || p.kindAt(nameEnd-1) == token.KwOperator {
		return nil
	}
	nameStart := nameEnd
	var qual []string
	for nameStart-2 >= typeStart && p.kindAt(nameStart-1) == token.ColonColon {
		q := nameStart - 2
		if k := p.kindAt(q); k == token.Gt || k == token.Shr {
			// class template qualifier S<T>::f
			open := p.matchAngleBack(q, typeStart)
			if open <= typeStart {
				break
			}
			q = open - 1
		}
		if p.kindAt(q) != token.Ident {
			break
		}
		qual = append([]string{p.tok(q).Text}, qual...)
		nameStart = q
	}
	if nameStart-1 >= typeStart && p.kindAt(nameStart-1) == token.ColonColon {
		nameStart--
	}
	if nameStart <= typeStart {
		// no return type: constructor or macro-like invocation
		return nil
	}
	for k := typeStart; k < nameStart; k++ {
		if p.isKernelWord(p.tok(k)) {
			kernel = true
		}
		if p.isAttrStart(k) {
			_, names := p.skipAttr(k)
			kernel = kernel || p.anyKernelAttr(names)
		}
	}

	ret, retName := p.parseType(typeStart, nameStart, tps)
	if ret == nil || retName >= 0 {
		ret = p.opaque(typeStart, nameStart)
	}
	closeParen := p.match[dp]
	params, variadic := p.parseParams(dp+1, closeParen, tps)

	// trailing attributes and return type
	for k := closeParen + 1; k < limit; {
		switch {
		case p.isAttrStart(k):
			var names []string
			k, names = p.skipAttr(k)
			kernel = kernel || p.anyKernelAttr(names)
			continue
		case p.kindAt(k) == token.Arrow:
			stop := k + 1
			for stop < limit && !p.at_or(stop, token.Assign, token.Semicolon, token.LBrace) && !p.isAttrStart(stop) &&
				!slices.Contains([]string{"override", "final", "requires"}, p.tok(stop).Text) {
				if p.at_or(stop, token.LParen, token.LBracket) {
					stop = p.skipGroup(stop)
					continue
				}
				stop++
			}
			if typ, n := p.parseType(k+1, stop, tps); typ != nil && n < 0 {
				ret = typ
			} else {
				ret = p.opaque(k+1, stop)
			}
			k = stop
			continue
		case p.at_or(k, token.LParen, token.LBracket):
			k = p.skipGroup(k)
			continue
		}
		k++
	}

	fr.FuncDecl = ast.FuncDecl{
		Name:      p.tok(nameEnd).Text,
		Qualifier: qual,
		Scope:     p.currentScope(),
		ExternC:   p.externC > 0,
		Kernel:    kernel,
		Return:    ret,
		Params:    params,
		Variadic:  variadic,
		Span:      p.spanOf(start, end),
		NameSpan:  p.tok(nameEnd).Span,
	}
	if body >= 0 {
		fr.HasBody = true
		fr.Body = p.spanOf(body, min(p.match[body], end))
	}
	if fr.hasSpecArgs {
		fr.SpecArgs = p.parseTemplateArgs(specFrom, specTo, nil)
	}
	if hdr != nil {
		if hdr.explicit {
			fr.Template = ast.TemplateSpecialization
		} else {
			fr.Template = ast.TemplateGeneric
			fr.TemplateParams = hdr.params
		}
	}
	return fr
}

// declaratorParen finds the '(' that opens the parameter list: the first
// top-level paren directly after a name or a template-id.
func (p *Parser) declaratorParen(from, limit int) int {
	for k := from; k < limit; {
		switch p.kindAt(k) {
		case token.LParen:
			if k > from {
				prev := p.tok(k - 1)
				switch {
				case prev.Kind == token.Ident && !nonNameWords[prev.Text] && !builtinWords[prev.Text] &&
					!specifierWords[prev.Text] && !attrIntroducers[prev.Text] && !restrictWords[prev.Text]:
					return k
				case prev.Kind == token.Gt || prev.Kind == token.Shr:
					return k
				}
			}
			k = p.skipGroup(k)
			continue
		case token.LBracket:
			k = p.skipGroup(k)
			continue
		case token.Lt:
			if k > from && p.kindAt(k-1) == token.Ident {
				if closeIdx := p.matchAngle(k, limit); closeIdx > 0 {
					if p.kindAt(closeIdx+1) == token.LParen {
						return closeIdx + 1
					}
					k = closeIdx + 1
					continue
				}
			}
		case token.Assign, token.Semicolon, token.LBrace:
			return -1
		}
		k++
	}
	return -1
}

func (p *Parser) parseParams(from, to int, tps []ast.TemplateParam) ([]ast.Param, bool) {
	parts := p.splitTop(from, to, true)
	if len(parts) == 1 && parts[0][1]-parts[0][0] == 1 && p.tok(parts[0][0]).Is("void") {
		return nil, false
	}
	var params []ast.Param
	variadic := false
	for _, part := range parts {
		a, b := part[0], part[1]
		if a >= b {
			continue
		}
		if b-a == 1 && p.kindAt(a) == token.Ellipsis {
			variadic = true
			continue
		}
		typeEnd := p.findTop(a, b, token.Assign)
		typ, nameIdx := p.parseType(a, typeEnd, tps)
		if typ == nil {
			typ = p.opaque(a, typeEnd)
		}
		param := ast.Param{Type: typ, Span: p.spanOf(a, typeEnd-1)}
		if nameIdx >= 0 {
			param.Name = p.tok(nameIdx).Text
		}
		params = append(params, param)
	}
	return params, variadic
}
