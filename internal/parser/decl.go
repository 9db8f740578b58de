package parser

import (
	"strings"

	"drai/internal/ast"
	"drai/internal/diag"
	"drai/internal/token"
)

// templateHeader is a parsed "template<...>" prefix.
type templateHeader struct {
	start  int
	params []ast.TemplateParam
	// explicit is set for "template<>".
	explicit bool
}

// parseDecls разбирает объявления в диапазоне токенов [from, to).
func (p *Parser) parseDecls(from, to int) {
	for i := from; i < to; {
		if p.opts.Enough() {
			return
		}
		next := p.parseDecl(i, to)
		if next <= i {
			next = i + 1
		}
		i = next
	}
}

func (p *Parser) parseDecl(i, to int) int {
	t := p.tok(i)
	switch {
	case t.Kind == token.Semicolon || isCloser(t.Kind):
		// лишние закрывающие скобки уже отмечены в pairBrackets
		return i + 1
	case t.Kind == token.KwNamespace:
		return p.parseNamespace(i, to)
	case t.Is("inline") && p.kindAt(i+1) == token.KwNamespace:
		return p.parseNamespace(i+1, to)
	case t.Kind == token.KwExtern && p.kindAt(i+1) == token.StringLit:
		return p.parseLinkage(i, to)
	case t.Kind == token.KwExtern && p.kindAt(i+1) == token.KwTemplate:
		return p.skipDecl(i, to)
	case t.Kind == token.KwTemplate:
		return p.parseTemplate(i, to)
	case t.Kind == token.KwUsing:
		return p.parseUsing(i, to)
	case t.Kind == token.KwTypedef:
		return p.parseTypedef(i, to)
	case t.Is("static_assert") || t.Is("_Static_assert") || t.Is("asm") || t.Is("__asm__"):
		return p.skipDecl(i, to)
	}
	return p.parseDeclaration(i, i, to, nil)
}

// skipDecl steps over a declaration the front-end does not model, still
// collecting the launches inside it.
func (p *Parser) skipDecl(i, to int) int {
	end, _ := p.declEnd(i, to)
	p.scanCalls(i, end)
	return end + 1
}

func (p *Parser) parseNamespace(i, to int) int {
	j := i + 1
	var names []string
	for j < to {
		switch {
		case p.tok(j).Is("inline"):
			j++
		case p.kindAt(j) == token.Ident:
			names = append(names, p.tok(j).Text)
			j++
			if p.kindAt(j) != token.ColonColon {
				goto header
			}
			j++
		default:
			goto header
		}
	}
header:
	for p.isAttrStart(j) {
		j, _ = p.skipAttr(j)
	}
	if p.kindAt(j) == token.Assign {
		// namespace alias
		end, _ := p.declEnd(j, to)
		return end + 1
	}
	if p.kindAt(j) != token.LBrace {
		p.err(diag.SynUnexpectedToken, j, "expected '{' after namespace name")
		return p.skipDecl(j, to)
	}
	if len(names) == 0 {
		names = []string{anonymousNamespace}
	}
	closeIdx := p.match[j]
	p.scope = append(p.scope, names...)
	p.parseDecls(j+1, closeIdx)
	p.scope = p.scope[:len(p.scope)-len(names)]
	return closeIdx + 1
}

// anonymousNamespace is the Itanium source name of an unnamed namespace.
const anonymousNamespace = "_GLOBAL__N_1"

func (p *Parser) parseLinkage(i, to int) int {
	lang := strings.Trim(p.tok(i+1).Text, `"`)
	saved := p.externC
	if lang == "C" {
		p.externC++
	} else {
		p.externC = 0
	}
	defer func() { p.externC = saved }()

	if p.kindAt(i+2) == token.LBrace {
		closeIdx := p.match[i+2]
		p.parseDecls(i+3, closeIdx)
		return closeIdx + 1
	}
	return p.parseDecl(i+2, to)
}

func (p *Parser) parseTemplate(i, to int) int {
	if p.kindAt(i+1) != token.Lt {
		return p.parseExplicitInstantiation(i, to)
	}
	closeIdx := p.matchAngle(i+1, to)
	if closeIdx < 0 {
		p.err(diag.SynBadTemplateArgs, i+1, "unterminated template parameter list")
		return p.skipDecl(i, to)
	}
	hdr := &templateHeader{
		start:    i,
		params:   p.parseTemplateParams(i+2, closeIdx),
		explicit: closeIdx == i+2,
	}
	j := closeIdx + 1
	switch {
	case p.kindAt(j) == token.KwTemplate, p.tok(j).Is("requires"):
		// member templates and constrained templates are not modelled
		return p.skipDecl(i, to)
	case p.kindAt(j) == token.KwUsing:
		return p.skipDecl(i, to)
	case p.isClassHead(j):
		p.recordTag(j)
		return p.skipDecl(i, to)
	}
	return p.parseDeclaration(i, j, to, hdr)
}

func (p *Parser) parseTemplateParams(from, to int) []ast.TemplateParam {
	var out []ast.TemplateParam
	for _, part := range p.splitTop(from, to, true) {
		a, b := part[0], part[1]
		if a >= b {
			continue
		}
		eq := p.findTop(a, b, token.Assign)
		switch p.kindAt(a) {
		case token.KwTypename, token.KwClass, token.KwTemplate:
			tp := ast.TemplateParam{Kind: ast.TemplateTypeParam}
			j := a + 1
			if p.kindAt(a) == token.KwTemplate {
				// template template parameter: template<...> class Name
				if closeIdx := p.matchAngle(a+1, b); closeIdx > 0 {
					j = closeIdx + 2
				}
			}
			if j < eq && p.kindAt(j) == token.Ellipsis {
				tp.Pack = true
				j++
			}
			if j < eq && p.kindAt(j) == token.Ident {
				tp.Name = p.tok(j).Text
			}
			if eq < b {
				if typ, nameIdx := p.parseType(eq+1, b, out); typ != nil && nameIdx < 0 && typ.Kind != ast.TypeOpaque {
					tp.Default = &ast.TemplateArg{Type: typ}
				} else {
					tp.Default = &ast.TemplateArg{Value: p.textOf(eq+1, b-1)}
				}
			}
			out = append(out, tp)
		default:
			tp := ast.TemplateParam{Kind: ast.TemplateValueParam}
			declEnd := eq
			for k := a; k < declEnd; k++ {
				if p.kindAt(k) == token.Ellipsis {
					tp.Pack = true
				}
			}
			typ, nameIdx := p.parseType(a, declEnd, out)
			tp.Type = typ
			if nameIdx >= 0 {
				tp.Name = p.tok(nameIdx).Text
			}
			if eq < b {
				tp.Default = &ast.TemplateArg{Value: p.textOf(eq+1, b-1)}
			}
			out = append(out, tp)
		}
	}
	return out
}

// findTop returns the first top-level token of kind k in [from, to), or to.
func (p *Parser) findTop(from, to int, k token.Kind) int {
	for j := from; j < to; {
		switch p.kindAt(j) {
		case k:
			return j
		case token.LParen, token.LBracket, token.LBrace:
			j = p.skipGroup(j)
			continue
		case token.Lt:
			if closeIdx := p.matchAngle(j, to); closeIdx > 0 && k != token.Lt {
				j = closeIdx + 1
				continue
			}
		}
		j++
	}
	return to
}

func (p *Parser) parseExplicitInstantiation(i, to int) int {
	end, _ := p.declEnd(i, to)
	fn := p.parseFunction(i, i+1, end, -1, nil)
	if fn != nil {
		p.out.Instantiations = append(p.out.Instantiations, &ast.ExplicitInstantiation{
			Name:            fn.Name,
			Qualifier:       fn.Qualifier,
			Scope:           fn.Scope,
			TemplateArgs:    fn.SpecArgs,
			HasTemplateArgs: fn.hasSpecArgs,
			Params:          fn.Params,
			Span:            fn.Span,
		})
	}
	return end + 1
}

func (p *Parser) parseUsing(i, to int) int {
	end, _ := p.declEnd(i, to)
	if p.kindAt(i+1) == token.Ident && p.kindAt(i+2) == token.Assign {
		if typ, nameIdx := p.parseType(i+3, end, nil); typ != nil && nameIdx < 0 {
			p.out.Aliases = append(p.out.Aliases, ast.Alias{
				Name:  p.tok(i + 1).Text,
				Scope: p.currentScope(),
				Type:  typ,
			})
		}
	}
	return end + 1
}

func (p *Parser) parseTypedef(i, to int) int {
	end, _ := p.declEnd(i, to)
	if p.kindAt(end) != token.Semicolon {
		return end + 1
	}
	parts := p.splitTop(i+1, end, true)
	if len(parts) != 1 {
		return end + 1
	}
	if brace := p.findTop(i+1, end, token.LBrace); brace < end {
		// typedef struct Tag {...} Name;
		name := end - 1
		tag := i + 2
		if p.kindAt(tag) != token.Ident || tag > brace {
			// the typedef name is the linkage name of an unnamed class
			if p.kindAt(name) == token.Ident {
				p.out.Types = append(p.out.Types, ast.TypeDecl{Name: p.tok(name).Text, Scope: p.currentScope()})
			}
			return end + 1
		}
		p.recordTag(i)
		if p.kindAt(name) == token.Ident {
			p.out.Aliases = append(p.out.Aliases, ast.Alias{
				Name:  p.tok(name).Text,
				Scope: p.currentScope(),
				Type:  &ast.Type{Kind: ast.TypeNamed, Name: p.tok(tag).Text},
			})
		}
		return end + 1
	}
	typ, nameIdx := p.parseType(i+1, end, nil)
	if typ != nil && nameIdx >= 0 && typ.Kind != ast.TypeOpaque {
		p.out.Aliases = append(p.out.Aliases, ast.Alias{
			Name:  p.tok(nameIdx).Text,
			Scope: p.currentScope(),
			Type:  typ,
		})
	}
	return end + 1
}

// isClassHead reports whether the declaration at i defines a class or enum.
func (p *Parser) isClassHead(i int) bool {
	j := p.skipSpecifiers(i)
	switch p.kindAt(j) {
	case token.KwStruct, token.KwClass, token.KwUnion, token.KwEnum:
	default:
		return false
	}
	j++
	if p.kindAt(j) == token.KwClass || p.kindAt(j) == token.KwStruct {
		j++ // enum class
	}
	for p.isAttrStart(j) {
		j, _ = p.skipAttr(j)
	}
	for p.kindAt(j) == token.Ident || p.kindAt(j) == token.ColonColon {
		j++
		if p.kindAt(j) == token.Lt {
			if closeIdx := p.matchAngle(j, len(p.toks)-1); closeIdx > 0 {
				j = closeIdx + 1
			}
		}
	}
	if p.tok(j).Is("final") {
		j++
	}
	return p.kindAt(j) == token.LBrace || p.kindAt(j) == token.Colon
}

// skipSpecifiers steps over attributes and decl-specifiers that carry no type.
func (p *Parser) skipSpecifiers(i int) int {
	for {
		t := p.tok(i)
		switch {
		case p.isAttrStart(i):
			i, _ = p.skipAttr(i)
		case t.Kind == token.KwExtern || t.Kind == token.KwTypedef:
			i++
		case t.Kind == token.Ident && (specifierWords[t.Text] || p.isKernelWord(t)):
			i++
		default:
			return i
		}
	}
}

// declEnd finds the last token of the declaration starting at i: its ';'
// or the closing brace of a function body. body is the index of the body
// '{', or -1.
func (p *Parser) declEnd(i, to int) (end, body int) {
	var sawParen, sawAssign, ctorInit bool
	classHead := p.isClassHead(i)
	for j := i; j < to; {
		switch p.kindAt(j) {
		case token.Semicolon:
			return j, -1
		case token.LParen:
			if !sawAssign && !p.isAttrParen(j) {
				sawParen = true
			}
			j = p.skipGroup(j)
			continue
		case token.LBracket:
			j = p.skipGroup(j)
			continue
		case token.Assign:
			sawAssign = true
		case token.Colon:
			if sawParen && !sawAssign {
				ctorInit = true
			}
		case token.LBrace:
			if sawParen && !sawAssign && !classHead && p.isBodyBrace(j, ctorInit) {
				return min(p.match[j], to-1), j
			}
			j = p.skipGroup(j)
			continue
		case token.RBrace:
			return max(j-1, i), -1
		}
		j++
	}
	return to - 1, -1
}

// isBodyBrace: after a constructor initializer list, "x{1}" initializes a
// member and only the brace after ')' or '}' opens the body.
func (p *Parser) isBodyBrace(j int, ctorInit bool) bool {
	if !ctorInit {
		return true
	}
	switch p.kindAt(j - 1) {
	case token.RParen, token.RBrace, token.Ellipsis:
		return true
	}
	return false
}

func (p *Parser) isAttrParen(j int) bool {
	prev := p.tok(j - 1)
	return prev.Kind == token.Ident && (attrIntroducers[prev.Text] || nonNameWords[prev.Text])
}

// parseDeclaration handles a simple declaration or function definition
// whose first token (after any template header at start) is i.
func (p *Parser) parseDeclaration(start, i, to int, hdr *templateHeader) int {
	if p.isClassHead(i) {
		p.recordTag(i)
		return p.skipDecl(i, to)
	}
	if p.isTagForward(i) {
		p.recordTag(i)
	}
	end, body := p.declEnd(i, to)
	if fn := p.parseFunction(start, i, end, body, hdr); fn != nil {
		p.out.Funcs = append(p.out.Funcs, &fn.FuncDecl)
	}
	p.scanCalls(i, end)
	return end + 1
}

// isTagForward matches "struct Foo;".
func (p *Parser) isTagForward(i int) bool {
	j := p.skipSpecifiers(i)
	switch p.kindAt(j) {
	case token.KwStruct, token.KwClass, token.KwUnion:
		return p.kindAt(j+1) == token.Ident && p.kindAt(j+2) == token.Semicolon
	}
	return false
}

// recordTag remembers the name a class head or forward declaration
// introduces, so that types can be mangled with their enclosing namespace.
func (p *Parser) recordTag(i int) {
	j := p.skipSpecifiers(i) + 1
	if p.kindAt(j) == token.KwClass || p.kindAt(j) == token.KwStruct {
		j++
	}
	for p.isAttrStart(j) {
		j, _ = p.skipAttr(j)
	}
	if p.kindAt(j) != token.Ident || p.kindAt(j+1) == token.ColonColon {
		return
	}
	p.out.Types = append(p.out.Types, ast.TypeDecl{Name: p.tok(j).Text, Scope: p.currentScope()})
}
