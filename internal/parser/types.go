package parser

import (
	"drai/internal/ast"
	"drai/internal/token"
)

var builtinWords = map[string]bool{
	"void": true, "bool": true, "char": true, "wchar_t": true, "char8_t": true,
	"char16_t": true, "char32_t": true, "short": true, "int": true, "long": true,
	"signed": true, "unsigned": true, "__signed": true, "__signed__": true,
	"float": true, "double": true, "__int128": true, "_Float16": true,
	"__fp16": true, "__bf16": true, "auto": true,
}

var specifierWords = map[string]bool{
	"static": true, "inline": true, "constexpr": true, "consteval": true,
	"constinit": true, "virtual": true, "explicit": true, "friend": true,
	"thread_local": true, "register": true, "mutable": true, "__inline": true,
	"__inline__": true, "__forceinline": true, "__host__": true, "__device__": true,
	"__forceinline__": true, "__noinline__": true, "_Noreturn": true,
}

var restrictWords = map[string]bool{"__restrict": true, "__restrict__": true, "restrict": true}

// nonNameWords never name a function even when followed by '('.
var nonNameWords = map[string]bool{
	"decltype": true, "sizeof": true, "alignof": true, "noexcept": true,
	"throw": true, "static_assert": true, "_Static_assert": true, "typeof": true,
	"__typeof__": true, "__typeof": true, "requires": true, "return": true,
}

// canonBuiltin folds a builtin specifier sequence into clang's spelling.
func canonBuiltin(words []string) string {
	var signed, unsigned bool
	longs := 0
	base := ""
	for _, w := range words {
		switch w {
		case "signed", "__signed", "__signed__":
			signed = true
		case "unsigned":
			unsigned = true
		case "long":
			longs++
		case "int":
			if base == "" {
				base = "int"
			}
		default:
			base = w
		}
	}
	switch base {
	case "char":
		switch {
		case unsigned:
			return "unsigned char"
		case signed:
			return "signed char"
		}
		return "char"
	case "double":
		if longs > 0 {
			return "long double"
		}
		return "double"
	case "__int128":
		if unsigned {
			return "unsigned __int128"
		}
		return "__int128"
	case "short":
		if unsigned {
			return "unsigned short"
		}
		return "short"
	case "", "int":
		name := "int"
		switch {
		case longs >= 2:
			name = "long long"
		case longs == 1:
			name = "long"
		}
		if unsigned {
			return "unsigned " + name
		}
		return name
	}
	return base
}

func tparamIndex(tps []ast.TemplateParam, name string) int {
	for i, tp := range tps {
		if tp.Name == name {
			return i
		}
	}
	return -1
}

// parseType reads a type from tokens [from, to). A declarator name, if
// present, is reported by index (-1 otherwise). Anything the front-end
// does not model becomes an opaque type carrying its spelling.
func (p *Parser) parseType(from, to int, tps []ast.TemplateParam) (*ast.Type, int) {
	if from >= to {
		return nil, -1
	}
	var (
		quals ast.Type
		words []string
		base  *ast.Type
	)
	i := from
specifiers:
	for i < to {
		t := p.tok(i)
		switch {
		case t.Kind == token.KwConst:
			quals.Const = true
		case t.Kind == token.KwVolatile:
			quals.Volatile = true
		case t.Kind == token.KwTypename, t.Kind == token.KwStruct, t.Kind == token.KwClass,
			t.Kind == token.KwUnion, t.Kind == token.KwEnum:
		case p.isAttrStart(i):
			i, _ = p.skipAttr(i)
			continue
		case t.Kind == token.Ident && (specifierWords[t.Text] || p.isKernelWord(t)):
		case t.Kind == token.Ident && builtinWords[t.Text] && base == nil:
			words = append(words, t.Text)
		case (t.Kind == token.Ident || t.Kind == token.ColonColon) && base == nil && len(words) == 0:
			named, next := p.parseNamedType(i, to, tps)
			if named == nil {
				return p.opaque(from, to), -1
			}
			base = named
			i = next
			continue
		default:
			break specifiers
		}
		i++
	}
	if base == nil {
		if len(words) == 0 {
			return p.opaque(from, to), -1
		}
		base = ast.Builtin(canonBuiltin(words))
	}
	cur := base.WithQuals(&quals)

	for i < to {
		switch p.kindAt(i) {
		case token.Star:
			cur = ast.PointerTo(cur)
		case token.Amp:
			cur = &ast.Type{Kind: ast.TypeLValueRef, Elem: cur}
		case token.AndAnd:
			cur = &ast.Type{Kind: ast.TypeRValueRef, Elem: cur}
		case token.KwConst:
			cur = cur.WithQuals(&ast.Type{Const: true})
		case token.KwVolatile:
			cur = cur.WithQuals(&ast.Type{Volatile: true})
		default:
			if t := p.tok(i); t.Kind == token.Ident && restrictWords[t.Text] {
				cur = cur.WithQuals(&ast.Type{Restrict: true})
				break
			}
			if p.isAttrStart(i) {
				i, _ = p.skipAttr(i)
				continue
			}
			goto declarator
		}
		i++
	}

declarator:
	nameIdx := -1
	if i < to && p.kindAt(i) == token.Ident && !builtinWords[p.tok(i).Text] {
		nameIdx = i
		i++
	}
	for i < to && p.isAttrStart(i) {
		i, _ = p.skipAttr(i)
	}
	if i < to && p.kindAt(i) == token.LBracket {
		// параметр-массив сводится к указателю
		cur = ast.PointerTo(cur)
		i = p.skipGroup(i)
		if i < to && p.kindAt(i) == token.LBracket {
			return p.opaqueExcept(from, to, nameIdx), nameIdx
		}
	}
	if i != to {
		return p.opaqueExcept(from, to, nameIdx), nameIdx
	}
	return cur, nameIdx
}

// parseNamedType reads [::] a [<args>] :: b ... and returns the index after it.
func (p *Parser) parseNamedType(i, to int, tps []ast.TemplateParam) (*ast.Type, int) {
	t := &ast.Type{Kind: ast.TypeNamed}
	if p.kindAt(i) == token.ColonColon {
		t.Global = true
		i++
	}
	for {
		if i >= to || p.kindAt(i) != token.Ident {
			return nil, i
		}
		name := p.tok(i).Text
		i++
		var args []ast.TemplateArg
		if i < to && p.kindAt(i) == token.Lt {
			closeIdx := p.matchAngle(i, to)
			if closeIdx < 0 {
				return nil, i
			}
			args = p.parseTemplateArgs(i+1, closeIdx, tps)
			i = min(closeIdx+1, to)
		}
		if i+1 < to && p.kindAt(i) == token.ColonColon && (p.kindAt(i+1) == token.Ident || p.kindAt(i+1) == token.KwTemplate) {
			t.Scope = append(t.Scope, name)
			i++
			if p.kindAt(i) == token.KwTemplate {
				i++
			}
			continue
		}
		t.Name = name
		t.Args = args
		break
	}
	if !t.Global && len(t.Scope) == 0 && len(t.Args) == 0 {
		if idx := tparamIndex(tps, t.Name); idx >= 0 {
			return &ast.Type{Kind: ast.TypeParam, Name: t.Name, Index: idx}, i
		}
	}
	return t, i
}

// parseTemplateArgs splits "<...>" contents [from, to) into arguments.
func (p *Parser) parseTemplateArgs(from, to int, tps []ast.TemplateParam) []ast.TemplateArg {
	var out []ast.TemplateArg
	for _, part := range p.splitTop(from, to, true) {
		a, b := part[0], part[1]
		if a >= b {
			continue
		}
		if p.looksLikeValue(a) {
			out = append(out, ast.TemplateArg{Value: p.textOf(a, b-1)})
			continue
		}
		typ, nameIdx := p.parseType(a, b, tps)
		if typ == nil || typ.Kind == ast.TypeOpaque || nameIdx >= 0 {
			out = append(out, ast.TemplateArg{Value: p.textOf(a, b-1)})
			continue
		}
		out = append(out, ast.TemplateArg{Type: typ})
	}
	return out
}

func (p *Parser) looksLikeValue(i int) bool {
	t := p.tok(i)
	switch t.Kind {
	case token.Number, token.CharLit, token.Minus, token.Plus, token.LParen, token.Tilde, token.Bang:
		return true
	}
	return t.Is("true") || t.Is("false") || t.Is("nullptr") || t.Is("sizeof")
}

func (p *Parser) opaque(from, to int) *ast.Type {
	return &ast.Type{Kind: ast.TypeOpaque, Text: p.textOf(from, to-1)}
}

// opaqueExcept spells [from, to) without the declarator name at skip.
func (p *Parser) opaqueExcept(from, to, skip int) *ast.Type {
	if skip < 0 {
		return p.opaque(from, to)
	}
	text := p.textOf(from, skip-1)
	if rest := p.textOf(skip+1, to-1); rest != "" {
		text += rest
	}
	return &ast.Type{Kind: ast.TypeOpaque, Text: text}
}
