package parser

import (
	"slices"
	"strings"

	"drai/internal/token"
)

// DefaultKernelAttributes are the spellings that mark a kernel without any
// configuration: __global__, __drai_global__, [[drai::global]],
// __attribute__((drai_global)) and __attribute__((global)).
var DefaultKernelAttributes = []string{"__global__", "__drai_global__", "drai::global"}

// normalizeAttr strips GNU-style "__x__" decoration from every component.
func normalizeAttr(name string) string {
	parts := strings.Split(strings.TrimSpace(name), "::")
	for i, part := range parts {
		if len(part) > 4 && strings.HasPrefix(part, "__") && strings.HasSuffix(part, "__") {
			part = part[2 : len(part)-2]
		}
		parts[i] = part
	}
	return strings.Join(parts, "::")
}

func kernelAttributeNames(extra []string) []string {
	var out []string
	for _, n := range append(slices.Clone(DefaultKernelAttributes), extra...) {
		n = strings.TrimSpace(n)
		n = strings.TrimPrefix(n, "[[")
		n = strings.TrimSuffix(n, "]]")
		n = strings.TrimPrefix(n, "__attribute__((")
		n = strings.TrimSuffix(n, "))")
		if n == "" {
			continue
		}
		if norm := normalizeAttr(n); !slices.Contains(out, norm) {
			out = append(out, norm)
		}
	}
	return out
}

func (p *Parser) isKernelAttr(name string) bool {
	return slices.Contains(p.attrs, normalizeAttr(name))
}

// isKernelWord: a bare "__global__"-style identifier used as a specifier.
func (p *Parser) isKernelWord(t token.Token) bool {
	return t.Kind == token.Ident && strings.HasPrefix(t.Text, "__") && p.isKernelAttr(t.Text)
}

var attrIntroducers = map[string]bool{
	"__attribute__": true, "__attribute": true, "__declspec": true,
	"alignas": true, "_Alignas": true, "__asm__": true, "__asm": true, "asm": true,
}

func (p *Parser) isAttrStart(i int) bool {
	t := p.tok(i)
	if t.Kind == token.LBracket {
		return p.kindAt(i+1) == token.LBracket
	}
	return t.Kind == token.Ident && attrIntroducers[t.Text] && p.kindAt(i+1) == token.LParen
}

// skipAttr skips one attribute specifier at i and returns the index after
// it with the attribute names it lists.
func (p *Parser) skipAttr(i int) (int, []string) {
	t := p.tok(i)
	next := p.skipGroup(i)
	if t.Kind == token.Ident && t.Text != "__attribute__" && t.Text != "__attribute" {
		next = p.skipGroup(i + 1)
		return next, nil
	}
	var inner int
	if t.Kind == token.LBracket {
		inner = i + 1
	} else {
		next = p.skipGroup(i + 1)
		inner = i + 2
		if p.kindAt(inner) != token.LParen {
			return next, nil
		}
	}
	closeInner := p.match[inner]
	if closeInner < inner {
		return next, nil
	}
	from := inner + 1
	prefix := ""
	// [[using ns: a, b]]
	if p.tok(from).Is("using") && p.kindAt(from+1) == token.Ident && p.kindAt(from+2) == token.Colon {
		prefix = p.tok(from+1).Text + "::"
		from += 3
	}
	var names []string
	for _, part := range p.splitTop(from, closeInner, false) {
		var b strings.Builder
		for j := part[0]; j < part[1]; j++ {
			k := p.kindAt(j)
			if k != token.Ident && k != token.ColonColon && !p.tok(j).IsKeyword() {
				break
			}
			b.WriteString(p.tok(j).Text)
		}
		if b.Len() > 0 {
			names = append(names, prefix+b.String())
		}
	}
	return next, names
}

func (p *Parser) anyKernelAttr(names []string) bool {
	return slices.ContainsFunc(names, p.isKernelAttr)
}
