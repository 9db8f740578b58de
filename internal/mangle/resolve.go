package mangle

import (
	"slices"
	"strings"

	"drai/internal/ast"
)

// stdTypedefs are the LP64 typedefs of <cstddef>/<cstdint>, used when the
// translation unit does not spell them itself.
var stdTypedefs = map[string]string{
	"size_t":    "unsigned long",
	"ssize_t":   "long",
	"ptrdiff_t": "long",
	"intptr_t":  "long",
	"uintptr_t": "unsigned long",
	"intmax_t":  "long",
	"uintmax_t": "unsigned long",
	"int8_t":    "signed char",
	"uint8_t":   "unsigned char",
	"int16_t":   "short",
	"uint16_t":  "unsigned short",
	"int32_t":   "int",
	"uint32_t":  "unsigned int",
	"int64_t":   "long",
	"uint64_t":  "unsigned long",
	"nullptr_t": "decltype(nullptr)",
}

const maxAliasDepth = 32

// Resolver maps written type names to the entities they denote, using the
// aliases and class names a translation unit declares.
type Resolver struct {
	aliases map[string]ast.Alias
	tags    map[string]bool
}

// NewResolver indexes f. A nil file yields a resolver that knows only the
// standard typedefs.
func NewResolver(f *ast.File) *Resolver {
	r := &Resolver{aliases: map[string]ast.Alias{}, tags: map[string]bool{}}
	if f == nil {
		return r
	}
	for _, a := range f.Aliases {
		key := joinName(a.Scope, a.Name)
		if _, dup := r.aliases[key]; !dup {
			r.aliases[key] = a
		}
	}
	for _, t := range f.Types {
		r.tags[joinName(t.Scope, t.Name)] = true
	}
	return r
}

func joinName(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}
	return strings.Join(scope, "::") + "::" + name
}

// Resolve rewrites t as seen from scope: aliases are expanded and named
// types get their full namespace path.
func (r *Resolver) Resolve(t *ast.Type, scope []string) *ast.Type {
	return r.resolve(t, scope, 0)
}

func (r *Resolver) resolve(t *ast.Type, scope []string, depth int) *ast.Type {
	if t == nil || depth > maxAliasDepth {
		return t
	}
	switch t.Kind {
	case ast.TypePointer, ast.TypeLValueRef, ast.TypeRValueRef:
		c := *t
		c.Elem = r.resolve(t.Elem, scope, depth)
		return &c
	case ast.TypeNamed:
		return r.resolveNamed(t, scope, depth)
	}
	return t
}

func (r *Resolver) resolveNamed(t *ast.Type, scope []string, depth int) *ast.Type {
	var args []ast.TemplateArg
	for _, a := range t.Args {
		if a.Type != nil {
			a = ast.TemplateArg{Type: r.resolve(a.Type, scope, depth)}
		}
		args = append(args, a)
	}
	quals := &ast.Type{Const: t.Const, Volatile: t.Volatile, Restrict: t.Restrict}

	lookup := [][]string{nil}
	if !t.Global {
		lookup = lookup[:0]
		for n := len(scope); n >= 0; n-- {
			lookup = append(lookup, scope[:n])
		}
	}
	for _, outer := range lookup {
		path := append(slices.Clone(outer), t.Scope...)
		key := joinName(path, t.Name)
		if len(args) == 0 {
			if a, ok := r.aliases[key]; ok && a.Type != nil {
				return r.resolve(a.Type, a.Scope, depth+1).WithQuals(quals)
			}
		}
		if r.tags[key] {
			return &ast.Type{Kind: ast.TypeNamed, Name: t.Name, Scope: path, Args: args,
				Const: t.Const, Volatile: t.Volatile, Restrict: t.Restrict}
		}
	}
	if len(args) == 0 && (len(t.Scope) == 0 || slices.Equal(t.Scope, []string{"std"})) {
		if b, ok := stdTypedefs[t.Name]; ok {
			return ast.Builtin(b).WithQuals(quals)
		}
	}
	c := *t
	c.Global = false
	c.Args = args
	return &c
}
