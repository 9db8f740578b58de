package ast

import "strings"

type TypeKind uint8

const (
	TypeBuiltin TypeKind = iota
	TypeNamed
	TypeParam
	TypePointer
	TypeLValueRef
	TypeRValueRef
	// TypeOpaque is anything the front-end does not model (function
	// pointers, decltype, arrays of arrays...). Text keeps the spelling.
	TypeOpaque
)

// Type is a parsed C++ type.
type Type struct {
	Kind TypeKind
	// Name is the canonical spelling of a builtin ("unsigned int"), the last
	// component of a named type, or the template parameter name.
	Name string
	// Scope holds the qualifiers of a named type as written ("std" for std::size_t).
	Scope []string
	// Global marks a leading "::".
	Global bool
	Args   []TemplateArg
	// Elem is the pointee or referent.
	Elem *Type
	// Index is the position of a template parameter.
	Index int

	Const    bool
	Volatile bool
	Restrict bool

	Text string
}

// TemplateArg is a type or a constant expression.
type TemplateArg struct {
	Type  *Type
	Value string
}

func (a TemplateArg) IsType() bool { return a.Type != nil }

func (a TemplateArg) String() string {
	if a.Type != nil {
		return a.Type.String()
	}
	return a.Value
}

// Builtin returns the builtin type with canonical spelling name.
func Builtin(name string) *Type {
	return &Type{Kind: TypeBuiltin, Name: name}
}

// PointerTo returns elem*.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: TypePointer, Elem: elem}
}

// Unqualified returns a copy of t without top-level cv-qualifiers.
func (t *Type) Unqualified() *Type {
	if t == nil || (!t.Const && !t.Volatile && !t.Restrict) {
		return t
	}
	c := *t
	c.Const, c.Volatile, c.Restrict = false, false, false
	return &c
}

// WithQuals returns a copy of t with the cv-qualifiers of q added.
func (t *Type) WithQuals(q *Type) *Type {
	c := *t
	c.Const = c.Const || q.Const
	c.Volatile = c.Volatile || q.Volatile
	c.Restrict = c.Restrict || q.Restrict
	return &c
}

// QualifiedName returns the written name with its scope, e.g. "std::size_t".
func (t *Type) QualifiedName() string {
	var b strings.Builder
	if t.Global {
		b.WriteString("::")
	}
	for _, s := range t.Scope {
		b.WriteString(s)
		b.WriteString("::")
	}
	b.WriteString(t.Name)
	return b.String()
}

// String prints t the way clang prints a written type: "const float *",
// "int *const", "float &", "Foo<int>".
func (t *Type) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypePointer, TypeLValueRef, TypeRValueRef:
		base := t.Elem.String()
		sym := "*"
		switch t.Kind {
		case TypeLValueRef:
			sym = "&"
		case TypeRValueRef:
			sym = "&&"
		}
		if !strings.HasSuffix(base, "*") && !strings.HasSuffix(base, "&") {
			base += " "
		}
		out := base + sym
		if q := t.quals(); q != "" {
			out += q
		}
		return out
	case TypeOpaque:
		return t.Text
	}
	var b strings.Builder
	if q := t.quals(); q != "" {
		b.WriteString(q)
		b.WriteByte(' ')
	}
	if t.Kind == TypeNamed {
		b.WriteString(t.QualifiedName())
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(a.String())
			}
			b.WriteByte('>')
		}
		return b.String()
	}
	b.WriteString(t.Name)
	return b.String()
}

func (t *Type) quals() string {
	var q []string
	if t.Const {
		q = append(q, "const")
	}
	if t.Volatile {
		q = append(q, "volatile")
	}
	if t.Restrict {
		q = append(q, "__restrict")
	}
	return strings.Join(q, " ")
}

// Subst replaces template parameters by the matching args. Parameters
// without an argument or bound to a constant are left in place.
func (t *Type) Subst(args []TemplateArg) *Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeParam:
		if t.Index < len(args) && args[t.Index].Type != nil {
			return args[t.Index].Type.WithQuals(t)
		}
		return t
	case TypePointer, TypeLValueRef, TypeRValueRef:
		c := *t
		c.Elem = t.Elem.Subst(args)
		return &c
	case TypeNamed:
		if len(t.Args) == 0 {
			return t
		}
		c := *t
		c.Args = make([]TemplateArg, len(t.Args))
		for i, a := range t.Args {
			if a.Type != nil {
				c.Args[i] = TemplateArg{Type: a.Type.Subst(args)}
			} else {
				c.Args[i] = a
			}
		}
		return &c
	}
	return t
}

// Dependent reports whether t mentions a template parameter.
func (t *Type) Dependent() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeParam:
		return true
	case TypePointer, TypeLValueRef, TypeRValueRef:
		return t.Elem.Dependent()
	case TypeNamed:
		for _, a := range t.Args {
			if a.Type != nil && a.Type.Dependent() {
				return true
			}
		}
	}
	return false
}
