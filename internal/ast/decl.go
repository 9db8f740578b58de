package ast

import (
	"strings"

	"drai/internal/source"
)

// TemplateKind is how a function relates to templates.
type TemplateKind uint8

const (
	TemplateNone TemplateKind = iota
	// TemplateGeneric is the primary definition of a function template.
	TemplateGeneric
	// TemplateSpecialization is an explicit specialization "template<> ...".
	TemplateSpecialization
)

func (k TemplateKind) String() string {
	switch k {
	case TemplateGeneric:
		return "generic"
	case TemplateSpecialization:
		return "specialization"
	default:
		return "none"
	}
}

type TemplateParamKind uint8

const (
	TemplateTypeParam TemplateParamKind = iota
	TemplateValueParam
)

// TemplateParam is one entry of a template parameter list.
type TemplateParam struct {
	Kind TemplateParamKind
	Name string
	// Type is the declared type of a value parameter.
	Type    *Type
	Default *TemplateArg
	Pack    bool
}

// Param is a function parameter. Name may be empty.
type Param struct {
	Type *Type
	Name string
	Span source.Span
}

// FuncDecl is a function declaration or definition at namespace scope.
type FuncDecl struct {
	Name string
	// Qualifier is the explicit scope of an out-of-line name ("ns" in ns::k).
	Qualifier []string
	// Scope is the enclosing namespace path.
	Scope   []string
	ExternC bool
	Kernel  bool

	Template       TemplateKind
	TemplateParams []TemplateParam
	// SpecArgs are the written arguments of an explicit specialization.
	SpecArgs []TemplateArg

	Return   *Type
	Params   []Param
	Variadic bool

	// Span covers the declaration from its template header or first
	// attribute through the body or terminating ';'.
	Span     source.Span
	NameSpan source.Span
	// Body covers the braces; valid only when HasBody.
	Body    source.Span
	HasBody bool
}

// FullScope is Scope followed by Qualifier.
func (f *FuncDecl) FullScope() []string {
	out := make([]string, 0, len(f.Scope)+len(f.Qualifier))
	out = append(out, f.Scope...)
	return append(out, f.Qualifier...)
}

// WrittenName is the declarator name with its written qualifier.
func (f *FuncDecl) WrittenName() string {
	if len(f.Qualifier) == 0 {
		return f.Name
	}
	return strings.Join(f.Qualifier, "::") + "::" + f.Name
}

// QualifiedName is the fully scoped name, for messages.
func (f *FuncDecl) QualifiedName() string {
	s := f.FullScope()
	if len(s) == 0 {
		return f.Name
	}
	return strings.Join(s, "::") + "::" + f.Name
}

// KernelCall is a launch expression callee<<<config>>>(args).
type KernelCall struct {
	Span source.Span
	// Callee covers the callee text up to "<<<", including template args.
	Callee          source.Span
	Name            string
	Qualifier       []string
	Global          bool
	TemplateArgs    []TemplateArg
	HasTemplateArgs bool

	Config []source.Span
	Args   []source.Span
	// Scope is the namespace path enclosing the call.
	Scope []string
	// Malformed describes why the launch cannot be rewritten.
	Malformed string
}

// ExplicitInstantiation is "template void k<int>(int*);".
type ExplicitInstantiation struct {
	Name            string
	Qualifier       []string
	Scope           []string
	TemplateArgs    []TemplateArg
	HasTemplateArgs bool
	Params          []Param
	Span            source.Span
}

// Alias is a typedef or alias-declaration at namespace scope.
type Alias struct {
	Name  string
	Scope []string
	Type  *Type
}

// TypeDecl is a class, struct, union or enum name declared at namespace scope.
type TypeDecl struct {
	Name  string
	Scope []string
}

// File is the parsed translation unit.
type File struct {
	Source         *source.File
	Funcs          []*FuncDecl
	Calls          []*KernelCall
	Instantiations []*ExplicitInstantiation
	Aliases        []Alias
	Types          []TypeDecl
}

// Kernels returns the kernel-attributed functions in source order.
func (f *File) Kernels() []*FuncDecl {
	var out []*FuncDecl
	for _, fn := range f.Funcs {
		if fn.Kernel {
			out = append(out, fn)
		}
	}
	return out
}
