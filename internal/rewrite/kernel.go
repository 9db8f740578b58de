package rewrite

import (
	"strconv"
	"strings"

	"drai/internal/ast"
	"drai/internal/tmpl"
)

// KernelParam is one wrapper parameter as printed.
type KernelParam struct {
	Type string
	Name string
}

// Kernel describes one generated wrapper.
type Kernel struct {
	// Name is the wrapper's function name.
	Name        string
	Params      []KernelParam
	LinkageName string
	// Template is the kind of the declaration the wrapper was built from.
	Template ast.TemplateKind
	Args     []ast.TemplateArg
}

// newKernel builds the descriptor of fn with params substituted by args.
func newKernel(name string, fn *ast.FuncDecl, params []ast.Param, args []ast.TemplateArg, linkage string) *Kernel {
	k := &Kernel{Name: name, LinkageName: linkage, Template: fn.Template, Args: args}
	for i, p := range params {
		typ := p.Type
		if len(args) > 0 {
			typ = typ.Subst(args)
		}
		pname := p.Name
		if pname == "" {
			pname = "__drai_arg" + strconv.Itoa(i)
		}
		k.Params = append(k.Params, KernelParam{Type: typ.String(), Name: pname})
	}
	return k
}

// FuncArgs renders "float * a, int n".
func (k *Kernel) FuncArgs() string {
	parts := make([]string, len(k.Params))
	for i, p := range k.Params {
		parts[i] = p.Type + " " + p.Name
	}
	return strings.Join(parts, ", ")
}

// ArgVars renders ", a, n": the launch arguments after the kernel pointer.
func (k *Kernel) ArgVars() string {
	var b strings.Builder
	for _, p := range k.Params {
		b.WriteString(", ")
		b.WriteString(p.Name)
	}
	return b.String()
}

// Wrapper renders the wrapper definition around the kernel's machine code.
func (k *Kernel) Wrapper(binary []byte) (string, error) {
	return tmpl.KernelWrapper.Render(k.bindings(binary))
}

func (k *Kernel) bindings(binary []byte) tmpl.Bindings {
	return tmpl.Bindings{
		tmpl.FuncName:   k.Name,
		tmpl.FuncArgs:   k.FuncArgs(),
		tmpl.BinaryData: tmpl.HexBytes(binary),
		tmpl.ArgVars:    k.ArgVars(),
	}
}
