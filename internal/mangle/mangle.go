package mangle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"drai/internal/ast"
)

var ErrUnsupported = errors.New("unsupported in linkage name")

var builtinCodes = map[string]string{
	"void":               "v",
	"bool":               "b",
	"char":               "c",
	"signed char":        "a",
	"unsigned char":      "h",
	"short":              "s",
	"unsigned short":     "t",
	"int":                "i",
	"unsigned int":       "j",
	"long":               "l",
	"unsigned long":      "m",
	"long long":          "x",
	"unsigned long long": "y",
	"__int128":           "n",
	"unsigned __int128":  "o",
	"float":              "f",
	"double":             "d",
	"long double":        "e",
	"__float128":         "g",
	"wchar_t":            "w",
	"char8_t":            "Du",
	"char16_t":           "Ds",
	"char32_t":           "Di",
	"decltype(nullptr)":  "Dn",
	"_Float16":           "DF16_",
	"__fp16":             "Dh",
	"__bf16":             "DF16b",
}

// Name returns the linkage name of fn. For a function template, args are
// the (complete) template arguments of the instantiation and fn must be
// the generic declaration: Itanium encodes the declared signature, with
// template parameters as T_, T0_, ...
func Name(fn *ast.FuncDecl, args []ast.TemplateArg, r *Resolver) (string, error) {
	templated := fn.Template != ast.TemplateNone || len(args) > 0
	if fn.ExternC && !templated {
		return fn.Name, nil
	}
	if r == nil {
		r = NewResolver(nil)
	}
	m := &mangler{res: r, scope: fn.FullScope(), subs: map[string]int{}}
	if fn.Template == ast.TemplateGeneric {
		m.tparams = fn.TemplateParams
	}
	m.b.WriteString("_Z")
	if err := m.functionName(fn, args, templated); err != nil {
		return "", err
	}
	if templated {
		if err := m.mangleType(fn.Return); err != nil {
			return "", err
		}
	}
	if len(fn.Params) == 0 && !fn.Variadic {
		m.b.WriteByte('v')
	}
	for _, p := range fn.Params {
		if err := m.mangleType(p.Type.Unqualified()); err != nil {
			return "", fmt.Errorf("parameter %q: %w", p.Name, err)
		}
	}
	if fn.Variadic {
		m.b.WriteByte('z')
	}
	return m.b.String(), nil
}

type mangler struct {
	b       strings.Builder
	res     *Resolver
	scope   []string
	tparams []ast.TemplateParam
	// subs maps substitution candidates to their sequence number.
	subs map[string]int
}

func (m *mangler) add(key string) {
	if _, ok := m.subs[key]; !ok {
		m.subs[key] = len(m.subs)
	}
}

// substitute writes S_/S<seq-id>_ when key is already a candidate.
func (m *mangler) substitute(key string) bool {
	id, ok := m.subs[key]
	if !ok {
		return false
	}
	m.b.WriteString(seqID(id))
	return true
}

func seqID(id int) string {
	if id == 0 {
		return "S_"
	}
	return "S" + strings.ToUpper(strconv.FormatInt(int64(id-1), 36)) + "_"
}

func sourceName(id string) string {
	return strconv.Itoa(len(id)) + id
}

func (m *mangler) functionName(fn *ast.FuncDecl, args []ast.TemplateArg, templated bool) error {
	scope := fn.FullScope()
	switch {
	case len(scope) == 0:
		m.b.WriteString(sourceName(fn.Name))
	case len(scope) == 1 && scope[0] == "std":
		m.b.WriteString("St" + sourceName(fn.Name))
	default:
		m.b.WriteByte('N')
		m.prefix(scope)
		m.b.WriteString(sourceName(fn.Name))
	}
	if templated {
		m.add(nameKey(scope, fn.Name))
		if err := m.templateArgs(args, fn.TemplateParams); err != nil {
			return err
		}
	}
	if len(scope) > 0 && !(len(scope) == 1 && scope[0] == "std") {
		m.b.WriteByte('E')
	}
	return nil
}

func nameKey(scope []string, name string) string {
	return "N:" + joinName(scope, name)
}

// prefix writes the nested-name prefix for comps, reusing the longest
// prefix already in the substitution table.
func (m *mangler) prefix(comps []string) {
	start := 0
	for n := len(comps); n > 0; n-- {
		if m.substitute(nameKey(comps[:n-1], comps[n-1])) {
			start = n
			break
		}
	}
	for i := start; i < len(comps); i++ {
		if i == 0 && comps[0] == "std" {
			m.b.WriteString("St")
			continue
		}
		m.b.WriteString(sourceName(comps[i]))
		m.add(nameKey(comps[:i], comps[i]))
	}
}

func (m *mangler) templateArgs(args []ast.TemplateArg, params []ast.TemplateParam) error {
	m.b.WriteByte('I')
	for i, a := range args {
		if a.Type != nil {
			if err := m.mangleType(a.Type); err != nil {
				return err
			}
			continue
		}
		var ptype *ast.Type
		if i < len(params) {
			ptype = params[i].Type
		}
		lit, err := m.literal(a.Value, ptype)
		if err != nil {
			return err
		}
		m.b.WriteString(lit)
	}
	m.b.WriteByte('E')
	return nil
}

// literal encodes a constant template argument: Li4E, Lin1E, Lb1E.
func (m *mangler) literal(value string, typ *ast.Type) (string, error) {
	code := "i"
	if typ != nil {
		typ = m.res.Resolve(typ, m.scope).Unqualified()
		c, ok := builtinCodes[typ.Name]
		if typ.Kind != ast.TypeBuiltin || !ok {
			return "", fmt.Errorf("%w: constant of type %s", ErrUnsupported, typ)
		}
		code = c
	}
	v := strings.TrimSpace(value)
	switch v {
	case "true":
		return "Lb1E", nil
	case "false":
		return "Lb0E", nil
	}
	if len(v) == 3 && v[0] == '\'' && v[2] == '\'' {
		return "L" + code + strconv.Itoa(int(v[1])) + "E", nil
	}
	neg := false
	if strings.HasPrefix(v, "-") {
		neg = true
		v = strings.TrimSpace(v[1:])
	}
	v = strings.TrimRight(v, "uUlL")
	n, err := strconv.ParseUint(strings.ReplaceAll(v, "'", ""), 0, 64)
	if err != nil {
		return "", fmt.Errorf("%w: template argument %q", ErrUnsupported, value)
	}
	if code == "b" {
		return "Lb" + boolDigit(n != 0) + "E", nil
	}
	num := strconv.FormatUint(n, 10)
	if neg && n != 0 {
		num = "n" + num
	}
	return "L" + code + num + "E", nil
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (m *mangler) mangleType(t *ast.Type) error {
	if t == nil {
		return fmt.Errorf("%w: missing type", ErrUnsupported)
	}
	t = m.res.Resolve(t, m.scope)
	if t.Const || t.Volatile || t.Restrict {
		key := typeKey(t)
		if m.substitute(key) {
			return nil
		}
		if t.Restrict {
			m.b.WriteByte('r')
		}
		if t.Volatile {
			m.b.WriteByte('V')
		}
		if t.Const {
			m.b.WriteByte('K')
		}
		if err := m.unqualified(t.Unqualified()); err != nil {
			return err
		}
		m.add(key)
		return nil
	}
	return m.unqualified(t)
}

func (m *mangler) unqualified(t *ast.Type) error {
	switch t.Kind {
	case ast.TypeBuiltin:
		code, ok := builtinCodes[t.Name]
		if !ok {
			return fmt.Errorf("%w: type %s", ErrUnsupported, t.Name)
		}
		m.b.WriteString(code)
		return nil
	case ast.TypeOpaque:
		return fmt.Errorf("%w: type %s", ErrUnsupported, t.Text)
	}

	key := typeKey(t)
	if m.substitute(key) {
		return nil
	}
	switch t.Kind {
	case ast.TypeParam:
		if t.Index < len(m.tparams) && m.tparams[t.Index].Pack {
			return fmt.Errorf("%w: parameter pack %s", ErrUnsupported, t.Name)
		}
		if t.Index == 0 {
			m.b.WriteString("T_")
		} else {
			m.b.WriteString("T" + strconv.Itoa(t.Index-1) + "_")
		}
	case ast.TypePointer, ast.TypeLValueRef, ast.TypeRValueRef:
		m.b.WriteString(map[ast.TypeKind]string{ast.TypePointer: "P", ast.TypeLValueRef: "R", ast.TypeRValueRef: "O"}[t.Kind])
		if err := m.mangleType(t.Elem); err != nil {
			return err
		}
	case ast.TypeNamed:
		return m.named(t, key)
	}
	m.add(key)
	return nil
}

// named writes a class or enum type; key is its substitution key.
func (m *mangler) named(t *ast.Type, key string) error {
	nested := len(t.Scope) > 0 && !(len(t.Scope) == 1 && t.Scope[0] == "std")
	switch {
	case nested:
		m.b.WriteByte('N')
		m.prefix(t.Scope)
		m.b.WriteString(sourceName(t.Name))
	case len(t.Scope) == 1:
		m.b.WriteString("St" + sourceName(t.Name))
	default:
		m.b.WriteString(sourceName(t.Name))
	}
	if len(t.Args) > 0 {
		m.add(nameKey(t.Scope, t.Name))
		if err := m.templateArgs(t.Args, nil); err != nil {
			return err
		}
	}
	if nested {
		m.b.WriteByte('E')
	}
	m.add(key)
	return nil
}

// typeKey is a canonical spelling of t used for the substitution table.
func typeKey(t *ast.Type) string {
	var b strings.Builder
	writeKey(&b, t)
	return b.String()
}

func writeKey(b *strings.Builder, t *ast.Type) {
	if t.Const || t.Volatile || t.Restrict {
		b.WriteString("Q")
		if t.Restrict {
			b.WriteByte('r')
		}
		if t.Volatile {
			b.WriteByte('V')
		}
		if t.Const {
			b.WriteByte('K')
		}
		b.WriteByte('(')
		writeKey(b, t.Unqualified())
		b.WriteByte(')')
		return
	}
	switch t.Kind {
	case ast.TypeBuiltin:
		b.WriteString("B:" + t.Name)
	case ast.TypeParam:
		b.WriteString("T:" + strconv.Itoa(t.Index))
	case ast.TypePointer, ast.TypeLValueRef, ast.TypeRValueRef:
		b.WriteString(map[ast.TypeKind]string{ast.TypePointer: "P(", ast.TypeLValueRef: "R(", ast.TypeRValueRef: "O("}[t.Kind])
		writeKey(b, t.Elem)
		b.WriteByte(')')
	case ast.TypeNamed:
		b.WriteString(nameKey(t.Scope, t.Name))
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteByte(',')
				}
				if a.Type != nil {
					writeKey(b, a.Type)
				} else {
					b.WriteString("V:" + a.Value)
				}
			}
			b.WriteByte('>')
		}
	default:
		b.WriteString("X:" + t.Text)
	}
}
