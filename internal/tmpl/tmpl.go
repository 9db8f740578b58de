// Package tmpl renders the fixed code templates used for kernel expansion.
//
// A template is text with $name placeholders. Rendering is a single pass:
// bound values are inserted verbatim and never rescanned.
package tmpl

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnbound: a placeholder had no value at Render time.
	ErrUnbound = errors.New("unbound template placeholder")
	// ErrUnknownPlaceholder: a placeholder is outside the template's vocabulary.
	ErrUnknownPlaceholder = errors.New("unknown template placeholder")
	// ErrUnusedPlaceholder: a vocabulary name never occurs in the text.
	ErrUnusedPlaceholder = errors.New("unused template placeholder")
)

// Bindings maps placeholder names (without '$') to values.
type Bindings map[string]string

type part struct {
	lit  string
	name string // placeholder when non-empty
}

// Template is a parsed placeholder template.
type Template struct {
	name  string
	parts []part
	names []string
}

// Parse splits text into literals and placeholders. A non-empty vocabulary
// must name exactly the placeholders the text uses.
func Parse(name, text string, vocabulary ...string) (*Template, error) {
	t := &Template{name: name}
	var lit strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		if c != '$' || i+1 >= len(text) || !isIdentStart(text[i+1]) {
			lit.WriteByte(c)
			i++
			continue
		}
		j := i + 2
		for j < len(text) && isIdentByte(text[j]) {
			j++
		}
		ph := text[i+1 : j]
		if len(vocabulary) > 0 && !slices.Contains(vocabulary, ph) {
			return nil, fmt.Errorf("%w: $%s in template %s", ErrUnknownPlaceholder, ph, name)
		}
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{lit: lit.String()})
			lit.Reset()
		}
		t.parts = append(t.parts, part{name: ph})
		if !slices.Contains(t.names, ph) {
			t.names = append(t.names, ph)
		}
		i = j
	}
	if lit.Len() > 0 {
		t.parts = append(t.parts, part{lit: lit.String()})
	}
	for _, v := range vocabulary {
		if !slices.Contains(t.names, v) {
			return nil, fmt.Errorf("%w: $%s in template %s", ErrUnusedPlaceholder, v, name)
		}
	}
	return t, nil
}

// MustParse is Parse for package-level templates.
func MustParse(name, text string, vocabulary ...string) *Template {
	t, err := Parse(name, text, vocabulary...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Placeholders lists distinct placeholder names in first-use order.
func (t *Template) Placeholders() []string { return slices.Clone(t.names) }

// Check reports bindings that do not cover the placeholders exactly:
// missing names wrap ErrUnbound, extra ones ErrUnknownPlaceholder.
func (t *Template) Check(b Bindings) error {
	var errs []error
	if err := t.unbound(b); err != nil {
		errs = append(errs, err)
	}
	var extra []string
	for n := range b {
		if !slices.Contains(t.names, n) {
			extra = append(extra, "$"+n)
		}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		errs = append(errs, fmt.Errorf("%w in template %s: %s", ErrUnknownPlaceholder, t.name, strings.Join(extra, ", ")))
	}
	return errors.Join(errs...)
}

func (t *Template) unbound(b Bindings) error {
	var missing []string
	for _, n := range t.names {
		if _, ok := b[n]; !ok {
			missing = append(missing, "$"+n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in template %s: %s", ErrUnbound, t.name, strings.Join(missing, ", "))
	}
	return nil
}

// Render substitutes every placeholder. Extra bindings are ignored.
func (t *Template) Render(b Bindings) (string, error) {
	if err := t.unbound(b); err != nil {
		return "", err
	}
	var out strings.Builder
	for _, p := range t.parts {
		if p.name == "" {
			out.WriteString(p.lit)
			continue
		}
		out.WriteString(b[p.name])
	}
	return out.String(), nil
}

// HexBytes renders data as "0x01, 0x02".
func HexBytes(data []byte) string {
	const digits = "0123456789abcdef"
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(data) * 6)
	for i, c := range data {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("0x")
		b.WriteByte(digits[c>>4])
		b.WriteByte(digits[c&0x0f])
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
