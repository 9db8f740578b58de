package rewrite

import (
	"testing"

	"drai/internal/tmpl"
)

// Каждый встроенный шаблон получает ровно свои плейсхолдеры.
func TestBuiltinTemplateBindings(t *testing.T) {
	k := &Kernel{Name: "k", Params: []KernelParam{{Type: "float *", Name: "a"}}}
	cases := []struct {
		tpl *tmpl.Template
		b   tmpl.Bindings
	}{
		{tmpl.KernelWrapper, k.bindings([]byte{1})},
		{tmpl.KernelCall, callBindings([]string{"g"}, " k ", []string{"d"})},
		{tmpl.KernelCall, callBindings(nil, "k", nil)},
		{tmpl.Prologue, nil},
	}
	for _, tc := range cases {
		if err := tc.tpl.Check(tc.b); err != nil {
			t.Errorf("%s: %v", tc.tpl.Name(), err)
		}
	}
}
