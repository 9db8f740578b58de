package tmpl

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParseAndRender(t *testing.T) {
	tpl, err := Parse("t", "a $x + $y_1 * $x costs $5 or $", "x", "y_1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tpl.Placeholders(); !slices.Equal(got, []string{"x", "y_1"}) {
		t.Fatalf("Placeholders() = %v", got)
	}
	got, err := tpl.Render(Bindings{"x": "$y_1", "y_1": "2", "unused": "?"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// values are not rescanned
	if want := "a $y_1 + 2 * $y_1 costs $5 or $"; got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestParseRejectsUnknownPlaceholder(t *testing.T) {
	_, err := Parse("t", "hello $who", "name")
	if !errors.Is(err, ErrUnknownPlaceholder) {
		t.Fatalf("err = %v, want ErrUnknownPlaceholder", err)
	}
	if _, err := Parse("t", "hello $who"); err != nil {
		t.Fatalf("without vocabulary any placeholder is accepted: %v", err)
	}
}

func TestParseRejectsUnusedVocabulary(t *testing.T) {
	_, err := Parse("t", "hello $who", "who", "greeting")
	if !errors.Is(err, ErrUnusedPlaceholder) || !strings.Contains(err.Error(), "$greeting") {
		t.Fatalf("err = %v, want ErrUnusedPlaceholder for $greeting", err)
	}
}

func TestCheckBindings(t *testing.T) {
	if err := KernelCall.Check(Bindings{Config: "g", Callee: "k", ArgVars: ""}); err != nil {
		t.Fatalf("exact bindings rejected: %v", err)
	}
	err := KernelCall.Check(Bindings{Config: "g", Callee: "k", FuncName: "k", BinaryData: ""})
	if !errors.Is(err, ErrUnbound) || !errors.Is(err, ErrUnknownPlaceholder) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "$arg_vars") || !strings.Contains(err.Error(), "$binary_data, $func_name") {
		t.Fatalf("error should name both sides: %v", err)
	}
	if err := Prologue.Check(nil); err != nil {
		t.Fatalf("prologue: %v", err)
	}
}

func TestRenderUnbound(t *testing.T) {
	_, err := KernelCall.Render(Bindings{Config: "g"})
	if !errors.Is(err, ErrUnbound) {
		t.Fatalf("err = %v, want ErrUnbound", err)
	}
	if !strings.Contains(err.Error(), "$callee") || !strings.Contains(err.Error(), "$arg_vars") {
		t.Fatalf("error should name the missing placeholders: %v", err)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	b := Bindings{FuncName: "k", FuncArgs: "float * a", BinaryData: HexBytes([]byte{1, 2}), ArgVars: ", a"}
	first, err := KernelWrapper.Render(b)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, _ := KernelWrapper.Render(b)
		if again != first {
			t.Fatal("Render output changed between calls")
		}
	}
}

func TestHexBytes(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{nil, ""},
		{[]byte{0}, "0x00"},
		{[]byte{0x01, 0xab, 0xff}, "0x01, 0xab, 0xff"},
	}
	for _, tc := range cases {
		if got := HexBytes(tc.in); got != tc.want {
			t.Errorf("HexBytes(% x) = %q, want %q", tc.in, got, tc.want)
		}
	}
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	if strings.Contains(HexBytes(all), "$") {
		t.Error("HexBytes must never produce a placeholder sigil")
	}
}

func TestKernelWrapperShape(t *testing.T) {
	got, err := KernelWrapper.Render(Bindings{
		FuncName:   "k",
		FuncArgs:   "float * a, int n",
		BinaryData: "0x01, 0x02",
		ArgVars:    ", a, n",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"\nvoid k(float * a, int n) {\n",
		"static unsigned char binary[] = {0x01, 0x02};",
		"drai::graph::KernelEntry entry((void(*)(float * a, int n))&k, std::string(",
		"auto op = graph->NewKernel((void(*)(float * a, int n))&k , a, n);",
		"std::call_once(flag, [&]() {",
		"op.CoreCount(args[1]);",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("wrapper lacks %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("wrapper should end with a closing brace and newline")
	}
}

func TestKernelCallAndPrologue(t *testing.T) {
	got, err := KernelCall.Render(Bindings{Config: "g, 4", Callee: "k<int>", ArgVars: "a, b"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "\n  ::drai::PushLaunchConfig(g, 4);\n  k<int>(a, b)"; got != want {
		t.Fatalf("call = %q, want %q", got, want)
	}
	p, err := Prologue.Render(nil)
	if err != nil || p != "\n#include <mutex>\n\n" {
		t.Fatalf("prologue = %q, %v", p, err)
	}
}
