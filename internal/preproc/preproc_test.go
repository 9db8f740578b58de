package preproc

import (
	"context"
	"strings"
	"testing"

	"drai/internal/diag"
	"drai/internal/source"
	"drai/internal/vfs"
)

type ppCase struct {
	files map[string]string
	main  string
	opts  Options
}

func runPP(t *testing.T, c ppCase) (*Result, *diag.Bag) {
	t.Helper()
	mem := vfs.NewMem()
	for name, text := range c.files {
		mem.AddFile(name, []byte(text))
	}
	fs := source.NewFileSet()
	id, err := fs.LoadFrom(mem, c.main)
	if err != nil {
		t.Fatalf("load %s: %v", c.main, err)
	}
	bag := diag.NewBag(100)
	opts := c.opts
	opts.FS = mem
	opts.Reporter = diag.BagReporter{Bag: bag}
	res, err := Preprocess(context.Background(), fs, id, opts)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	return res, bag
}

// body drops line markers and blank lines and trims indentation.
func body(out []byte) string {
	var lines []string
	for _, l := range strings.Split(string(out), "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "# ") {
			continue
		}
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n")
}

func single(text string) ppCase {
	return ppCase{files: map[string]string{"/src/main.cpp": text}, main: "/src/main.cpp"}
}

func expectNoErrors(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func expectCode(t *testing.T, bag *diag.Bag, code diag.Code) {
	t.Helper()
	for _, d := range bag.Items() {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected %s, got %+v", code.ID(), bag.Items())
}

func TestMacroExpansion(t *testing.T) {
	res, bag := runPP(t, single(`#define N 4
#define SQ(x) ((x) * (x))
#define STR(x) #x
#define CAT(a, b) a ## b
#define LOG(fmt, ...) printf(fmt, ## __VA_ARGS__)
int a = SQ(N);
const char* s = STR(hello  "w\n");
int CAT(var, 1) = 1;
LOG("x");
LOG("y", 1, 2);
`))
	expectNoErrors(t, bag)
	want := `int a = ((4) * (4));
const char* s = "hello \"w\\n\"";
int var1 = 1;
printf("x");
printf("y", 1, 2);`
	if got := body(res.Text); got != want {
		t.Fatalf("expansion mismatch:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestRescanAndHideSets(t *testing.T) {
	res, bag := runPP(t, single(`#define X X + 1
#define f(a) a*g
#define g(a) f(a)
#define F(x) x
int v = X;
int w = f(2)(9);
int F;
`))
	expectNoErrors(t, bag)
	want := "int v = X + 1;\nint w = 2*9*g;\nint F;"
	if got := body(res.Text); got != want {
		t.Fatalf("want:\n%s\ngot:\n%s", want, got)
	}
}

func TestIncludesAndMarkers(t *testing.T) {
	c := ppCase{
		files: map[string]string{
			"/src/main.cpp": "#include \"k.h\"\n#include <vector>\n#include <drai/runtime.h>\n#include \"k.h\"\nint main_var;\n",
			"/src/k.h":      "#pragma once\nint from_header;\n",
			"/inc/drai/runtime.h": "void runtime_fn();\n",
		},
		main: "/src/main.cpp",
		opts: Options{IncludeDirs: []string{"/inc"}},
	}
	res, bag := runPP(t, c)
	expectNoErrors(t, bag)

	want := "# 1 \"/src/main.cpp\"\n" +
		"# 1 \"/src/k.h\" 1\n" +
		"\n" +
		"int from_header;\n" +
		"# 2 \"/src/main.cpp\" 2\n" +
		"#include <vector>\n" +
		"# 1 \"/inc/drai/runtime.h\" 1\n" +
		"void runtime_fn();\n" +
		"# 4 \"/src/main.cpp\" 2\n" +
		"\n" +
		"int main_var;\n"
	if string(res.Text) != want {
		t.Fatalf("output mismatch:\nwant:\n%s\ngot:\n%s", want, res.Text)
	}
	if len(res.Includes) != 2 || res.Includes[0] != "/src/k.h" {
		t.Errorf("Includes = %v", res.Includes)
	}
	if len(res.Passthrough) != 1 || res.Passthrough[0] != "vector" {
		t.Errorf("Passthrough = %v", res.Passthrough)
	}
}

func TestQuotedIncludeSearchesIncludeDirs(t *testing.T) {
	c := ppCase{
		files: map[string]string{
			"/src/main.cpp":   "#define HDR \"cfg.h\"\n#include HDR\nint x = CFG;\n",
			"/inc/cfg.h":      "#define CFG 7\n",
			"/inc/next/cfg.h": "#define CFG 9\n",
		},
		main: "/src/main.cpp",
		opts: Options{IncludeDirs: []string{"/inc"}},
	}
	res, bag := runPP(t, c)
	expectNoErrors(t, bag)
	if got := body(res.Text); got != "int x = 7;" {
		t.Fatalf("got %q", got)
	}
}

func TestConditionals(t *testing.T) {
	res, bag := runPP(t, single(`#define A 2
#if defined(A) && A > 1
yes1
#elif 1
no1
#else
no2
#endif
#ifdef B
no3 don't
#elif A == 2
yes2
#endif
#if 0
#if 1
no4
#endif
#else
yes3
#endif
#ifndef B
yes4
#endif
#if (3 - 5) < 0 && -1 < 0u == 0
yes5
#endif
#if 1 ? 0 : 1/0
no5
#else
yes6
#endif
#if __has_include("main.cpp") && !__has_include(<nothing.h>)
yes7
#endif
`))
	expectNoErrors(t, bag)
	want := "yes1\nyes2\nyes3\nyes4\nyes5\nyes6\nyes7"
	if got := body(res.Text); got != want {
		t.Fatalf("want:\n%s\ngot:\n%s", want, got)
	}
}

func TestPredefinedAndCommandLineMacros(t *testing.T) {
	c := single("#if DEBUG && LEVEL == 3 && defined(__drai__) && __cplusplus >= 201703L && __DRAI__\nok\n#endif\n")
	c.opts = Options{Defines: []string{"DEBUG", "LEVEL=3"}, Target: "drai"}
	res, bag := runPP(t, c)
	expectNoErrors(t, bag)
	if got := body(res.Text); got != "ok" {
		t.Fatalf("got %q", got)
	}
}

func TestDynamicMacrosAndLineDirective(t *testing.T) {
	res, bag := runPP(t, single("int l = __LINE__;\nconst char* f = __FILE__;\n#line 100 \"renamed.cpp\"\nint m = __LINE__;\nint c = __COUNTER__ + __COUNTER__;\n"))
	expectNoErrors(t, bag)
	out := string(res.Text)
	for _, want := range []string{
		"int l = 1;",
		`const char* f = "/src/main.cpp";`,
		"# 100 \"renamed.cpp\"\nint m = 100;",
		"int c = 0 + 1;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestPragmaPassThrough(t *testing.T) {
	res, bag := runPP(t, single("#pragma unroll 4\nint x;\n"))
	expectNoErrors(t, bag)
	want := "# 1 \"/src/main.cpp\"\n#pragma unroll 4\nint x;\n"
	if string(res.Text) != want {
		t.Fatalf("want %q\ngot  %q", want, res.Text)
	}
}

func TestDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		text string
		code diag.Code
	}{
		{"error directive", "#error boom here\n", diag.PPErrorDirective},
		{"missing include", "#include \"missing.h\"\n", diag.PPIncludeNotFound},
		{"unterminated if", "#if 1\nint x;\n", diag.PPUnterminatedCond},
		{"stray endif", "#endif\n", diag.PPUnbalancedConditional},
		{"unknown directive", "#frobnicate\n", diag.PPUnknownDirective},
		{"bad paste", "#define P(a,b) a ## b\nP(+,/)\n", diag.PPBadPaste},
		{"arg count", "#define T(a,b) a\nT(1)\n", diag.PPArgCount},
		{"unterminated args", "#define T(a) a\nT(1, \n", diag.PPUnterminatedArgs},
		{"bad if", "#if 1 +\n#endif\n", diag.PPIfSyntax},
		{"div by zero", "#if 1/0\n#endif\n", diag.PPDivByZero},
		{"stringify non-param", "#define S(a) #b\n", diag.PPBadStringify},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bag := runPP(t, single(tc.text))
			expectCode(t, bag, tc.code)
		})
	}
}

func TestErrorDirectiveMessage(t *testing.T) {
	_, bag := runPP(t, single("#error don't build this\n"))
	errs := bag.Errors()
	if len(errs) != 1 || errs[0].Message != "don't build this" {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestRedefinitionWarns(t *testing.T) {
	_, bag := runPP(t, single("#define N 1\n#define N 1\n#define N 2\n"))
	if bag.HasErrors() || bag.Len() != 1 || bag.Items()[0].Code != diag.PPMacroRedefined {
		t.Fatalf("diags = %+v", bag.Items())
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Errorf("redefinition should point at the previous definition")
	}
}

func TestModuleMapInput(t *testing.T) {
	c := ppCase{files: map[string]string{"/src/module.modulemap": "module A {}"}, main: "/src/module.modulemap"}
	res, bag := runPP(t, c)
	expectNoErrors(t, bag)
	want := "# 1 \"/src/module.modulemap\"\nmodule A {}\n#pragma clang module contents\n"
	if string(res.Text) != want {
		t.Fatalf("want %q\ngot  %q", want, res.Text)
	}
}

func TestKernelLaunchSurvivesExpansion(t *testing.T) {
	res, bag := runPP(t, single("#define GRID g, 4\nk<<<GRID>>>(a, b);\n"))
	expectNoErrors(t, bag)
	if got := body(res.Text); got != "k<<<g, 4>>>(a, b);" {
		t.Fatalf("got %q", got)
	}
}

func TestCancelledContext(t *testing.T) {
	mem := vfs.NewMem()
	mem.AddFile("/src/main.cpp", []byte("#include \"a.h\"\n"))
	mem.AddFile("/src/a.h", []byte("int a;\n"))
	fs := source.NewFileSet()
	id, _ := fs.LoadFrom(mem, "/src/main.cpp")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Preprocess(ctx, fs, id, Options{FS: mem}); err == nil {
		t.Fatal("expected context error")
	}
}
