package rewrite_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"drai/internal/ast"
	"drai/internal/diag"
	"drai/internal/objfile"
	"drai/internal/parser"
	"drai/internal/rewrite"
	"drai/internal/source"
	"drai/internal/testkit"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	fs := source.NewFileSet()
	f, _ := parser.ParseFile(fs.Get(fs.AddVirtual("main.cu.ii", []byte(src))), parser.Options{})
	return f
}

func artifact(t *testing.T, kernels ...testkit.KernelBinary) *objfile.Store {
	t.Helper()
	data, err := testkit.KernelObject(kernels...).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	s, err := objfile.FromBytes("kernels.o", data)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func run(t *testing.T, src string, kernels ...testkit.KernelBinary) (*rewrite.Result, error) {
	t.Helper()
	return rewrite.Rewrite(context.Background(), parse(t, src), artifact(t, kernels...), rewrite.Options{})
}

func mustRun(t *testing.T, src string, kernels ...testkit.KernelBinary) string {
	t.Helper()
	res, err := run(t, src, kernels...)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	return string(res.Text)
}

func expectContains(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(out, p) {
			t.Errorf("output lacks %q:\n%s", p, out)
		}
	}
}

func expectAbsent(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if strings.Contains(out, p) {
			t.Errorf("output still contains %q:\n%s", p, out)
		}
	}
}

func TestPlainKernelAndLaunch(t *testing.T) {
	out := mustRun(t, `__global__ void k(float* a, int n) { a[n] = 0; }
void host(float* d) { k<<<g, 4>>>(d, 3); }
`, testkit.KernelBinary{Name: "_Z1kPfi", Code: []byte{0x01, 0xab}})

	if !strings.HasPrefix(out, "\n#include <mutex>\n\n") {
		t.Errorf("missing prologue:\n%s", out)
	}
	expectContains(t, out,
		"void k(float * a, int n) {",
		"static unsigned char binary[] = {0x01, 0xab};",
		"graph->NewKernel((void(*)(float * a, int n))&k , a, n);",
		"void host(float* d) { \n  ::drai::PushLaunchConfig(g, 4);\n  k(d, 3); }",
	)
	expectAbsent(t, out, "__global__", "a[n] = 0", "<<<")
}

func TestTemplateInstantiatedOnce(t *testing.T) {
	res, err := run(t, `template <typename T>
__global__ void fill(T* p, T v) { p[0] = v; }
void host(int* d) { fill<int><<<1, 1>>>(d, 7); fill<int><<<2, 1>>>(d, 8); }
`, testkit.KernelBinary{Name: "_Z4fillIiEvPT_S0_", Code: []byte{0xc3}})
	if err != nil {
		t.Fatal(err)
	}
	out := string(res.Text)
	expectContains(t, out,
		"__global__ void fill(T* p, T v) ;\n\nvoid fill(int * p, int v) {",
		"\n  ::drai::PushLaunchConfig(1, 1);\n  fill<int>(d, 7);",
		"\n  ::drai::PushLaunchConfig(2, 1);\n  fill<int>(d, 8);",
	)
	expectAbsent(t, out, "p[0] = v")
	if n := strings.Count(out, "void fill(int * p, int v) {"); n != 1 {
		t.Errorf("want exactly one wrapper, got %d", n)
	}
	if len(res.Kernels) != 1 || res.Kernels[0].LinkageName != "_Z4fillIiEvPT_S0_" || res.Calls != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestSpecializationAndExplicitInstantiation(t *testing.T) {
	res, err := run(t, `template <typename T> __global__ void k(T* p) { }
template <> __global__ void k<float>(float* p) { p[0] = 1; }
template __global__ void k(double* p);
void host(float* d) { k<float><<<1,1>>>(d); }
`,
		testkit.KernelBinary{Name: "_Z1kIfEvPT_", Code: []byte{0x0f}},
		testkit.KernelBinary{Name: "_Z1kIdEvPT_", Code: []byte{0x0d}},
	)
	if err != nil {
		t.Fatal(err)
	}
	out := string(res.Text)
	expectContains(t, out,
		"template <> __global__ void k<float>(float* p) { p[0] = 1; }\nvoid k(float * p) {",
		"{0x0f}",
		"void k(double * p) {",
		"{0x0d}",
	)
	if len(res.Kernels) != 2 {
		t.Fatalf("want 2 wrappers, got %d", len(res.Kernels))
	}
	if res.Kernels[0].Template != ast.TemplateSpecialization {
		t.Errorf("first wrapper should come from the specialization")
	}
}

func TestNamespacesAndExternC(t *testing.T) {
	out := mustRun(t, `namespace ns { __global__ void k(float* a) {} }
extern "C" __global__ void c_kernel(int n) {}
void host(float* d) { ns::k<<<1, 1>>>(d); c_kernel<<<1, 1>>>(2); }
`,
		testkit.KernelBinary{Name: "_ZN2ns1kEPf", Code: []byte{1}},
		testkit.KernelBinary{Name: "c_kernel", Code: []byte{2}},
	)
	expectContains(t, out,
		"namespace ns { \nvoid k(float * a) {",
		"void c_kernel(int n) {",
		"\n  ns::k(d);",
		"\n  c_kernel(2);",
	)
}

func TestNestedLaunches(t *testing.T) {
	out := mustRun(t, "void h() { outer<<<inner<<<1,1>>>(x), 2>>>(y); }\n")
	want := "void h() { \n  ::drai::PushLaunchConfig(\n  ::drai::PushLaunchConfig(1, 1);\n  inner(x), 2);\n  outer(y); }\n"
	if !strings.HasSuffix(out, want) {
		t.Fatalf("got:\n%q\nwant suffix:\n%q", out, want)
	}
}

func TestForwardDeclarationAndInnerLaunchesUntouched(t *testing.T) {
	out := mustRun(t, `__global__ void child(int* p);
__global__ void parent(int* p) { child<<<1, 1>>>(p); }
`, testkit.KernelBinary{Name: "_Z6parentPi", Code: []byte{9}})
	expectContains(t, out, "__global__ void child(int* p);", "void parent(int * p) {")
	expectAbsent(t, out, "PushLaunchConfig(1, 1)")
}

func TestUnnamedParameters(t *testing.T) {
	out := mustRun(t, "__global__ void k(float*, int) {}\n", testkit.KernelBinary{Name: "_Z1kPfi", Code: []byte{1}})
	expectContains(t, out, "void k(float * __drai_arg0, int __drai_arg1) {", "&k , __drai_arg0, __drai_arg1);")
}

func TestRewriteErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"missing symbol", "__global__ void k() {}\n", objfile.ErrSymbolNotFound},
		{"malformed launch", "void h() { k<<<>>>(1); }\n", rewrite.ErrMalformedKernelCall},
		{"missing arguments", "void h() { k<<<1, 1>>>; }\n", rewrite.ErrMalformedKernelCall},
		{"template without arguments", "template <class T> __global__ void k(T* p) {}\nvoid h(int* d) { k<<<1,1>>>(d); }\n", rewrite.ErrTemplateArgs},
		{"too many arguments", "template <class T> __global__ void k(T* p) {}\nvoid h(int* d) { k<int, int><<<1,1>>>(d); }\n", rewrite.ErrTemplateArgs},
		{"specialization without template", "template <> __global__ void k<int>(int* p) {}\n", rewrite.ErrUnknownKernel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
			if !strings.HasPrefix(err.Error(), "main.cu.ii:") {
				t.Errorf("error lacks position: %v", err)
			}
		})
	}
}

func TestErrorPositionsFollowLineMarkers(t *testing.T) {
	src := "# 1 \"main.cu\"\nint x;\n# 5 \"main.cu\"\n__global__ void k() {}\n"
	bag := diag.NewBag(10)
	_, err := rewrite.Rewrite(context.Background(), parse(t, src), artifact(t), rewrite.Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	if !errors.Is(err, objfile.ErrSymbolNotFound) {
		t.Fatalf("want ErrSymbolNotFound, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "main.cu:5:17: ") {
		t.Errorf("error = %v", err)
	}
	errs := bag.Errors()
	if len(errs) != 1 || errs[0].Code != diag.AbiSymbolNotFound {
		t.Fatalf("reported = %+v", errs)
	}
}

func TestDefaultTemplateArguments(t *testing.T) {
	out := mustRun(t, `template <typename T, int N = 4>
__global__ void k(T* p) {}
void h(float* d) { k<float><<<1, 1>>>(d); }
`, testkit.KernelBinary{Name: "_Z1kIfLi4EEvPT_", Code: []byte{4}})
	expectContains(t, out, "void k(float * p) {", "{0x04}")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rewrite.Rewrite(ctx, parse(t, "void h() {}"), artifact(t), rewrite.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
