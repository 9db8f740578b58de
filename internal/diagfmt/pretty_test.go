package diagfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"drai/internal/diag"
	"drai/internal/lexer"
	"drai/internal/parser"
	"drai/internal/source"
	"drai/internal/token"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("void h() { k<<<>>>(x); }\n")
	fileID := fs.AddVirtual("/home/user/project/src/main.cu", content)
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.SynMalformedKernelCall,
		source.Span{File: fileID, Start: 11, End: 21}, "empty launch configuration"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/src/main.cu:1:12"},
		{"Relative path", PathModeRelative, "src/main.cu:1:12"},
		{"Basename only", PathModeBasename, "main.cu:1:12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 0, PathMode: tt.mode})
			output := buf.String()
			for _, want := range []string{tt.contains, "error", "SYN3005", "empty launch configuration"} {
				if !strings.Contains(output, want) {
					t.Errorf("expected %q in output, got:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettyUnderline(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("main.cu", []byte("int a;\nvoid h() { k<<<1>>>; }\nint b;\n"))
	bag := diag.NewBag(4)
	d := diag.New(diag.SevWarning, diag.SynMalformedKernelCall, source.Span{File: fileID, Start: 18, End: 26}, "expected '('")
	d = d.WithNote(source.Span{File: fileID, Start: 0, End: 3}, "declared here")
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, ShowNotes: true})
	want := strings.Join([]string{
		"main.cu:2:12: warning SYN3005: expected '('",
		"1 | int a;",
		"2 | void h() { k<<<1>>>; }",
		"  | " + strings.Repeat(" ", 11) + "^" + strings.Repeat("~", 7),
		"3 | int b;",
		"  note: main.cu:1:1: declared here",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyMinSeverity(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.cu", []byte("x\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevWarning, diag.PPWarningDirective, source.Span{File: fileID, End: 1}, "careful"))
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: -1, MinSeverity: diag.SevError})
	if buf.Len() != 0 {
		t.Fatalf("warning printed: %q", buf.String())
	}
}

func TestFormatTokens(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("a.cu", []byte("k<<<1>>>(x);")))
	lx := lexer.New(f, lexer.Options{})
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, toks, fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pretty.String(), `"<<<" at 1:2-1:5`) {
		t.Errorf("pretty dump:\n%s", pretty.String())
	}

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, toks); err != nil {
		t.Fatal(err)
	}
	var decoded []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(toks) || decoded[len(decoded)-1].Kind != "EOF" {
		t.Errorf("json dump has %d tokens, want %d", len(decoded), len(toks))
	}
}

func TestDescribeFile(t *testing.T) {
	fs := source.NewFileSet()
	f, _ := parser.ParseFile(fs.Get(fs.AddVirtual("a.cu", []byte(`namespace ns { __global__ void k(float* a, int n) {} }
template <class T> __global__ void t(T* p);
void h(float* d) { ns::k<<<1, 2>>>(d, 3); }
`))), parser.Options{})
	var buf bytes.Buffer
	if err := FormatFilePretty(&buf, f, fs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"ns::k(float * a, int n) => _ZN2ns1kEPfi",
		"kernel generic decl",
		fmt.Sprintf("%-24s %s", "launch", "ns::k<<<2>>>(2)"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
