package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("kernel.cpp", []byte("void k();"), 0)
	id2 := fs.Add("kernel.cpp", []byte("void k(int);"), 0)
	if id1 != 0 || id2 != 1 {
		t.Fatalf("expected ids 0 and 1, got %d and %d", id1, id2)
	}

	if fs.Len() != 2 || fs.Get(id2).Path != "kernel.cpp" {
		t.Fatalf("Len = %d, second path %q", fs.Len(), fs.Get(id2).Path)
	}
	// старая версия остаётся доступной
	if got := string(fs.Get(id1).Content); got != "void k();" {
		t.Errorf("first version content = %q", got)
	}
}

func TestAddVirtualNormalizes(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("<stdin>", []byte{0xEF, 0xBB, 0xBF, 'a', '\r', '\n', 'b', '\n'})
	file := fs.Get(id)

	if string(file.Content) != "a\nb\n" {
		t.Fatalf("content = %q", file.Content)
	}
	if file.Flags&FileVirtual == 0 || file.Flags&FileHadBOM == 0 || file.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b", file.Flags)
	}
	if len(file.LineIdx) != 2 || file.LineIdx[0] != 1 || file.LineIdx[1] != 3 {
		t.Errorf("LineIdx = %v", file.LineIdx)
	}
}

func TestResolveAndGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.cpp", []byte("int x;\nvoid k(int y) {}\n"))

	start, end := fs.Resolve(Span{File: id, Start: 12, End: 13})
	if start != (LineCol{Line: 2, Col: 6}) || end != (LineCol{Line: 2, Col: 7}) {
		t.Errorf("Resolve = %+v %+v", start, end)
	}
	if got := fs.Get(id).GetLine(2); got != "void k(int y) {}" {
		t.Errorf("GetLine(2) = %q", got)
	}
	if got := fs.Get(id).GetLine(9); got != "" {
		t.Errorf("GetLine(9) = %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 7, End: 11}); got != "void" {
		t.Errorf("Text = %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 20, End: 400}); got != " {}\n" {
		t.Errorf("clamped Text = %q", got)
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "k.cpp")
	if err := os.WriteFile(path, []byte("a\r\nb"), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := string(fs.Get(id).Content); got != "a\nb" {
		t.Errorf("content = %q", got)
	}
	if _, err := fs.Load(filepath.Join(dir, "missing.cpp")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLineColBoundaries(t *testing.T) {
	f := &File{Content: []byte("ab\n\ncd\n")}
	f.LineIdx = buildLineIndex(f.Content)
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // '\n' закрывает свою строку
		{3, LineCol{2, 1}},
		{4, LineCol{3, 1}},
		{5, LineCol{3, 2}},
		{7, LineCol{4, 1}}, // конец файла после последнего '\n'
	}
	for _, tt := range tests {
		if got := f.LineCol(tt.off); got != tt.want {
			t.Errorf("LineCol(%d) = %v, want %v", tt.off, got, tt.want)
		}
	}
	noNewline := &File{Content: []byte("xyz")}
	if got := noNewline.LineCol(2); got != (LineCol{1, 3}) {
		t.Errorf("LineCol without newlines = %v", got)
	}
	if got := f.GetLine(2); got != "" {
		t.Errorf("GetLine(2) = %q, want empty line", got)
	}
	if got := f.GetLine(3); got != "cd" {
		t.Errorf("GetLine(3) = %q", got)
	}
}

func TestLineMarkers(t *testing.T) {
	fs := NewFileSet()
	text := "# 1 \"main.cu\"\nint a;\n\n# 7 \"inc/k.h\"\nvoid k();\n# 3 \"main.cu\"\nint b;\n"
	id := fs.AddVirtual("main.cu.ii", []byte(text))
	f := fs.Get(id)
	if f.HasLineMarkers() {
		t.Fatal("markers before AddLineMarker")
	}
	if got := f.Position(0); got != (Position{Path: "main.cu.ii", Line: 1, Col: 1}) {
		t.Errorf("unmarked position = %v", got)
	}
	// добавляем не по порядку
	f.AddLineMarker(uint32(strings.Index(text, "int b")), 3, "main.cu")
	f.AddLineMarker(uint32(strings.Index(text, "int a")), 1, "main.cu")
	f.AddLineMarker(uint32(strings.Index(text, "void k")), 7, "inc/k.h")

	tests := []struct {
		needle string
		want   string
	}{
		{"a;", "main.cu:1:5"},
		{"k();", "inc/k.h:7:6"},
		{"b;", "main.cu:3:5"},
	}
	for _, tt := range tests {
		off := uint32(strings.Index(text, tt.needle))
		if got := fs.Position(Span{File: id, Start: off, End: off + 1}).String(); got != tt.want {
			t.Errorf("Position(%q) = %s, want %s", tt.needle, got, tt.want)
		}
	}
	// пустая строка после маркера сдвигает номер
	f.AddLineMarker(uint32(strings.Index(text, "int a")), 10, "main.cu")
	if got := f.Position(uint32(strings.Index(text, "\n# 7"))); got.Line != 11 {
		t.Errorf("line after replaced marker = %d, want 11", got.Line)
	}
}
