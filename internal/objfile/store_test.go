package objfile

import (
	"bytes"
	"debug/elf"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"drai/internal/testkit"
)

var textBytes = []byte{0x90, 0x01, 0x02, 0x03, 0xc3, 0xaa, 0xbb}

func fixture() testkit.ELFObject {
	return testkit.ELFObject{
		Sections: []testkit.ELFSection{
			{Name: ".text", Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Data: textBytes},
			{Name: ".data", Flags: elf.SHF_ALLOC | elf.SHF_WRITE, Data: []byte{7, 8, 9, 10}},
			{Name: ".bss", Type: elf.SHT_NOBITS, Flags: elf.SHF_ALLOC | elf.SHF_WRITE, Size: 16},
		},
		Symbols: []testkit.ELFSymbol{
			{Name: "k.cpp", Section: "*ABS*", Type: elf.STT_FILE, Local: true},
			{Name: "_Z1kPf", Section: ".text", Value: 1, Size: 4, Type: elf.STT_FUNC},
			{Name: "table", Section: ".data", Size: 4, Type: elf.STT_OBJECT},
			{Name: "dup", Section: ".data", Value: 2, Size: 2, Type: elf.STT_OBJECT},
			{Name: "dup", Section: ".text", Value: 5, Size: 2, Type: elf.STT_FUNC},
			{Name: "zeroes", Section: ".bss", Size: 8, Type: elf.STT_OBJECT},
			{Name: "extern_fn", Type: elf.STT_FUNC},
			{Name: "abs_value", Section: "*ABS*", Value: 42},
			{Name: "too_big", Section: ".text", Value: 4, Size: 1 << 20, Type: elf.STT_FUNC},
			{Name: "empty", Section: ".text", Type: elf.STT_FUNC},
		},
	}
}

func openFixture(t *testing.T, o testkit.ELFObject) *Store {
	t.Helper()
	data, err := o.Bytes()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	s, err := FromBytes("fixture.o", data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLookupReturnsSymbolBytes(t *testing.T) {
	s := openFixture(t, fixture())
	got, err := s.Lookup("_Z1kPf")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if want := textBytes[1:5]; !bytes.Equal(got, want) {
		t.Fatalf("bytes = % x, want % x", got, want)
	}

	got[0] = 0xff
	again, err := s.Lookup("_Z1kPf")
	if err != nil || again[0] != 0x01 {
		t.Fatalf("Lookup must return a copy, got % x (%v)", again, err)
	}
}

func TestFirstMatchWins(t *testing.T) {
	s := openFixture(t, fixture())
	sym, ok := s.FindSymbol("dup")
	if !ok {
		t.Fatal("dup not found")
	}
	if sym.Kind != SymObject || sym.Section == nil || sym.Section.Name != ".data" {
		t.Fatalf("first dup = %+v", sym)
	}
	// memoized lookups keep returning the same entry
	if again, _ := s.FindSymbol("dup"); again.Value != sym.Value {
		t.Fatalf("memoized lookup changed: %+v", again)
	}

	fn, ok := s.FindSymbolKind("dup", SymFunc)
	if !ok || fn.Section.Name != ".text" {
		t.Fatalf("FindSymbolKind(dup, func) = %+v, %v", fn, ok)
	}
	b, err := s.LookupKind("dup", SymFunc)
	if err != nil || !bytes.Equal(b, []byte{0xaa, 0xbb}) {
		t.Fatalf("LookupKind = % x, %v", b, err)
	}
	if _, ok := s.FindSymbolKind("table", SymFunc); ok {
		t.Fatal("table is not a function")
	}
}

func TestUnresolvableSymbols(t *testing.T) {
	s := openFixture(t, fixture())
	for _, name := range []string{"zeroes", "extern_fn", "abs_value", "too_big", "empty"} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Lookup(name)
			if !errors.Is(err, ErrSectionUnresolved) {
				t.Fatalf("Lookup(%s) err = %v, want ErrSectionUnresolved", name, err)
			}
		})
	}
	if _, err := s.Lookup("missing"); !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("missing: err = %v", err)
	}
}

func TestKinds(t *testing.T) {
	s := openFixture(t, fixture())
	want := map[string]Kind{
		"k.cpp":     SymFile,
		"_Z1kPf":    SymFunc,
		"table":     SymObject,
		"extern_fn": SymUndef,
		"abs_value": SymOther,
	}
	for name, kind := range want {
		sym, ok := s.FindSymbol(name)
		if !ok || sym.Kind != kind {
			t.Errorf("%s: kind %v (found %v), want %v", name, sym.Kind, ok, kind)
		}
	}
	if n := len(s.Symbols()); n != len(fixture().Symbols) {
		t.Errorf("Symbols() has %d entries, want %d", n, len(fixture().Symbols))
	}
}

func TestLinkedImageUsesSectionAddress(t *testing.T) {
	o := testkit.ELFObject{
		Type: elf.ET_EXEC,
		Sections: []testkit.ELFSection{
			{Name: ".text", Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Addr: 0x401000, Data: textBytes},
		},
		Symbols: []testkit.ELFSymbol{
			{Name: "kernel", Section: ".text", Value: 0x401002, Size: 2, Type: elf.STT_FUNC},
			{Name: "before", Section: ".text", Value: 0x400000, Size: 2, Type: elf.STT_FUNC},
		},
	}
	s := openFixture(t, o)
	got, err := s.Lookup("kernel")
	if err != nil || !bytes.Equal(got, textBytes[2:4]) {
		t.Fatalf("Lookup(kernel) = % x, %v", got, err)
	}
	if _, err := s.Lookup("before"); !errors.Is(err, ErrSectionUnresolved) {
		t.Fatalf("address below section: err = %v", err)
	}
}

func TestOpenFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernels.o")
	if err := testkit.WriteELF(path, fixture()); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q", s.Path())
	}
	if _, err := s.Lookup("_Z1kPf"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := s.Lookup("_Z1kPf"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Lookup after Close: %v", err)
	}
}

func TestOpenRejectsBadArtifacts(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("definitely not an object file"), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.o")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{filepath.Join(dir, "missing.o"), text, empty, dir} {
		if _, err := Open(path); !errors.Is(err, ErrArtifactOpen) {
			t.Errorf("Open(%s) err = %v, want ErrArtifactOpen", filepath.Base(path), err)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{SymOther, SymUndef, SymFunc, SymObject, SymSection, SymFile} {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("FUNC "); !ok {
		t.Error("ParseKind should ignore case and surrounding space")
	}
	if _, ok := ParseKind("weird"); ok {
		t.Error("ParseKind accepted an unknown kind")
	}
}

func TestDumpFiltersAndPersists(t *testing.T) {
	s := openFixture(t, fixture())
	d := s.Dump(func(sym Symbol) bool { return sym.Kind == SymFunc })
	if len(d.Symbols) != 4 {
		t.Fatalf("func symbols = %d, want 4: %+v", len(d.Symbols), d.Symbols)
	}
	if d.Symbols[0].Name != "_Z1kPf" || d.Symbols[0].Section != ".text" || d.Symbols[0].Kind != "func" {
		t.Fatalf("first entry = %+v", d.Symbols[0])
	}

	path := filepath.Join(t.TempDir(), "symbols.mp")
	if err := WriteDumpFile(path, d); err != nil {
		t.Fatalf("WriteDumpFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	back, err := DecodeDump(f)
	if err != nil {
		t.Fatalf("DecodeDump: %v", err)
	}
	if back.Schema != dumpSchemaVersion || back.Artifact != "fixture.o" || len(back.Symbols) != 4 {
		t.Fatalf("decoded dump = %+v", back)
	}
}
