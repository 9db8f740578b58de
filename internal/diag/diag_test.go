package diag

import (
	"testing"

	"drai/internal/source"
)

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	main := fs.Add("/workspace/src/k.cpp", []byte("a\nb\n"), 0)
	hdr := fs.Add("/workspace/include/k.h", []byte("x\n"), 0)

	diags := []Diagnostic{
		NewError(PPIncludeNotFound, source.Span{File: main, Start: 2, End: 3}, "'missing.h' file not found"),
		New(SevWarning, PPMacroRedefined, source.Span{File: hdr, Start: 0, End: 1}, "'N' macro redefined").
			WithNote(source.Span{File: main, Start: 0, End: 1}, "previous definition is here\n"),
	}

	want := "warning PP2002 include/k.h:1:1 'N' macro redefined\n" +
		"note PP2002 src/k.cpp:1:1 previous definition is here\n" +
		"error PP2014 src/k.cpp:2:1 'missing.h' file not found"
	if got := FormatShort(diags, fs, true); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestBagLimitAndErrors(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	ReportWarning(r, PPWarningDirective, source.Span{}, "w").Emit()
	ReportError(r, PPErrorDirective, source.Span{}, "e").Emit()
	ReportError(r, PPErrorDirective, source.Span{Start: 4}, "dropped").Emit()

	if bag.Len() != 2 {
		t.Fatalf("bag len = %d, want 2", bag.Len())
	}
	if !bag.HasErrors() || len(bag.Errors()) != 1 {
		t.Fatalf("expected exactly one error, got %v", bag.Items())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	b := ReportError(BagReporter{Bag: bag}, SynMalformedKernelCall, source.Span{}, "missing '>>>'")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("builder emitted %d times", bag.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 2}
	r.Report(PPBadPaste, SevError, sp, "bad paste", nil)
	r.Report(PPBadPaste, SevError, sp, "bad paste", nil)
	r.Report(PPBadPaste, SevError, source.Span{Start: 3, End: 4}, "bad paste", nil)
	if bag.Len() != 2 {
		t.Fatalf("dedup kept %d diagnostics, want 2", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		LexUnknownChar:         "LEX1001",
		PPIncludeNotFound:      "PP2014",
		SynMalformedKernelCall: "SYN3005",
		IOLoadFileError:        "IO4001",
		AbiUnsupportedType:     "ABI5001",
		PrjManifestInvalid:     "PRJ6001",
		UnknownCode:            "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}

func TestSeverityNames(t *testing.T) {
	for _, sev := range []Severity{SevNote, SevWarning, SevError} {
		got, err := ParseSeverity(sev.String())
		if err != nil || got != sev {
			t.Errorf("ParseSeverity(%q) = %v, %v", sev.String(), got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Errorf("ParseSeverity(fatal) accepted")
	}
	if got := Severity(7).String(); got != "severity(7)" {
		t.Errorf("Severity(7) = %q", got)
	}
}
