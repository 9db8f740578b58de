package rewrite

import (
	"errors"
	"testing"

	"drai/internal/source"
)

func newTestRecord(text string) (*Record, func(start, end uint32) source.Span) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("r.cpp", []byte(text))
	span := func(start, end uint32) source.Span { return source.Span{File: id, Start: start, End: end} }
	return NewRecord(fs.Get(id)), span
}

func TestRecordApply(t *testing.T) {
	rec, span := newTestRecord("abcdefghij")
	steps := []error{
		rec.Replace(span(2, 4), "XY"),
		rec.InsertAfter(4, "+"),
		rec.InsertAfter(4, "++"),
		rec.InsertBefore(0, "[b1]"),
		rec.InsertBefore(0, "[b2]"),
		rec.InsertAfter(0, "[a]"),
		rec.InsertAfter(2, "<"),
		rec.Replace(span(8, 10), ""),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	got := string(rec.Apply())
	want := "[b2][b1][a]ab<XY+++efgh"
	if got != want {
		t.Fatalf("Apply = %q, want %q", got, want)
	}
}

func TestRecordConflicts(t *testing.T) {
	tests := []struct {
		name     string
		first    [2]uint32
		second   [2]uint32
		conflict bool
	}{
		{"overlap", [2]uint32{2, 6}, [2]uint32{5, 8}, true},
		{"same span", [2]uint32{2, 6}, [2]uint32{2, 6}, true},
		{"nested", [2]uint32{2, 6}, [2]uint32{3, 4}, true},
		{"adjacent", [2]uint32{2, 6}, [2]uint32{6, 8}, false},
		{"insert inside", [2]uint32{2, 6}, [2]uint32{4, 4}, true},
		{"insert at start", [2]uint32{2, 6}, [2]uint32{2, 2}, false},
		{"insert at end", [2]uint32{2, 6}, [2]uint32{6, 6}, false},
		{"two inserts", [2]uint32{3, 3}, [2]uint32{3, 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, span := newTestRecord("0123456789")
			if err := rec.Replace(span(tt.first[0], tt.first[1]), "x"); err != nil {
				t.Fatal(err)
			}
			err := rec.Replace(span(tt.second[0], tt.second[1]), "y")
			if got := errors.Is(err, ErrConflict); got != tt.conflict {
				t.Fatalf("conflict = %v (err %v), want %v", got, err, tt.conflict)
			}
		})
	}
}

func TestRecordOutOfRange(t *testing.T) {
	rec, span := newTestRecord("abc")
	if err := rec.Replace(span(1, 9), "x"); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestRecordTextAndDrop(t *testing.T) {
	rec, span := newTestRecord("f(g(x), y)")
	if err := rec.Replace(span(2, 6), "G[x]"); err != nil {
		t.Fatal(err)
	}
	if got := rec.Text(span(2, 9)); got != "G[x], y" {
		t.Fatalf("Text = %q", got)
	}
	if got := rec.Text(span(7, 9)); got != " y" {
		t.Fatalf("Text outside edits = %q", got)
	}
	outer := span(0, 10)
	text := "F(" + rec.Text(span(2, 9)) + ")"
	if err := rec.Replace(outer, text); !errors.Is(err, ErrConflict) {
		t.Fatalf("replacing over a live edit must conflict, got %v", err)
	}
	rec.Drop(outer)
	if rec.Len() != 0 {
		t.Fatalf("Drop left %d edits", rec.Len())
	}
	if err := rec.Replace(outer, text); err != nil {
		t.Fatal(err)
	}
	if got := string(rec.Apply()); got != "F(G[x], y)" {
		t.Fatalf("Apply = %q", got)
	}
}
