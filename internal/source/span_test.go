package source

import "testing"

func TestSpan_Cover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 15, End: 30}
	if got := a.Cover(b); got != (Span{File: 1, Start: 10, End: 30}) {
		t.Errorf("Cover() = %+v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Errorf("Cover() across files must keep receiver, got %+v", got)
	}
}

func TestSpan_Contains(t *testing.T) {
	outer := Span{File: 0, Start: 10, End: 40}
	tests := []struct {
		name     string
		other    Span
		contains bool
	}{
		{"inner", Span{Start: 12, End: 20}, true},
		{"same", Span{Start: 10, End: 40}, true},
		{"crossing end", Span{Start: 30, End: 50}, false},
		{"touching end", Span{Start: 40, End: 45}, false},
		{"touching start", Span{Start: 5, End: 10}, false},
		{"empty at start", Span{Start: 10, End: 10}, true},
		{"empty at end", Span{Start: 40, End: 40}, true},
		{"other file", Span{File: 1, Start: 12, End: 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Contains(tt.other); got != tt.contains {
				t.Errorf("Contains(%v) = %v, want %v", tt.other, got, tt.contains)
			}
		})
	}
}
