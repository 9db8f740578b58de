package rewrite

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"

	"drai/internal/source"
)

// ErrConflict is returned when an edit overlaps one already recorded.
var ErrConflict = errors.New("conflicting edit")

type editKind uint8

const (
	// insertBefore goes in front of every other edit at its offset
	insertBefore editKind = iota
	insertAfter
	replace
)

// Edit replaces Span with NewText. A zero-length span is an insertion.
type Edit struct {
	Span    source.Span
	NewText string

	kind editKind
	seq  int
}

// Record collects edits against the original text of one file and applies
// them in a single pass at the end.
type Record struct {
	file  *source.File
	edits []Edit
	seq   int
}

// NewRecord starts an empty record for file.
func NewRecord(file *source.File) *Record {
	return &Record{file: file}
}

// Edits returns the recorded edits in application order.
func (r *Record) Edits() []Edit {
	out := append([]Edit(nil), r.edits...)
	sortEdits(out)
	return out
}

// Len returns the number of live edits.
func (r *Record) Len() int { return len(r.edits) }

// Replace records that sp becomes text.
func (r *Record) Replace(sp source.Span, text string) error {
	if sp.Empty() {
		return r.add(Edit{Span: sp, NewText: text, kind: insertAfter})
	}
	return r.add(Edit{Span: sp, NewText: text, kind: replace})
}

// InsertBefore inserts text at off, ahead of anything already inserted there.
func (r *Record) InsertBefore(off uint32, text string) error {
	return r.add(Edit{Span: r.point(off), NewText: text, kind: insertBefore})
}

// InsertAfter inserts text at off, after anything already inserted there.
func (r *Record) InsertAfter(off uint32, text string) error {
	return r.add(Edit{Span: r.point(off), NewText: text, kind: insertAfter})
}

func (r *Record) point(off uint32) source.Span {
	return source.Span{File: r.file.ID, Start: off, End: off}
}

func (r *Record) add(e Edit) error {
	size, err := safecast.Conv[uint32](len(r.file.Content))
	if err != nil {
		return err
	}
	if e.Span.End < e.Span.Start || e.Span.End > size {
		return fmt.Errorf("edit span %v out of range", e.Span)
	}
	for _, prev := range r.edits {
		if spansConflict(prev.Span, e.Span) {
			return fmt.Errorf("%w: %v overlaps %v", ErrConflict, e.Span, prev.Span)
		}
	}
	r.seq++
	e.seq = r.seq
	r.edits = append(r.edits, e)
	return nil
}

// spansConflict reports whether two edit spans overlap.
// Spans are half-open intervals [Start, End). Two insertions never
// conflict. An insertion conflicts with a replacement only strictly
// inside it: inserting at either end keeps both edits well-defined.
func spansConflict(a, b source.Span) bool {
	if a.Empty() && b.Empty() {
		return false
	}
	if a.Empty() {
		return b.Start < a.Start && a.Start < b.End
	}
	if b.Empty() {
		return a.Start < b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// Drop forgets every edit inside sp, boundary insertions excluded. It is
// used once the edits have been folded into a replacement of sp.
func (r *Record) Drop(sp source.Span) {
	kept := r.edits[:0]
	for _, e := range r.edits {
		if !inside(sp, e.Span) {
			kept = append(kept, e)
		}
	}
	r.edits = kept
}

func inside(outer, sp source.Span) bool {
	if !outer.Contains(sp) {
		return false
	}
	if sp.Empty() {
		return outer.Start < sp.Start && sp.Start < outer.End
	}
	return true
}

// Text returns the text of sp with the edits inside it applied.
func (r *Record) Text(sp source.Span) string {
	var sub []Edit
	for _, e := range r.edits {
		if inside(sp, e.Span) {
			sub = append(sub, e)
		}
	}
	return string(apply(r.file.Content, sp.Start, sp.End, sub))
}

// Apply returns the whole file with all edits applied.
func (r *Record) Apply() []byte {
	end, _ := safecast.Conv[uint32](len(r.file.Content))
	return apply(r.file.Content, 0, end, r.edits)
}

func apply(content []byte, from, to uint32, edits []Edit) []byte {
	sorted := append([]Edit(nil), edits...)
	sortEdits(sorted)
	var b strings.Builder
	b.Grow(int(to-from) + 64)
	pos := from
	for _, e := range sorted {
		if e.Span.Start > pos {
			b.Write(content[pos:e.Span.Start])
			pos = e.Span.Start
		}
		b.WriteString(e.NewText)
		if e.Span.End > pos {
			pos = e.Span.End
		}
	}
	if pos < to {
		b.Write(content[pos:to])
	}
	return []byte(b.String())
}

// sortEdits orders edits by offset; at one offset insert-before edits come
// first (latest first), then insert-after edits in recording order, then
// the replacement starting there.
func sortEdits(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.kind == insertBefore {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})
}
