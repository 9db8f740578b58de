package source

import (
	"fmt"
	"slices"
)

// lineMarker says that the physical line starting at off is line Line of
// Path, as a `# Line "Path"` marker in preprocessed text does.
type lineMarker struct {
	off  uint32
	line uint32
	path string
}

// Position is a location in terms of the original sources: the path and
// line come from the nearest preceding line marker, the column is physical.
type Position struct {
	Path string
	Line uint32
	Col  uint32
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}

// AddLineMarker records that the line starting at off is line of path.
// off must be the start of a physical line; markers may be added in any
// order and a later marker at the same offset replaces the earlier one.
func (f *File) AddLineMarker(off, line uint32, path string) {
	m := lineMarker{off: off, line: line, path: normalizePath(path)}
	i, found := slices.BinarySearchFunc(f.markers, off, func(m lineMarker, off uint32) int {
		switch {
		case m.off < off:
			return -1
		case m.off > off:
			return 1
		}
		return 0
	})
	if found {
		f.markers[i] = m
		return
	}
	f.markers = slices.Insert(f.markers, i, m)
}

// HasLineMarkers reports whether Position may differ from LineCol.
func (f *File) HasLineMarkers() bool { return len(f.markers) > 0 }

// Position resolves off through the line markers of f. Without a
// preceding marker it is the physical position in f.
func (f *File) Position(off uint32) Position {
	lc := f.LineCol(off)
	i := len(f.markers) - 1
	for i >= 0 && f.markers[i].off > off {
		i--
	}
	if i < 0 {
		return Position{Path: f.Path, Line: lc.Line, Col: lc.Col}
	}
	m := f.markers[i]
	base := f.LineCol(m.off).Line
	return Position{Path: m.path, Line: m.line + (lc.Line - base), Col: lc.Col}
}

// Locate is Position of the span start with the path rendered the way
// FormatPath renders it for mode.
func (fileSet *FileSet) Locate(span Span, mode string) Position {
	f := &fileSet.files[span.File]
	pos := f.Position(span.Start)
	virtual := f.Flags&FileVirtual != 0 && pos.Path == f.Path
	pos.Path = formatPath(pos.Path, virtual, mode, fileSet.BaseDir())
	return pos
}
