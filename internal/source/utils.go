package source

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
	crlf    = []byte("\r\n")
)

// normalizeCRLF folds \r\n into \n; lone \r stays.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, crlf) {
		return content, false
	}
	return bytes.ReplaceAll(content, crlf, []byte{'\n'}), true
}

func removeBOM(content []byte) ([]byte, bool) {
	if rest, ok := bytes.CutPrefix(content, utf8BOM); ok {
		return rest, true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- file size is checked in Add
		}
	}
	return out
}

// toLineCol resolves off against a newline index. A '\n' belongs to the
// line it terminates.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// число переводов строки строго до off
	before, _ := slices.BinarySearch(lineIdx, off)
	start := uint32(0)
	if before > 0 {
		start = lineIdx[before-1] + 1
	}
	return LineCol{Line: uint32(before) + 1, Col: off - start + 1} // #nosec G115 -- before <= len(lineIdx)
}

// lineStart is the offset of the first byte of line (1-based).
func lineStart(lineIdx []uint32, line uint32) (uint32, bool) {
	switch {
	case line == 0:
		return 0, false
	case line == 1:
		return 0, true
	case int(line-2) < len(lineIdx):
		return lineIdx[line-2] + 1, true
	default:
		return 0, false
	}
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// relativePath returns p relative to baseDir, or absolute when p lies
// outside baseDir.
func relativePath(p, baseDir string) (string, error) {
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(absPath), nil
	}
	return normalizePath(rel), nil
}
