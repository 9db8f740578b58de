package source

import (
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// Reader is the minimal filesystem surface the FileSet loads through.
// The pipeline passes its layered VFS here so that generated files
// (such as the intermediate .ii) resolve the same way on-disk ones do.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- path is provided by the caller
	return os.ReadFile(path)
}

// FileSet owns every file of one run. Spans refer to files by FileID.
type FileSet struct {
	files   []File
	baseDir string // relative paths are printed against it
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{}
}

// SetBaseDir sets the directory relative paths are printed against.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the directory relative paths are reported against; the
// working directory unless SetBaseDir was called.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Len reports how many file versions are stored.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Add stores already normalised content under a new FileID. Adding the
// same path twice yields two versions.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("%s: file too large: %w", path, err))
	}
	id := FileID(n)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	return fileSet.LoadFrom(osReader{}, path)
}

// LoadFrom is Load over an arbitrary Reader.
func (fileSet *FileSet) LoadFrom(r Reader, path string) (FileID, error) {
	content, err := r.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.addNormalized(path, content, 0), nil
}

// AddVirtual adds in-memory content with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.addNormalized(name, content, FileVirtual)
}

func (fileSet *FileSet) addNormalized(path string, content []byte, flags FileFlags) FileID {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// Resolve converts a span into physical line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fileSet.files[span.File]
	return f.LineCol(span.Start), f.LineCol(span.End)
}

// Position resolves the start of span through the file's line markers.
func (fileSet *FileSet) Position(span Span) Position {
	return fileSet.files[span.File].Position(span.Start)
}

// Text returns the bytes covered by span as a string. Out-of-range spans are clamped.
func (fileSet *FileSet) Text(span Span) string {
	return string(fileSet.files[span.File].Slice(span))
}

// Slice returns the bytes covered by span, clamped to the file length.
func (f *File) Slice(span Span) []byte {
	n := uint32(len(f.Content)) // #nosec G115 -- checked in Add
	end := min(span.End, n)
	start := min(span.Start, end)
	return f.Content[start:end]
}

// LineCol resolves a single offset inside f.
func (f *File) LineCol(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// GetLine returns physical line lineNum (1-based) without its newline, or
// "" when there is no such line.
func (f *File) GetLine(lineNum uint32) string {
	start, ok := lineStart(f.LineIdx, lineNum)
	if !ok || int(start) >= len(f.Content) {
		return ""
	}
	end := uint32(len(f.Content)) // #nosec G115 -- checked in Add
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	return string(f.Content[start:end])
}

// FormatPath renders f.Path for diagnostics. mode is one of "absolute",
// "relative", "basename" or "auto".
func (f *File) FormatPath(mode, baseDir string) string {
	return formatPath(f.Path, f.Flags&FileVirtual != 0, mode, baseDir)
}

func formatPath(path string, virtual bool, mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := filepath.Abs(path); err == nil {
			return normalizePath(abs)
		}
	case "relative":
		if virtual && !filepath.IsAbs(path) {
			return path
		}
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := relativePath(path, baseDir); err == nil {
			return rel
		}
	case "basename":
		return filepath.Base(path)
	case "auto":
		if virtual || len(path) < 40 || !filepath.IsAbs(path) {
			return path
		}
		return filepath.Base(path)
	}
	return path
}
