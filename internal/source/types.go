package source

import "fmt"

// FileID indexes a file version inside its FileSet.
type FileID uint32

// FileFlags records how a file's bytes were obtained and normalised.
type FileFlags uint8

const (
	// FileVirtual marks content that did not come from disk: stdin, the
	// intermediate .ii, command-line defines, tests.
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM marks a stripped UTF-8 byte order mark.
	FileHadBOM
	// FileNormalizedCRLF marks content whose \r\n pairs were folded to \n.
	FileNormalizedCRLF
)

// File is one loaded source text.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx holds the offset of every '\n' in Content, ascending.
	LineIdx []uint32
	Flags   FileFlags

	// markers come from `# N "path"` lines, ordered by offset.
	markers []lineMarker
}

// LineCol is a physical 1-based position inside one file.
type LineCol struct {
	Line uint32
	Col  uint32
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}
