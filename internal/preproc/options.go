package preproc

import (
	"drai/internal/diag"
	"drai/internal/vfs"
)

const (
	defaultMaxIncludeDepth = 200
	// Gaps larger than this are bridged with a line marker instead of blank lines.
	maxBlankLines = 8
	// CPlusPlus is the value of __cplusplus.
	CPlusPlus = "201703L"
)

type Options struct {
	// IncludeDirs are searched in order for both quoted and angled includes.
	IncludeDirs []string
	// Defines are "NAME" or "NAME=VALUE" pairs, as given to -D.
	Defines []string
	// Target names the target triple; "drai" predefines __drai__.
	Target string
	FS     vfs.FS
	// Reporter receives diagnostics; nil discards them.
	Reporter        diag.Reporter
	MaxIncludeDepth int
}

// Result is the printed translation unit.
type Result struct {
	Text []byte
	// Includes lists every file entered through #include, in first-entry order.
	Includes []string
	// Passthrough lists angle includes that were not found and left in the text.
	Passthrough []string
}
