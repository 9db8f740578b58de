package diag

import "fmt"

// Severity orders diagnostics; a stage fails on SevError only.
type Severity uint8

const (
	SevNote Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevNote:    "note",
	SevWarning: "warning",
	SevError:   "error",
}

// String returns the compiler-style label: "note", "warning" or "error".
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

// ParseSeverity is the inverse of String.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil // #nosec G115
		}
	}
	return 0, fmt.Errorf("unknown severity %q (want note|warning|error)", name)
}
