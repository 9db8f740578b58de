package objfile

import (
	"debug/elf"
	"strings"
)

// Kind is the coarse category of a symbol.
type Kind uint8

const (
	SymOther Kind = iota
	SymUndef
	SymFunc
	SymObject
	SymSection
	SymFile
)

var kindNames = [...]string{
	SymOther:   "other",
	SymUndef:   "undef",
	SymFunc:    "func",
	SymObject:  "object",
	SymSection: "section",
	SymFile:    "file",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// ParseKind accepts the names printed by Kind.String.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true // #nosec G115 -- table is tiny
		}
	}
	return SymOther, false
}

func kindOf(sym elf.Symbol) Kind {
	if sym.Section == elf.SHN_UNDEF {
		return SymUndef
	}
	switch elf.ST_TYPE(sym.Info) {
	case elf.STT_FUNC, elf.STT_GNU_IFUNC:
		return SymFunc
	case elf.STT_OBJECT, elf.STT_TLS, elf.STT_COMMON:
		return SymObject
	case elf.STT_SECTION:
		return SymSection
	case elf.STT_FILE:
		return SymFile
	default:
		return SymOther
	}
}
