package objfile

import (
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// dumpSchemaVersion is bumped whenever Dump changes shape.
const dumpSchemaVersion uint16 = 1

// DumpEntry is the serialisable form of a Symbol.
type DumpEntry struct {
	Name    string `msgpack:"name" json:"name"`
	Kind    string `msgpack:"kind" json:"kind"`
	Value   uint64 `msgpack:"value" json:"value"`
	Size    uint64 `msgpack:"size" json:"size"`
	Section string `msgpack:"section,omitempty" json:"section,omitempty"`
	Dynamic bool   `msgpack:"dynamic,omitempty" json:"dynamic,omitempty"`
}

// Dump is a symbol table listing of one artifact.
type Dump struct {
	Schema   uint16      `msgpack:"schema" json:"schema"`
	Artifact string      `msgpack:"artifact" json:"artifact"`
	Symbols  []DumpEntry `msgpack:"symbols" json:"symbols"`
}

// Dump lists the symbols accepted by keep (all when keep is nil).
func (s *Store) Dump(keep func(Symbol) bool) Dump {
	d := Dump{Schema: dumpSchemaVersion, Artifact: s.path}
	for _, sym := range s.symbols {
		if keep != nil && !keep(sym) {
			continue
		}
		e := DumpEntry{
			Name:    sym.Name,
			Kind:    sym.Kind.String(),
			Value:   sym.Value,
			Size:    sym.Size,
			Dynamic: sym.Dynamic,
		}
		if sym.Section != nil {
			e.Section = sym.Section.Name
		}
		d.Symbols = append(d.Symbols, e)
	}
	return d
}

// EncodeDump writes d as msgpack.
func EncodeDump(w io.Writer, d Dump) error {
	return msgpack.NewEncoder(w).Encode(&d)
}

// DecodeDump reads a Dump written by EncodeDump.
func DecodeDump(r io.Reader) (Dump, error) {
	var d Dump
	err := msgpack.NewDecoder(r).Decode(&d)
	return d, err
}

// WriteDumpFile stores d at path via a temp file and rename.
func WriteDumpFile(path string, d Dump) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".drai-symbols-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = EncodeDump(f, d); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}
