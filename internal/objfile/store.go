package objfile

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"sync"

	"fortio.org/safecast"
)

var (
	// ErrArtifactOpen: the artifact is missing or is not an ELF object.
	ErrArtifactOpen = errors.New("cannot open artifact")
	// ErrSymbolNotFound: no symbol table entry has the requested name.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrSectionUnresolved: the symbol has no file bytes to return.
	ErrSectionUnresolved = errors.New("symbol bytes cannot be resolved")
	// ErrClosed is returned by a Store after Close.
	ErrClosed = errors.New("artifact store is closed")
)

// Section is the part of a section header needed to locate symbol bytes.
type Section struct {
	Index  int
	Name   string
	Type   elf.SectionType
	Addr   uint64
	Offset uint64
	Size   uint64
}

// Symbol is one symbol table entry.
type Symbol struct {
	Name  string
	Kind  Kind
	Value uint64
	Size  uint64
	// Section is nil for undefined, absolute and common symbols.
	Section *Section
	// Dynamic marks entries that came from .dynsym.
	Dynamic bool
}

type memoKey struct {
	name string
	kind Kind
	any  bool
}

// Store owns a mapped artifact until Close.
type Store struct {
	path     string
	data     []byte
	release  func() error
	fileType elf.Type
	sections []*Section
	symbols  []Symbol

	mu     sync.Mutex
	memo   map[memoKey]int
	closed bool
}

// Open maps the artifact at path and indexes its symbol tables.
func Open(path string) (*Store, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrArtifactOpen, path, err)
	}
	s, err := newStore(path, data, release)
	if err != nil {
		if relErr := release(); relErr != nil {
			return nil, errors.Join(err, relErr)
		}
		return nil, err
	}
	return s, nil
}

// FromBytes builds a Store over an in-memory artifact. name is used in errors only.
func FromBytes(name string, data []byte) (*Store, error) {
	return newStore(name, data, func() error { return nil })
}

func newStore(path string, data []byte, release func() error) (*Store, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrArtifactOpen, path, err)
	}
	s := &Store{
		path:     path,
		data:     data,
		release:  release,
		fileType: f.Type,
		memo:     make(map[memoKey]int),
	}
	for i, sh := range f.Sections {
		s.sections = append(s.sections, &Section{
			Index:  i,
			Name:   sh.Name,
			Type:   sh.Type,
			Addr:   sh.Addr,
			Offset: sh.Offset,
			Size:   sh.Size,
		})
	}
	if err := s.index(f.Symbols, false); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrArtifactOpen, path, err)
	}
	if err := s.index(f.DynamicSymbols, true); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrArtifactOpen, path, err)
	}
	return s, nil
}

func (s *Store) index(read func() ([]elf.Symbol, error), dynamic bool) error {
	syms, err := read()
	if errors.Is(err, elf.ErrNoSymbols) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, es := range syms {
		s.symbols = append(s.symbols, Symbol{
			Name:    es.Name,
			Kind:    kindOf(es),
			Value:   es.Value,
			Size:    es.Size,
			Section: s.sectionFor(es.Section),
			Dynamic: dynamic,
		})
	}
	return nil
}

func (s *Store) sectionFor(idx elf.SectionIndex) *Section {
	if idx == elf.SHN_UNDEF || idx >= elf.SHN_LORESERVE || int(idx) >= len(s.sections) {
		return nil
	}
	return s.sections[idx]
}

// Path returns the artifact path given to Open.
func (s *Store) Path() string { return s.path }

// Symbols lists every indexed symbol, .symtab entries first.
func (s *Store) Symbols() []Symbol {
	return append([]Symbol(nil), s.symbols...)
}

// FindSymbol returns the first symbol named name in table order.
func (s *Store) FindSymbol(name string) (Symbol, bool) {
	return s.find(memoKey{name: name, any: true})
}

// FindSymbolKind is FindSymbol restricted to symbols of kind.
func (s *Store) FindSymbolKind(name string, kind Kind) (Symbol, bool) {
	return s.find(memoKey{name: name, kind: kind})
}

func (s *Store) find(key memoKey) (Symbol, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.memo[key]; ok {
		return s.symbols[i], true
	}
	for i, sym := range s.symbols {
		if sym.Name != key.name || (!key.any && sym.Kind != key.kind) {
			continue
		}
		s.memo[key] = i
		return sym, true
	}
	return Symbol{}, false
}

// Bytes returns a copy of the bytes sym covers in the artifact. Relocatable
// objects keep section-relative values; linked images keep addresses.
func (s *Store) Bytes(sym Symbol) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	sec := sym.Section
	switch {
	case sec == nil:
		return nil, fmt.Errorf("%w: %s is not defined in a section", ErrSectionUnresolved, sym.Name)
	case sec.Type == elf.SHT_NOBITS:
		return nil, fmt.Errorf("%w: %s lives in %s which has no file bytes", ErrSectionUnresolved, sym.Name, sec.Name)
	case sym.Size == 0:
		return nil, fmt.Errorf("%w: %s has zero size", ErrSectionUnresolved, sym.Name)
	}

	start := sym.Value
	if s.fileType != elf.ET_REL {
		if start < sec.Addr {
			return nil, fmt.Errorf("%w: %s address %#x precedes section %s", ErrSectionUnresolved, sym.Name, start, sec.Name)
		}
		start -= sec.Addr
	}
	start += sec.Offset
	end := start + sym.Size
	if start < sec.Offset || end < start || end > uint64(len(s.data)) {
		return nil, fmt.Errorf("%w: %s range [%#x, %#x) is outside the artifact (%d bytes)",
			ErrSectionUnresolved, sym.Name, start, end, len(s.data))
	}
	lo, err := safecast.Conv[int](start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSectionUnresolved, sym.Name, err)
	}
	hi, err := safecast.Conv[int](end)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSectionUnresolved, sym.Name, err)
	}
	out := make([]byte, hi-lo)
	copy(out, s.data[lo:hi])
	return out, nil
}

// Lookup is FindSymbol followed by Bytes.
func (s *Store) Lookup(name string) ([]byte, error) {
	sym, ok := s.FindSymbol(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, name, s.path)
	}
	return s.Bytes(sym)
}

// LookupKind is FindSymbolKind followed by Bytes.
func (s *Store) LookupKind(name string, kind Kind) ([]byte, error) {
	sym, ok := s.FindSymbolKind(name, kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s) in %s", ErrSymbolNotFound, name, kind, s.path)
	}
	return s.Bytes(sym)
}

// Close releases the mapping. It is safe to call more than once.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.data = nil
	if s.release != nil {
		return s.release()
	}
	return nil
}
