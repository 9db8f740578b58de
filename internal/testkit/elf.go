package testkit

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// ELFSection describes one section of a synthetic object.
type ELFSection struct {
	Name string
	// Type defaults to SHT_PROGBITS.
	Type  elf.SectionType
	Flags elf.SectionFlag
	Addr  uint64
	Data  []byte
	// Size is used for SHT_NOBITS sections only.
	Size uint64
}

// ELFSymbol describes one .symtab entry. Section names a section of the
// object, or is "" (undefined), "*ABS*" or "*COM*".
type ELFSymbol struct {
	Name    string
	Section string
	Value   uint64
	Size    uint64
	Type    elf.SymType
	Local   bool
}

// ELFObject is a little-endian ELF64 object built for tests.
type ELFObject struct {
	// Type defaults to ET_REL.
	Type     elf.Type
	Sections []ELFSection
	Symbols  []ELFSymbol
}

type strtab struct{ buf bytes.Buffer }

func newStrtab() *strtab {
	t := &strtab{}
	t.buf.WriteByte(0)
	return t
}

func (t *strtab) add(s string) uint32 {
	if s == "" {
		return 0
	}
	off := uint32(t.buf.Len()) // #nosec G115 -- test fixtures are small
	t.buf.WriteString(s)
	t.buf.WriteByte(0)
	return off
}

type outSection struct {
	hdr  elf.Section64
	data []byte
}

// Bytes lays the object out as header, section data, then section headers.
func (o ELFObject) Bytes() ([]byte, error) {
	typ := o.Type
	if typ == 0 {
		typ = elf.ET_REL
	}
	le := binary.LittleEndian
	shstr := newStrtab()
	str := newStrtab()

	secs := []outSection{{}}
	index := make(map[string]uint16)
	for _, s := range o.Sections {
		st := s.Type
		if st == 0 {
			st = elf.SHT_PROGBITS
		}
		h := elf.Section64{
			Name:      shstr.add(s.Name),
			Type:      uint32(st),
			Flags:     uint64(s.Flags),
			Addr:      s.Addr,
			Addralign: 1,
		}
		data := s.Data
		if st == elf.SHT_NOBITS {
			h.Size = s.Size
			data = nil
		} else {
			h.Size = uint64(len(data))
		}
		idx, err := safecast.Conv[uint16](len(secs))
		if err != nil {
			return nil, err
		}
		index[s.Name] = idx
		secs = append(secs, outSection{hdr: h, data: data})
	}

	// locals precede globals in .symtab
	ordered := make([]ELFSymbol, 0, len(o.Symbols))
	for _, sym := range o.Symbols {
		if sym.Local {
			ordered = append(ordered, sym)
		}
	}
	locals := len(ordered) + 1
	for _, sym := range o.Symbols {
		if !sym.Local {
			ordered = append(ordered, sym)
		}
	}

	var symtab bytes.Buffer
	if err := binary.Write(&symtab, le, elf.Sym64{}); err != nil {
		return nil, err
	}
	for _, sym := range ordered {
		var shndx uint16
		switch sym.Section {
		case "":
			shndx = uint16(elf.SHN_UNDEF)
		case "*ABS*":
			shndx = uint16(elf.SHN_ABS)
		case "*COM*":
			shndx = uint16(elf.SHN_COMMON)
		default:
			idx, ok := index[sym.Section]
			if !ok {
				return nil, fmt.Errorf("symbol %s: unknown section %s", sym.Name, sym.Section)
			}
			shndx = idx
		}
		bind := elf.STB_GLOBAL
		if sym.Local {
			bind = elf.STB_LOCAL
		}
		e := elf.Sym64{
			Name:  str.add(sym.Name),
			Info:  elf.ST_INFO(bind, sym.Type),
			Shndx: shndx,
			Value: sym.Value,
			Size:  sym.Size,
		}
		if err := binary.Write(&symtab, le, e); err != nil {
			return nil, err
		}
	}

	symtabIdx := len(secs)
	symtabName := shstr.add(".symtab")
	strtabName := shstr.add(".strtab")
	shstrName := shstr.add(".shstrtab")
	secs = append(secs,
		outSection{hdr: elf.Section64{
			Name: symtabName, Type: uint32(elf.SHT_SYMTAB), Size: uint64(symtab.Len()),
			Link: uint32(symtabIdx + 1), Info: uint32(locals), Addralign: 8, Entsize: elf.Sym64Size, // #nosec G115
		}, data: symtab.Bytes()},
		outSection{hdr: elf.Section64{
			Name: strtabName, Type: uint32(elf.SHT_STRTAB), Size: uint64(str.buf.Len()), Addralign: 1,
		}, data: str.buf.Bytes()},
	)
	shstrIdx := len(secs)
	secs = append(secs, outSection{hdr: elf.Section64{
		Name: shstrName, Type: uint32(elf.SHT_STRTAB), Addralign: 1,
	}})
	secs[shstrIdx].data = shstr.buf.Bytes()
	secs[shstrIdx].hdr.Size = uint64(len(secs[shstrIdx].data))

	off := uint64(64) // ELF64 header
	for i := 1; i < len(secs); i++ {
		off = align8(off)
		secs[i].hdr.Off = off
		off += uint64(len(secs[i].data))
	}
	shoff := align8(off)

	shnum, err := safecast.Conv[uint16](len(secs))
	if err != nil {
		return nil, err
	}
	hdr := elf.Header64{
		Type:      uint16(typ),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    64,
		Shentsize: 64,
		Shnum:     shnum,
		Shstrndx:  uint16(shstrIdx), // #nosec G115
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var out bytes.Buffer
	if err := binary.Write(&out, le, hdr); err != nil {
		return nil, err
	}
	for i := 1; i < len(secs); i++ {
		pad(&out, secs[i].hdr.Off)
		out.Write(secs[i].data)
	}
	pad(&out, shoff)
	for _, s := range secs {
		if err := binary.Write(&out, le, s.hdr); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// WriteELF writes o to path.
func WriteELF(path string, o ELFObject) error {
	data, err := o.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func align8(n uint64) uint64 { return (n + 7) &^ 7 }

func pad(b *bytes.Buffer, to uint64) {
	for uint64(b.Len()) < to {
		b.WriteByte(0)
	}
}

// KernelBinary is the machine code of one kernel symbol.
type KernelBinary struct {
	Name string
	Code []byte
}

// KernelObject lays kernels out back to back in .text, the way a device
// compiler emits one function symbol per kernel.
func KernelObject(kernels ...KernelBinary) ELFObject {
	var text []byte
	o := ELFObject{}
	for _, k := range kernels {
		o.Symbols = append(o.Symbols, ELFSymbol{
			Name:    k.Name,
			Section: ".text",
			Value:   uint64(len(text)),
			Size:    uint64(len(k.Code)),
			Type:    elf.STT_FUNC,
		})
		text = append(text, k.Code...)
	}
	o.Sections = []ELFSection{{Name: ".text", Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Data: text}}
	return o
}
