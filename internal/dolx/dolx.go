// Package dolx provides helpers for opening DOL executables and REL modules,
// locating their sections, and mapping section offsets to addresses.
package dolx

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when a header or table runs past the end of the file.
	ErrTruncated = errors.New("binary is truncated")
	// ErrBadSection is returned when a section lies outside the file.
	ErrBadSection = errors.New("section out of bounds")
	// ErrModuleID is returned when a REL has a different module id than described.
	ErrModuleID = errors.New("module id mismatch")
)

// Kind is the container format of an image.
type Kind int

const (
	KindDOL Kind = iota
	KindREL
)

func (k Kind) String() string {
	switch k {
	case KindDOL:
		return "dol"
	case KindREL:
		return "rel"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Section is a contiguous range of the binary with its load address.
type Section struct {
	Name   string
	Offset uint32 // file offset, 0 for bss and null sections
	Addr   uint32 // load address
	Size   uint32
	Exec   bool
	Data   []byte // nil for bss and null sections
}

// Digest is a section content hash.
type Digest [sha256.Size]byte

func (d Digest) String() string { return fmt.Sprintf("%x", d[:]) }

// Image is a loaded DOL or REL.
type Image struct {
	Path     string
	Kind     Kind
	ModuleID uint32 // REL module id
	Version  uint32 // REL format version
	Entry    uint32 // DOL entry point
	Size     int    // file size in bytes

	sections []Section
	relocs   []Reloc
}

// Sections returns the sections in file order. For RELs the index of a
// section is its REL section number.
func (im *Image) Sections() []Section { return im.sections }

// Section returns section i.
func (im *Image) Section(i int) (Section, bool) {
	if i < 0 || i >= len(im.sections) {
		return Section{}, false
	}
	return im.sections[i], true
}

// Relocs returns the relocation records of a REL in table order. DOLs have none.
func (im *Image) Relocs() []Reloc { return im.relocs }

// IsRelocatable reports whether the image carries a relocation table.
func (im *Image) IsRelocatable() bool { return im.Kind == KindREL }

// SectionHash returns the SHA-256 digest of section i's content. Sections
// without file data (bss) hash their big-endian size.
func (im *Image) SectionHash(i int) Digest {
	s, ok := im.Section(i)
	if !ok {
		return Digest{}
	}
	if s.Data == nil {
		return sha256.Sum256(binary.BigEndian.AppendUint32(nil, s.Size))
	}
	return sha256.Sum256(s.Data)
}

// SectionOffsetToAddress translates an offset within section i into an
// address. Offsets in the null section 0, or in an unknown section, are
// already absolute.
func (im *Image) SectionOffsetToAddress(i int, off uint32) uint32 {
	s, ok := im.Section(i)
	if !ok || (i == 0 && im.Kind == KindREL) {
		return off
	}
	return s.Addr + off
}

// FindSection returns the index of the section containing addr.
func (im *Image) FindSection(addr uint32) (int, bool) {
	for i, s := range im.sections {
		if s.Size > 0 && addr >= s.Addr && addr-s.Addr < s.Size {
			return i, true
		}
	}
	return -1, false
}

func sectionName(names []string, i int, fallback string) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fallback
}
