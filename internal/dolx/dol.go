package dolx

import (
	"encoding/binary"
	"fmt"
)

const (
	DOLHeaderSize = 0x100
	DOLTextCount  = 7
	DOLDataCount  = 11

	dolOffsets = 0x00
	dolAddrs   = 0x48
	dolSizes   = 0x90
	dolBSSAddr = 0xd8
	dolBSSSize = 0xdc
	dolEntry   = 0xe0
)

// ParseDOL parses a DOL executable. Empty section slots are skipped; names
// are applied in order to the sections that remain, then to bss.
func ParseDOL(data []byte, names []string) (*Image, error) {
	if len(data) < DOLHeaderSize {
		return nil, fmt.Errorf("dol header: %w", ErrTruncated)
	}
	be := binary.BigEndian
	im := &Image{Kind: KindDOL, Entry: be.Uint32(data[dolEntry:]), Size: len(data)}

	for slot := 0; slot < DOLTextCount+DOLDataCount; slot++ {
		off := be.Uint32(data[dolOffsets+4*slot:])
		addr := be.Uint32(data[dolAddrs+4*slot:])
		size := be.Uint32(data[dolSizes+4*slot:])
		if size == 0 {
			continue
		}
		if uint64(off)+uint64(size) > uint64(len(data)) {
			return nil, fmt.Errorf("dol slot %d at %#x+%#x: %w", slot, off, size, ErrBadSection)
		}

		fallback := fmt.Sprintf(".text%d", slot)
		if slot >= DOLTextCount {
			fallback = fmt.Sprintf(".data%d", slot-DOLTextCount)
		}
		im.sections = append(im.sections, Section{
			Name:   sectionName(names, len(im.sections), fallback),
			Offset: off,
			Addr:   addr,
			Size:   size,
			Exec:   slot < DOLTextCount,
			Data:   data[off : off+size],
		})
	}

	if size := be.Uint32(data[dolBSSSize:]); size > 0 {
		im.sections = append(im.sections, Section{
			Name: sectionName(names, len(im.sections), ".bss"),
			Addr: be.Uint32(data[dolBSSAddr:]),
			Size: size,
		})
	}

	return im, nil
}
