package dolx

import (
	"encoding/binary"
	"fmt"
)

// RelocEntrySize is the size of one entry of a REL relocation table.
const RelocEntrySize = 8

const (
	relHeaderSize   = 0x40
	relSectionEntry = 8
	relImpEntry     = 8

	relID          = 0x00
	relNumSections = 0x0c
	relSectionInfo = 0x10
	relVersion     = 0x1c
	relImpOffset   = 0x28
	relImpSize     = 0x2c
)

// RelocType is a relocation type code.
type RelocType uint8

const (
	R_PPC_NONE        RelocType = 0
	R_PPC_ADDR32      RelocType = 1
	R_PPC_ADDR24      RelocType = 2
	R_PPC_ADDR16      RelocType = 3
	R_PPC_ADDR16_LO   RelocType = 4
	R_PPC_ADDR16_HI   RelocType = 5
	R_PPC_ADDR16_HA   RelocType = 6
	R_PPC_ADDR14      RelocType = 7
	R_PPC_REL24       RelocType = 10
	R_PPC_REL14       RelocType = 11
	R_DOLPHIN_NOP     RelocType = 201
	R_DOLPHIN_SECTION RelocType = 202
	R_DOLPHIN_END     RelocType = 203
)

var relocTypeNames = map[RelocType]string{
	R_PPC_NONE:        "R_PPC_NONE",
	R_PPC_ADDR32:      "R_PPC_ADDR32",
	R_PPC_ADDR24:      "R_PPC_ADDR24",
	R_PPC_ADDR16:      "R_PPC_ADDR16",
	R_PPC_ADDR16_LO:   "R_PPC_ADDR16_LO",
	R_PPC_ADDR16_HI:   "R_PPC_ADDR16_HI",
	R_PPC_ADDR16_HA:   "R_PPC_ADDR16_HA",
	R_PPC_ADDR14:      "R_PPC_ADDR14",
	R_PPC_REL24:       "R_PPC_REL24",
	R_PPC_REL14:       "R_PPC_REL14",
	R_DOLPHIN_NOP:     "R_DOLPHIN_NOP",
	R_DOLPHIN_SECTION: "R_DOLPHIN_SECTION",
	R_DOLPHIN_END:     "R_DOLPHIN_END",
}

func (t RelocType) String() string {
	if name, ok := relocTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("R_%d", uint8(t))
}

// Reloc is one relocation record of a REL.
type Reloc struct {
	TargetModule uint32    // module the target lives in, 0 for the DOL
	Offset       uint32    // offset of the fixup within the referencing section
	Type         RelocType // relocation type code
	Section      uint8     // section of the target in the target module
	Addend       uint32    // offset of the target within Section
	WriteAddr    uint32    // address the fixup is written to
}

// RELConfig holds the layout parameters a REL file does not carry itself.
type RELConfig struct {
	Address    uint32   // load address of the module image
	BSSAddress uint32   // 0 places bss after the image, 32-byte aligned
	Names      []string // section names by section number
}

// ParseREL parses a REL module.
func ParseREL(data []byte, cfg RELConfig) (*Image, error) {
	if len(data) < relHeaderSize {
		return nil, fmt.Errorf("rel header: %w", ErrTruncated)
	}
	be := binary.BigEndian
	im := &Image{
		Kind:     KindREL,
		ModuleID: be.Uint32(data[relID:]),
		Version:  be.Uint32(data[relVersion:]),
		Size:     len(data),
	}

	bssAddr := cfg.BSSAddress
	if bssAddr == 0 {
		bssAddr = (cfg.Address + uint32(len(data)) + 31) &^ 31
	}

	num := be.Uint32(data[relNumSections:])
	info := be.Uint32(data[relSectionInfo:])
	if uint64(info)+uint64(num)*relSectionEntry > uint64(len(data)) {
		return nil, fmt.Errorf("rel section table at %#x: %w", info, ErrTruncated)
	}

	for i := uint32(0); i < num; i++ {
		entry := data[info+i*relSectionEntry:]
		raw := be.Uint32(entry)
		size := be.Uint32(entry[4:])
		s := Section{
			Name:   sectionName(cfg.Names, int(i), fmt.Sprintf(".sec%d", i)),
			Offset: raw &^ 1,
			Size:   size,
			Exec:   raw&1 == 1,
		}

		switch {
		case s.Offset == 0 && size == 0:
			// null section
		case s.Offset == 0:
			s.Addr = bssAddr
		default:
			if uint64(s.Offset)+uint64(size) > uint64(len(data)) {
				return nil, fmt.Errorf("rel section %d at %#x+%#x: %w", i, s.Offset, size, ErrBadSection)
			}
			s.Addr = cfg.Address + s.Offset
			s.Data = data[s.Offset : s.Offset+size]
		}
		im.sections = append(im.sections, s)
	}

	relocs, err := im.parseRelocs(data)
	if err != nil {
		return nil, err
	}
	im.relocs = relocs
	return im, nil
}

// parseRelocs walks the relocation lists of every import in table order.
// The R_DOLPHIN control entries only move the write cursor and are not
// returned.
func (im *Image) parseRelocs(data []byte) ([]Reloc, error) {
	be := binary.BigEndian
	impOff := be.Uint32(data[relImpOffset:])
	impSize := be.Uint32(data[relImpSize:])
	if uint64(impOff)+uint64(impSize) > uint64(len(data)) {
		return nil, fmt.Errorf("rel import table at %#x: %w", impOff, ErrTruncated)
	}

	var relocs []Reloc
	for imp := uint32(0); imp+relImpEntry <= impSize; imp += relImpEntry {
		module := be.Uint32(data[impOff+imp:])
		pos := be.Uint32(data[impOff+imp+4:])

		section := 0
		var offset uint32
		for {
			if uint64(pos)+RelocEntrySize > uint64(len(data)) {
				return nil, fmt.Errorf("rel relocations for module %d at %#x: %w", module, pos, ErrTruncated)
			}
			e := data[pos : pos+RelocEntrySize]
			pos += RelocEntrySize

			offset += uint32(be.Uint16(e))
			typ := RelocType(e[2])
			sec := e[3]
			addend := be.Uint32(e[4:])

			if typ == R_DOLPHIN_END {
				break
			}
			switch typ {
			case R_DOLPHIN_SECTION:
				section = int(sec)
				offset = 0
				continue
			case R_DOLPHIN_NOP:
				continue
			}

			relocs = append(relocs, Reloc{
				TargetModule: module,
				Offset:       offset,
				Type:         typ,
				Section:      sec,
				Addend:       addend,
				WriteAddr:    im.SectionOffsetToAddress(section, offset),
			})
		}
	}
	return relocs, nil
}
