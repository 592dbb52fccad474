// Package dolxtest builds synthetic DOL and REL files for tests.
package dolxtest

import (
	"encoding/binary"

	"dolkit/internal/dolx"
)

// DOLSection is one occupied DOL section slot.
type DOLSection struct {
	Slot int // 0-6 text, 7-17 data
	Addr uint32
	Data []byte
}

// DOL lays out a DOL with the given sections after the header, each
// 32-byte aligned.
func DOL(entry, bssAddr, bssSize uint32, secs ...DOLSection) []byte {
	be := binary.BigEndian
	out := make([]byte, dolx.DOLHeaderSize)
	for _, s := range secs {
		off := uint32(len(out))
		be.PutUint32(out[0x00+4*s.Slot:], off)
		be.PutUint32(out[0x48+4*s.Slot:], s.Addr)
		be.PutUint32(out[0x90+4*s.Slot:], uint32(len(s.Data)))
		out = append(out, s.Data...)
		out = pad(out, 32)
	}
	be.PutUint32(out[0xd8:], bssAddr)
	be.PutUint32(out[0xdc:], bssSize)
	be.PutUint32(out[0xe0:], entry)
	return out
}

// RELSection describes one REL section. A section with neither Data nor
// BSS is the null section.
type RELSection struct {
	Data []byte
	BSS  uint32
	Exec bool
}

// Entry is a raw relocation table entry.
type Entry struct {
	Delta   uint16
	Type    dolx.RelocType
	Section uint8
	Addend  uint32
}

// Import is the relocation list against one module. R_DOLPHIN_END is
// appended automatically.
type Import struct {
	Module  uint32
	Entries []Entry
}

// REL lays out a version 1 REL module.
func REL(id uint32, secs []RELSection, imps []Import) []byte {
	be := binary.BigEndian
	out := make([]byte, 0x40)
	be.PutUint32(out[0x00:], id)
	be.PutUint32(out[0x0c:], uint32(len(secs)))
	be.PutUint32(out[0x10:], 0x40)
	be.PutUint32(out[0x1c:], 1)

	table := len(out)
	out = append(out, make([]byte, 8*len(secs))...)

	var bss uint32
	for i, s := range secs {
		entry := out[table+8*i:]
		switch {
		case s.Data != nil:
			out = pad(out, 4)
			entry = out[table+8*i:]
			off := uint32(len(out))
			if s.Exec {
				off |= 1
			}
			be.PutUint32(entry, off)
			be.PutUint32(entry[4:], uint32(len(s.Data)))
			out = append(out, s.Data...)
		case s.BSS > 0:
			be.PutUint32(entry[4:], s.BSS)
			bss += s.BSS
		}
	}
	be.PutUint32(out[0x20:], bss)

	out = pad(out, 4)
	impOff := len(out)
	out = append(out, make([]byte, 8*len(imps))...)
	be.PutUint32(out[0x28:], uint32(impOff))
	be.PutUint32(out[0x2c:], uint32(8*len(imps)))

	relOff := len(out)
	be.PutUint32(out[0x24:], uint32(relOff))
	for i, imp := range imps {
		be.PutUint32(out[impOff+8*i:], imp.Module)
		be.PutUint32(out[impOff+8*i+4:], uint32(len(out)))
		for _, e := range append(imp.Entries, Entry{Type: dolx.R_DOLPHIN_END}) {
			var raw [8]byte
			be.PutUint16(raw[0:], e.Delta)
			raw[2] = byte(e.Type)
			raw[3] = e.Section
			be.PutUint32(raw[4:], e.Addend)
			out = append(out, raw[:]...)
		}
	}
	return out
}

func pad(b []byte, align int) []byte {
	for len(b)%align != 0 {
		b = append(b, 0)
	}
	return b
}
