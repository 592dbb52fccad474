// Package disasm defines the normalized instruction stream produced from
// raw PowerPC code. Every 4-byte word of the input becomes exactly one Unit:
// a decoded Inst, or a Data word the decoder refused or must not be trusted on.
package disasm

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/ppc64/ppc64asm"
)

// Unit is one 4-byte slot of a Stream. It is implemented only by Inst and
// Data, so consumers must type-switch on both.
type Unit interface {
	Addr() uint32
	Bytes() [4]byte
	String() string
	isUnit()
}

// Inst is a decoded instruction.
type Inst struct {
	VA   uint32        // virtual address of instruction
	Op   ppc64asm.Op   // opcode
	Args ppc64asm.Args // operands in assembler order, D(RA) is Offset then Reg
	Raw  [4]byte       // raw big-endian encoding
}

func (i Inst) Addr() uint32   { return i.VA }
func (i Inst) Bytes() [4]byte { return i.Raw }
func (Inst) isUnit()          {}

// Word returns the raw encoding as a big-endian word.
func (i Inst) Word() uint32 {
	return binary.BigEndian.Uint32(i.Raw[:])
}

// Reg returns operand n if it is a register.
func (i Inst) Reg(n int) (ppc64asm.Reg, bool) {
	if n < 0 || n >= len(i.Args) {
		return 0, false
	}
	r, ok := i.Args[n].(ppc64asm.Reg)
	return r, ok
}

// Imm returns operand n if it is an immediate.
func (i Inst) Imm(n int) (int64, bool) {
	if n < 0 || n >= len(i.Args) {
		return 0, false
	}
	v, ok := i.Args[n].(ppc64asm.Imm)
	return int64(v), ok
}

// Mem returns the base register and displacement of a D-form memory operand.
func (i Inst) Mem() (base ppc64asm.Reg, disp int16, ok bool) {
	off, ok := i.Args[1].(ppc64asm.Offset)
	if !ok {
		return 0, 0, false
	}
	base, ok = i.Args[2].(ppc64asm.Reg)
	if !ok {
		return 0, 0, false
	}
	return base, int16(off), true
}

// String formats the instruction in GNU syntax, resolving branch targets
// against VA.
func (i Inst) String() string {
	return ppc64asm.GNUSyntax(ppc64asm.Inst{
		Op:   i.Op,
		Enc:  i.Word(),
		Len:  4,
		Args: i.Args,
	}, uint64(i.VA))
}

// Data is a word treated as raw data.
type Data struct {
	VA  uint32
	Raw [4]byte
}

func (d Data) Addr() uint32   { return d.VA }
func (d Data) Bytes() [4]byte { return d.Raw }
func (Data) isUnit()          {}

func (d Data) String() string {
	return fmt.Sprintf(".4byte 0x%08x", binary.BigEndian.Uint32(d.Raw[:]))
}

// Stream is a linear sequence of units at consecutive word addresses.
type Stream struct {
	Base  uint32
	Units []Unit
}

// Len returns the number of units.
func (s Stream) Len() int { return len(s.Units) }

// At returns the unit at addr.
func (s Stream) At(addr uint32) (Unit, bool) {
	if addr < s.Base || addr&3 != 0 {
		return nil, false
	}
	idx := (addr - s.Base) / 4
	if idx >= uint32(len(s.Units)) {
		return nil, false
	}
	return s.Units[idx], true
}
