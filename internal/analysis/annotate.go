package analysis

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"

	"dolkit/internal/disasm"
)

// AnnotatedInst is one line of an annotated listing.
type AnnotatedInst struct {
	VA          uint32
	Bytes       [4]byte
	Unit        disasm.Unit
	Mnemonic    string
	Operands    string
	Writes      GPRSet
	Annotations []string // Comments to display
}

// String formats the line as address, raw bytes, mnemonic and operands,
// followed by annotations.
func (a AnnotatedInst) String() string {
	base := fmt.Sprintf("%08x  %s  %-8s %-28s", a.VA, hex.EncodeToString(a.Bytes[:]), a.Mnemonic, a.Operands)
	if len(a.Annotations) > 0 {
		return fmt.Sprintf("%s ; %s", base, strings.Join(a.Annotations, ", "))
	}
	return strings.TrimRight(base, " ")
}

// RegisterState tracks which address last wrote each general-purpose
// register, and the upper half of registers last set by lis.
type RegisterState struct {
	sources map[ppc64asm.Reg]uint32
	his     map[ppc64asm.Reg]uint16
}

// NewRegisterState creates an empty register tracking state.
func NewRegisterState() *RegisterState {
	return &RegisterState{
		sources: make(map[ppc64asm.Reg]uint32),
		his:     make(map[ppc64asm.Reg]uint16),
	}
}

// Apply records the registers inst writes.
func (s *RegisterState) Apply(inst disasm.Inst) GPRSet {
	w := Overwrites(inst)
	for _, r := range w.Regs() {
		s.sources[r] = inst.VA
		delete(s.his, r)
	}
	if ha, ok := disasm.LisHa(inst); ok {
		if rt, ok := inst.Reg(0); ok {
			s.his[rt] = ha
		}
	}
	return w
}

// Resolve returns the absolute address inst forms from a lis'd register:
// the effective address of a D-form load or store, or the sum of an addi.
func (s *RegisterState) Resolve(inst disasm.Inst) (uint32, bool) {
	var base ppc64asm.Reg
	var lo int64
	if disp, ok := disasm.MemLo(inst); ok {
		base, _, _ = inst.Mem()
		lo = int64(disp)
	} else if inst.Op == ppc64asm.ADDI {
		ra, ok1 := inst.Reg(1)
		imm, ok2 := inst.Imm(2)
		if !ok1 || !ok2 {
			return 0, false
		}
		base, lo = ra, imm
	} else {
		return 0, false
	}

	ha, ok := s.his[base]
	if !ok || base == ppc64asm.R0 {
		return 0, false
	}
	return uint32(ha)<<16 + uint32(int32(lo)), true
}

// Source returns the address of the last write to r.
func (s *RegisterState) Source(r ppc64asm.Reg) (uint32, bool) {
	va, ok := s.sources[r]
	return va, ok
}

// Reset forgets all writes, used at data words since flow is unknown there.
func (s *RegisterState) Reset() {
	clear(s.sources)
	clear(s.his)
}

// Locator names the section containing an address.
type Locator func(addr uint32) (string, bool)

// Option configures Annotate.
type Option func(*annotator)

type annotator struct {
	locate Locator
}

// WithLocator appends the containing section name to resolved addresses.
func WithLocator(l Locator) Option {
	return func(a *annotator) { a.locate = l }
}

// Annotate builds a listing for stream. Lines note the registers an
// instruction overwrites and where its base register was last set. Accesses
// through a lis'd register also get the absolute address.
func Annotate(stream disasm.Stream, opts ...Option) []AnnotatedInst {
	var cfg annotator
	for _, opt := range opts {
		opt(&cfg)
	}
	state := NewRegisterState()
	listing := make([]AnnotatedInst, 0, stream.Len())

	for _, u := range stream.Units {
		ai := AnnotatedInst{VA: u.Addr(), Bytes: u.Bytes(), Unit: u}

		switch u := u.(type) {
		case disasm.Inst:
			ai.Mnemonic, ai.Operands = splitMnemonic(u.String())
			if base, _, ok := u.Mem(); ok && base != ppc64asm.R0 {
				if va, ok := state.Source(base); ok {
					ai.Annotations = append(ai.Annotations, fmt.Sprintf("%s from %x", base, va))
				}
			}
			if addr, ok := state.Resolve(u); ok {
				ai.Annotations = append(ai.Annotations, cfg.describe(addr))
			}
			ai.Writes = state.Apply(u)
			if ai.Writes != 0 {
				ai.Annotations = append(ai.Annotations, "clobbers "+ai.Writes.String())
			}
		case disasm.Data:
			ai.Mnemonic, ai.Operands = splitMnemonic(u.String())
			state.Reset()
		}

		listing = append(listing, ai)
	}
	return listing
}

func (a annotator) describe(addr uint32) string {
	if a.locate != nil {
		if name, ok := a.locate(addr); ok {
			return fmt.Sprintf("%#08x in %s", addr, name)
		}
	}
	return fmt.Sprintf("%#08x", addr)
}

func splitMnemonic(text string) (string, string) {
	mnemonic, operands, _ := strings.Cut(text, " ")
	return mnemonic, operands
}
