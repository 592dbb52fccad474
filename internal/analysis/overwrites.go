package analysis

import (
	"math/bits"
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"

	"dolkit/internal/disasm"
)

// GPRSet is a set of general-purpose registers, bit n standing for rn.
type GPRSet uint32

func gprIndex(r ppc64asm.Reg) (uint, bool) {
	if r < ppc64asm.R0 || r > LastGPR {
		return 0, false
	}
	return uint(r - ppc64asm.R0), true
}

// Add returns s with r added. Non-GPR registers are ignored.
func (s GPRSet) Add(r ppc64asm.Reg) GPRSet {
	if n, ok := gprIndex(r); ok {
		return s | 1<<n
	}
	return s
}

// Has reports whether r is in the set.
func (s GPRSet) Has(r ppc64asm.Reg) bool {
	n, ok := gprIndex(r)
	return ok && s&(1<<n) != 0
}

// Len returns the number of registers in the set.
func (s GPRSet) Len() int { return bits.OnesCount32(uint32(s)) }

// Regs returns the registers in ascending order.
func (s GPRSet) Regs() []ppc64asm.Reg {
	regs := make([]ppc64asm.Reg, 0, s.Len())
	for n := 0; n < NumGPRs; n++ {
		if s&(1<<n) != 0 {
			regs = append(regs, ppc64asm.R0+ppc64asm.Reg(n))
		}
	}
	return regs
}

func (s GPRSet) String() string {
	names := make([]string, 0, s.Len())
	for _, r := range s.Regs() {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}

// GPRRange returns n consecutive registers starting at first, wrapping from
// r31 to r0 the way the string instructions do.
func GPRRange(first ppc64asm.Reg, n int) GPRSet {
	start, ok := gprIndex(first)
	if !ok {
		return 0
	}
	var s GPRSet
	for i := 0; i < n && i < NumGPRs; i++ {
		s |= 1 << ((start + uint(i)) % NumGPRs)
	}
	return s
}

// Overwrites returns the general-purpose registers inst writes.
func Overwrites(inst disasm.Inst) GPRSet {
	switch {
	case firstWrites.Has(inst.Op):
		return operandRegs(inst, 0)
	case firstThirdWrites.Has(inst.Op):
		return operandRegs(inst, 0, 2)
	case thirdWrites.Has(inst.Op):
		return operandRegs(inst, 2)
	case inst.Op == ppc64asm.LMW:
		rt, ok := inst.Reg(0)
		if !ok || rt > LastGPR {
			return 0
		}
		return GPRRange(rt, int(LastGPR-rt)+1)
	case inst.Op == ppc64asm.LSWI:
		rt, ok1 := inst.Reg(0)
		nb, ok2 := inst.Imm(2)
		if !ok1 || !ok2 {
			return 0
		}
		return GPRRange(rt, int((nb+3)/4))
	}
	return 0
}

func operandRegs(inst disasm.Inst, idx ...int) GPRSet {
	var s GPRSet
	for _, i := range idx {
		if r, ok := inst.Reg(i); ok {
			s = s.Add(r)
		}
	}
	return s
}
