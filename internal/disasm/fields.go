package disasm

import "golang.org/x/arch/ppc64/ppc64asm"

// MemLo returns the @l displacement of a D-form memory instruction.
func MemLo(inst Inst) (int16, bool) {
	_, disp, ok := inst.Mem()
	return disp, ok
}

// LisHa returns the @ha half loaded by lis.
func LisHa(inst Inst) (uint16, bool) {
	if inst.Op != ppc64asm.LIS {
		return 0, false
	}
	imm, ok := inst.Imm(1)
	if !ok {
		return 0, false
	}
	return uint16(int16(imm)), true
}
