package disasm

import "golang.org/x/arch/ppc64/ppc64asm"

// gekkoOps is the Gekko/Broadway integer, branch, float and supervisor
// instruction set as the decoder names it. Anything else the decoder
// returns belongs to a later or 64-bit ISA and the word is data.
var gekkoOps = NewOpSet(
	// integer arithmetic
	ppc64asm.ADD, ppc64asm.ADDCC, ppc64asm.ADDO, ppc64asm.ADDOCC,
	ppc64asm.ADDC, ppc64asm.ADDCCC, ppc64asm.ADDCO, ppc64asm.ADDCOCC,
	ppc64asm.ADDE, ppc64asm.ADDECC, ppc64asm.ADDEO, ppc64asm.ADDEOCC,
	ppc64asm.LI, ppc64asm.ADDI, ppc64asm.ADDIC, ppc64asm.ADDICCC,
	ppc64asm.LIS, ppc64asm.ADDIS,
	ppc64asm.ADDME, ppc64asm.ADDMECC, ppc64asm.ADDMEO, ppc64asm.ADDMEOCC,
	ppc64asm.ADDZE, ppc64asm.ADDZECC, ppc64asm.ADDZEO, ppc64asm.ADDZEOCC,
	ppc64asm.SUBF, ppc64asm.SUBFCC, ppc64asm.SUBFO, ppc64asm.SUBFOCC,
	ppc64asm.SUBFC, ppc64asm.SUBFCCC, ppc64asm.SUBFCO, ppc64asm.SUBFCOCC,
	ppc64asm.SUBFE, ppc64asm.SUBFECC, ppc64asm.SUBFEO, ppc64asm.SUBFEOCC,
	ppc64asm.SUBFIC,
	ppc64asm.SUBFME, ppc64asm.SUBFMECC, ppc64asm.SUBFMEO, ppc64asm.SUBFMEOCC,
	ppc64asm.SUBFZE, ppc64asm.SUBFZECC, ppc64asm.SUBFZEO, ppc64asm.SUBFZEOCC,
	ppc64asm.NEG, ppc64asm.NEGCC, ppc64asm.NEGO, ppc64asm.NEGOCC,
	ppc64asm.MULLI, ppc64asm.MULLW, ppc64asm.MULLWCC, ppc64asm.MULLWO, ppc64asm.MULLWOCC,
	ppc64asm.MULHW, ppc64asm.MULHWCC, ppc64asm.MULHWU, ppc64asm.MULHWUCC,
	ppc64asm.DIVW, ppc64asm.DIVWCC, ppc64asm.DIVWO, ppc64asm.DIVWOCC,
	ppc64asm.DIVWU, ppc64asm.DIVWUCC, ppc64asm.DIVWUO, ppc64asm.DIVWUOCC,

	// compare
	ppc64asm.CMPW, ppc64asm.CMP, ppc64asm.CMPWI, ppc64asm.CMPI,
	ppc64asm.CMPLW, ppc64asm.CMPL, ppc64asm.CMPLWI, ppc64asm.CMPLI,

	// logical, rotate and shift
	ppc64asm.AND, ppc64asm.ANDCC, ppc64asm.ANDC, ppc64asm.ANDCCC,
	ppc64asm.ANDICC, ppc64asm.ANDISCC,
	ppc64asm.OR, ppc64asm.ORCC, ppc64asm.ORC, ppc64asm.ORCCC,
	ppc64asm.NOP, ppc64asm.ORI, ppc64asm.ORIS,
	ppc64asm.XOR, ppc64asm.XORCC, ppc64asm.XORI, ppc64asm.XORIS,
	ppc64asm.NAND, ppc64asm.NANDCC, ppc64asm.NOR, ppc64asm.NORCC,
	ppc64asm.EQV, ppc64asm.EQVCC,
	ppc64asm.EXTSB, ppc64asm.EXTSBCC, ppc64asm.EXTSH, ppc64asm.EXTSHCC,
	ppc64asm.CNTLZW, ppc64asm.CNTLZWCC,
	ppc64asm.RLWIMI, ppc64asm.RLWIMICC, ppc64asm.RLWINM, ppc64asm.RLWINMCC,
	ppc64asm.RLWNM, ppc64asm.RLWNMCC,
	ppc64asm.SLW, ppc64asm.SLWCC, ppc64asm.SRW, ppc64asm.SRWCC,
	ppc64asm.SRAW, ppc64asm.SRAWCC, ppc64asm.SRAWI, ppc64asm.SRAWICC,

	// branch and condition register
	ppc64asm.B, ppc64asm.BA, ppc64asm.BL, ppc64asm.BLA,
	ppc64asm.BC, ppc64asm.BCA, ppc64asm.BCL, ppc64asm.BCLA,
	ppc64asm.BCCTR, ppc64asm.BCCTRL, ppc64asm.BCLR, ppc64asm.BCLRL,
	ppc64asm.CRAND, ppc64asm.CRANDC, ppc64asm.CREQV, ppc64asm.CRNAND,
	ppc64asm.CRNOR, ppc64asm.CROR, ppc64asm.CRORC, ppc64asm.CRXOR,
	ppc64asm.MCRF, ppc64asm.MFCR, ppc64asm.MTCRF,

	// integer load and store
	ppc64asm.LBZ, ppc64asm.LBZU, ppc64asm.LBZX, ppc64asm.LBZUX,
	ppc64asm.LHZ, ppc64asm.LHZU, ppc64asm.LHZX, ppc64asm.LHZUX,
	ppc64asm.LHA, ppc64asm.LHAU, ppc64asm.LHAX, ppc64asm.LHAUX,
	ppc64asm.LWZ, ppc64asm.LWZU, ppc64asm.LWZX, ppc64asm.LWZUX,
	ppc64asm.LHBRX, ppc64asm.LWBRX, ppc64asm.LWARX,
	ppc64asm.LMW, ppc64asm.LSWI, ppc64asm.LSWX,
	ppc64asm.STB, ppc64asm.STBU, ppc64asm.STBX, ppc64asm.STBUX,
	ppc64asm.STH, ppc64asm.STHU, ppc64asm.STHX, ppc64asm.STHUX,
	ppc64asm.STW, ppc64asm.STWU, ppc64asm.STWX, ppc64asm.STWUX,
	ppc64asm.STHBRX, ppc64asm.STWBRX, ppc64asm.STWCXCC,
	ppc64asm.STMW, ppc64asm.STSWI, ppc64asm.STSWX,

	// float load and store
	ppc64asm.LFS, ppc64asm.LFSU, ppc64asm.LFSX, ppc64asm.LFSUX,
	ppc64asm.LFD, ppc64asm.LFDU, ppc64asm.LFDX, ppc64asm.LFDUX,
	ppc64asm.STFS, ppc64asm.STFSU, ppc64asm.STFSX, ppc64asm.STFSUX,
	ppc64asm.STFD, ppc64asm.STFDU, ppc64asm.STFDX, ppc64asm.STFDUX,
	ppc64asm.STFIWX,

	// float arithmetic; the 750 has no fsqrt
	ppc64asm.FADD, ppc64asm.FADDCC, ppc64asm.FADDS, ppc64asm.FADDSCC,
	ppc64asm.FSUB, ppc64asm.FSUBCC, ppc64asm.FSUBS, ppc64asm.FSUBSCC,
	ppc64asm.FMUL, ppc64asm.FMULCC, ppc64asm.FMULS, ppc64asm.FMULSCC,
	ppc64asm.FDIV, ppc64asm.FDIVCC, ppc64asm.FDIVS, ppc64asm.FDIVSCC,
	ppc64asm.FMADD, ppc64asm.FMADDCC, ppc64asm.FMADDS, ppc64asm.FMADDSCC,
	ppc64asm.FMSUB, ppc64asm.FMSUBCC, ppc64asm.FMSUBS, ppc64asm.FMSUBSCC,
	ppc64asm.FNMADD, ppc64asm.FNMADDCC, ppc64asm.FNMADDS, ppc64asm.FNMADDSCC,
	ppc64asm.FNMSUB, ppc64asm.FNMSUBCC, ppc64asm.FNMSUBS, ppc64asm.FNMSUBSCC,
	ppc64asm.FMR, ppc64asm.FMRCC, ppc64asm.FNEG, ppc64asm.FNEGCC,
	ppc64asm.FABS, ppc64asm.FABSCC, ppc64asm.FNABS, ppc64asm.FNABSCC,
	ppc64asm.FRES, ppc64asm.FRESCC, ppc64asm.FRSQRTE, ppc64asm.FRSQRTECC,
	ppc64asm.FRSP, ppc64asm.FRSPCC, ppc64asm.FSEL, ppc64asm.FSELCC,
	ppc64asm.FCTIW, ppc64asm.FCTIWCC, ppc64asm.FCTIWZ, ppc64asm.FCTIWZCC,
	ppc64asm.FCMPU, ppc64asm.FCMPO,
	ppc64asm.MFFS, ppc64asm.MFFSCC, ppc64asm.MCRFS,
	ppc64asm.MTFSB0, ppc64asm.MTFSB0CC, ppc64asm.MTFSB1, ppc64asm.MTFSB1CC,
	ppc64asm.MTFSF, ppc64asm.MTFSFCC, ppc64asm.MTFSFI, ppc64asm.MTFSFICC,

	// system
	ppc64asm.SC, ppc64asm.TW, ppc64asm.TWI,
	ppc64asm.MFMSR, ppc64asm.MTMSR, ppc64asm.MFSPR, ppc64asm.MTSPR,
	ppc64asm.SYNC, ppc64asm.ISYNC, ppc64asm.EIEIO, ppc64asm.TLBSYNC,
	ppc64asm.ICBI, ppc64asm.DCBST, ppc64asm.DCBZ,
	ppc64asm.MFTB, ppc64asm.DCBF, ppc64asm.DCBT, ppc64asm.DCBTST, ppc64asm.TLBIE,
)

// blacklist holds core instructions whose decoded operand layout differs
// from what the assembler accepts for this core. The decode is never trusted.
var blacklist = NewOpSet(
	// time base: decoded with an explicit TBR operand
	ppc64asm.MFTB,
	// cache and TLB: decoded with TH, L or POWER9 RIC/PRS/R fields
	ppc64asm.DCBF, ppc64asm.DCBT, ppc64asm.DCBTST, ppc64asm.TLBIE,
)

// pairedSingle lists the primary opcodes of the Gekko paired-single
// extension. The decoder has no tables for it and reads these words as
// VMX, VSX, quadword or multiply-add forms with wrong fields.
var pairedSingle = [64]bool{
	4:  true, // ps_*, ps_merge*, psq_lx, dcbz_l
	56: true, // psq_l
	57: true, // psq_lu
	60: true, // psq_st
	61: true, // psq_stu
}

// ShouldIgnore reports whether a decoded instruction must be replaced by a
// Data word because the decoder is known to get it wrong.
func ShouldIgnore(inst Inst) bool {
	if pairedSingle[primaryOpcode(inst)] || !gekkoOps.Has(inst.Op) || blacklist.Has(inst.Op) {
		return true
	}

	// The hint bit would not be preserved by the assembler; probably data anyway
	if isBDNZ(inst) {
		return inst.Raw[0]&1 == 1
	}

	// The assembler refuses lmw when RA is below RT
	if inst.Op == ppc64asm.LMW {
		rt, ok1 := inst.Reg(0)
		ra, ok2 := inst.Reg(2)
		return ok1 && ok2 && rt < ra
	}

	return false
}

func primaryOpcode(inst Inst) int {
	return int(inst.Raw[0] >> 2)
}

// isBDNZ reports whether inst is bc with BO=1a00t: decrement CTR, branch if
// it is non-zero, condition bit ignored.
func isBDNZ(inst Inst) bool {
	if inst.Op != ppc64asm.BC {
		return false
	}
	bo, ok := inst.Imm(0)
	return ok && bo&0b10110 == 0b10000
}
