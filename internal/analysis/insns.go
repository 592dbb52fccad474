package analysis

import (
	"golang.org/x/arch/ppc64/ppc64asm"

	"dolkit/internal/disasm"
)

// Instruction categories by which operands hold a general-purpose register
// the instruction writes. An opcode belongs to at most one category.

// firstWrites write the register in operand 0.
var firstWrites = disasm.NewOpSet(
	ppc64asm.LI, ppc64asm.LIS,
	ppc64asm.ADDI, ppc64asm.ADDIS, ppc64asm.ADDIC, ppc64asm.ADDICCC,
	ppc64asm.SUBFIC, ppc64asm.MULLI,

	ppc64asm.ADD, ppc64asm.ADDCC, ppc64asm.ADDO, ppc64asm.ADDOCC,
	ppc64asm.ADDC, ppc64asm.ADDCCC, ppc64asm.ADDCO, ppc64asm.ADDCOCC,
	ppc64asm.ADDE, ppc64asm.ADDECC, ppc64asm.ADDEO, ppc64asm.ADDEOCC,
	ppc64asm.ADDME, ppc64asm.ADDMECC, ppc64asm.ADDMEO, ppc64asm.ADDMEOCC,
	ppc64asm.ADDZE, ppc64asm.ADDZECC, ppc64asm.ADDZEO, ppc64asm.ADDZEOCC,
	ppc64asm.SUBF, ppc64asm.SUBFCC, ppc64asm.SUBFO, ppc64asm.SUBFOCC,
	ppc64asm.SUBFC, ppc64asm.SUBFCCC, ppc64asm.SUBFCO, ppc64asm.SUBFCOCC,
	ppc64asm.SUBFE, ppc64asm.SUBFECC, ppc64asm.SUBFEO, ppc64asm.SUBFEOCC,
	ppc64asm.SUBFME, ppc64asm.SUBFMECC, ppc64asm.SUBFMEO, ppc64asm.SUBFMEOCC,
	ppc64asm.SUBFZE, ppc64asm.SUBFZECC, ppc64asm.SUBFZEO, ppc64asm.SUBFZEOCC,
	ppc64asm.NEG, ppc64asm.NEGCC, ppc64asm.NEGO, ppc64asm.NEGOCC,

	ppc64asm.MULLW, ppc64asm.MULLWCC, ppc64asm.MULLWO, ppc64asm.MULLWOCC,
	ppc64asm.MULHW, ppc64asm.MULHWCC, ppc64asm.MULHWU, ppc64asm.MULHWUCC,
	ppc64asm.DIVW, ppc64asm.DIVWCC, ppc64asm.DIVWO, ppc64asm.DIVWOCC,
	ppc64asm.DIVWU, ppc64asm.DIVWUCC, ppc64asm.DIVWUO, ppc64asm.DIVWUOCC,

	ppc64asm.AND, ppc64asm.ANDCC, ppc64asm.ANDC, ppc64asm.ANDCCC,
	ppc64asm.OR, ppc64asm.ORCC, ppc64asm.ORC, ppc64asm.ORCCC,
	ppc64asm.XOR, ppc64asm.XORCC, ppc64asm.NAND, ppc64asm.NANDCC,
	ppc64asm.NOR, ppc64asm.NORCC, ppc64asm.EQV, ppc64asm.EQVCC,
	ppc64asm.ANDICC, ppc64asm.ANDISCC, ppc64asm.ORI, ppc64asm.ORIS,
	ppc64asm.XORI, ppc64asm.XORIS,

	ppc64asm.RLWINM, ppc64asm.RLWINMCC, ppc64asm.RLWNM, ppc64asm.RLWNMCC,
	ppc64asm.RLWIMI, ppc64asm.RLWIMICC,
	ppc64asm.SLW, ppc64asm.SLWCC, ppc64asm.SRW, ppc64asm.SRWCC,
	ppc64asm.SRAW, ppc64asm.SRAWCC, ppc64asm.SRAWI, ppc64asm.SRAWICC,
	ppc64asm.CNTLZW, ppc64asm.CNTLZWCC,
	ppc64asm.EXTSB, ppc64asm.EXTSBCC, ppc64asm.EXTSH, ppc64asm.EXTSHCC,

	ppc64asm.LBZ, ppc64asm.LBZX, ppc64asm.LHZ, ppc64asm.LHZX,
	ppc64asm.LHA, ppc64asm.LHAX, ppc64asm.LWZ, ppc64asm.LWZX,
	ppc64asm.LHBRX, ppc64asm.LWBRX, ppc64asm.LWARX,
	// Indexed update forms also write RA (operand 1); only RT is tracked.
	ppc64asm.LBZUX, ppc64asm.LHZUX, ppc64asm.LHAUX, ppc64asm.LWZUX,

	ppc64asm.MFSPR, ppc64asm.MFCR, ppc64asm.MFMSR,
)

// firstThirdWrites write operand 0 and the base register in operand 2.
var firstThirdWrites = disasm.NewOpSet(
	ppc64asm.LBZU, ppc64asm.LHZU, ppc64asm.LHAU, ppc64asm.LWZU,
)

// thirdWrites write only the base register in operand 2.
var thirdWrites = disasm.NewOpSet(
	ppc64asm.STBU, ppc64asm.STHU, ppc64asm.STWU,
	ppc64asm.STFSU, ppc64asm.STFDU,
	ppc64asm.LFSU, ppc64asm.LFDU,
)
