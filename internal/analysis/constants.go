// Package analysis provides register-level analysis of normalized PowerPC
// instruction streams.
package analysis

import "golang.org/x/arch/ppc64/ppc64asm"

const (
	// NumGPRs is the number of general-purpose registers
	NumGPRs = 32

	// LastGPR is the highest general-purpose register
	LastGPR = ppc64asm.R31
)
