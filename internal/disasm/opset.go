package disasm

import "golang.org/x/arch/ppc64/ppc64asm"

// OpSet is a closed set of opcodes.
type OpSet map[ppc64asm.Op]struct{}

// NewOpSet returns a set holding ops.
func NewOpSet(ops ...ppc64asm.Op) OpSet {
	s := make(OpSet, len(ops))
	for _, op := range ops {
		s[op] = struct{}{}
	}
	return s
}

// Has reports whether op is in the set.
func (s OpSet) Has(op ppc64asm.Op) bool {
	_, ok := s[op]
	return ok
}
