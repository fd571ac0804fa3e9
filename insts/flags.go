package insts

// Flags is the 3-bit condition-code word produced by flag-setting
// instructions: bit 0 is zero, bit 1 is positive, bit 2 is negative.
type Flags uint8

// Condition-code bits.
const (
	FlagZ Flags = 1 << 0
	FlagP Flags = 1 << 1
	FlagN Flags = 1 << 2
)

// ComputeFlags derives the Z|P|N word from an integer ALU result.
func ComputeFlags(result int32) Flags {
	var f Flags
	switch {
	case result == 0:
		f |= FlagZ
	case result > 0:
		f |= FlagP
	default:
		f |= FlagN
	}
	return f
}

// Taken reports whether a conditional branch with opcode op is taken given
// the captured flags word.
func Taken(op Op, flags Flags) bool {
	switch op {
	case OpBZ:
		return flags&FlagZ != 0
	case OpBNZ:
		return flags&FlagZ == 0
	case OpBP:
		return flags&FlagP != 0
	case OpBN:
		return flags&FlagN != 0
	default:
		return false
	}
}
