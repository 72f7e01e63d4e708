package render

import (
	"fmt"

	"github.com/apparentlymart/arm-meta/isa"
)

// R9Name selects the name printed for r9.
type R9Name uint8

const (
	R9Plain R9Name = iota // r9
	R9SB                  // sb, the static base
	R9TR                  // tr, the thread register
)

func ParseR9Name(s string) (R9Name, error) {
	switch s {
	case "", "r9":
		return R9Plain, nil
	case "sb":
		return R9SB, nil
	case "tr":
		return R9TR, nil
	}
	return 0, fmt.Errorf("unknown name %q for r9", s)
}

// RegNames is a register naming scheme. The zero value names r0-r12
// plainly. sp, lr and pc are always named.
type RegNames struct {
	// AV uses the procedure-call names a1-a4 for r0-r3 and v1-v8 for
	// r4-r11, except where a more specific name below applies.
	AV bool

	R9 R9Name
	SL bool // r10 as sl
	FP bool // r11 as fp
	IP bool // r12 as ip
}

var plainRegNames = [isa.NumRegs]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

var avRegNames = [12]string{
	"a1", "a2", "a3", "a4", "v1", "v2", "v3", "v4",
	"v5", "v6", "v7", "v8",
}

// Name returns the text of register r.
func (n RegNames) Name(r isa.Reg) string {
	if r >= isa.NumRegs {
		return fmt.Sprintf("r%d", r)
	}
	switch {
	case r == 9 && n.R9 == R9SB:
		return "sb"
	case r == 9 && n.R9 == R9TR:
		return "tr"
	case r == 10 && n.SL:
		return "sl"
	case r == 11 && n.FP:
		return "fp"
	case r == 12 && n.IP:
		return "ip"
	case n.AV && int(r) < len(avRegNames):
		return avRegNames[r]
	}
	return plainRegNames[r]
}
