package isa

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Bits is a 32-bit instruction word, mask or pattern. Half-word encodings
// use the low 16 bits and paired half-word encodings hold the first
// half-word in the high 16 bits.
type Bits uint32

func (v Bits) String() string {
	return fmt.Sprintf("0b%032b", uint32(v))
}

// Count returns the number of set bits.
func (v Bits) Count() int {
	return bits.OnesCount32(uint32(v))
}

// BitRange is an inclusive range of bit positions, written hi..lo.
type BitRange struct {
	Hi, Lo uint8
}

// Span returns the bit range hi..lo.
func Span(hi, lo uint8) BitRange {
	return BitRange{Hi: hi, Lo: lo}
}

func (r BitRange) Width() uint8 {
	return r.Hi - r.Lo + 1
}

func (r BitRange) Mask() Bits {
	return rangeMask(uint(r.Hi), uint(r.Lo))
}

// valid reports whether r is ordered and lies within a 32-bit word.
func (r BitRange) valid() bool {
	return r.Lo <= r.Hi && r.Hi < 32
}

// Extract returns the bits of w covered by r, right-justified.
func (r BitRange) Extract(w uint32) uint32 {
	return uint32(Bits(w)&r.Mask()) >> r.Lo
}

func (r BitRange) String() string {
	if r.Hi == r.Lo {
		return strconv.Itoa(int(r.Hi))
	}
	return fmt.Sprintf("%d..%d", r.Hi, r.Lo)
}

func rangeMask(top, bottom uint) Bits {
	return Bits((uint64(1) << (top + 1)) - (uint64(1) << bottom))
}

// ParseMatch parses a match spec made of space-separated terms like
// "27..26=0b01" or "4=1" and returns the pattern and mask they describe.
func ParseMatch(spec string) (pattern, mask Bits, err error) {
	for _, raw := range strings.Fields(spec) {
		v, m, err := parseMatchTerm(raw)
		if err != nil {
			return 0, 0, err
		}
		if mask&m != 0 {
			return 0, 0, fmt.Errorf("match term %q overlaps an earlier term", raw)
		}
		pattern |= v
		mask |= m
	}
	return pattern, mask, nil
}

// MustMatch is like ParseMatch but panics if the spec is invalid. It is
// intended for statically-declared tables.
func MustMatch(spec string) (pattern, mask Bits) {
	pattern, mask, err := ParseMatch(spec)
	if err != nil {
		panic(fmt.Sprintf("invalid match spec %q: %s", spec, err))
	}
	return pattern, mask
}

func parseMatchTerm(raw string) (val, mask Bits, err error) {
	rawRng, rawWant := partition(raw, "=")
	if rawWant == "" {
		return 0, 0, fmt.Errorf("match term %q has no value", raw)
	}
	rng, err := ParseRange(rawRng)
	if err != nil {
		return 0, 0, err
	}
	want, err := strconv.ParseUint(rawWant, 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid value in match term %q: %w", raw, err)
	}
	if want>>rng.Width() != 0 {
		return 0, 0, fmt.Errorf("value %#x does not fit in bits %s", want, rng)
	}
	return Bits(want << rng.Lo), rng.Mask(), nil
}

// ParseRange parses either "hi..lo" or a single bit position.
func ParseRange(raw string) (BitRange, error) {
	rawEnd, rawStart := partition(raw, "..")
	if rawStart == "" {
		rawStart = rawEnd
	}
	start, err := strconv.ParseUint(rawStart, 10, 8)
	if err != nil {
		return BitRange{}, fmt.Errorf("invalid bit range %q: %w", raw, err)
	}
	end, err := strconv.ParseUint(rawEnd, 10, 8)
	if err != nil {
		return BitRange{}, fmt.Errorf("invalid bit range %q: %w", raw, err)
	}
	if end < start || end > 31 {
		return BitRange{}, fmt.Errorf("invalid bit range %q", raw)
	}
	return BitRange{Hi: uint8(end), Lo: uint8(start)}, nil
}

func partition(s string, sep string) (l, r string) {
	idx := strings.Index(s, sep)
	if idx == -1 {
		return s, ""
	}
	return s[:idx], s[idx+len(sep):]
}
