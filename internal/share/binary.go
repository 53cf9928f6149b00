package share

import "strings"

// The share payload is a flat sequence of 16-bit code units, three per
// selection, in row-major order with no separators or length prefix. Each
// code unit becomes one rune of the packed string; every encoded quantity
// (short id fingerprint <= 46655, day offset, minutes since midnight
// <= 1439) stays below the surrogate range 0xD800, so the string is always
// valid and one rune maps to exactly one code unit.

// PackTriples flattens the given triples into a packed code-unit string.
func PackTriples(triples [][3]uint16) string {
	var sb strings.Builder
	sb.Grow(len(triples) * 3 * 2)
	for _, t := range triples {
		for _, v := range t {
			sb.WriteRune(rune(v))
		}
	}
	return sb.String()
}

// UnpackTriples regroups every 3 consecutive code units of s into a triple.
// A string whose code-unit count is not a multiple of 3 is a caller error;
// trailing leftovers are dropped.
func UnpackTriples(s string) [][3]uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		units = append(units, uint16(r))
	}

	out := make([][3]uint16, 0, len(units)/3)
	for i := 0; i+2 < len(units); i += 3 {
		out = append(out, [3]uint16{units[i], units[i+1], units[i+2]})
	}
	return out
}
