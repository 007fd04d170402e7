package lang

import (
	"strings"

	"loda/internal/number"
)

// Sequence is an ordered list of Number terms.
type Sequence struct {
	Terms []number.Number
}

// NewSequence builds a Sequence from the given terms.
func NewSequence(terms ...number.Number) Sequence {
	return Sequence{Terms: terms}
}

// Len returns the number of terms.
func (s Sequence) Len() int { return len(s.Terms) }

// Subsequence returns terms [start, start+length) as a new Sequence. If the
// requested window exceeds the available terms it is truncated.
func (s Sequence) Subsequence(start, length int) Sequence {
	end := start + length
	if end > len(s.Terms) {
		end = len(s.Terms)
	}
	if start > end {
		start = end
	}
	out := make([]number.Number, end-start)
	copy(out, s.Terms[start:end])
	return Sequence{Terms: out}
}

// Eq reports element-wise equality.
func (s Sequence) Eq(other Sequence) bool {
	if len(s.Terms) != len(other.Terms) {
		return false
	}
	for i := range s.Terms {
		if !s.Terms[i].Eq(other.Terms[i]) {
			return false
		}
	}
	return true
}

// Align finds a shift in [-maxShift, maxShift] such that s, shifted, agrees
// with other on their common prefix, and mutates s in place to reflect that
// shift (dropping leading terms for a positive shift, or prepending that
// many zero terms for a negative one).
// Reports false if no shift within range achieves agreement.
func (s *Sequence) Align(other Sequence, maxShift int) bool {
	for shift := 0; shift <= maxShift; shift++ {
		if agrees(s.Terms, other.Terms, shift) {
			s.Terms = s.Terms[shift:]
			return true
		}
		if shift != 0 && agreesNeg(s.Terms, other.Terms, shift) {
			shifted := make([]number.Number, shift, shift+len(s.Terms))
			for i := range shifted {
				shifted[i] = number.Zero
			}
			shifted = append(shifted, s.Terms...)
			s.Terms = shifted
			return true
		}
	}
	return false
}

// agrees checks whether s[shift:] matches other on their common prefix.
func agrees(s, other []number.Number, shift int) bool {
	if shift > len(s) {
		return false
	}
	a := s[shift:]
	n := len(a)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if !a[i].Eq(other[i]) {
			return false
		}
	}
	return true
}

// agreesNeg checks whether s matches other[shift:] on their common prefix
// (the negative-shift case: other starts further along than s).
func agreesNeg(s, other []number.Number, shift int) bool {
	if shift > len(other) {
		return false
	}
	b := other[shift:]
	n := len(s)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if !s[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// String renders the sequence as comma-separated terms.
func (s Sequence) String() string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
