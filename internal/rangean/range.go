// Package rangean implements the range analyzer: a sound over-approximation
// of per-cell value intervals reachable at every point of a program, given
// an upper bound on the input argument. It never claims more precision than
// it can prove; where an operation's exact interval image is expensive to
// compute, it widens toward Range{-INF, +INF} rather than risk an unsound
// bound (see DESIGN.md).
package rangean

import (
	"fmt"
	"strconv"

	"loda/internal/number"
)

// Number is an alias kept local to this package for readability.
type Number = number.Number

// Range bounds a cell's reachable values. Lower == number.Inf means the
// lower bound is -infinity; Upper == number.Inf means the upper bound is
// +infinity. A finite Lower and Upper represent an ordinary closed
// interval. This mirrors the source analyzer's convention of reusing a
// single "INF" sentinel, disambiguated by which field it occupies.
type Range struct {
	Lower Number
	Upper Number
}

// Zero is the degenerate range containing only 0.
var Zero = Range{Lower: number.Zero, Upper: number.Zero}

// Unbounded is the full range, (-infinity, +infinity).
var Unbounded = Range{Lower: number.Inf, Upper: number.Inf}

// Single returns the degenerate range containing only v.
func Single(v Number) Range { return Range{Lower: v, Upper: v} }

// IsFinite reports whether both bounds are finite.
func (r Range) IsFinite() bool { return !r.Lower.IsInf() && !r.Upper.IsInf() }

// IsConstant reports whether the range names exactly one value.
func (r Range) IsConstant() bool { return r.IsFinite() && r.Lower.Eq(r.Upper) }

// Contains reports whether v necessarily falls within r.
func (r Range) Contains(v Number) bool {
	if !r.Lower.IsInf() {
		if v.IsInf() || lowerCmp(v, r.Lower) < 0 {
			return false
		}
	}
	if !r.Upper.IsInf() {
		if v.IsInf() || upperCmp(v, r.Upper) > 0 {
			return false
		}
	}
	return true
}

// lowerCmp/upperCmp compare two finite Numbers; both panic is avoided
// because callers only invoke them once IsInf has already been checked.
func lowerCmp(a, b Number) int { return a.Cmp(b) }
func upperCmp(a, b Number) int { return a.Cmp(b) }

func (r Range) String() string {
	if r.Lower.Eq(r.Upper) && !r.Lower.IsInf() {
		return "= " + r.Lower.String()
	}
	lo, hi := "-inf", "inf"
	if !r.Lower.IsInf() {
		lo = r.Lower.String()
	}
	if !r.Upper.IsInf() {
		hi = r.Upper.String()
	}
	return fmt.Sprintf("[%s,%s]", lo, hi)
}

// RangeMap records a Range per memory cell. A cell absent from the map is
// treated as the degenerate Zero range, matching the analyzer's
// initialization of every non-input cell to {0,0}.
type RangeMap map[int64]Range

// Get returns the range recorded for cell, or Zero if cell was never
// touched.
func (m RangeMap) Get(cell int64) Range {
	if r, ok := m[cell]; ok {
		return r
	}
	return Zero
}

// Clone returns an independent copy of m.
func (m RangeMap) Clone() RangeMap {
	c := make(RangeMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Prune removes every cell whose range is fully unbounded: such an entry
// carries no information and only clutters a printed RangeMap.
func (m RangeMap) Prune() {
	for k, r := range m {
		if r.Lower.IsInf() && r.Upper.IsInf() {
			delete(m, k)
		}
	}
}

// String renders the map as a sequence of "lo <= $cell <= hi" clauses,
// skipping fully unbounded cells and using "$cell = v" for constants.
func (m RangeMap) String() string {
	out := ""
	for _, cell := range sortedCells(m) {
		r := m[cell]
		if r.Lower.IsInf() && r.Upper.IsInf() {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += m.clauseFor(cell, r)
	}
	return out
}

func (m RangeMap) clauseFor(cell int64, r Range) string {
	name := "$" + strconv.FormatInt(cell, 10)
	if r.IsConstant() {
		return name + " = " + r.Lower.String()
	}
	clause := ""
	if !r.Lower.IsInf() {
		clause += r.Lower.String() + " <= "
	}
	clause += name
	if !r.Upper.IsInf() {
		clause += " <= " + r.Upper.String()
	}
	return clause
}

func sortedCells(m RangeMap) []int64 {
	cells := make([]int64, 0, len(m))
	for c := range m {
		cells = append(cells, c)
	}
	for i := 1; i < len(cells); i++ {
		for j := i; j > 0 && cells[j-1] > cells[j]; j-- {
			cells[j-1], cells[j] = cells[j], cells[j-1]
		}
	}
	return cells
}
