package matcher

import (
	"loda/internal/lang"
	"loda/internal/number"
	"loda/internal/semantics"
)

// Line is the (offset, factor) pair a linear reducer leaves behind: the
// sequence it was applied to equals factor*reduced + offset termwise.
type Line struct {
	Offset number.Number
	Factor number.Number
}

// Delta is what the delta reducer leaves behind: how many rounds of
// first-differencing it took, plus the (offset, factor) of the resulting
// linear reduction.
type Delta struct {
	Steps  int64
	Offset number.Number
	Factor number.Number
}

// maxDelta bounds how many rounds of first-differencing deltaReduce tries
// before giving up on strict monotonicity.
const maxDelta = 4

// truncate subtracts the sequence's minimum term from every term in place
// and returns that minimum, or Zero if any term is negative (truncation
// only applies to sequences that are already non-negative).
func truncate(seq []number.Number) number.Number {
	if len(seq) == 0 {
		return number.Zero
	}
	min := number.Inf
	for _, v := range seq {
		if v.IsNegative() {
			return number.Zero
		}
		if min.IsInf() || v.Less(min) {
			min = v
		}
	}
	if !min.IsInf() && number.Zero.Less(min) {
		for i := range seq {
			seq[i] = semantics.Sub(seq[i], min)
		}
	}
	if min.IsInf() {
		return number.Zero
	}
	return min
}

// shrink divides every term by the gcd of the nonzero terms in place and
// returns that gcd (One if every term is zero).
func shrink(seq []number.Number) number.Number {
	factor := number.Inf
	for _, v := range seq {
		if v.IsZero() {
			continue
		}
		av := abs(v)
		if factor.IsInf() {
			factor = av
		} else if !factor.Eq(number.One) {
			factor = semantics.Gcd(factor, av)
		}
	}
	if factor.IsInf() || factor.IsZero() {
		factor = number.One
	}
	if !factor.Eq(number.One) {
		for i := range seq {
			seq[i] = semantics.Div(seq[i], factor)
		}
	}
	return factor
}

func abs(v number.Number) number.Number {
	if v.IsNegative() {
		return semantics.Sub(number.Zero, v)
	}
	return v
}

// reduceLinear applies truncate then shrink, the linear1 order.
func reduceLinear(seq []number.Number) Line {
	offset := truncate(seq)
	factor := shrink(seq)
	return Line{Offset: offset, Factor: factor}
}

// reduceLinear2 applies shrink then truncate, the linear2 order.
func reduceLinear2(seq []number.Number) Line {
	factor := shrink(seq)
	offset := truncate(seq)
	return Line{Offset: offset, Factor: factor}
}

// reduceDelta repeatedly first-differences seq (up to maxDelta rounds,
// stopping as soon as a round fails to stay non-decreasing or makes no
// further progress), then linearly reduces what remains.
func reduceDelta(seq []number.Number) Delta {
	steps := int64(0)
	for i := int64(0); i < maxDelta; i++ {
		next := make([]number.Number, len(seq))
		ok := true
		same := true
		prev := number.Zero
		for j, v := range seq {
			if j > 0 {
				prev = seq[j-1]
			} else {
				prev = number.Zero
			}
			if v.Less(prev) {
				ok = false
				break
			}
			next[j] = semantics.Sub(v, prev)
			if !prev.IsZero() {
				same = false
			}
		}
		if ok && !same {
			copy(seq, next)
			steps++
		} else {
			break
		}
	}
	offset := truncate(seq)
	factor := shrink(seq)
	return Delta{Steps: steps, Offset: offset, Factor: factor}
}

// reduceDigit replaces each term with its remainder modulo numDigits after
// subtracting the most frequent residue, and returns that residue (the
// rotation that made the most terms land on digit zero).
func reduceDigit(seq []number.Number, numDigits int64) int64 {
	count := make([]int64, numDigits)
	base := number.FromInt64(numDigits)
	for _, v := range seq {
		r, _ := semantics.Mod(v, base).Int64()
		r = ((r % numDigits) + numDigits) % numDigits
		count[r]++
	}
	var best int64
	var bestCount int64
	for i, c := range count {
		if c > bestCount {
			bestCount = c
			best = int64(i)
		}
	}
	index := number.FromInt64(best)
	for i, v := range seq {
		d := semantics.Mod(semantics.Sub(v, index), base)
		d = semantics.Mod(semantics.Add(d, base), base)
		seq[i] = d
	}
	return best
}

// allDigitsInRange reports whether every term of seq is a valid digit in
// [0, numDigits), the precondition the digit matcher enforces before
// registering a sequence (not when merely probing a match candidate).
func allDigitsInRange(seq lang.Sequence, numDigits int64) bool {
	limit := number.FromInt64(numDigits)
	for _, v := range seq.Terms {
		if v.IsNegative() || !v.Less(limit) {
			return false
		}
	}
	return true
}
