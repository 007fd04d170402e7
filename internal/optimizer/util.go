// Package optimizer implements semantics-preserving rewrite passes that
// shrink a program without changing the sequence it produces. Optimize
// runs every pass to a fixed point, mirroring the source analyzer's own
// outer loop (see DESIGN.md).
package optimizer

import (
	"loda/internal/lang"
	"loda/internal/number"
)

func hasIndirectOperand(p *lang.Program) bool {
	for _, op := range p.Ops {
		if op.Target.Type == lang.Indirect || op.Source.Type == lang.Indirect {
			return true
		}
	}
	return false
}

func opHasIndirectOperand(op lang.Operation) bool {
	return op.Target.Type == lang.Indirect || op.Source.Type == lang.Indirect
}

// isAdditive reports whether t is ADD or SUB: the two op types fixSandwich
// and pullUpMov treat as interchangeable "linear adjustment" steps.
func isAdditive(t lang.Type) bool {
	return t == lang.ADD || t == lang.SUB
}

// isCommutative reports whether t's two-operand semantic function is
// commutative; removeCommutativeDetour only strips a detour around such
// an operation.
func isCommutative(t lang.Type) bool {
	switch t {
	case lang.ADD, lang.MUL, lang.MIN, lang.MAX, lang.GCD, lang.EQU, lang.NEQ:
		return true
	default:
		return false
	}
}

// isWritingRegion reports whether t writes more than its single target
// cell (CLR zeroes a region, PRG writes a callee's output cells), which
// disqualifies several passes that otherwise assume arithmetic writes
// touch exactly one cell.
func isWritingRegion(t lang.Type) bool {
	return t == lang.CLR || t == lang.PRG
}

// isNonTrivialLoopBegin reports whether op is an LPB whose source is not
// Constant(1), i.e. a region-fragment loop rather than a simple counter
// loop.
func isNonTrivialLoopBegin(op lang.Operation) bool {
	return op.Type == lang.LPB && !(op.Source.Type == lang.Constant && op.Source.Value.Eq(number.One))
}

// isNonTrivialClear reports whether op is a CLR whose region length is
// not a constant within [-1,1] (a length of exactly 1, in either
// direction, behaves like a single-cell write and doesn't block the
// passes that assume single-cell writes).
func isNonTrivialClear(op lang.Operation) bool {
	if op.Type != lang.CLR {
		return false
	}
	if op.Source.Type != lang.Constant {
		return true
	}
	v := op.Source.Value
	return number.One.Less(v) || v.Less(number.FromInt64(-1))
}

// canChangeVariableOrder reports whether p contains no construct that
// depends on the concrete numeric identity of memory cells: indirect
// operands, region-fragment loops, non-trivial clears, or region writes.
// reduceMemoryCells only renames cells when this holds.
func canChangeVariableOrder(p *lang.Program) bool {
	for _, op := range p.Ops {
		if opHasIndirectOperand(op) || isNonTrivialLoopBegin(op) || isNonTrivialClear(op) || isWritingRegion(op.Type) {
			return false
		}
	}
	return true
}

// usedMemoryCells returns the set of direct cell indices referenced
// anywhere in p (target or source), plus the largest such index. ok is
// false if a cell index exceeds maxMemory (the caller should then treat
// the program as opaque to memory-cell renumbering).
func usedMemoryCells(p *lang.Program, maxMemory int64) (used map[int64]bool, largest int64, ok bool) {
	used = make(map[int64]bool)
	note := func(op lang.Operand) bool {
		if op.Type != lang.Direct {
			return true
		}
		c, valid := op.Value.Int64()
		if !valid || (maxMemory > 0 && c > maxMemory) {
			return false
		}
		used[c] = true
		if c > largest {
			largest = c
		}
		return true
	}
	for _, op := range p.Ops {
		info := op.Type.Info()
		if info.Arity >= lang.Arity1 {
			if !note(op.Target) {
				return nil, 0, false
			}
		}
		if info.Arity >= lang.Arity2 {
			if !note(op.Source) {
				return nil, 0, false
			}
		}
	}
	return used, largest, true
}

// largestDirectMemoryCell returns the largest direct cell index p refers
// to anywhere, or 0 if p uses none.
func largestDirectMemoryCell(p *lang.Program) int64 {
	_, largest, _ := usedMemoryCells(p, 0)
	return largest
}

// ownLoopBounds returns the [begin,end] op indices of the LPB/LPE pair
// that i itself is part of: if i is an LPB, that is (i, its matching LPE);
// if i is an LPE, that is (its matching LPB, i); otherwise it is the
// innermost loop surrounding i, or (-1,-1) if i is not inside one.
func ownLoopBounds(p *lang.Program, i int) (begin, end int) {
	if p.Ops[i].Type == lang.LPB {
		return i, p.MatchingLpe(i)
	}
	start := i
	if p.Ops[i].Type == lang.LPE {
		start--
	}
	depth := 1
	j := start
	for ; j >= 0 && depth > 0; j-- {
		switch p.Ops[j].Type {
		case lang.LPB:
			depth--
		case lang.LPE:
			depth++
		}
	}
	if depth != 0 {
		return -1, -1
	}
	return j + 1, i
}
