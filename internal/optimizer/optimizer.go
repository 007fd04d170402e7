package optimizer

import (
	"loda/internal/lang"
	"loda/internal/number"
	"loda/internal/semantics"
)

// Settings configures memory-cell bounds the optimizer must respect when
// renumbering cells.
type Settings struct {
	MaxMemory int64
}

// Optimizer runs the fixed-point rewrite passes over a Program.
type Optimizer struct {
	Settings Settings
}

// New returns an Optimizer with the given memory bound (0 means
// unbounded).
func New(maxMemory int64) *Optimizer {
	return &Optimizer{Settings: Settings{MaxMemory: maxMemory}}
}

// Optimize rewrites p in place to a fixed point and reports whether any
// pass changed it.
func (o *Optimizer) Optimize(p *lang.Program) bool {
	changed := true
	result := false
	for changed {
		changed = false
		if o.simplifyOperations(p) {
			changed = true
		}
		// fixSandwich must run directly before mergeOps: it rotates a
		// linear/scaling/linear triple so mergeOps can then fuse the two
		// linear steps it exposes.
		if o.fixSandwich(p) {
			changed = true
		}
		if o.mergeOps(p) {
			changed = true
		}
		if o.mergeRepeated(p) {
			changed = true
		}
		if o.removeNops(p) {
			changed = true
		}
		if o.removeEmptyLoops(p) {
			changed = true
		}
		if o.reduceMemoryCells(p) {
			changed = true
		}
		if o.partialEval(p) {
			changed = true
		}
		if o.sortOperations(p) {
			changed = true
		}
		if o.mergeLoops(p) {
			changed = true
		}
		if o.collapseMovLoops(p) {
			changed = true
		}
		if o.collapseArithmeticLoops(p) {
			changed = true
		}
		if o.pullUpMov(p) {
			changed = true
		}
		if o.removeCommutativeDetour(p) {
			changed = true
		}
		result = result || changed
	}
	return result
}

func (o *Optimizer) removeNops(p *lang.Program) bool {
	removed := false
	ops := p.Ops[:0]
	for _, op := range p.Ops {
		if op.Type == lang.NOP {
			removed = true
			continue
		}
		ops = append(ops, op)
	}
	p.Ops = ops
	return removed
}

func (o *Optimizer) removeEmptyLoops(p *lang.Program) bool {
	removed := false
	for i := 0; i+1 < len(p.Ops); i++ {
		if p.Ops[i].Type == lang.LPB && p.Ops[i+1].Type == lang.LPE {
			p.Ops = append(p.Ops[:i], p.Ops[i+2:]...)
			i -= 2
			removed = true
		}
	}
	return removed
}

const numInitializedCells = 1 // INPUT_CELL starts initialized; every other cell starts unset.

func simplifyOperand(op *lang.Operand, initialized map[int64]bool, isSource bool) bool {
	switch op.Type {
	case lang.Constant:
		return false
	case lang.Direct:
		c, _ := op.Value.Int64()
		if isSource && !initialized[c] {
			op.Type = lang.Constant
			op.Value = number.Zero
			return true
		}
		return false
	case lang.Indirect:
		c, _ := op.Value.Int64()
		if !initialized[c] {
			op.Type = lang.Direct
			op.Value = number.Zero
			return true
		}
		return false
	}
	return false
}

// simplifyOperations walks the program once, tracking which cells are
// known initialized, and rewrites operations whose operands or shape
// become trivial given that knowledge (e.g. "add $n,X" becomes
// "mov $n,X" when $n is unset) plus constant-operand identities (negative
// add/sub normalization, self-referential ops collapsing to mov/max,
// etc). A loop, region write, or SEQ resets "can simplify" from that
// point on, since the optimizer can no longer prove which cells are
// initialized past it.
func (o *Optimizer) simplifyOperations(p *lang.Program) bool {
	initialized := map[int64]bool{lang.InputCell: true}
	simplified := false
	canSimplify := true
	for i := range p.Ops {
		op := &p.Ops[i]
		switch op.Type {
		case lang.NOP, lang.DBG:
			continue
		case lang.LPB, lang.LPE, lang.CLR, lang.PRG, lang.SEQ:
			canSimplify = false
		default:
			if canSimplify {
				hasSource := op.Type.Info().Arity >= lang.Arity2
				if hasSource && simplifyOperand(&op.Source, initialized, true) {
					simplified = true
				}
				if simplifyOperand(&op.Target, initialized, false) {
					simplified = true
				}
				if op.Target.Type == lang.Direct {
					if c, _ := op.Target.Value.Int64(); !initialized[c] && op.Type == lang.ADD {
						op.Type = lang.MOV
						simplified = true
					}
				}
			}

			if op.Source.Type == lang.Constant && op.Source.Value.IsZero() && op.Type == lang.TRN {
				op.Type = lang.MAX
				simplified = true
			}
			if op.Source.Type == lang.Constant && op.Source.Value.IsNegative() {
				switch op.Type {
				case lang.ADD:
					op.Type = lang.SUB
					op.Source.Value = semantics.Sub(number.Zero, op.Source.Value)
					simplified = true
				case lang.SUB:
					op.Type = lang.ADD
					op.Source.Value = semantics.Sub(number.Zero, op.Source.Value)
					simplified = true
				}
			}
			if op.Target.Type == lang.Direct && op.Target.Eq(op.Source) {
				switch op.Type {
				case lang.ADD:
					op.Type = lang.MUL
					op.Source = lang.NewConstant(number.FromInt64(2))
					simplified = true
				case lang.SUB:
					op.Type = lang.MOV
					op.Source = lang.NewConstant(number.Zero)
					simplified = true
				case lang.MUL:
					op.Type = lang.POW
					op.Source = lang.NewConstant(number.FromInt64(2))
					simplified = true
				case lang.EQU, lang.LEQ, lang.GEQ, lang.BIN:
					op.Type = lang.MOV
					op.Source = lang.NewConstant(number.One)
					simplified = true
				case lang.NEQ:
					op.Type = lang.MOV
					op.Source = lang.NewConstant(number.Zero)
					simplified = true
				}
			}
		}

		switch op.Target.Type {
		case lang.Direct:
			if c, ok := op.Target.Value.Int64(); ok {
				initialized[c] = true
			}
		case lang.Indirect:
			canSimplify = false
		}
	}
	return simplified
}

// fixSandwich rewrites a linear/scaling/linear triple on the same target
// cell so the scaling step moves inward, exposing the two linear steps
// to mergeOps; it must run immediately before mergeOps for that reason.
func (o *Optimizer) fixSandwich(p *lang.Program) bool {
	changed := false
	for i := 0; i+2 < len(p.Ops); i++ {
		op1, op2, op3 := &p.Ops[i], &p.Ops[i+1], &p.Ops[i+2]
		if !op1.Target.Eq(op2.Target) || !op2.Target.Eq(op3.Target) ||
			op1.Target.Type != lang.Direct ||
			op1.Source.Type != lang.Constant || op2.Source.Type != lang.Constant || op3.Source.Type != lang.Constant {
			continue
		}
		switch {
		case isAdditive(op1.Type) && op2.Type == lang.MUL && isAdditive(op3.Type):
			*op1, *op2 = *op2, *op1
			op2.Source.Value = semantics.Mul(op2.Source.Value, op1.Source.Value)
			changed = true
		case isAdditive(op1.Type) && op2.Type == lang.DIV && isAdditive(op3.Type) &&
			number.One.Less(op1.Source.Value) && number.One.Less(op2.Source.Value) &&
			semantics.Mod(op1.Source.Value, op2.Source.Value).IsZero():
			*op1, *op2 = *op2, *op1
			op2.Source.Value = semantics.Div(op2.Source.Value, op1.Source.Value)
			changed = true
		case isAdditive(op2.Type) && op1.Type == op3.Type:
			if op1.Type == lang.DIV {
				*op1, *op2 = *op2, *op1
				op1.Source.Value = semantics.Mul(op1.Source.Value, op2.Source.Value)
				changed = true
			} else if op1.Type == lang.MUL && semantics.Mod(op2.Source.Value, op1.Source.Value).IsZero() {
				*op1, *op2 = *op2, *op1
				op1.Source.Value = semantics.Div(op1.Source.Value, op2.Source.Value)
				changed = true
			}
		case isAdditive(op2.Type) && op1.Type == lang.MUL && op3.Type == lang.DIV && op1.Source.Eq(op3.Source) &&
			number.One.Less(op1.Source.Value) && number.One.Less(op2.Source.Value) &&
			semantics.Mod(op2.Source.Value, op1.Source.Value).IsZero():
			*op1, *op2 = *op2, *op1
			op1.Source.Value = semantics.Div(op1.Source.Value, op2.Source.Value)
			changed = true
		}
	}
	return changed
}

// mergeOps fuses adjacent operations sharing a direct target when the
// second is redundant given the first, e.g. two constant adds/subs
// collapse into one, or a constant mov immediately before an add/mul
// absorbs it.
func (o *Optimizer) mergeOps(p *lang.Program) bool {
	merged := false
	for i := 0; i+1 < len(p.Ops); i++ {
		o1, o2 := &p.Ops[i], &p.Ops[i+1]
		doMerge := false

		if o1.Target.Eq(o2.Target) && o1.Target.Type == lang.Direct {
			switch {
			case o1.Source.Type == lang.Constant && o2.Source.Type == lang.Constant:
				switch {
				case o1.Type == o2.Type && isAdditive(o1.Type):
					o1.Source.Value = semantics.Add(o1.Source.Value, o2.Source.Value)
					doMerge = true
				case o1.Type == o2.Type && (o1.Type == lang.MUL || o1.Type == lang.DIV || o1.Type == lang.POW):
					o1.Source.Value = semantics.Mul(o1.Source.Value, o2.Source.Value)
					doMerge = true
				case (o1.Type == lang.ADD && o2.Type == lang.SUB) || (o1.Type == lang.SUB && o2.Type == lang.ADD):
					o1.Source.Value = semantics.Sub(o1.Source.Value, o2.Source.Value)
					if o1.Source.Value.IsNegative() {
						o1.Source.Value = semantics.Sub(number.Zero, o1.Source.Value)
						if o1.Type == lang.ADD {
							o1.Type = lang.SUB
						} else {
							o1.Type = lang.ADD
						}
					}
					doMerge = true
				case o1.Type == lang.SUB && o2.Type == lang.MAX && o2.Source.Value.IsZero():
					o1.Type = lang.TRN
					doMerge = true
				case o1.Type == lang.MUL && o2.Type == lang.DIV && !o1.Source.Value.IsZero() && !o2.Source.Value.IsZero():
					g := semantics.Gcd(o1.Source.Value, o2.Source.Value)
					o1.Source.Value = semantics.Div(o1.Source.Value, g)
					if g.Eq(o2.Source.Value) {
						doMerge = true
					} else {
						o2.Source.Value = semantics.Div(o2.Source.Value, g)
					}
				}
			case o1.Source.Type == lang.Direct && o1.Source.Eq(o2.Source):
				if o1.Type == lang.ADD && o2.Type == lang.SUB {
					o1.Source = lang.NewConstant(number.Zero)
					doMerge = true
				}
			}

			if !doMerge && o1.Type == lang.MOV && o1.Source.Type == lang.Constant && o2.Source.Type != lang.Indirect {
				if (o1.Source.Value.IsZero() && o2.Type == lang.ADD) || (o1.Source.Value.Eq(number.One) && o2.Type == lang.MUL) {
					o1.Source = o2.Source
					doMerge = true
				}
			}

			if !doMerge && o2.Type == lang.MOV && o2.Source.Type == lang.Constant {
				if o1.Type.Info().IsWritingTarget && !isWritingRegion(o1.Type) {
					*o1 = *o2
					doMerge = true
				}
			}

			if !doMerge && o1.Type == lang.EQU && o2.Type == lang.EQU && o2.Source.Type == lang.Constant && o2.Source.Value.IsZero() {
				o1.Type = lang.NEQ
				doMerge = true
			}
		}

		if doMerge {
			p.Ops = append(p.Ops[:i+1], p.Ops[i+2:]...)
			i--
			merged = true
		}
	}
	return merged
}

func findRepeatedOps(p *lang.Program, minRepetitions int) (start, length int) {
	start, length = -1, 0
	for i, op := range p.Ops {
		if start != -1 {
			if op.Eq(p.Ops[start]) {
				length++
			} else {
				if length >= minRepetitions {
					return start, length
				}
				start, length = -1, 0
			}
		}
		if start == -1 && (op.Type == lang.ADD || op.Type == lang.MUL) {
			start, length = i, 1
		}
	}
	if length < minRepetitions {
		start = -1
	}
	return start, length
}

// mergeRepeated collapses a run of 3 or more identical add/mul ops into
// three ops: a temporary cell is set to the op's source, the fold op (mul
// for a run of adds, pow for a run of muls) applies the run length to it,
// and one op of the original type applies the temporary to the target.
func (o *Optimizer) mergeRepeated(p *lang.Program) bool {
	start, length := findRepeatedOps(p, 3)
	if start == -1 {
		return false
	}
	if hasIndirectOperand(p) {
		return false
	}
	foldType := lang.POW
	if p.Ops[start].Type == lang.ADD {
		foldType = lang.MUL
	}
	tmp := lang.NewDirect(number.FromInt64(largestDirectMemoryCell(p) + 1))
	count := lang.NewConstant(number.FromInt64(int64(length)))
	originalType := p.Ops[start].Type
	originalTarget := p.Ops[start].Target
	originalSource := p.Ops[start].Source
	p.Ops[start] = lang.Operation{Type: lang.MOV, Target: tmp, Source: originalSource}
	p.Ops[start+1] = lang.Operation{Type: foldType, Target: tmp, Source: count}
	p.Ops[start+2] = lang.Operation{Type: originalType, Target: originalTarget, Source: tmp}
	if length > 3 {
		p.Ops = append(p.Ops[:start+3], p.Ops[start+length:]...)
	}
	return true
}
