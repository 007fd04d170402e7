package optimizer

import (
	"loda/internal/lang"
	"loda/internal/number"
	"loda/internal/semantics"
)

// reduceMemoryCells renames the largest used cell down to the lowest free
// slot, shrinking the program's memory footprint by one cell per call
// (Optimize calls it repeatedly until no gap remains). Skipped whenever
// the program's behavior depends on the concrete numeric identity of its
// cells (indirect operands, region loops/clears).
func (o *Optimizer) reduceMemoryCells(p *lang.Program) bool {
	if !canChangeVariableOrder(p) {
		return false
	}
	used, largest, ok := usedMemoryCells(p, o.Settings.MaxMemory)
	if !ok {
		return false
	}
	for candidate := int64(numInitializedCells); candidate < largest; candidate++ {
		if used[candidate] {
			continue
		}
		replaced := false
		for i := range p.Ops {
			op := &p.Ops[i]
			if op.Source.Type == lang.Direct {
				if c, _ := op.Source.Value.Int64(); c == largest {
					op.Source.Value = number.FromInt64(candidate)
					replaced = true
				}
			}
			if op.Target.Type == lang.Direct {
				if c, _ := op.Target.Value.Int64(); c == largest {
					op.Target.Value = number.FromInt64(candidate)
					replaced = true
				}
			}
		}
		return replaced
	}
	return false
}

// calcDispatch mirrors the interpreter's own arithmetic dispatch table
// (internal/interp/dispatch.go), duplicated here because partial
// evaluation needs it at compile time on constant operands rather than at
// runtime on memory cells; FAC and LEX are omitted because their
// semantics live as unexported interpreter helpers with no compile-time
// analogue worth duplicating.
var calcDispatch = map[lang.Type]func(a, b number.Number) number.Number{
	lang.ADD: semantics.Add,
	lang.SUB: semantics.Sub,
	lang.TRN: semantics.Trn,
	lang.MUL: semantics.Mul,
	lang.DIV: semantics.Div,
	lang.DIF: semantics.Dif,
	lang.DIR: semantics.Dir,
	lang.MOD: semantics.Mod,
	lang.POW: semantics.Pow,
	lang.GCD: semantics.Gcd,
	lang.BIN: semantics.Bin,
	lang.LOG: semantics.Log,
	lang.NRT: semantics.Nrt,
	lang.DGS: semantics.Dgs,
	lang.DGR: semantics.Dir,
	lang.EQU: semantics.Equ,
	lang.NEQ: semantics.Neq,
	lang.LEQ: semantics.Leq,
	lang.GEQ: semantics.Geq,
	lang.MIN: semantics.Min,
	lang.MAX: semantics.Max,
	lang.BAN: semantics.Ban,
	lang.BOR: semantics.Bor,
	lang.BXO: semantics.Bxo,
}

// removeReferences drops every tracked value equal to op (transitively
// stale once op's own cell is overwritten).
func removeReferences(op lang.Operand, values map[int64]lang.Operand) {
	for k, v := range values {
		if v.Eq(op) {
			delete(values, k)
		}
	}
}

func cellOf(op lang.Operand) (int64, bool) {
	if op.Type != lang.Direct {
		return 0, false
	}
	return op.Value.Int64()
}

// doPartialEval resolves op's operands against the known-constant values
// map, folds the operation if both become constant, and updates values
// to reflect the new state of the target cell. It reports whether op
// itself changed.
func (o *Optimizer) doPartialEval(p *lang.Program, index int, values map[int64]lang.Operand) bool {
	op := &p.Ops[index]
	if opHasIndirectOperand(*op) {
		for k := range values {
			delete(values, k)
		}
		return false
	}

	source := op.Source
	if c, ok := cellOf(op.Source); ok {
		if v, tracked := values[c]; tracked {
			source = v
		}
	}
	target := op.Target
	if c, ok := cellOf(op.Target); ok {
		if v, tracked := values[c]; tracked {
			target = v
		}
	}

	arity := op.Type.Info().Arity
	hasResult := false

	switch op.Type {
	case lang.NOP, lang.DBG, lang.SEQ:
	case lang.LPB, lang.LPE:
		begin, end := ownLoopBounds(p, index)
		if begin < 0 {
			return false
		}
		for i := begin + 1; i < end; i++ {
			inner := p.Ops[i]
			if isWritingRegion(inner.Type) || opHasIndirectOperand(inner) {
				for k := range values {
					delete(values, k)
				}
				break
			}
			if inner.Type.Info().IsWritingTarget {
				if c, ok := cellOf(inner.Target); ok {
					delete(values, c)
					removeReferences(inner.Target, values)
				}
			}
		}
		return false
	case lang.CLR, lang.PRG:
		for k := range values {
			delete(values, k)
		}
		return false
	case lang.MOV:
		target = source
		hasResult = true
	default:
		if target.Type == lang.Constant && (arity == lang.Arity1 || source.Type == lang.Constant) {
			if fn, ok := calcDispatch[op.Type]; ok {
				target = lang.NewConstant(fn(target.Value, source.Value))
				hasResult = true
			}
		}
	}

	changed := false
	if arity >= lang.Arity2 && !op.Source.Eq(source) {
		op.Source = source
		changed = true
	}

	if arity >= lang.Arity1 {
		if c, ok := cellOf(op.Target); ok {
			if hasResult {
				values[c] = target
				if op.Type != lang.MOV {
					op.Type = lang.MOV
					op.Source = target
					changed = true
				}
			} else {
				delete(values, c)
			}
			removeReferences(op.Target, values)
		}
	}

	return changed
}

// partialEval forward-propagates compile-time-known constant cell values
// through the program, folding arithmetic on them and rewriting the
// folded operation to a plain mov. Knowledge of a cell is dropped at loop
// boundaries (a cell written anywhere inside the loop becomes unknown
// again) and at CLR/PRG/indirect writes.
func (o *Optimizer) partialEval(p *lang.Program) bool {
	_, largest, ok := usedMemoryCells(p, o.Settings.MaxMemory)
	if !ok {
		return false
	}
	values := make(map[int64]lang.Operand)
	for i := int64(numInitializedCells); i <= largest; i++ {
		values[i] = lang.NewConstant(number.Zero)
	}
	changed := false
	for i := range p.Ops {
		if o.doPartialEval(p, i, values) {
			changed = true
		}
	}
	return changed
}
