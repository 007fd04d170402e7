package optimizer

import "loda/internal/lang"

func isArithmeticOrSeq(t lang.Type) bool {
	switch t {
	case lang.NOP, lang.DBG, lang.LPB, lang.LPE, lang.CLR, lang.PRG:
		return false
	default:
		return true
	}
}

func readCells(op lang.Operation) (cells []int64) {
	info := op.Type.Info()
	if info.IsReadingTarget && op.Target.Type == lang.Direct {
		if c, ok := op.Target.Value.Int64(); ok {
			cells = append(cells, c)
		}
	}
	if info.Arity >= lang.Arity2 && op.Source.Type == lang.Direct {
		if c, ok := op.Source.Value.Int64(); ok {
			cells = append(cells, c)
		}
	}
	return cells
}

func writeCell(op lang.Operation) (cell int64, ok bool) {
	if !op.Type.Info().IsWritingTarget || op.Target.Type != lang.Direct {
		return 0, false
	}
	c, valid := op.Target.Value.Int64()
	return c, valid
}

func targetsCommute(a, b lang.Operation) bool {
	if !a.Target.Eq(b.Target) {
		return true
	}
	if isAdditive(a.Type) && isAdditive(b.Type) {
		return true
	}
	return a.Type == b.Type && isCommutative(a.Type)
}

// independent reports whether a and b can be freely reordered: both are
// plain arithmetic (or SEQ), neither has an indirect operand, neither
// writes a cell the other reads, and if they share a target cell the
// shared update commutes.
func independent(a, b lang.Operation) bool {
	if !isArithmeticOrSeq(a.Type) || !isArithmeticOrSeq(b.Type) {
		return false
	}
	if opHasIndirectOperand(a) || opHasIndirectOperand(b) {
		return false
	}
	aw, aok := writeCell(a)
	bw, bok := writeCell(b)
	for _, c := range readCells(b) {
		if aok && c == aw {
			return false
		}
	}
	for _, c := range readCells(a) {
		if bok && c == bw {
			return false
		}
	}
	return targetsCommute(a, b)
}

func sourceKind(op lang.Operation) lang.OperandType { return op.Source.Type }

// mergeScore favors two operations landing adjacent when that adjacency
// is likely to let mergeOps fuse them next: same direct target, same
// source operand kind.
func mergeScore(a, b lang.Operation) int {
	if a.Target.Eq(b.Target) && a.Target.Type == lang.Direct && sourceKind(a) == sourceKind(b) {
		return 1
	}
	return 0
}

// sortOperations swaps one adjacent, independent pair of operations when
// doing so strictly improves the combined mergeScore against their
// neighbors, nudging mergeable operations toward each other one step at
// a time. Optimize's fixed-point loop repeats the pass until no swap
// helps.
func (o *Optimizer) sortOperations(p *lang.Program) bool {
	for i := 0; i+1 < len(p.Ops); i++ {
		a, b := p.Ops[i], p.Ops[i+1]
		if !independent(a, b) {
			continue
		}
		before := 0
		if i > 0 {
			before += mergeScore(p.Ops[i-1], a)
		}
		after := 0
		if i+2 < len(p.Ops) {
			after += mergeScore(b, p.Ops[i+2])
		}
		oldScore := before + after + mergeScore(a, b)

		newBefore := 0
		if i > 0 {
			newBefore = mergeScore(p.Ops[i-1], b)
		}
		newAfter := 0
		if i+2 < len(p.Ops) {
			newAfter = mergeScore(a, p.Ops[i+2])
		}
		newScore := newBefore + newAfter + mergeScore(b, a)

		if newScore > oldScore {
			p.Ops[i], p.Ops[i+1] = b, a
			return true
		}
	}
	return false
}

// canMerge reports whether mergeOps could fuse a followed by b (the
// building block pullUpMov uses to decide whether hoisting a mov past an
// arithmetic op is worthwhile).
func canMerge(a, b lang.Type) bool {
	if isAdditive(a) && isAdditive(b) {
		return true
	}
	if a == b && (a == lang.MUL || a == lang.DIV) {
		return true
	}
	return a == lang.MUL && b == lang.DIV
}

// pullUpMov rewrites "op1 $x,k1 ; mov $y,$x ; op2 $y,k2" (op1 and op2
// mergeable per canMerge) into "mov $y,$x ; op1 $y,k1 ; op1 $x,k1 ;
// op2 $y,k2": the mov moves first and op1 is duplicated onto the mov's
// target, so the two constant ops on $y are separated only by the op on $x.
func (o *Optimizer) pullUpMov(p *lang.Program) bool {
	for i := 0; i+2 < len(p.Ops); i++ {
		a, b, c := p.Ops[i], p.Ops[i+1], p.Ops[i+2]
		if !canMerge(a.Type, c.Type) || b.Type != lang.MOV {
			continue
		}
		if a.Target.Type != lang.Direct || a.Source.Type != lang.Constant ||
			b.Target.Type != lang.Direct || b.Source.Type != lang.Direct ||
			c.Target.Type != lang.Direct || c.Source.Type != lang.Constant {
			continue
		}
		if !a.Target.Eq(b.Source) || !b.Target.Eq(c.Target) {
			continue
		}
		d := a
		d.Target = b.Target
		rest := append([]lang.Operation{}, p.Ops[i+3:]...)
		newOps := append([]lang.Operation{}, p.Ops[:i]...)
		newOps = append(newOps, b, d, a, c)
		newOps = append(newOps, rest...)
		p.Ops = newOps
		return true
	}
	return false
}

// removeCommutativeDetour replaces "mov d,s ; OP d,t ; mov t,d" with
// "OP t,s" when OP is commutative and d (the detour cell) is never read
// again: the sequence
// only exists to apply OP with its operands swapped, which commutativity
// makes unnecessary.
func (o *Optimizer) removeCommutativeDetour(p *lang.Program) bool {
	if hasIndirectOperand(p) {
		return false
	}
	openLoops := 0
	for i := 0; i+2 < len(p.Ops); i++ {
		op1, op2, op3 := p.Ops[i], p.Ops[i+1], p.Ops[i+2]
		switch op1.Type {
		case lang.LPB:
			openLoops++
		case lang.LPE:
			openLoops--
		}
		if openLoops > 0 {
			continue
		}
		if op1.Type != lang.MOV || op3.Type != lang.MOV || !isCommutative(op2.Type) {
			continue
		}
		if !op1.Target.Eq(op2.Target) || !op1.Target.Eq(op3.Source) || !op2.Source.Eq(op3.Target) {
			continue
		}
		detourCell := op1.Target
		if detourCell.Type == lang.Direct {
			if c, ok := detourCell.Value.Int64(); ok && c == lang.OutputCell {
				continue
			}
		}
		isRead := false
		for j := i + 3; j < len(p.Ops); j++ {
			info := p.Ops[j].Type.Info()
			if info.Arity >= lang.Arity2 && p.Ops[j].Source.Eq(detourCell) {
				isRead = true
				break
			}
			if info.Arity >= lang.Arity1 && info.IsReadingTarget && p.Ops[j].Target.Eq(detourCell) {
				isRead = true
				break
			}
		}
		if isRead {
			continue
		}
		p.Ops[i+1].Target = p.Ops[i+1].Source
		p.Ops[i+1].Source = op1.Source
		p.Ops = append(p.Ops[:i+2], p.Ops[i+3:]...)
		p.Ops = append(p.Ops[:i], p.Ops[i+1:]...)
		return true
	}
	return false
}
