package matcher

import (
	"loda/internal/lang"
	"loda/internal/number"
	"loda/internal/semantics"
)

// appendOp appends an operation built from the given type/target/source to
// p's op list.
func appendOp(p *lang.Program, t lang.Type, target, source lang.Operand) {
	p.Ops = append(p.Ops, lang.Operation{Type: t, Target: target, Source: source})
}

// addOrSub appends an add or sub against the output cell to realize
// constant c, doing nothing if c is zero.
func addOrSub(p *lang.Program, c number.Number) {
	out := lang.NewDirect(number.Zero)
	if number.Zero.Less(c) {
		appendOp(p, lang.ADD, out, lang.NewConstant(c))
	} else if c.Less(number.Zero) {
		appendOp(p, lang.SUB, out, lang.NewConstant(semantics.Sub(number.Zero, c)))
	}
}

// extendLinear appends ops to p that turn a program producing the
// linear1-reduced sequence (factor=inverse.Factor, offset=inverse.Offset)
// back into one producing the original (factor=target.Factor,
// offset=target.Offset): undo the reduction's offset and factor, in the
// order linear1's reduce applied them (truncate first, then shrink), so
// the extension applies shrink's inverse first, then truncate's.
func extendLinear(p *lang.Program, inverse, target Line) bool {
	if inverse.Offset.Eq(target.Offset) && inverse.Factor.Eq(target.Factor) {
		return true
	}
	out := lang.NewDirect(number.Zero)
	if !inverse.Offset.IsZero() {
		addOrSub(p, semantics.Sub(number.Zero, inverse.Offset))
	}
	if number.One.Less(inverse.Factor) && number.One.Less(target.Factor) &&
		semantics.Mod(target.Factor, inverse.Factor).IsZero() {
		target.Factor = semantics.Div(target.Factor, inverse.Factor)
		inverse.Factor = number.One
	}
	if number.One.Less(inverse.Factor) && number.One.Less(target.Factor) &&
		semantics.Mod(inverse.Factor, target.Factor).IsZero() {
		inverse.Factor = semantics.Div(inverse.Factor, target.Factor)
		target.Factor = number.One
	}
	if !inverse.Factor.Eq(number.One) {
		appendOp(p, lang.DIV, out, lang.NewConstant(inverse.Factor))
	}
	if !target.Factor.Eq(number.One) {
		appendOp(p, lang.MUL, out, lang.NewConstant(target.Factor))
	}
	if !target.Offset.IsZero() {
		addOrSub(p, target.Offset)
	}
	return true
}

// extendLinear2 is extendLinear's counterpart for linear2, whose reduce
// divides before truncating, so the extension divides before offsetting.
func extendLinear2(p *lang.Program, inverse, target Line) bool {
	if inverse.Factor.Eq(target.Factor) && inverse.Offset.Eq(target.Offset) {
		return true
	}
	out := lang.NewDirect(number.Zero)
	if !inverse.Factor.Eq(number.One) {
		appendOp(p, lang.DIV, out, lang.NewConstant(inverse.Factor))
	}
	addOrSub(p, semantics.Sub(target.Offset, inverse.Offset))
	if !target.Factor.Eq(number.One) {
		appendOp(p, lang.MUL, out, lang.NewConstant(target.Factor))
	}
	return true
}

// usedMemoryCells collects the direct cells p refers to and the largest
// one seen, for allocating scratch cells an extender needs.
func usedMemoryCells(p *lang.Program) (largest int64) {
	note := func(op lang.Operand) {
		if op.Type != lang.Direct {
			return
		}
		if c, ok := op.Value.Int64(); ok && c > largest {
			largest = c
		}
	}
	for _, op := range p.Ops {
		info := op.Type.Info()
		if info.Arity >= lang.Arity1 {
			note(op.Target)
		}
		if info.Arity >= lang.Arity2 {
			note(op.Source)
		}
	}
	return largest
}

// extendDeltaOne prepends/appends the single first-difference
// transformation (or, when sum is false, its inverse, running sum) around
// p. It reuses four scratch cells beyond the program's existing working
// set: the saved original input, the running result, a loop counter, and a
// temporary. The counter-equals-one branch that the original expresses
// with a dedicated compare op is expressed here with EQU, this language's
// equivalent boolean-producing comparison.
func extendDeltaOne(p *lang.Program, sum bool) bool {
	largest := usedMemoryCells(p)
	if largest < 0 {
		largest = 0
	}
	savedArg := lang.NewDirect(number.FromInt64(largest + 1))
	savedResult := lang.NewDirect(number.FromInt64(largest + 2))
	loopCounter := lang.NewDirect(number.FromInt64(largest + 3))
	tmpCounter := lang.NewDirect(number.FromInt64(largest + 4))
	in := lang.NewDirect(number.Zero)
	out := lang.NewDirect(number.Zero)

	var prefix []lang.Operation
	push := func(t lang.Type, target, source lang.Operand) {
		prefix = append(prefix, lang.Operation{Type: t, Target: target, Source: source})
	}
	push(lang.MOV, savedArg, in)
	if sum {
		push(lang.MOV, loopCounter, in)
		push(lang.ADD, loopCounter, lang.NewConstant(number.One))
	} else {
		push(lang.MOV, loopCounter, lang.NewConstant(number.Two))
	}
	push(lang.LPB, loopCounter, lang.NewConstant(number.One))
	push(lang.CLR, in, lang.NewConstant(number.FromInt64(largest+1)))
	push(lang.SUB, loopCounter, lang.NewConstant(number.One))
	push(lang.MOV, in, savedArg)
	if sum {
		push(lang.SUB, in, loopCounter)
	} else {
		push(lang.ADD, in, loopCounter)
		push(lang.TRN, in, lang.NewConstant(number.One))
	}
	p.Ops = append(append([]lang.Operation{}, prefix...), p.Ops...)

	if sum {
		appendOp(p, lang.ADD, savedResult, out)
	} else {
		appendOp(p, lang.MOV, tmpCounter, loopCounter)
		appendOp(p, lang.EQU, tmpCounter, lang.NewConstant(number.One))
		appendOp(p, lang.MUL, tmpCounter, out)
		appendOp(p, lang.ADD, savedResult, tmpCounter)
	}
	p.Ops = append(p.Ops, lang.Operation{Type: lang.LPE})

	if sum {
		appendOp(p, lang.MOV, out, savedResult)
	} else {
		appendOp(p, lang.MIN, savedArg, lang.NewConstant(number.One))
		appendOp(p, lang.MUL, savedArg, out)
		appendOp(p, lang.MOV, out, savedResult)
		appendOp(p, lang.SUB, out, savedArg)
	}
	return true
}

// extendDeltaIt applies |delta| rounds of extendDeltaOne: negative delta
// undoes first-differencing (the non-sum form), positive delta re-applies
// it (the sum form).
func extendDeltaIt(p *lang.Program, delta int64) bool {
	for delta < 0 {
		if !extendDeltaOne(p, false) {
			return false
		}
		delta++
	}
	for delta > 0 {
		if !extendDeltaOne(p, true) {
			return false
		}
		delta--
	}
	return true
}

// extendDigit appends ops that undo the digit reducer's rotation and
// modulus, turning a program producing one digit's residue class back into
// one producing the value mod numDigits with the original rotation.
func extendDigit(p *lang.Program, numDigits, offset int64) bool {
	if offset != 0 {
		addOrSub(p, number.FromInt64(offset))
	}
	out := lang.NewDirect(number.Zero)
	n := lang.NewConstant(number.FromInt64(numDigits))
	appendOp(p, lang.MOD, out, n)
	appendOp(p, lang.ADD, out, n)
	appendOp(p, lang.MOD, out, n)
	return true
}
