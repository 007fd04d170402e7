package interp

import (
	"github.com/google/uuid"

	"loda/internal/errs"
	"loda/internal/lang"
	"loda/internal/mem"
	"loda/internal/number"
)

// execSeq implements SEQ target, Constant(id): evaluate program id with
// input = target's current value, then replace target with the result.
// Returns the step count to charge the caller (the callee's own step
// count, per §4.1).
func (in *Interpreter) execSeq(op lang.Operation, memory *mem.Memory) (int64, error) {
	arg, err := in.resolveRead(op.Target, memory)
	if err != nil {
		return 0, err
	}
	if arg.IsNegative() {
		return 0, errs.New(errs.NegativeSeqArgument, "seq called with negative argument")
	}
	idNum, err := in.resolveRead(op.Source, memory)
	if err != nil {
		return 0, err
	}
	id, ok := idNum.Int64()
	if !ok || id < 0 {
		return 0, errs.New(errs.InvalidOperand, "seq id must be a non-negative constant")
	}

	result, steps, err := in.callSeq(id, arg)
	if err != nil {
		return 0, err
	}
	if err := in.writeTarget(op.Target, result, memory); err != nil {
		return 0, err
	}
	return steps, nil
}

func (in *Interpreter) callSeq(id int64, arg Number) (Number, int64, error) {
	if in.running[id] {
		return Number{}, 0, errs.Newf(errs.Recursion, "seq %d recurses into itself", id)
	}
	key := termKey{id: id, arg: arg.Hash()}
	if e, ok := in.terms[key]; ok {
		return e.result, e.steps, nil
	}

	program, err := in.lookupProgram(id)
	if err != nil {
		return Number{}, 0, err
	}

	in.running[id] = true
	defer delete(in.running, id)

	callMemory := mem.New()
	if err := callMemory.Set(lang.InputCell, arg); err != nil {
		return Number{}, 0, err
	}
	steps, err := in.execute(program, callMemory, uuid.New())
	if err != nil {
		return Number{}, 0, err
	}
	result, err := callMemory.Get(lang.OutputCell)
	if err != nil {
		return Number{}, 0, err
	}

	in.memoize(key, result, steps)
	return result, steps, nil
}

// memoize records a (id,arg)->(result,steps) term while the interpreter's
// memory budget allows growth; once the budget hook declines, the cache
// stops growing but is never evicted.
func (in *Interpreter) memoize(key termKey, result Number, steps int64) {
	if in.termsFull {
		return
	}
	in.terms[key] = termEntry{result: result, steps: steps}
	in.termInserts++
	if in.termInserts%DefaultMemoizeProbeEvery == 0 && in.BudgetHook != nil {
		if !in.BudgetHook() {
			in.termsFull = true
		}
	}
}

// execPrg implements PRG target, Constant(id): invoke program id under the
// negative-id convention that keeps PRG's catalog namespace disjoint from
// SEQ's. The operand itself carries the caller's non-negated id; execPrg
// negates it before touching either the recursion guard or the program
// cache, so a SEQ call and a PRG call naming the same numeric id address
// different catalog entries and different recursion-guard slots. Reads
// `inputs` cells from [target, target+inputs) into the callee's cells
// [0, inputs) and writes the callee's cells [0, outputs) back to
// [target, target+outputs).
func (in *Interpreter) execPrg(op lang.Operation, memory *mem.Memory) (int64, error) {
	start, err := in.resolveAddress(op.Target, memory)
	if err != nil {
		return 0, err
	}
	idNum, err := in.resolveRead(op.Source, memory)
	if err != nil {
		return 0, err
	}
	callerID, ok := idNum.Int64()
	if !ok {
		return 0, errs.New(errs.InvalidOperand, "prg id must be a constant")
	}
	id := -callerID

	if in.running[id] {
		return 0, errs.Newf(errs.Recursion, "prg %d recurses into itself", callerID)
	}
	program, err := in.lookupProgram(id)
	if err != nil {
		return 0, err
	}
	inputs := program.DirectiveOr("inputs", 1)
	outputs := program.DirectiveOr("outputs", 1)

	in.running[id] = true
	defer delete(in.running, id)

	callMemory := mem.New()
	for i := int64(0); i < inputs; i++ {
		v, err := memory.Get(start + i)
		if err != nil {
			return 0, err
		}
		if err := callMemory.Set(i, v); err != nil {
			return 0, err
		}
	}
	steps, err := in.execute(program, callMemory, uuid.New())
	if err != nil {
		return 0, err
	}
	for i := int64(0); i < outputs; i++ {
		v, err := callMemory.Get(i)
		if err != nil {
			return 0, err
		}
		if err := in.writeTarget(lang.NewDirect(number.FromInt64(start+i)), v, memory); err != nil {
			return 0, err
		}
	}
	return steps, nil
}
