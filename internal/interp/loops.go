package interp

import (
	"loda/internal/lang"
	"loda/internal/mem"
	"loda/internal/number"
)

// pushLoop builds the frame for an LPB at index pc, branching on the
// source operand per §4.1: Constant(1) is a simple counter loop, anything
// else is a region loop over the fragment [target, target+source).
func (in *Interpreter) pushLoop(op lang.Operation, pc int, memory *mem.Memory) (loopFrame, error) {
	isSimple := op.Source.Type == lang.Constant && op.Source.Value.Eq(number.One)

	if isSimple {
		counter, err := in.resolveRead(op.Target, memory)
		if err != nil {
			return loopFrame{}, err
		}
		return loopFrame{
			simple:   true,
			pc:       pc,
			target:   op.Target,
			counter:  counter,
			snapshot: memory.Clone(),
		}, nil
	}

	start, err := in.resolveAddress(op.Target, memory)
	if err != nil {
		return loopFrame{}, err
	}
	lengthNum, err := in.resolveRead(op.Source, memory)
	if err != nil {
		return loopFrame{}, err
	}
	length, ok := lengthNum.Int64()
	if !ok || length < 0 {
		return loopFrame{}, negativeIndexErr()
	}
	frag, err := memory.Fragment(start, length)
	if err != nil {
		return loopFrame{}, err
	}
	return loopFrame{
		simple:   false,
		pc:       pc,
		target:   op.Target,
		source:   op.Source,
		start:    start,
		length:   length,
		fragment: frag,
		snapshot: memory.Clone(),
	}, nil
}

// closeLoop implements the LPE side of both loop modes: if the frame's
// progress condition still holds, jump back into the body and refresh the
// saved state; otherwise roll back to the last accepted iteration and pop.
// Returns the next program counter.
func (in *Interpreter) closeLoop(stack *[]loopFrame, memory *mem.Memory, lpePC int) (int, bool, error) {
	top := len(*stack) - 1
	frame := (*stack)[top]

	if frame.simple {
		newCounter, err := in.resolveRead(frame.target, memory)
		if err != nil {
			return 0, false, err
		}
		if !newCounter.IsNegative() && newCounter.Cmp(frame.counter) < 0 {
			frame.counter = newCounter
			frame.snapshot = memory.Clone()
			(*stack)[top] = frame
			return frame.pc + 1, true, nil
		}
		*memory = *frame.snapshot
		*stack = (*stack)[:top]
		return lpePC + 1, false, nil
	}

	curFrag, err := memory.Fragment(frame.start, frame.length)
	if err != nil {
		return 0, false, err
	}
	less, err := curFrag.IsLess(frame.fragment, frame.length, true)
	if err != nil {
		return 0, false, err
	}
	if less {
		frame.fragment = curFrag
		frame.snapshot = memory.Clone()
		(*stack)[top] = frame
		return frame.pc + 1, true, nil
	}
	*memory = *frame.snapshot
	*stack = (*stack)[:top]
	return lpePC + 1, false, nil
}
