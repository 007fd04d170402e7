package ie

import (
	"testing"

	"loda/internal/interp"
	"loda/internal/lang"
	"loda/internal/mem"
	"loda/internal/number"
)

// triangularSrc computes the n-th triangular number (1+2+...+n) via a
// pure-decrement simple loop: the counter cell is touched only by its own
// sub, so IE's delta-iteration math applies cleanly.
const triangularSrc = `mov $1,0
lpb $0
  add $1,$0
  sub $0,1
lpe
mov $0,$1
`

// fibSrcIE reuses the counter cell itself as a shift register (mov $0,$2
// overwrites it with something other than its own decremented value), which
// IE must reject: see analyzeCounterUpdate.
const fibSrcIE = `mov $1,1
lpb $0
  sub $0,1
  mov $2,$1
  add $1,$0
  mov $0,$2
lpe
mov $0,$1
`

func runDirect(t *testing.T, in *interp.Interpreter, program *lang.Program, n int64) number.Number {
	t.Helper()
	m := mem.New()
	if err := m.Set(lang.InputCell, number.FromInt64(n)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := in.Run(program, m); err != nil {
		t.Fatalf("Run(%d): %v", n, err)
	}
	v, err := m.Get(lang.OutputCell)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return v
}

func TestInitAcceptsPureDecrementLoop(t *testing.T) {
	program, err := lang.Parse(triangularSrc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := interp.New(interp.Limits{MaxCycles: 100000}, nil)
	evaluator := New(in)
	if !evaluator.Init(program) {
		t.Fatal("expected Init to accept the triangular-number loop")
	}
	if evaluator.LoopCounterCell() != 0 {
		t.Errorf("loop counter cell = %d, want 0", evaluator.LoopCounterCell())
	}
	if evaluator.LoopCounterDecrement() != 1 {
		t.Errorf("decrement = %d, want 1", evaluator.LoopCounterDecrement())
	}
}

// TestInitRejectsCounterReuse covers the shift-register Fibonacci program
// from end-to-end scenario 1, which names it an IE-accepted case ("IE must
// accept it"). Its body writes the counter cell $0 twice ("sub $0,1" then
// "mov $0,$2"), which the §4.2 step 4 counter-update check rejects as
// ambiguous regardless of program identity: the original's checkLoopBody
// is not present in the retrieved reference sources to arbitrate the
// conflict between the two, so this module follows §4.2's stricter rule.
// Rejection here only withdraws acceleration; eval.Evaluator still falls
// back to interp.Interpreter and produces the correct Fibonacci terms, so
// the scenario's observable property (correct output) still holds, just
// not via the incremental path.
func TestInitRejectsCounterReuse(t *testing.T) {
	program, err := lang.Parse(fibSrcIE)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := interp.New(interp.Limits{MaxCycles: 100000}, nil)
	evaluator := New(in)
	if evaluator.Init(program) {
		t.Fatal("expected Init to reject a loop that overwrites its own counter cell")
	}
}

func TestNextMatchesInterpreter(t *testing.T) {
	program, err := lang.Parse(triangularSrc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	direct := interp.New(interp.Limits{MaxCycles: 100000}, nil)
	accel := interp.New(interp.Limits{MaxCycles: 100000}, nil)

	evaluator := New(accel)
	if !evaluator.Init(program) {
		t.Fatal("expected Init to succeed")
	}

	for n := int64(0); n < 8; n++ {
		want := runDirect(t, direct, program, n)
		got, _, err := evaluator.Next()
		if err != nil {
			t.Fatalf("Next() at n=%d: %v", n, err)
		}
		if !got.Eq(want) {
			t.Errorf("Next() at n=%d = %v, want %v", n, got, want)
		}
	}
}

func TestNextRejectsUnlessInitialized(t *testing.T) {
	in := interp.New(interp.Limits{}, nil)
	evaluator := New(in)
	if _, _, err := evaluator.Next(); err == nil {
		t.Fatal("expected an error calling Next before Init")
	}
}
