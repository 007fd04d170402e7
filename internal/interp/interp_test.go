package interp

import (
	"testing"

	"loda/internal/errs"
	"loda/internal/lang"
	"loda/internal/mem"
	"loda/internal/number"
)

const fibSrc = `mov $1,1
lpb $0
  sub $0,1
  mov $2,$1
  add $1,$0
  mov $0,$2
lpe
mov $0,$1
`

func evalOne(t *testing.T, in *Interpreter, program *lang.Program, input int64) number.Number {
	t.Helper()
	m := mem.New()
	if err := m.Set(lang.InputCell, number.FromInt64(input)); err != nil {
		t.Fatalf("Set input: %v", err)
	}
	if _, err := in.Run(program, m); err != nil {
		t.Fatalf("Run(input=%d): %v", input, err)
	}
	v, err := m.Get(lang.OutputCell)
	if err != nil {
		t.Fatalf("Get output: %v", err)
	}
	return v
}

func TestFibonacciSequence(t *testing.T) {
	program, err := lang.Parse(fibSrc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := New(Limits{MaxCycles: 100000, MaxMemory: 10000}, nil)

	want := []int64{1, 1, 2, 3, 5, 8, 13, 21, 34, 55}
	for i, w := range want {
		got := evalOne(t, in, program, int64(i))
		if iv, ok := got.Int64(); !ok || iv != w {
			t.Errorf("fib(%d) = %v, want %d", i, got, w)
		}
	}
}

func TestConstantProgram(t *testing.T) {
	program, err := lang.Parse("mov $0,42\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := New(Limits{}, nil)
	for i := int64(0); i < 5; i++ {
		got := evalOne(t, in, program, i)
		if iv, ok := got.Int64(); !ok || iv != 42 {
			t.Errorf("got %v, want 42", got)
		}
	}
}

func TestOverflowOnPow(t *testing.T) {
	program, err := lang.Parse("pow 2,$0\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := New(Limits{}, nil)
	m := mem.New()
	m.Set(lang.InputCell, number.FromInt64(10000))
	_, err = in.Run(program, m)
	if !errs.Is(err, errs.Overflow) {
		t.Fatalf("expected Overflow, got %v", err)
	}
}

func TestMaxCyclesExceeded(t *testing.T) {
	program, err := lang.Parse("lpb $0\n  sub $0,1\n  add $1,1\nlpe\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := New(Limits{MaxCycles: 5}, nil)
	m := mem.New()
	m.Set(lang.InputCell, number.FromInt64(1000))
	_, err = in.Run(program, m)
	if !errs.Is(err, errs.MaxCyclesExceeded) {
		t.Fatalf("expected MaxCyclesExceeded, got %v", err)
	}
}

func TestNegativeIndexFromIndirect(t *testing.T) {
	program, err := lang.Parse("mov $0,$$1\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := New(Limits{}, nil)
	m := mem.New()
	m.Set(1, number.FromInt64(-5))
	_, err = in.Run(program, m)
	if !errs.Is(err, errs.NegativeIndex) {
		t.Fatalf("expected NegativeIndex, got %v", err)
	}
}

// fakeCache implements ProgramCache for the recursion test below: program A
// calls SEQ into B, and program B calls SEQ back into A.
type fakeCache struct {
	programs map[int64]*lang.Program
}

func (f *fakeCache) Get(id int64) (*lang.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, errs.Newf(errs.InvalidOperand, "no program %d", id)
	}
	return p, nil
}

func TestSeqRecursionDetected(t *testing.T) {
	progA, err := lang.Parse("seq $0,1\n")
	if err != nil {
		t.Fatalf("Parse A: %v", err)
	}
	progB, err := lang.Parse("seq $0,0\n")
	if err != nil {
		t.Fatalf("Parse B: %v", err)
	}
	cache := &fakeCache{programs: map[int64]*lang.Program{0: progA, 1: progB}}
	in := New(Limits{MaxCycles: 1000}, cache)

	m := mem.New()
	m.Set(lang.InputCell, number.FromInt64(3))
	_, err = in.RunWithID(progA, m, 0)
	if !errs.Is(err, errs.Recursion) {
		t.Fatalf("expected Recursion, got %v", err)
	}
}

func TestClrClearsRegion(t *testing.T) {
	program, err := lang.Parse("clr $1,3\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := New(Limits{}, nil)
	m := mem.New()
	m.Set(1, number.FromInt64(1))
	m.Set(2, number.FromInt64(2))
	m.Set(3, number.FromInt64(3))
	if _, err := in.Run(program, m); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := int64(1); i <= 3; i++ {
		v, _ := m.Get(i)
		if !v.IsZero() {
			t.Errorf("cell %d = %v, want 0", i, v)
		}
	}
}

func TestRegionLoop(t *testing.T) {
	// lpb $1,2 treats [1,3) as a region counter; body decrements both cells
	// until neither cell is still decreasing in the region sense.
	program, err := lang.Parse("mov $1,3\nmov $2,3\nlpb $1,2\n  sub $1,1\n  sub $2,1\n  add $3,1\nlpe\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	in := New(Limits{MaxCycles: 100000}, nil)
	m := mem.New()
	if _, err := in.Run(program, m); err != nil {
		t.Fatalf("Run: %v", err)
	}
	v, _ := m.Get(3)
	if iv, ok := v.Int64(); !ok || iv < 1 {
		t.Errorf("expected the region loop to iterate at least once, got %v", v)
	}
}
