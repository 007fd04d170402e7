package rangean

import (
	"testing"

	"loda/internal/lang"
	"loda/internal/number"
)

func mustParse(t *testing.T, src string) *lang.Program {
	t.Helper()
	p, err := lang.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRangeSanity(t *testing.T) {
	program := mustParse(t, "mov $0,0\nadd $0,$0\n")
	a := NewAnalyzer(nil)
	ranges, err := a.Generate(program, number.FromInt64(100))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r := ranges.Get(0)
	if r.Lower.IsInf() || r.Lower.Sign() != 0 {
		t.Errorf("lower = %v, want 0", r.Lower)
	}
	if r.Upper.IsInf() {
		t.Errorf("upper = inf, want finite")
	}
}

func TestRangeMovKeepsInputBound(t *testing.T) {
	// $0 stays bounded by the declared input upper bound through a pure
	// copy; the analyzed upper bound must never exceed it.
	program := mustParse(t, "mov $1,$0\n")
	a := NewAnalyzer(nil)
	ranges, err := a.Generate(program, number.FromInt64(42))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r := ranges.Get(1)
	if r.Upper.IsInf() || r.Upper.Cmp(number.FromInt64(42)) != 0 {
		t.Errorf("$1 upper = %v, want 42", r.Upper)
	}
}

func TestRangeLoopJoinWidensOnGrowth(t *testing.T) {
	// Triangular-sum loop: $1 grows without a provable finite bound from
	// this analysis alone (it tracks $0 downward only), so the loop join
	// must widen $1's upper bound to infinity rather than under-claim a
	// finite one.
	program := mustParse(t, "mov $1,0\nlpb $0\n  add $1,$0\n  sub $0,1\nlpe\n")
	a := NewAnalyzer(nil)
	ranges, err := a.Generate(program, number.FromInt64(10))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r := ranges.Get(1)
	if !r.Lower.IsInf() && r.Lower.Sign() < 0 {
		t.Errorf("$1 lower = %v, want >= 0 or unbounded", r.Lower)
	}
	if !r.Upper.IsInf() {
		t.Errorf("$1 upper = %v, want unbounded (loop-carried growth)", r.Upper)
	}
}

func TestRangeRejectsIndirectOperand(t *testing.T) {
	program := mustParse(t, "mov $0,$$1\n")
	a := NewAnalyzer(nil)
	if _, err := a.Generate(program, number.Inf); err == nil {
		t.Fatal("expected an error for an indirect operand")
	}
}

func TestRangeRejectsClr(t *testing.T) {
	program := mustParse(t, "clr $0,3\n")
	a := NewAnalyzer(nil)
	if _, err := a.Generate(program, number.Inf); err == nil {
		t.Fatal("expected an error for clr")
	}
}

func TestRangeSeqUsesCalleeOutput(t *testing.T) {
	callee := mustParse(t, "mov $0,7\n")
	cache := &fakeRangeCache{programs: map[int64]*lang.Program{0: callee}}
	program := mustParse(t, "seq $0,0\n")
	a := NewAnalyzer(cache)
	ranges, err := a.Generate(program, number.Inf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r := ranges.Get(0)
	if !r.IsConstant() || r.Lower.Cmp(number.FromInt64(7)) != 0 {
		t.Errorf("$0 = %v, want constant 7", r)
	}
}

type fakeRangeCache struct {
	programs map[int64]*lang.Program
}

func (f *fakeRangeCache) Get(id int64) (*lang.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, errNoSuchProgram(id)
	}
	return p, nil
}

func errNoSuchProgram(id int64) error {
	return &noSuchProgramErr{id: id}
}

type noSuchProgramErr struct{ id int64 }

func (e *noSuchProgramErr) Error() string { return "no such program" }
