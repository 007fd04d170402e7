package minimizer

import (
	"testing"

	"loda/internal/eval"
	"loda/internal/interp"
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

func newMinimizer() *Minimizer {
	in := interp.New(interp.Limits{}, nil)
	e := eval.New(eval.Settings{NumTerms: 5}, in, nil)
	return New(Settings{}, e)
}

func TestGetPowerOfRecognizesExactPower(t *testing.T) {
	if got := GetPowerOf(number.FromInt64(128)); got != 2 {
		t.Errorf("GetPowerOf(128) = %d, want 2", got)
	}
	if got := GetPowerOf(number.FromInt64(100)); got != 0 {
		t.Errorf("GetPowerOf(100) = %d, want 0 (10^2, below base 10's minimum exponent 4)", got)
	}
	if got := GetPowerOf(number.FromInt64(6)); got != 0 {
		t.Errorf("GetPowerOf(6) = %d, want 0 (too small to meet any minimum exponent)", got)
	}
}

func TestReplaceClrExpandsToMovs(t *testing.T) {
	p := mustParse(t, "clr $1,3\n")
	m := newMinimizer()
	if !m.replaceClr(p) {
		t.Fatal("expected replaceClr to report a change")
	}
	if len(p.Ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(p.Ops))
	}
	for i, op := range p.Ops {
		if op.Type != lang.MOV {
			t.Errorf("op %d: got %s, want mov", i, op.Type)
		}
		if c, _ := op.Target.Value.Int64(); c != int64(1+i) {
			t.Errorf("op %d targets cell %d, want %d", i, c, 1+i)
		}
	}
}

func TestFindConstantLoopDetectsShape(t *testing.T) {
	p := mustParse(t, "mov $1,500\nlpb $1,1\n  sub $1,1\nlpe\n")
	has, idx, val := FindConstantLoop(p)
	if !has {
		t.Fatal("expected a constant loop to be found")
	}
	if idx != 1 {
		t.Errorf("index = %d, want 1", idx)
	}
	if got, _ := val.Int64(); got != 500 {
		t.Errorf("constant = %d, want 500", got)
	}
}

func TestMinimizeReducesRedundantIdentity(t *testing.T) {
	p := mustParse(t, "mov $1,$0\nadd $2,0\nmov $0,$1\n")
	m := newMinimizer()
	if !m.Minimize(p, 5) {
		t.Fatal("expected Minimize to report a change")
	}
	if len(p.Ops) != 1 {
		t.Fatalf("got %d ops, want 1 (%v)", len(p.Ops), p.Ops)
	}
}
