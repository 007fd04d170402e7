package checker

import (
	"testing"

	"loda/internal/eval"
	"loda/internal/interp"
	"loda/internal/lang"
)

func mustParse(t *testing.T, src string) *lang.Program {
	t.Helper()
	p, err := lang.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func newChecker() *Checker {
	in := interp.New(interp.Limits{}, nil)
	e := eval.New(eval.Settings{NumTerms: extendedSeqLength}, in, nil)
	return New(e)
}

func TestCompareRejectsIdenticalPrograms(t *testing.T) {
	c := newChecker()
	p := mustParse(t, "mov $1,$0\nmul $1,$0\nmov $0,$1\n")
	q := mustParse(t, "mov $1,$0\nmul $1,$0\nmov $0,$1\n")
	if v := c.Compare(p, q, 1, true, 0); v != None {
		t.Errorf("Compare(identical) = %q, want empty", v)
	}
}

func TestCompareRejectsSelfReferencingSeq(t *testing.T) {
	c := newChecker()
	existing := mustParse(t, "mov $1,$0\n")
	optimized := mustParse(t, "seq $0,7\n")
	if v := c.Compare(existing, optimized, 7, true, 0); v != None {
		t.Errorf("Compare(self-referencing seq) = %q, want empty", v)
	}
}

func TestCompareFindsSimplerForBadConstant(t *testing.T) {
	c := newChecker()
	existing := mustParse(t, "mov $1,$0\nadd $1,200000\nmov $0,$1\n")
	optimized := mustParse(t, "mov $1,$0\nadd $1,5\nmov $0,$1\n")
	if v := c.Compare(existing, optimized, 1, true, 0); v != Simpler {
		t.Errorf("Compare = %q, want Simpler", v)
	}
}

func TestCompareFindsSimplerForIndirectOperand(t *testing.T) {
	c := newChecker()
	existing := mustParse(t, "mov $1,$0\nmov $$1,5\nmov $0,$1\n")
	optimized := mustParse(t, "mov $1,$0\nadd $1,5\nmov $0,$1\n")
	if v := c.Compare(existing, optimized, 1, true, 0); v != Simpler {
		t.Errorf("Compare = %q, want Simpler", v)
	}
}

func TestHasBadConstantDetectsLargePowerAndMagnitude(t *testing.T) {
	p := mustParse(t, "mov $1,128\n")
	if !hasBadConstant(p) {
		t.Error("expected 128 (2^7) to be flagged as a bad constant")
	}
	p2 := mustParse(t, "mov $1,200000\n")
	if !hasBadConstant(p2) {
		t.Error("expected 200000 to be flagged as a bad constant (> 100000)")
	}
	p3 := mustParse(t, "mov $1,5\n")
	if hasBadConstant(p3) {
		t.Error("did not expect 5 to be flagged as a bad constant")
	}
}
