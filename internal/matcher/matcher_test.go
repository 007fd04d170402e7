package matcher

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

func evalSeq(t *testing.T, p *lang.Program, n int64) lang.Sequence {
	t.Helper()
	in := interp.New(interp.Limits{}, nil)
	e := eval.New(eval.Settings{NumTerms: n}, in, nil)
	seq, _, err := e.Eval(p, n, true)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	return seq
}

func nums(vs ...int64) []number.Number {
	out := make([]number.Number, len(vs))
	for i, v := range vs {
		out[i] = number.FromInt64(v)
	}
	return out
}

func TestReduceLinearStripsOffsetAndFactor(t *testing.T) {
	seq := nums(4, 6, 8, 10)
	line := reduceLinear(seq)
	if got, _ := line.Offset.Int64(); got != 4 {
		t.Errorf("offset = %d, want 4", got)
	}
	if got, _ := line.Factor.Int64(); got != 2 {
		t.Errorf("factor = %d, want 2", got)
	}
	want := []int64{0, 1, 2, 3}
	for i, w := range want {
		if got, _ := seq[i].Int64(); got != w {
			t.Errorf("term %d = %d, want %d", i, got, w)
		}
	}
}

func TestReduceDigitPicksMostFrequentResidue(t *testing.T) {
	seq := nums(1, 1, 1, 2)
	index := reduceDigit(seq, 10)
	if index != 1 {
		t.Errorf("index = %d, want 1", index)
	}
	if got, _ := seq[0].Int64(); got != 0 {
		t.Errorf("term 0 = %d, want 0", got)
	}
}

// squaresPlusOne produces 1, 2, 5, 10, 17 (n^2+1): a linear1 reduction (no
// common factor across 1,2,5,10,17, only an offset of 1 from n^2) should
// extend right back into it from the plain n^2 program.
func TestLinearMatcherExtendsIntoOffsetSequence(t *testing.T) {
	squareSrc := "mov $1,$0\nmul $1,$0\nmov $0,$1\n"
	squarePlusOneSrc := "mov $1,$0\nmul $1,$0\nmov $0,$1\nadd $0,1\n"

	target := evalSeq(t, mustParse(t, squarePlusOneSrc), 5)

	m := NewLinear1(false)
	m.Insert(target, 1)

	candidate := mustParse(t, squareSrc)
	candidateSeq := evalSeq(t, candidate, 5)

	hits := m.Match(candidate, candidateSeq)
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].ID != 1 {
		t.Fatalf("hit id = %d, want 1", hits[0].ID)
	}

	got := evalSeq(t, hits[0].Program, 5)
	if !got.Eq(target) {
		t.Errorf("extended program produced %s, want %s", got.String(), target.String())
	}
}

func TestDirectMatcherOnlyMatchesExactSequence(t *testing.T) {
	squareSrc := "mov $1,$0\nmul $1,$0\nmov $0,$1\n"
	target := evalSeq(t, mustParse(t, squareSrc), 5)

	m := NewDirect(false)
	m.Insert(target, 7)

	candidate := mustParse(t, squareSrc)
	candidateSeq := evalSeq(t, candidate, 5)
	hits := m.Match(candidate, candidateSeq)
	if len(hits) != 1 || hits[0].ID != 7 {
		t.Fatalf("expected exactly one hit for id 7, got %v", hits)
	}
}

func TestIndexFansOutAcrossMatchers(t *testing.T) {
	squareSrc := "mov $1,$0\nmul $1,$0\nmov $0,$1\n"
	target := evalSeq(t, mustParse(t, squareSrc), 5)

	idx := Default()
	idx.Insert(target, 42)

	candidate := mustParse(t, squareSrc)
	candidateSeq := evalSeq(t, candidate, 5)
	hits := idx.Match(candidate, candidateSeq)
	if len(hits) == 0 {
		t.Fatal("expected at least the direct matcher to hit")
	}
	found := false
	for _, h := range hits {
		if h.ID == 42 {
			found = true
		}
	}
	if !found {
		t.Error("expected id 42 among the hits")
	}
}
