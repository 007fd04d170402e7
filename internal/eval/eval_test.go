package eval

import (
	"testing"

	"loda/internal/interp"
	"loda/internal/lang"
	"loda/internal/number"
)

const squareSrc = `mov $1,$0
mul $1,$0
mov $0,$1
`

func mustParse(t *testing.T, src string) *lang.Program {
	t.Helper()
	p, err := lang.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func newEvaluator() *Evaluator {
	in := interp.New(interp.Limits{}, nil)
	return New(Settings{NumTerms: 5}, in, nil)
}

func TestEvalProducesSquares(t *testing.T) {
	p := mustParse(t, squareSrc)
	e := newEvaluator()
	seq, steps, err := e.Eval(p, 5, true)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []int64{0, 1, 4, 9, 16}
	if seq.Len() != len(want) {
		t.Fatalf("got %d terms, want %d", seq.Len(), len(want))
	}
	for i, w := range want {
		if got, _ := seq.Terms[i].Int64(); got != w {
			t.Errorf("term %d = %d, want %d", i, got, w)
		}
	}
	if steps.Runs != int64(len(want)) {
		t.Errorf("steps.Runs = %d, want %d", steps.Runs, len(want))
	}
}

func TestCheckMatchesExpected(t *testing.T) {
	p := mustParse(t, squareSrc)
	e := newEvaluator()
	expected := lang.NewSequence(
		number.FromInt64(0), number.FromInt64(1), number.FromInt64(4),
		number.FromInt64(9), number.FromInt64(16),
	)
	status, _ := e.Check(p, expected, -1, 1)
	if status != OK {
		t.Fatalf("status = %s, want OK", status)
	}
}

func TestCheckDetectsWrongTerm(t *testing.T) {
	p := mustParse(t, squareSrc)
	e := newEvaluator()
	expected := lang.NewSequence(
		number.FromInt64(0), number.FromInt64(1), number.FromInt64(5),
	)
	status, _ := e.Check(p, expected, -1, 1)
	if status != ERROR {
		t.Fatalf("status = %s, want ERROR", status)
	}
}

func TestEvalTruncatesOnOverflowWithoutThrow(t *testing.T) {
	p := mustParse(t, "mov $1,1\ndiv $1,$0\nmov $0,$1\n")
	e := newEvaluator()
	seq, _, err := e.Eval(p, 3, false)
	if err != nil {
		t.Fatalf("Eval should swallow the error, got %v", err)
	}
	if seq.Len() >= 3 {
		t.Fatalf("expected a truncated sequence, got %d terms", seq.Len())
	}
}
