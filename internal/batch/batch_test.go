package batch

import (
	"context"
	"testing"

	"loda/internal/eval"
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

func TestRunEvaluatesAllJobsIndependently(t *testing.T) {
	square := mustParse(t, "mov $1,$0\nmul $1,$0\nmov $0,$1\n")
	identity := mustParse(t, "mov $1,$0\nmov $0,$1\n")

	jobs := []Job{
		{Index: 0, ID: 100, Program: square},
		{Index: 1, ID: 101, Program: identity},
	}
	results, err := Run(context.Background(), jobs, Settings{EvalSettings: eval.Settings{NumTerms: 5}, Concurrency: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Errorf("job %d: %v", r.Index, r.Err)
		}
	}

	wantSquare := []int64{0, 1, 4, 9, 16}
	for i, w := range wantSquare {
		if got, _ := results[0].Sequence.Terms[i].Int64(); got != w {
			t.Errorf("square term %d = %d, want %d", i, got, w)
		}
	}
	wantIdentity := []int64{0, 1, 2, 3, 4}
	for i, w := range wantIdentity {
		if got, _ := results[1].Sequence.Terms[i].Int64(); got != w {
			t.Errorf("identity term %d = %d, want %d", i, got, w)
		}
	}

	if results[0].ID != 100 || results[1].ID != 101 {
		t.Errorf("ids not preserved: %d, %d", results[0].ID, results[1].ID)
	}
	if results[0].CorrelationID == results[1].CorrelationID {
		t.Error("expected distinct correlation ids per worker")
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	square := mustParse(t, "mov $1,$0\nmul $1,$0\nmov $0,$1\n")
	jobs := []Job{{Index: 0, ID: 1, Program: square}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, jobs, Settings{EvalSettings: eval.Settings{NumTerms: 5}})
	if err == nil {
		t.Fatal("expected Run to report the canceled context")
	}
}
