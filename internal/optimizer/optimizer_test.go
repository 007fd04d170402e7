package optimizer

import (
	"testing"

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

func TestRemoveNops(t *testing.T) {
	p := mustParse(t, "mov $1,$0\n\nadd $1,1\n")
	o := New(0)
	if !o.removeNops(p) {
		t.Fatal("expected removeNops to report a change")
	}
	if p.NumOps(true) != 2 {
		t.Fatalf("got %d ops, want 2", p.NumOps(true))
	}
}

func TestRemoveEmptyLoops(t *testing.T) {
	p := mustParse(t, "mov $1,$0\nlpb $0\nlpe\nadd $1,1\n")
	o := New(0)
	if !o.removeEmptyLoops(p) {
		t.Fatal("expected removeEmptyLoops to report a change")
	}
	if p.NumOps(true) != 2 {
		t.Fatalf("got %d ops, want 2", p.NumOps(true))
	}
}

func TestSimplifyOperationsAddOnUnsetBecomesMov(t *testing.T) {
	p := mustParse(t, "add $1,$0\n")
	o := New(0)
	if !o.simplifyOperations(p) {
		t.Fatal("expected a simplification")
	}
	if p.Ops[0].Type != lang.MOV {
		t.Errorf("got %s, want mov", p.Ops[0].Type)
	}
}

func TestSimplifyOperationsSelfSubBecomesMovZero(t *testing.T) {
	p := mustParse(t, "mov $1,5\nsub $1,$1\n")
	o := New(0)
	o.simplifyOperations(p)
	if p.Ops[1].Type != lang.MOV || !p.Ops[1].Source.Value.IsZero() {
		t.Errorf("got %s %v, want mov 0", p.Ops[1].Type, p.Ops[1].Source)
	}
}

func TestMergeOpsFusesConsecutiveAdds(t *testing.T) {
	p := mustParse(t, "add $0,3\nadd $0,4\n")
	o := New(0)
	if !o.mergeOps(p) {
		t.Fatal("expected a merge")
	}
	if p.NumOps(true) != 1 || p.Ops[0].Type != lang.ADD {
		t.Fatalf("got %v", p.Ops)
	}
	if got, _ := p.Ops[0].Source.Value.Int64(); got != 7 {
		t.Errorf("add constant = %d, want 7", got)
	}
}

func TestMergeOpsMovConstantOverwritesPriorWrite(t *testing.T) {
	p := mustParse(t, "add $0,3\nmov $0,9\n")
	o := New(0)
	if !o.mergeOps(p) {
		t.Fatal("expected a merge")
	}
	if p.NumOps(true) != 1 || p.Ops[0].Type != lang.MOV {
		t.Fatalf("got %v", p.Ops)
	}
}

func TestMergeRepeatedAddsCollapseToMul(t *testing.T) {
	p := mustParse(t, "add $0,$1\nadd $0,$1\nadd $0,$1\n")
	o := New(0)
	if !o.mergeRepeated(p) {
		t.Fatal("expected mergeRepeated to report a change")
	}
	foundMul := false
	for _, op := range p.Ops {
		if op.Type == lang.MUL {
			foundMul = true
		}
	}
	if !foundMul {
		t.Errorf("expected a mul op in %v", p.Ops)
	}
}

func TestCollapseMovLoopsZero(t *testing.T) {
	p := mustParse(t, "lpb $0,1\nmov $0,0\nlpe\n")
	o := New(0)
	if !o.collapseMovLoops(p) {
		t.Fatal("expected a collapse")
	}
	if p.NumOps(true) != 1 || p.Ops[0].Type != lang.MOV {
		t.Fatalf("got %v", p.Ops)
	}
}

func TestMergeLoopsMergesNestedIdenticalHeaders(t *testing.T) {
	p := mustParse(t, "lpb $0,1\nlpb $0,1\nadd $1,1\nlpe\nlpe\n")
	o := New(0)
	if !o.mergeLoops(p) {
		t.Fatal("expected mergeLoops to report a change")
	}
	begins, ends := 0, 0
	for _, op := range p.Ops {
		if op.Type == lang.LPB {
			begins++
		}
		if op.Type == lang.LPE {
			ends++
		}
	}
	if begins != 1 || ends != 1 {
		t.Fatalf("got %d lpb / %d lpe, want 1/1", begins, ends)
	}
}

func TestCollapseArithmeticLoopsClosesForm(t *testing.T) {
	p := mustParse(t, "lpb $0,1\nsub $0,1\nadd $2,$1\nlpe\n")
	o := New(0)
	if !o.collapseArithmeticLoops(p) {
		t.Fatal("expected a collapse")
	}
	for _, op := range p.Ops {
		if op.Type == lang.LPB || op.Type == lang.LPE {
			t.Fatalf("loop should be gone, got %v", p.Ops)
		}
	}
}

func TestOptimizeReachesFixedPointWithoutPanicking(t *testing.T) {
	p := mustParse(t, "mov $1,0\nlpb $0\n  add $1,$0\n  sub $0,1\nlpe\nadd $1,0\n")
	o := New(0)
	o.Optimize(p)
	if err := p.Validate(); err != nil {
		t.Fatalf("optimized program is invalid: %v", err)
	}
}

func TestPartialEvalFoldsConstantArithmetic(t *testing.T) {
	p := mustParse(t, "mov $1,2\nadd $1,3\nmov $2,$1\n")
	o := New(0)
	if !o.partialEval(p) {
		t.Fatal("expected partialEval to report a change")
	}
	if p.Ops[1].Type != lang.MOV {
		t.Errorf("add should fold to a mov, got %s", p.Ops[1].Type)
	}
}

func TestReduceMemoryCellsFillsGap(t *testing.T) {
	p := mustParse(t, "mov $5,$0\nadd $5,1\n")
	o := New(0)
	if !o.reduceMemoryCells(p) {
		t.Fatal("expected reduceMemoryCells to report a change")
	}
	for _, op := range p.Ops {
		if op.Target.Type == lang.Direct {
			if c, _ := op.Target.Value.Int64(); c == 5 {
				t.Errorf("cell 5 should have been renamed, got %v", p.Ops)
			}
		}
	}
}
