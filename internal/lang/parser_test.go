package lang

import (
	"strings"
	"testing"

	"loda/internal/number"
)

const fibProgram = `#offset 0
mov $1,1
lpb $0
  sub $0,1
  mov $2,$1
  add $1,$0
  mov $0,$2
lpe
mov $0,$1
`

func TestParseFibonacci(t *testing.T) {
	p, err := Parse(fibProgram)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := p.Directive("offset"); !ok || v != 0 {
		t.Errorf("offset directive = %v, %v", v, ok)
	}
	// nop(directive line is consumed, not an op), mov,lpb,sub,mov,add,mov,lpe,mov = 8 ops
	if got := p.NumOps(false); got != 8 {
		t.Errorf("NumOps = %d, want 8", got)
	}
	if p.Ops[1].Type != LPB {
		t.Errorf("expected second op to be lpb, got %v", p.Ops[1].Type)
	}
	if !p.Ops[1].Source.Eq(NewConstant(number.One)) {
		t.Errorf("lpb source should default to constant 1")
	}
}

func TestRoundTrip(t *testing.T) {
	p, err := Parse(fibProgram)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	printed := Print(p)
	p2, err := Parse(printed)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if !p.Eq(p2) {
		t.Errorf("round trip changed program semantics:\n%s\n---\n%s", printed, Print(p2))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"bogus $0,1",
		"add $0",
		"mov $-1,1",
		"mov $0,1,2",
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("expected parse error for %q", c)
		}
	}
}

func TestUnbalancedLoops(t *testing.T) {
	if _, err := Parse("lpb $0\nadd $0,1\n"); err == nil {
		t.Errorf("expected unbalanced-loop error")
	}
}

func TestCommentsAndBlankLinesPreserved(t *testing.T) {
	src := "mov $0,1\n\n; a comment\nadd $0,1\n"
	p, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Ops) != 4 {
		t.Fatalf("expected 4 ops (incl. blank+comment nops), got %d", len(p.Ops))
	}
	if p.Ops[1].Type != NOP || p.Ops[1].Comment != "" {
		t.Errorf("blank line should be a bare NOP")
	}
	if p.Ops[2].Type != NOP || p.Ops[2].Comment != "a comment" {
		t.Errorf("comment line should be a NOP carrying the comment, got %+v", p.Ops[2])
	}
	printed := Print(p)
	if !strings.Contains(printed, "a comment") {
		t.Errorf("printed program should retain the comment")
	}
}
