package store

import (
	"path/filepath"
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

func TestPutGetRoundTrips(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "loda.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	p := mustParse(t, "mov $1,$0\nmul $1,$0\nmov $0,$1\n")
	if err := c.Put(45, p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.Get(45)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.String() != p.String() {
		t.Errorf("round trip mismatch:\n got: %s\nwant: %s", got.String(), p.String())
	}
}

func TestGetUnknownIDFails(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "loda.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(999); err == nil {
		t.Fatal("expected an error for an unregistered id")
	}
}

func TestGetFailsAfterDelete(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "loda.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	p := mustParse(t, "mov $1,$0\n")
	if err := c.Put(7, p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := c.Get(7); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := c.Delete(7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(7); err == nil {
		t.Fatal("expected Get to fail after Delete (cache entry must not outlive the row)")
	}
}

func TestInvalidateForcesReread(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "loda.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	p1 := mustParse(t, "mov $1,$0\n")
	if err := c.Put(3, p1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := c.Get(3); err != nil {
		t.Fatalf("Get: %v", err)
	}

	p2 := mustParse(t, "mov $2,$0\n")
	if err := c.Put(3, p2); err != nil {
		t.Fatalf("Put (overwrite): %v", err)
	}
	c.Invalidate(3)

	got, err := c.Get(3)
	if err != nil {
		t.Fatalf("Get after Invalidate: %v", err)
	}
	if got.String() != p2.String() {
		t.Errorf("got %s, want refreshed %s", got.String(), p2.String())
	}
}
