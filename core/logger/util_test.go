package logger

import (
	"errors"
	"testing"
	"time"
)

func TestPreview(t *testing.T) {
	files := []string{"001_a.up.sql", "002_b.up.sql", "003_c.up.sql"}
	if got := Preview(files, 2); got != "001_a.up.sql, 002_b.up.sql +1 more" {
		t.Fatalf("Preview = %q", got)
	}
	if got := Preview(files, 0); got != "001_a.up.sql, 002_b.up.sql, 003_c.up.sql" {
		t.Fatalf("Preview unlimited = %q", got)
	}
	if got := Preview(nil, 3); got != "" {
		t.Fatalf("Preview(nil) = %q", got)
	}
}

func TestStatusAndErr(t *testing.T) {
	if Status(nil) != "ok" || Status(errors.New("x")) != "fail" {
		t.Fatal("unexpected status mapping")
	}
	if a := Err(errors.New("boom")); a.Key != "err" || a.Value.String() != "boom" {
		t.Fatalf("Err = %v", a)
	}
	if a := Err(nil); a.Value.String() != "" {
		t.Fatalf("Err(nil) = %v", a)
	}
	if RoundMS(-time.Second) != 0 || RoundMS(1499*time.Microsecond) != time.Millisecond {
		t.Fatal("unexpected rounding")
	}
}
