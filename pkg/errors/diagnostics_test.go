package errors

import (
	"strings"
	"testing"
)

func TestDiagnosticsAddDeduplicates(t *testing.T) {
	var ds Diagnostics
	ds.Add(Degenerate("bu-x", "allocated GPU is 0"))
	ds.Add(Degenerate("bu-x", "allocated GPU is 0"))
	ds.Add(Malformed("org-a", "lender %q not found", "bu-y"))

	if len(ds) != 2 {
		t.Fatalf("len = %d, want 2", len(ds))
	}
	if got := ds.Count(ErrCodeDegenerateAllocation); got != 1 {
		t.Errorf("Count(degenerate) = %d, want 1", got)
	}
	if got := ds.Count(ErrCodeMalformedHierarchy); got != 1 {
		t.Errorf("Count(malformed) = %d, want 1", got)
	}
}

func TestDiagnosticsForNode(t *testing.T) {
	var ds Diagnostics
	ds.Add(Degenerate("a", "zero"))
	ds.Add(Malformed("b", "bad"))
	ds.Add(Malformed("a", "also bad"))

	got := ds.ForNode("a")
	if len(got) != 2 {
		t.Fatalf("ForNode(a) = %d diagnostics, want 2", len(got))
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Malformed("org-prod", "lender %q not found", "bu-z")
	want := `MALFORMED_HIERARCHY [org-prod]: lender "bu-z" not found`
	if d.String() != want {
		t.Errorf("String() = %q, want %q", d.String(), want)
	}

	d = Diagnostic{Code: ErrCodeDegenerateAllocation, Message: "cluster has no GPUs"}
	if d.String() != "DEGENERATE_ALLOCATION: cluster has no GPUs" {
		t.Errorf("String() = %q", d.String())
	}
}

func TestDiagnosticsErr(t *testing.T) {
	var ds Diagnostics
	if ds.Err() != nil {
		t.Error("empty diagnostics should produce nil error")
	}

	ds.Add(Degenerate("bu-x", "allocated GPU is 0"))
	err := ds.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !Is(err, ErrCodeDegenerateAllocation) {
		t.Errorf("code = %v, want %v", GetCode(err), ErrCodeDegenerateAllocation)
	}
	if !strings.Contains(err.Error(), "bu-x") {
		t.Errorf("error %q should mention node", err)
	}
}
