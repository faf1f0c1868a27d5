package observ

import (
	"strings"
	"testing"
)

func TestTimerReportSkipsUnitPhasesInTotal(t *testing.T) {
	tm := NewTimer()
	outer := tm.Begin("emit")
	inner := tm.BeginUnit("emit", "core")
	tm.End(inner, "4 vectors")
	tm.End(outer, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	if r.TotalMS != r.Phases[0].DurationMS {
		t.Fatalf("total %v must equal outer phase %v", r.TotalMS, r.Phases[0].DurationMS)
	}
	s := tm.Summary()
	if !strings.Contains(s, "emit[core]") || !strings.Contains(s, "// 4 vectors") {
		t.Fatalf("unexpected summary:\n%s", s)
	}
}
