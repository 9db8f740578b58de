package observ

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	if err := tm.Measure("expand-macro", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := tm.Measure("drai-expand", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Measure must return fn's error, got %v", err)
	}
	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("want 2 phases, got %d", len(rep.Phases))
	}
	if rep.Phases[0].Name != "expand-macro" || rep.Phases[1].Note != "failed" {
		t.Errorf("unexpected phases: %+v", rep.Phases)
	}
	sum := tm.Summary()
	for _, want := range []string{"timings:", "expand-macro", "// failed", "total"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary lacks %q:\n%s", want, sum)
		}
	}
}

func TestTimerConcurrentUse(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("unit"), "")
		}()
	}
	wg.Wait()
	if n := len(tm.Report().Phases); n != 16 {
		t.Fatalf("want 16 phases, got %d", n)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if rep := tm.Report(); len(rep.Phases) != 0 {
		t.Fatalf("nil timer reported phases: %+v", rep)
	}
}
