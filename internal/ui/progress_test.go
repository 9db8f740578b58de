package ui

import (
	"errors"
	"strings"
	"testing"

	"drai/internal/pipeline"
)

func TestProgressModelTracksUnits(t *testing.T) {
	events := make(chan pipeline.Event)
	m := NewProgressModel("drai-expand batch", []string{"saxpy", "gemm"}, events).(*progressModel)

	m.Update(eventMsg(pipeline.Event{Unit: "saxpy", Stage: pipeline.StageExpand, Status: pipeline.StatusWorking}))
	m.Update(eventMsg(pipeline.Event{Unit: "gemm", Stage: pipeline.StageExpand, Status: pipeline.StatusError, Err: errors.New("symbol not found")}))
	m.Update(eventMsg(pipeline.Event{Unit: "unknown", Stage: pipeline.StageExpand, Status: pipeline.StatusDone}))

	if got := m.items[0].status; got != "rewriting" {
		t.Errorf("saxpy status = %q", got)
	}
	if m.items[1].status != "error" || m.items[1].err == nil {
		t.Errorf("gemm = %+v", m.items[1])
	}
	if got, want := m.percent(), (0.6+1.0)/2; got != want {
		t.Errorf("percent = %v, want %v", got, want)
	}
	view := m.View()
	for _, want := range []string{"drai-expand batch", "saxpy", "symbol not found"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	m.Update(doneMsg{})
	if !strings.Contains(m.View(), "done: ") {
		t.Errorf("finished view:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("kernels/saxpy.cu", 10); got != "kern..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a.cu", 10); got != "a.cu" {
		t.Errorf("truncate = %q", got)
	}
}
