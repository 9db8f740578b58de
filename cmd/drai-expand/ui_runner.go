package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"drai/internal/pipeline"
	"drai/internal/ui"
)

type batchOutcome struct {
	results []pipeline.UnitResult
	err     error
}

// runBatchWithUI runs the batch in the background while a Bubble Tea
// program renders its progress events.
func runBatchWithUI(ctx context.Context, title string, units []pipeline.Options, jobs int) ([]pipeline.UnitResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	names := make([]string, len(units))
	withSink := make([]pipeline.Options, len(units))
	for i, u := range units {
		names[i] = u.Unit
		u.Progress = pipeline.ChannelSink{Ch: events}
		withSink[i] = u
	}

	go func() {
		res, err := pipeline.Batch(ctx, withSink, jobs)
		outcomeCh <- batchOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
