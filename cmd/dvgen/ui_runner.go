package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dvgen/internal/buildpipeline"
	"dvgen/internal/ui"
)

type buildOutcome struct {
	result buildpipeline.BuildResult
	err    error
}

type layoutOutcome struct {
	result buildpipeline.LayoutResult
	err    error
}

// runWithUI drives the progress view while work runs on its own goroutine.
// work must stop sending to events before it returns.
func runWithUI(title string, work func(sink buildpipeline.ProgressSink)) error {
	events := make(chan buildpipeline.Event, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		work(buildpipeline.ChannelSink{Ch: events})
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// drain so the worker never blocks on a full channel after the UI quit
	for range events {
	}
	<-done
	return uiErr
}

func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	if req == nil {
		return buildpipeline.BuildResult{}, fmt.Errorf("missing build request")
	}
	var outcome buildOutcome
	uiErr := runWithUI(title, func(sink buildpipeline.ProgressSink) {
		reqCopy := *req
		reqCopy.Progress = sink
		outcome.result, outcome.err = buildpipeline.Build(ctx, &reqCopy)
	})
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

func runLayoutsWithUI(ctx context.Context, title string, req *buildpipeline.LayoutRequest) (buildpipeline.LayoutResult, error) {
	if req == nil {
		return buildpipeline.LayoutResult{}, fmt.Errorf("missing layout request")
	}
	var outcome layoutOutcome
	uiErr := runWithUI(title, func(sink buildpipeline.ProgressSink) {
		reqCopy := *req
		reqCopy.Progress = sink
		outcome.result, outcome.err = buildpipeline.Layouts(ctx, &reqCopy)
	})
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
