package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dotgate/internal/driver"
	"dotgate/internal/ui"
)

type checkOutcome struct {
	run *driver.Run
	err error
}

func runCheckWithUI(ctx context.Context, title string, files []string, opts driver.Options) (*driver.Run, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelProgress(events)
		run, err := driver.VerifyAll(ctx, files, optsCopy)
		outcomeCh <- checkOutcome{run: run, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.run, uiErr
	}
	return outcome.run, outcome.err
}
