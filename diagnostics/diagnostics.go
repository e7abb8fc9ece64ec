package diagnostics

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/meysamhadeli/buildscope/constants/lipgloss"
	"github.com/meysamhadeli/buildscope/workspace/contracts"
)

// Terminal renders diagnostics on the console. Warnings with options become
// an interactive selection; progress is a shared progress bar re-created
// per reload.
type Terminal struct {
	progress *pterm.ProgressbarPrinter
}

func NewTerminal() contracts.IDiagnostics {
	return &Terminal{}
}

// ShowWarning prints a warning. When options are given, the user picks one
// and the selected option is returned.
func (t *Terminal) ShowWarning(message string, options ...string) (string, error) {
	fmt.Println(lipgloss.Yellow.Render(message))
	if len(options) == 0 {
		return "", nil
	}

	selected, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultOption(options[0]).
		Show("Choose how to proceed")
	if err != nil {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	return selected, nil
}

func (t *Terminal) ShowError(message string) {
	fmt.Println(lipgloss.Red.Render(message))
}

// ReportProgress advances the reload progress bar. An increment of zero
// just updates the title.
func (t *Terminal) ReportProgress(increment int, message string) {
	if t.progress == nil {
		started, err := pterm.DefaultProgressbar.
			WithTotal(100).
			WithTitle(message).
			Start()
		if err != nil {
			return
		}
		t.progress = started
	}

	t.progress.UpdateTitle(message)
	if increment > 0 {
		t.progress.Add(increment)
	}
	if t.progress.Current >= t.progress.Total {
		t.progress.Stop()
		t.progress = nil
	}
}

// Silent discards every diagnostic and answers prompts with the first
// option. Used by tests and non-interactive runs.
type Silent struct{}

func NewSilent() contracts.IDiagnostics {
	return &Silent{}
}

func (s *Silent) ShowWarning(_ string, options ...string) (string, error) {
	if len(options) > 0 {
		return options[0], nil
	}
	return "", nil
}

func (s *Silent) ShowError(string) {}

func (s *Silent) ReportProgress(int, string) {}
