package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/slx/internal/shared"
	"github.com/desertthunder/slx/internal/ui"
)

// runInteractive launches the terminal progress UI for a full pipeline run.
func (r *Runner) runInteractive(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/slx-run.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	engine, _, err := r.buildEngine()
	if err != nil {
		return err
	}

	if !cmd.Bool("no-store") {
		repo, cleanup, err := r.openRepository()
		if err != nil {
			return err
		}
		defer cleanup()
		engine.WithStore(repo)
	}

	model := ui.NewModel(ctx, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
