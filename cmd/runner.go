package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/slx/internal/flow"
	"github.com/desertthunder/slx/internal/formatter"
	"github.com/desertthunder/slx/internal/repositories"
	"github.com/desertthunder/slx/internal/shared"
	"github.com/desertthunder/slx/internal/spotify"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, exportCommand, enrichCommand, compactCommand, runCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads configuration when the command names a config file that
// differs from the one loaded at startup.
func (r *Runner) loadConfig(cmd *cli.Command) {
	configPath := cmd.String("config")
	if configPath == "" || configPath == r.configPath {
		return
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current settings", "path", configPath, "error", err)
		return
	}
	r.config = config
	r.configPath = configPath
}

// buildEngine assembles the pipeline engine from the current configuration.
func (r *Runner) buildEngine() (*flow.Engine, *spotify.TokenManager, error) {
	if err := r.config.Validate(); err != nil {
		return nil, nil, err
	}

	tokens, err := spotify.NewTokenManager(r.config, r.logger)
	if err != nil {
		return nil, nil, err
	}

	client := spotify.NewClient(spotify.NewTransport(r.logger), r.logger)
	outputs := formatter.NewOutputSet(r.config.Output.Dir, r.logger)
	return flow.NewEngine(client, tokens, outputs, r.config, r.logger), tokens, nil
}

// openRepository opens the configured database and prepares the schema.
func (r *Runner) openRepository() (*repositories.TrackRepository, func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repositories.NewTrackRepository(db), func() { db.Close() }, nil
}

// printProgress renders pipeline progress updates until the channel closes.
func (r *Runner) printProgress(progress <-chan flow.ProgressUpdate) {
	var lastPhase flow.Phase = -1
	for update := range progress {
		if update.Phase != lastPhase {
			lastPhase = update.Phase
			r.writePlain("→ %s\n", update.Message)
			continue
		}
		if update.Total > 1 && update.Step == update.Total {
			r.writePlain("  %s\n", update.Message)
		}
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
