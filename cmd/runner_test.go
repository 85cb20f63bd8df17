package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/slx/internal/flow"
	"github.com/desertthunder/slx/internal/shared"
	tu "github.com/desertthunder/slx/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("reloads when a different config file is named", func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "other.toml")

			content := "[spotify]\npage_limit = 7\n"
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{ConfigPath: "config.toml"})

			app := &cli.Command{
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					runner.loadConfig(cmd)
					return nil
				},
			}
			if err := app.Run(context.Background(), []string{"test", "--config", configPath}); err != nil {
				t.Fatalf("command failed: %v", err)
			}

			if runner.configPath != configPath {
				t.Errorf("expected configPath %s, got %s", configPath, runner.configPath)
			}
			if runner.config.Spotify.PageLimit != 7 {
				t.Errorf("expected reloaded page limit 7, got %d", runner.config.Spotify.PageLimit)
			}
		})

		t.Run("keeps current settings when the file matches", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Spotify.PageLimit = 3
			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: "config.toml"})

			app := &cli.Command{
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					runner.loadConfig(cmd)
					return nil
				},
			}
			if err := app.Run(context.Background(), []string{"test"}); err != nil {
				t.Fatalf("command failed: %v", err)
			}

			if runner.config != config {
				t.Error("expected config to be unchanged")
			}
		})
	})

	t.Run("buildEngine", func(t *testing.T) {
		t.Run("fails without credentials", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Spotify.ClientID = ""
			config.Spotify.ClientSecret = ""
			runner := NewRunner(RunnerOpts{Config: config})

			_, _, err := runner.buildEngine()
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected missing credentials error, got %v", err)
			}
		})

		t.Run("assembles engine with credentials", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Spotify.ClientID = "id"
			config.Spotify.ClientSecret = "secret"
			config.Spotify.RedirectURI = "http://localhost:8080/callback"
			runner := NewRunner(RunnerOpts{Config: config})

			engine, tokens, err := runner.buildEngine()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if engine == nil || tokens == nil {
				t.Error("expected engine and token manager to be built")
			}
		})
	})

	t.Run("openRepository", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		config := shared.DefaultConfig()
		config.Database.Path = dbPath
		runner := NewRunner(RunnerOpts{Config: config})

		repo, cleanup, err := runner.openRepository()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer cleanup()

		if repo == nil {
			t.Fatal("expected repository to be created")
		}
		tu.AssertFileExists(t, dbPath)
	})

	t.Run("printProgress", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		progressCh := make(chan flow.ProgressUpdate, 4)
		progressCh <- flow.ProgressUpdate{Phase: flow.FetchLibrary, Step: 50, Total: 150, Message: "[50/150] Fetching liked songs..."}
		progressCh <- flow.ProgressUpdate{Phase: flow.FetchLibrary, Step: 100, Total: 150, Message: "[100/150] Fetching liked songs..."}
		progressCh <- flow.ProgressUpdate{Phase: flow.FetchLibrary, Step: 150, Total: 150, Message: "[150/150] Fetching liked songs..."}
		progressCh <- flow.ProgressUpdate{Phase: flow.Merge, Step: 1, Total: 1, Message: "Merging details into 150 records..."}
		close(progressCh)

		runner.printProgress(progressCh)

		result := output.String()
		if !strings.Contains(result, "→ [50/150] Fetching liked songs...") {
			t.Errorf("expected first phase update, got %q", result)
		}
		if strings.Contains(result, "[100/150]") {
			t.Errorf("expected intermediate updates to be elided, got %q", result)
		}
		if !strings.Contains(result, "[150/150]") {
			t.Errorf("expected final phase update, got %q", result)
		}
		if !strings.Contains(result, "→ Merging details into 150 records...") {
			t.Errorf("expected merge update, got %q", result)
		}
	})
}
