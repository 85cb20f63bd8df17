package main

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/slx/internal/flow"
	"github.com/desertthunder/slx/internal/formatter"
)

// applyPipelineFlags layers command flags over the loaded configuration.
func (r *Runner) applyPipelineFlags(cmd *cli.Command) {
	if features := cmd.String("features"); features != "" {
		r.config.Spotify.AudioFeatures = features
	}
	if pages := cmd.Int("page-limit"); pages > 0 {
		r.config.Spotify.PageLimit = pages
	}
	if out := cmd.String("output"); out != "" {
		r.config.Output.Dir = out
	}
}

// Export pulls the liked-songs library and writes the minimal export file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	r.applyPipelineFlags(cmd)

	engine, _, err := r.buildEngine()
	if err != nil {
		return err
	}

	progressCh := make(chan flow.ProgressUpdate, 50)
	go r.printProgress(progressCh)

	exported, err := engine.Export(ctx, progressCh)
	close(progressCh)
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Exported %d liked songs to %s\n", len(exported), filepath.Join(r.config.Output.Dir, formatter.LikedSongsFile))
	return nil
}

// Enrich resolves full details for the records of a previous export.
func (r *Runner) Enrich(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	r.applyPipelineFlags(cmd)

	engine, _, err := r.buildEngine()
	if err != nil {
		return err
	}

	progressCh := make(chan flow.ProgressUpdate, 50)
	go r.printProgress(progressCh)

	enriched, skipped, err := engine.Enrich(ctx, progressCh)
	close(progressCh)
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Enriched %d tracks\n", len(enriched))
	if len(skipped) > 0 {
		r.writePlain("⚠ Skipped %d lookups, see %s\n", len(skipped), filepath.Join(r.config.Output.Dir, formatter.SkippedFeaturesFile))
	}
	return nil
}

// Compact filters enriched records down to the compact projection.
func (r *Runner) Compact(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	r.applyPipelineFlags(cmd)

	engine, _, err := r.buildEngine()
	if err != nil {
		return err
	}

	progressCh := make(chan flow.ProgressUpdate, 50)
	go r.printProgress(progressCh)

	compacted, err := engine.Compact(ctx, progressCh)
	close(progressCh)
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Compacted library written to %s (%d tracks)\n", filepath.Join(r.config.Output.Dir, formatter.CompactFile), len(compacted))
	return nil
}

// Run executes the full pipeline end to end.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	r.applyPipelineFlags(cmd)

	if cmd.Bool("interactive") {
		return r.runInteractive(ctx, cmd)
	}

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

	progressCh := make(chan flow.ProgressUpdate, 50)
	go r.printProgress(progressCh)

	result, err := engine.Run(ctx, progressCh)
	close(progressCh)
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d tracks\n", len(result.Exported))
	r.writePlain("Enriched: %d tracks\n", len(result.Enriched))
	r.writePlain("Compacted: %d tracks\n", len(result.Compacted))

	if len(result.Skipped) > 0 {
		r.writePlain("\nSkipped %d lookups:\n", len(result.Skipped))
		for _, skip := range result.Skipped {
			if skip.Status != nil {
				r.writePlain("  - %s (status %d)\n", skip.TrackID, *skip.Status)
			} else {
				r.writePlain("  - %s (%s)\n", skip.TrackID, skip.Error)
			}
		}
	}

	return nil
}
