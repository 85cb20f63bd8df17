// package flow orchestrates the export, enrichment and compaction pipeline.
//
// The core abstraction is Engine, which runs each pipeline stage strictly
// sequentially: every stage's next request depends on the previous result,
// and the provider's per-key rate limiting makes request fan-out
// counterproductive. Stages emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package flow

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/slx/internal/formatter"
	"github.com/desertthunder/slx/internal/models"
	"github.com/desertthunder/slx/internal/shared"
	"github.com/desertthunder/slx/internal/spotify"
)

// TrackStore persists enriched records for the query API. Implemented by the
// repositories package; abstracted here so the pipeline can run without a
// database.
type TrackStore interface {
	SaveTracks(ctx context.Context, tracks []models.EnrichedTrack) error
}

// RunResult contains the record counts and outputs of a full pipeline run.
type RunResult struct {
	Exported  []models.LikedTrack
	Enriched  []models.EnrichedTrack
	Compacted []models.CompactTrack
	Skipped   []models.SkippedTrack
}

// Engine orchestrates the pipeline stages against the Spotify client and the
// output directory.
type Engine struct {
	client  *spotify.Client
	tokens  *spotify.TokenManager
	outputs *formatter.OutputSet
	config  *shared.Config
	logger  *log.Logger
	store   TrackStore
}

// NewEngine creates an engine with the provided dependencies.
func NewEngine(client *spotify.Client, tokens *spotify.TokenManager, outputs *formatter.OutputSet, config *shared.Config, logger *log.Logger) *Engine {
	return &Engine{
		client:  client,
		tokens:  tokens,
		outputs: outputs,
		config:  config,
		logger:  logger,
	}
}

// WithStore attaches a database store; Run persists enriched records through
// it after compaction.
func (e *Engine) WithStore(store TrackStore) *Engine {
	e.store = store
	return e
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Export pulls the user's entire liked-songs library and writes the minimal
// export records.
func (e *Engine) Export(ctx context.Context, progress chan<- ProgressUpdate) ([]models.LikedTrack, error) {
	e.sendProgress(progress, authorizeUpdate())
	token, err := e.tokens.UserToken(ctx)
	if err != nil {
		return nil, err
	}

	items, err := e.client.AllSavedTracks(ctx, token, e.config.Spotify.PageLimit, func(fetched, total int) {
		e.sendProgress(progress, fetchLibraryUpdate(fetched, total))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: library fetch failed: %w", shared.ErrFlowFailed, err)
	}

	exported := make([]models.LikedTrack, 0, len(items))
	for _, item := range items {
		// Soft-deleted entries come back with a null track.
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		refs := make([]models.ArtistRef, 0, len(item.Track.Artists))
		for _, artist := range item.Track.Artists {
			refs = append(refs, models.ArtistRef{ID: artist.ID, Name: artist.Name})
		}
		exported = append(exported, models.LikedTrack{
			TrackID:   item.Track.ID,
			TrackName: item.Track.Name,
			Artists:   refs,
			AddedAt:   item.AddedAt,
		})
	}

	e.sendProgress(progress, writeOutputUpdate(formatter.LikedSongsFile))
	if err := e.outputs.WriteLikedSongs(exported); err != nil {
		return nil, err
	}

	e.logger.Info("export complete", "tracks", len(exported))
	return exported, nil
}

// Enrich loads the export records from a previous run and enriches them with
// track, artist, album and audio-feature details.
func (e *Engine) Enrich(ctx context.Context, progress chan<- ProgressUpdate) ([]models.EnrichedTrack, []models.SkippedTrack, error) {
	base, err := e.outputs.ReadLikedSongs()
	if err != nil {
		return nil, nil, err
	}
	return e.enrichBase(ctx, progress, base)
}

// Compact loads the enriched records from a previous run and writes their
// compacted projection.
func (e *Engine) Compact(ctx context.Context, progress chan<- ProgressUpdate) ([]models.CompactTrack, error) {
	enriched, err := e.outputs.ReadEnriched()
	if err != nil {
		return nil, err
	}
	return e.compactRecords(enriched, progress)
}

// Run executes the full pipeline: export, enrich, compact, and store when a
// database store is attached.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	exported, err := e.Export(ctx, progress)
	if err != nil {
		return nil, err
	}

	enriched, skipped, err := e.enrichBase(ctx, progress, exported)
	if err != nil {
		return nil, err
	}

	compacted, err := e.compactRecords(enriched, progress)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		e.sendProgress(progress, storeDatabaseUpdate(0, len(enriched)))
		if err := e.store.SaveTracks(ctx, enriched); err != nil {
			return nil, err
		}
		e.sendProgress(progress, storeDatabaseUpdate(len(enriched), len(enriched)))
		e.logger.Info("stored tracks", "count", len(enriched))
	}

	return &RunResult{
		Exported:  exported,
		Enriched:  enriched,
		Compacted: compacted,
		Skipped:   skipped,
	}, nil
}

func (e *Engine) enrichBase(ctx context.Context, progress chan<- ProgressUpdate, base []models.LikedTrack) ([]models.EnrichedTrack, []models.SkippedTrack, error) {
	e.sendProgress(progress, authorizeUpdate())
	userToken, err := e.tokens.UserToken(ctx)
	if err != nil {
		return nil, nil, err
	}
	catalogTokens := []string{userToken}

	trackIDs := make([]string, 0, len(base))
	for _, record := range base {
		trackIDs = append(trackIDs, record.TrackID)
	}

	trackDetails, trackSkips, err := e.client.TrackDetails(ctx, catalogTokens, trackIDs, func(processed, total int) {
		e.sendProgress(progress, enrichUpdate(EnrichTracks, "track", processed, total))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: track enrichment failed: %w", shared.ErrFlowFailed, err)
	}

	var artistIDs, albumIDs []string
	for _, detail := range trackDetails {
		for _, artist := range detail.Artists {
			artistIDs = append(artistIDs, artist.ID)
		}
		albumIDs = append(albumIDs, detail.Album.ID)
	}

	artistDetails, artistSkips, err := e.client.ArtistDetails(ctx, catalogTokens, artistIDs, func(processed, total int) {
		e.sendProgress(progress, enrichUpdate(EnrichArtists, "artist", processed, total))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: artist enrichment failed: %w", shared.ErrFlowFailed, err)
	}

	albumDetails, albumSkips, err := e.client.AlbumDetails(ctx, catalogTokens, albumIDs, func(processed, total int) {
		e.sendProgress(progress, enrichUpdate(EnrichAlbums, "album", processed, total))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: album enrichment failed: %w", shared.ErrFlowFailed, err)
	}

	e.sendProgress(progress, mergeUpdate(len(base)))
	enriched := MergeDetails(base, trackDetails, artistDetails, albumDetails, e.logger)

	skipped := append(append(trackSkips, artistSkips...), albumSkips...)

	mode, err := e.config.FeaturesMode()
	if err != nil {
		return nil, nil, err
	}
	if mode != shared.FeaturesNone {
		featureSkips, err := e.attachAudioFeatures(ctx, progress, enriched, mode, userToken)
		if err != nil {
			return nil, nil, err
		}
		skipped = append(skipped, featureSkips...)
	}

	e.sendProgress(progress, writeOutputUpdate(formatter.EnrichedFile))
	if err := e.outputs.WriteEnriched(enriched); err != nil {
		return nil, nil, err
	}
	if err := e.outputs.WriteEnrichedCSV(enriched); err != nil {
		return nil, nil, err
	}
	if err := e.outputs.WriteSkipLedger(skipped); err != nil {
		return nil, nil, err
	}

	e.logger.Info("enrichment complete", "tracks", len(enriched), "skipped", len(skipped))
	return enriched, skipped, nil
}

// attachAudioFeatures resolves audio features for the enriched records. In
// client mode the app-only token leads so bulk lookups stay out of the user's
// rate-limit bucket; the user token remains the fallback.
func (e *Engine) attachAudioFeatures(ctx context.Context, progress chan<- ProgressUpdate, enriched []models.EnrichedTrack, mode shared.AudioFeaturesMode, userToken string) ([]models.SkippedTrack, error) {
	featureTokens := []string{userToken}
	if mode == shared.FeaturesClient {
		appToken, err := e.tokens.ClientToken(ctx)
		if err != nil {
			e.logger.Warn("client credentials grant failed, using user token only", "error", err)
		} else {
			featureTokens = []string{appToken, userToken}
		}
	}

	ids := make([]string, 0, len(enriched))
	for _, track := range enriched {
		ids = append(ids, track.TrackID)
	}

	features, skips, err := e.client.AudioFeatureDetails(ctx, featureTokens, ids, func(processed, total int) {
		e.sendProgress(progress, enrichUpdate(FetchAudioFeatures, "audio feature", processed, total))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: audio feature enrichment failed: %w", shared.ErrFlowFailed, err)
	}

	AttachAudioFeatures(enriched, features)
	return skips, nil
}

func (e *Engine) compactRecords(enriched []models.EnrichedTrack, progress chan<- ProgressUpdate) ([]models.CompactTrack, error) {
	compacted := CompactRecords(enriched, e.logger)
	e.sendProgress(progress, compactUpdate(len(compacted), len(enriched)))

	e.sendProgress(progress, writeOutputUpdate(formatter.CompactFile))
	if err := e.outputs.WriteCompact(compacted); err != nil {
		return nil, err
	}

	e.logger.Info("compaction complete", "kept", len(compacted), "dropped", len(enriched)-len(compacted))
	return compacted, nil
}
