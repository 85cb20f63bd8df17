package formatter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/slx/internal/models"
	"github.com/desertthunder/slx/internal/shared"
)

// Output file names within the output directory.
const (
	LikedSongsFile      = "liked_songs.json"
	EnrichedFile        = "liked_songs_enriched.json"
	EnrichedCSVFile     = "liked_songs_enriched.csv"
	CompactFile         = "liked_songs_compact.json"
	SkippedFeaturesFile = "skipped_audio_features.json"
)

// SkipLedger is the persisted shape of the skipped-items side file.
type SkipLedger struct {
	GeneratedAt string                `json:"generated_at"`
	Skipped     []models.SkippedTrack `json:"skipped"`
}

// OutputSet reads and writes the pipeline's output files under one directory.
// Each file is written in a single call so a failed run never leaves a
// partially written output behind.
type OutputSet struct {
	dir    string
	logger *log.Logger
}

// NewOutputSet creates an output set rooted at dir.
func NewOutputSet(dir string, logger *log.Logger) *OutputSet {
	return &OutputSet{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (o *OutputSet) Dir() string {
	return o.dir
}

func (o *OutputSet) path(name string) string {
	return filepath.Join(o.dir, name)
}

// WriteLikedSongs writes the minimal export records.
func (o *OutputSet) WriteLikedSongs(tracks []models.LikedTrack) error {
	return o.writeJSON(LikedSongsFile, tracks, len(tracks))
}

// ReadLikedSongs loads the minimal export records from a previous run.
func (o *OutputSet) ReadLikedSongs() ([]models.LikedTrack, error) {
	var tracks []models.LikedTrack
	if err := shared.ReadJSONFile(o.path(LikedSongsFile), &tracks); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no export found at %s, run an export first", shared.ErrMissingConfig, o.path(LikedSongsFile))
		}
		return nil, err
	}
	return tracks, nil
}

// WriteEnriched writes the enriched records as JSON.
func (o *OutputSet) WriteEnriched(tracks []models.EnrichedTrack) error {
	return o.writeJSON(EnrichedFile, tracks, len(tracks))
}

// ReadEnriched loads the enriched records from a previous run.
func (o *OutputSet) ReadEnriched() ([]models.EnrichedTrack, error) {
	var tracks []models.EnrichedTrack
	if err := shared.ReadJSONFile(o.path(EnrichedFile), &tracks); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no enriched output at %s, run enrich first", shared.ErrMissingConfig, o.path(EnrichedFile))
		}
		return nil, err
	}
	return tracks, nil
}

// WriteEnrichedCSV writes the enriched records as CSV.
func (o *OutputSet) WriteEnrichedCSV(tracks []models.EnrichedTrack) error {
	payload, err := EnrichedToCSV(tracks)
	if err != nil {
		return err
	}
	path := o.path(EnrichedCSVFile)
	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %v", shared.ErrStorageFailed, err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorageFailed, path, err)
	}
	o.logger.Info("wrote output", "file", path, "records", len(tracks))
	return nil
}

// WriteCompact writes the compacted records as JSON.
func (o *OutputSet) WriteCompact(tracks []models.CompactTrack) error {
	return o.writeJSON(CompactFile, tracks, len(tracks))
}

// ReadCompact loads the compacted records from a previous run.
func (o *OutputSet) ReadCompact() ([]models.CompactTrack, error) {
	var tracks []models.CompactTrack
	if err := shared.ReadJSONFile(o.path(CompactFile), &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// WriteSkipLedger persists the skipped-items side file. The file only exists
// when there is something to audit: an empty skip set removes any ledger left
// by an earlier run.
func (o *OutputSet) WriteSkipLedger(skipped []models.SkippedTrack) error {
	path := o.path(SkippedFeaturesFile)

	if len(skipped) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: failed to remove stale ledger %s: %v", shared.ErrStorageFailed, path, err)
		}
		return nil
	}

	ledger := SkipLedger{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Skipped:     skipped,
	}
	if err := shared.WriteJSONFile(path, ledger); err != nil {
		return err
	}
	o.logger.Warn("some items could not be enriched", "file", path, "skipped", len(skipped))
	return nil
}

// ReadSkipLedger loads the skip ledger. Returns an empty ledger without error
// when the file does not exist.
func (o *OutputSet) ReadSkipLedger() (SkipLedger, error) {
	var ledger SkipLedger
	if err := shared.ReadJSONFile(o.path(SkippedFeaturesFile), &ledger); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SkipLedger{}, nil
		}
		return SkipLedger{}, err
	}
	return ledger, nil
}

func (o *OutputSet) writeJSON(name string, data any, records int) error {
	path := o.path(name)
	if err := shared.WriteJSONFile(path, data); err != nil {
		return err
	}
	o.logger.Info("wrote output", "file", path, "records", records)
	return nil
}
