package flow

import "fmt"

// ProgressUpdate represents a progress event during a long-running pipeline
// stage.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Pipeline phase enumeration
type Phase int

const (
	Authorize Phase = iota
	FetchLibrary
	EnrichTracks
	EnrichArtists
	EnrichAlbums
	FetchAudioFeatures
	Merge
	Compact
	WriteOutput
	StoreDatabase
)

func (p Phase) String() string {
	switch p {
	case Authorize:
		return "authorize"
	case FetchLibrary:
		return "fetch_library"
	case EnrichTracks:
		return "enrich_tracks"
	case EnrichArtists:
		return "enrich_artists"
	case EnrichAlbums:
		return "enrich_albums"
	case FetchAudioFeatures:
		return "fetch_audio_features"
	case Merge:
		return "merge"
	case Compact:
		return "compact"
	case WriteOutput:
		return "write_output"
	case StoreDatabase:
		return "store_database"
	default:
		return ""
	}
}

func authorizeUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authorize,
		Step:    1,
		Total:   1,
		Message: "Resolving access tokens...",
	}
}

func fetchLibraryUpdate(fetched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching liked songs...", fetched, total),
	}
}

func enrichUpdate(phase Phase, kind string, processed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    processed,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s details...", processed, total, kind),
	}
}

func mergeUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Merge,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Merging details into %d records...", total),
	}
}

func compactUpdate(kept, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compact,
		Step:    kept,
		Total:   total,
		Message: fmt.Sprintf("Compacted %d of %d records", kept, total),
	}
}

func writeOutputUpdate(file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s...", file),
	}
}

func storeDatabaseUpdate(stored, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StoreDatabase,
		Step:    stored,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Storing tracks...", stored, total),
	}
}
