// Package models defines the data model for the liked-songs export service.
//
// Records move through three shapes: [LikedTrack] (minimal export unit),
// [EnrichedTrack] (export unit joined with track/artist/album detail), and
// [CompactTrack] (UI-friendly projection of an enriched record). Tracks that
// could not be enriched despite every fallback are recorded as [SkippedTrack]
// entries in a separate ledger file rather than merged into primary output.
package models
