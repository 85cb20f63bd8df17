package flow

import (
	"github.com/charmbracelet/log"

	"github.com/desertthunder/slx/internal/models"
)

// CompactRecords filters and projects enriched records into the minimal
// UI-facing shape.
//
// This is a data-quality gate, not just a reshape: a record missing its id,
// timestamp, artists, album, or canonical URL is dropped with a warning per
// failed check. Every check runs even after the first failure so the log
// names every defect on a record.
func CompactRecords(tracks []models.EnrichedTrack, logger *log.Logger) []models.CompactTrack {
	compacted := make([]models.CompactTrack, 0, len(tracks))

	for _, track := range tracks {
		keep := true

		if track.TrackID == "" {
			logger.Warn("dropping record without track id", "name", track.TrackName)
			keep = false
		}
		if track.AddedAt == "" {
			logger.Warn("dropping record without added_at", "track_id", track.TrackID)
			keep = false
		}
		if len(track.Artists) == 0 {
			logger.Warn("dropping record without artists", "track_id", track.TrackID)
			keep = false
		}
		if track.Album == nil {
			logger.Warn("dropping record without album", "track_id", track.TrackID)
			keep = false
		}
		if track.TrackSpotifyURL == "" {
			logger.Warn("dropping record without track URL", "track_id", track.TrackID)
			keep = false
		}

		if !keep {
			continue
		}

		compact := models.CompactTrack{
			TrackID:   track.TrackID,
			TrackName: track.TrackName,
			AddedAt:   track.AddedAt,
			Artists:   track.Artists,
			Album: models.CompactAlbum{
				ID:              track.Album.ID,
				Name:            track.Album.Name,
				ReleaseDate:     track.Album.ReleaseDate,
				AlbumSpotifyURL: track.Album.AlbumSpotifyURL,
				Image300:        track.Album.Image300,
			},
			TrackSpotifyURL: track.TrackSpotifyURL,
			Year:            track.Year,
			ArtistGenres:    track.ArtistGenres,
			Popularity:      track.Popularity,
			VersionFlags:    track.VersionFlags,
			ISRC:            track.ISRC,
		}
		if track.Explicit != nil {
			compact.Explicit = *track.Explicit
		}

		compacted = append(compacted, compact)
	}

	return compacted
}
