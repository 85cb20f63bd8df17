// package formatter serializes export records to their output formats (JSON, CSV) and owns the output directory layout
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/slx/internal/models"
)

// csvHeaders is the fixed column set of the enriched CSV output. Consumers
// (spreadsheets, notebooks) depend on this exact order.
var csvHeaders = []string{
	"track_id",
	"track_name",
	"artists_joined",
	"added_at",
	"year",
	"duration_ms",
	"explicit",
	"popularity",
	"preview_url",
	"album_name",
	"album_release_date",
	"album_type",
	"artist_genres_joined",
	"markets_count",
	"isrc",
	"track_spotify_url",
	"album_spotify_url",
}

// EnrichedToCSV converts enriched records to CSV with a fixed header row.
// Nullable numeric fields serialize as empty strings, not zeroes.
func EnrichedToCSV(tracks []models.EnrichedTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		var albumName, albumReleaseDate, albumType, albumURL string
		if track.Album != nil {
			albumName = track.Album.Name
			albumReleaseDate = track.Album.ReleaseDate
			albumType = track.Album.AlbumType
			albumURL = track.Album.AlbumSpotifyURL
		}

		record := []string{
			track.TrackID,
			track.TrackName,
			track.ArtistsJoined,
			track.AddedAt,
			track.Year,
			intField(track.DurationMS),
			boolField(track.Explicit),
			intField(track.Popularity),
			track.PreviewURL,
			albumName,
			albumReleaseDate,
			albumType,
			track.ArtistGenresJoined,
			strconv.Itoa(track.MarketsCount),
			track.ISRC,
			track.TrackSpotifyURL,
			albumURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func boolField(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
