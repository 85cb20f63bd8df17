package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/slx/internal/models"
	"github.com/desertthunder/slx/internal/shared"
)

// TrackRepository persists enriched tracks and serves library queries.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// SaveTracks upserts enriched records with their artists and genres inside a
// single transaction. Re-running a pipeline replaces prior rows; the table is
// a projection of the latest run, not an append log.
func (r *TrackRepository) SaveTracks(ctx context.Context, tracks []models.EnrichedTrack) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trackStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO tracks (id, title, added_at, duration_ms, popularity, album_id, album_name, album_release_date, album_release_year, album_image_url, preview_url, spotify_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer trackStmt.Close()

	artistStmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO artists (id, name, image_url) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare artist insert: %w", err)
	}
	defer artistStmt.Close()

	linkStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO track_artists (track_id, artist_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare track_artists insert: %w", err)
	}
	defer linkStmt.Close()

	genreStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO artist_genres (artist_id, genre) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare artist_genres insert: %w", err)
	}
	defer genreStmt.Close()

	for _, track := range tracks {
		if track.TrackID == "" {
			continue
		}

		var albumID, albumName, albumReleaseDate, albumImage string
		var albumYear any
		if track.Album != nil {
			albumID = track.Album.ID
			albumName = track.Album.Name
			albumReleaseDate = track.Album.ReleaseDate
			albumImage = track.Album.Image300
			if year, err := strconv.Atoi(track.Year); err == nil {
				albumYear = year
			}
		}

		if _, err := trackStmt.ExecContext(ctx,
			track.TrackID,
			track.TrackName,
			track.AddedAt,
			nullableInt(track.DurationMS),
			nullableInt(track.Popularity),
			albumID,
			albumName,
			albumReleaseDate,
			albumYear,
			albumImage,
			track.PreviewURL,
			track.TrackSpotifyURL,
		); err != nil {
			return fmt.Errorf("failed to insert track %s: %w", track.TrackID, err)
		}

		for _, artist := range track.ArtistsEnriched {
			if artist.ID == "" {
				continue
			}
			if _, err := artistStmt.ExecContext(ctx, artist.ID, artist.Name, ""); err != nil {
				return fmt.Errorf("failed to insert artist %s: %w", artist.ID, err)
			}
			if _, err := linkStmt.ExecContext(ctx, track.TrackID, artist.ID); err != nil {
				return fmt.Errorf("failed to link artist %s: %w", artist.ID, err)
			}
			for _, genre := range artist.Genres {
				if _, err := genreStmt.ExecContext(ctx, artist.ID, genre); err != nil {
					return fmt.Errorf("failed to insert genre %q: %w", genre, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracks: %w", err)
	}
	return nil
}

// FindByID retrieves one stored track with its artists and genres.
func (r *TrackRepository) FindByID(ctx context.Context, id string) (*models.StoredTrack, error) {
	query := `
		SELECT id, title, added_at, duration_ms, popularity, album_id, album_name, album_release_date, album_release_year, album_image_url, preview_url, spotify_url
		FROM tracks
		WHERE id = ?
	`

	track, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachArtists(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

// Count returns the number of stored tracks.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

func (r *TrackRepository) attachArtists(ctx context.Context, track *models.StoredTrack) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.image_url
		FROM artists a
		JOIN track_artists ta ON ta.artist_id = a.id
		WHERE ta.track_id = ?
		ORDER BY a.name
	`, track.ID)
	if err != nil {
		return fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var artist models.StoredArtist
		if err := rows.Scan(&artist.ID, &artist.Name, &artist.ImageURL); err != nil {
			return fmt.Errorf("failed to scan artist: %w", err)
		}
		artist.Genres, err = r.artistGenres(ctx, artist.ID)
		if err != nil {
			return err
		}
		track.Artists = append(track.Artists, artist)
	}
	return rows.Err()
}

func (r *TrackRepository) artistGenres(ctx context.Context, artistID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT genre FROM artist_genres WHERE artist_id = ? ORDER BY genre`, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	genres := []string{}
	for rows.Next() {
		var genre string
		if err := rows.Scan(&genre); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, genre)
	}
	return genres, rows.Err()
}

// scanTrack scans one track row from either a Row or Rows source.
func scanTrack(row interface{ Scan(...any) error }) (*models.StoredTrack, error) {
	var (
		track       models.StoredTrack
		duration    sql.NullInt64
		popularity  sql.NullInt64
		releaseYear sql.NullInt64
		albumImage  sql.NullString
		previewURL  sql.NullString
		spotifyURL  sql.NullString
	)

	err := row.Scan(
		&track.ID,
		&track.Title,
		&track.AddedAt,
		&duration,
		&popularity,
		&track.Album.ID,
		&track.Album.Name,
		&track.Album.ReleaseDate,
		&releaseYear,
		&albumImage,
		&previewURL,
		&spotifyURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	if duration.Valid {
		track.DurationMS = int(duration.Int64)
	}
	if popularity.Valid {
		p := int(popularity.Int64)
		track.Popularity = &p
	}
	if releaseYear.Valid {
		y := int(releaseYear.Int64)
		track.Album.ReleaseYear = &y
	}
	track.Album.ImageURL = albumImage.String
	track.PreviewURL = previewURL.String
	track.SpotifyURL = spotifyURL.String

	return &track, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// joinConditions ANDs a set of WHERE fragments, returning an empty string
// when there are none.
func joinConditions(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}
