package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/slx/internal/models"
)

// Search defaults and bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// SearchOptions filters and orders a library query. Zero values mean
// "no filter".
type SearchOptions struct {
	Page          int
	Limit         int
	Query         string // substring match on title, artist or album name
	Genre         string
	Year          int
	MinPopularity int
	SortBy        string // added_at, popularity or title
	SortOrder     string // asc or desc
}

func (o SearchOptions) normalized() SearchOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageSize
	}
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	switch o.SortBy {
	case "popularity", "title":
	default:
		o.SortBy = "added_at"
	}
	if o.SortOrder != "asc" {
		o.SortOrder = "desc"
	}
	return o
}

func (o SearchOptions) orderClause() string {
	column := map[string]string{
		"added_at":   "t.added_at",
		"popularity": "t.popularity",
		"title":      "t.title",
	}[o.SortBy]
	direction := "DESC"
	if o.SortOrder == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, t.id ASC", column, direction)
}

// GenreCount is one genre with the number of tracks carrying it.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// YearCount is one release year with the number of tracks from it.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// YearRange is the span of release years in the library.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// LibraryStats aggregates the stored library for the stats endpoint.
type LibraryStats struct {
	TotalTracks        int            `json:"total_tracks"`
	TotalGenres        int            `json:"total_genres"`
	TopGenres          []GenreCount   `json:"top_genres"`
	DecadeDistribution map[string]int `json:"decade_distribution"`
	YearRange          *YearRange     `json:"year_range"`
}

// Search returns one page of tracks matching the options plus the total
// number of matches before pagination.
func (r *TrackRepository) Search(ctx context.Context, opts SearchOptions) ([]models.StoredTrack, int, error) {
	opts = opts.normalized()

	var conditions []string
	var args []any

	if opts.Query != "" {
		pattern := "%" + opts.Query + "%"
		conditions = append(conditions, `(t.title LIKE ? OR t.album_name LIKE ? OR EXISTS (
			SELECT 1 FROM track_artists ta JOIN artists a ON a.id = ta.artist_id
			WHERE ta.track_id = t.id AND a.name LIKE ?
		))`)
		args = append(args, pattern, pattern, pattern)
	}
	if opts.Genre != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM track_artists ta JOIN artist_genres ag ON ag.artist_id = ta.artist_id
			WHERE ta.track_id = t.id AND ag.genre = ?
		)`)
		args = append(args, opts.Genre)
	}
	if opts.Year > 0 {
		conditions = append(conditions, "t.album_release_year = ?")
		args = append(args, opts.Year)
	}
	if opts.MinPopularity > 0 {
		conditions = append(conditions, "t.popularity >= ?")
		args = append(args, opts.MinPopularity)
	}

	where := joinConditions(conditions)

	var total int
	countQuery := "SELECT COUNT(*) FROM tracks t" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	query := `
		SELECT t.id, t.title, t.added_at, t.duration_ms, t.popularity, t.album_id, t.album_name, t.album_release_date, t.album_release_year, t.album_image_url, t.preview_url, t.spotify_url
		FROM tracks t` + where + opts.orderClause() + " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.StoredTrack{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, 0, err
		}
		tracks = append(tracks, *track)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range tracks {
		if err := r.attachArtists(ctx, &tracks[i]); err != nil {
			return nil, 0, err
		}
	}

	return tracks, total, nil
}

// Genres returns every genre in the library with its track count, most
// common first.
func (r *TrackRepository) Genres(ctx context.Context) ([]GenreCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ag.genre, COUNT(DISTINCT ta.track_id) AS track_count
		FROM artist_genres ag
		JOIN track_artists ta ON ta.artist_id = ag.artist_id
		GROUP BY ag.genre
		ORDER BY track_count DESC, ag.genre ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	counts := []GenreCount{}
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan genre count: %w", err)
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

// Years returns every release year in the library with its track count,
// newest first.
func (r *TrackRepository) Years(ctx context.Context) ([]YearCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT album_release_year, COUNT(*)
		FROM tracks
		WHERE album_release_year IS NOT NULL
		GROUP BY album_release_year
		ORDER BY album_release_year DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query years: %w", err)
	}
	defer rows.Close()

	counts := []YearCount{}
	for rows.Next() {
		var yc YearCount
		if err := rows.Scan(&yc.Year, &yc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan year count: %w", err)
		}
		counts = append(counts, yc)
	}
	return counts, rows.Err()
}

// Stats aggregates the stored library: totals, the ten most common genres,
// the decade distribution and the release-year range.
func (r *TrackRepository) Stats(ctx context.Context) (*LibraryStats, error) {
	stats := &LibraryStats{DecadeDistribution: map[string]int{}}

	var err error
	if stats.TotalTracks, err = r.Count(ctx); err != nil {
		return nil, err
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT genre) FROM artist_genres`).Scan(&stats.TotalGenres); err != nil {
		return nil, fmt.Errorf("failed to count genres: %w", err)
	}

	genres, err := r.Genres(ctx)
	if err != nil {
		return nil, err
	}
	if len(genres) > 10 {
		genres = genres[:10]
	}
	stats.TopGenres = genres

	rows, err := r.db.QueryContext(ctx, `
		SELECT (album_release_year / 10) * 10 AS decade, COUNT(*)
		FROM tracks
		WHERE album_release_year IS NOT NULL
		GROUP BY decade
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query decades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var decade, count int
		if err := rows.Scan(&decade, &count); err != nil {
			return nil, fmt.Errorf("failed to scan decade: %w", err)
		}
		stats.DecadeDistribution[fmt.Sprintf("%ds", decade)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var minYear, maxYear sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MIN(album_release_year), MAX(album_release_year) FROM tracks`).Scan(&minYear, &maxYear); err != nil {
		return nil, fmt.Errorf("failed to query year range: %w", err)
	}
	if minYear.Valid && maxYear.Valid {
		stats.YearRange = &YearRange{Min: int(minYear.Int64), Max: int(maxYear.Int64)}
	}

	return stats, nil
}
