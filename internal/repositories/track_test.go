package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/slx/internal/models"
	"github.com/desertthunder/slx/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func seedTracks(t *testing.T, repo *TrackRepository) {
	t.Helper()

	tracks := []models.EnrichedTrack{
		{
			TrackID:         "t1",
			TrackName:       "Only Shallow",
			AddedAt:         "2024-03-01T10:00:00Z",
			DurationMS:      intPtr(257000),
			Explicit:        boolPtr(false),
			Popularity:      intPtr(70),
			Album:           &models.AlbumDetail{ID: "al1", Name: "Loveless", ReleaseDate: "1991-11-04", Image300: "https://img/l300"},
			Year:            "1991",
			TrackSpotifyURL: "https://open.example/track/t1",
			ArtistsEnriched: []models.ArtistDetail{{ID: "a1", Name: "My Bloody Valentine", Genres: []string{"shoegaze", "dream pop"}}},
		},
		{
			TrackID:         "t2",
			TrackName:       "Motion Sickness",
			AddedAt:         "2024-04-01T10:00:00Z",
			DurationMS:      intPtr(227000),
			Popularity:      intPtr(82),
			Album:           &models.AlbumDetail{ID: "al2", Name: "Stranger in the Alps", ReleaseDate: "2017-09-22"},
			Year:            "2017",
			TrackSpotifyURL: "https://open.example/track/t2",
			ArtistsEnriched: []models.ArtistDetail{{ID: "a2", Name: "Phoebe Bridgers", Genres: []string{"indie folk"}}},
		},
		{
			TrackID:         "t3",
			TrackName:       "Sometimes",
			AddedAt:         "2024-02-01T10:00:00Z",
			DurationMS:      intPtr(314000),
			Popularity:      intPtr(65),
			Album:           &models.AlbumDetail{ID: "al1", Name: "Loveless", ReleaseDate: "1991-11-04"},
			Year:            "1991",
			TrackSpotifyURL: "https://open.example/track/t3",
			ArtistsEnriched: []models.ArtistDetail{{ID: "a1", Name: "My Bloody Valentine", Genres: []string{"shoegaze", "dream pop"}}},
		},
	}

	if err := repo.SaveTracks(context.Background(), tracks); err != nil {
		t.Fatalf("failed to seed tracks: %v", err)
	}
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("SaveTracks", func(t *testing.T) {
		t.Run("Persists Tracks With Relations", func(t *testing.T) {
			repo := NewTrackRepository(newTestDB(t))
			seedTracks(t, repo)

			count, err := repo.Count(ctx)
			if err != nil {
				t.Fatalf("count failed: %v", err)
			}
			if count != 3 {
				t.Errorf("expected 3 tracks, got %d", count)
			}
		})

		t.Run("Re-Saving Replaces Rows", func(t *testing.T) {
			repo := NewTrackRepository(newTestDB(t))
			seedTracks(t, repo)
			seedTracks(t, repo)

			count, _ := repo.Count(ctx)
			if count != 3 {
				t.Errorf("expected idempotent save, got %d tracks", count)
			}
		})

		t.Run("Skips Records Without Ids", func(t *testing.T) {
			repo := NewTrackRepository(newTestDB(t))
			if err := repo.SaveTracks(ctx, []models.EnrichedTrack{{TrackName: "No ID"}}); err != nil {
				t.Fatalf("save failed: %v", err)
			}
			count, _ := repo.Count(ctx)
			if count != 0 {
				t.Errorf("expected empty table, got %d", count)
			}
		})
	})

	t.Run("FindByID", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTracks(t, repo)

		t.Run("Returns Full Record", func(t *testing.T) {
			track, err := repo.FindByID(ctx, "t1")
			if err != nil {
				t.Fatalf("find failed: %v", err)
			}
			if track.Title != "Only Shallow" {
				t.Errorf("unexpected title %q", track.Title)
			}
			if track.Album.Name != "Loveless" || track.Album.ReleaseYear == nil || *track.Album.ReleaseYear != 1991 {
				t.Errorf("unexpected album: %+v", track.Album)
			}
			if len(track.Artists) != 1 || track.Artists[0].Name != "My Bloody Valentine" {
				t.Errorf("unexpected artists: %+v", track.Artists)
			}
			if len(track.Artists[0].Genres) != 2 {
				t.Errorf("expected genres attached, got %v", track.Artists[0].Genres)
			}
		})

		t.Run("Missing Id Is Not Found", func(t *testing.T) {
			_, err := repo.FindByID(ctx, "nope")
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTracks(t, repo)

		t.Run("Default Order Is Added Desc", func(t *testing.T) {
			tracks, total, err := repo.Search(ctx, SearchOptions{})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if total != 3 || len(tracks) != 3 {
				t.Fatalf("expected 3 results, got %d of %d", len(tracks), total)
			}
			if tracks[0].ID != "t2" || tracks[2].ID != "t3" {
				t.Errorf("unexpected order: %s, %s, %s", tracks[0].ID, tracks[1].ID, tracks[2].ID)
			}
		})

		t.Run("Filters By Genre", func(t *testing.T) {
			tracks, total, err := repo.Search(ctx, SearchOptions{Genre: "shoegaze"})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if total != 2 {
				t.Errorf("expected 2 shoegaze tracks, got %d", total)
			}
			for _, track := range tracks {
				if track.ID == "t2" {
					t.Error("t2 should not match shoegaze")
				}
			}
		})

		t.Run("Filters By Year And Popularity", func(t *testing.T) {
			_, total, err := repo.Search(ctx, SearchOptions{Year: 1991, MinPopularity: 70})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if total != 1 {
				t.Errorf("expected 1 match, got %d", total)
			}
		})

		t.Run("Matches Artist Names", func(t *testing.T) {
			tracks, total, err := repo.Search(ctx, SearchOptions{Query: "Bridgers"})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if total != 1 || tracks[0].ID != "t2" {
				t.Errorf("expected t2 via artist match, got %v (%d)", tracks, total)
			}
		})

		t.Run("Paginates", func(t *testing.T) {
			tracks, total, err := repo.Search(ctx, SearchOptions{Page: 2, Limit: 2, SortBy: "title", SortOrder: "asc"})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if total != 3 {
				t.Errorf("expected total 3, got %d", total)
			}
			if len(tracks) != 1 {
				t.Fatalf("expected 1 track on page 2, got %d", len(tracks))
			}
			if tracks[0].Title != "Sometimes" {
				t.Errorf("unexpected page 2 content: %q", tracks[0].Title)
			}
		})

		t.Run("Sorts By Popularity", func(t *testing.T) {
			tracks, _, err := repo.Search(ctx, SearchOptions{SortBy: "popularity", SortOrder: "desc"})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if tracks[0].ID != "t2" {
				t.Errorf("expected most popular first, got %s", tracks[0].ID)
			}
		})
	})

	t.Run("Genres", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTracks(t, repo)

		genres, err := repo.Genres(ctx)
		if err != nil {
			t.Fatalf("genres failed: %v", err)
		}
		if len(genres) != 3 {
			t.Fatalf("expected 3 genres, got %v", genres)
		}
		// shoegaze and dream pop each cover t1 and t3.
		if genres[0].Count != 2 {
			t.Errorf("expected top genre count 2, got %+v", genres[0])
		}
	})

	t.Run("Years", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTracks(t, repo)

		years, err := repo.Years(ctx)
		if err != nil {
			t.Fatalf("years failed: %v", err)
		}
		if len(years) != 2 {
			t.Fatalf("expected 2 years, got %v", years)
		}
		if years[0].Year != 2017 || years[1].Year != 1991 {
			t.Errorf("expected newest first, got %v", years)
		}
		if years[1].Count != 2 {
			t.Errorf("expected 2 tracks from 1991, got %+v", years[1])
		}
	})

	t.Run("Stats", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		seedTracks(t, repo)

		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats.TotalTracks != 3 {
			t.Errorf("expected 3 tracks, got %d", stats.TotalTracks)
		}
		if stats.TotalGenres != 3 {
			t.Errorf("expected 3 genres, got %d", stats.TotalGenres)
		}
		if stats.DecadeDistribution["1990s"] != 2 || stats.DecadeDistribution["2010s"] != 1 {
			t.Errorf("unexpected decades: %v", stats.DecadeDistribution)
		}
		if stats.YearRange == nil || stats.YearRange.Min != 1991 || stats.YearRange.Max != 2017 {
			t.Errorf("unexpected year range: %+v", stats.YearRange)
		}
	})

	t.Run("Empty Library", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats.TotalTracks != 0 || stats.YearRange != nil {
			t.Errorf("unexpected stats for empty library: %+v", stats)
		}

		tracks, total, err := repo.Search(ctx, SearchOptions{})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if total != 0 || len(tracks) != 0 {
			t.Errorf("expected no results, got %d", total)
		}
	})
}
