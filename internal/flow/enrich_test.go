package flow

import (
	"io"
	"reflect"
	"testing"

	"github.com/desertthunder/slx/internal/models"
	"github.com/desertthunder/slx/internal/shared"
	"github.com/desertthunder/slx/internal/spotify"
)

func preview(url string) *string { return &url }

func TestMergeDetails(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	base := []models.LikedTrack{{
		TrackID:   "t1",
		TrackName: "Song One",
		Artists:   []models.ArtistRef{{ID: "a1", Name: "First"}, {ID: "a2", Name: "Second"}},
		AddedAt:   "2024-03-01T10:00:00Z",
	}}

	trackDetails := map[string]*spotify.Track{
		"t1": {
			ID:   "t1",
			Name: "Song One",
			Artists: []spotify.Artist{
				{ID: "a1", Name: "First"},
				{ID: "a2", Name: "Second"},
			},
			Album:            spotify.Album{ID: "al1", Name: "Embedded Album"},
			DurationMS:       201000,
			Explicit:         true,
			Popularity:       64,
			PreviewURL:       preview("https://p.example/t1"),
			AvailableMarkets: []string{"US", "DE", "JP"},
		},
	}

	artistDetails := map[string]*spotify.Artist{
		"a1": {ID: "a1", Name: "First", Genres: []string{"rock", "indie rock"}},
		"a2": {ID: "a2", Name: "Second", Genres: []string{"indie rock", "dream pop"}},
	}

	albumDetails := map[string]*spotify.Album{
		"al1": {
			ID:          "al1",
			Name:        "Full Album",
			ReleaseDate: "1997-06-16",
			AlbumType:   "album",
			Images: []spotify.Image{
				{URL: "https://img/640", Width: 640},
				{URL: "https://img/300", Width: 300},
				{URL: "https://img/64", Width: 64},
			},
		},
	}

	t.Run("Genre Union Is Deduplicated And Sorted", func(t *testing.T) {
		enriched := MergeDetails(base, trackDetails, artistDetails, albumDetails, logger)
		if len(enriched) != 1 {
			t.Fatalf("expected 1 record, got %d", len(enriched))
		}

		want := []string{"dream pop", "indie rock", "rock"}
		if !reflect.DeepEqual(enriched[0].ArtistGenres, want) {
			t.Errorf("expected %v, got %v", want, enriched[0].ArtistGenres)
		}
		if enriched[0].ArtistGenresJoined != "dream pop, indie rock, rock" {
			t.Errorf("unexpected joined genres: %q", enriched[0].ArtistGenresJoined)
		}
	})

	t.Run("Prefers Fetched Album Over Embedded", func(t *testing.T) {
		enriched := MergeDetails(base, trackDetails, artistDetails, albumDetails, logger)

		if enriched[0].Album.Name != "Full Album" {
			t.Errorf("expected fetched album, got %q", enriched[0].Album.Name)
		}
		if enriched[0].Year != "1997" {
			t.Errorf("expected year 1997, got %q", enriched[0].Year)
		}
		if enriched[0].Album.Image300 != "https://img/300" {
			t.Errorf("expected 300px art, got %q", enriched[0].Album.Image300)
		}
	})

	t.Run("Falls Back To Embedded Album", func(t *testing.T) {
		enriched := MergeDetails(base, trackDetails, artistDetails, map[string]*spotify.Album{}, logger)

		if enriched[0].Album.Name != "Embedded Album" {
			t.Errorf("expected embedded album, got %q", enriched[0].Album.Name)
		}
		if enriched[0].Year != "" {
			t.Errorf("expected empty year without release date, got %q", enriched[0].Year)
		}
	})

	t.Run("Missing Track Detail Degrades To Sparse Record", func(t *testing.T) {
		enriched := MergeDetails(base, map[string]*spotify.Track{}, artistDetails, albumDetails, logger)

		if len(enriched) != 1 {
			t.Fatalf("expected sparse record kept, got %d records", len(enriched))
		}
		record := enriched[0]
		if record.TrackID != "t1" || record.TrackName != "Song One" {
			t.Errorf("sparse record lost base fields: %+v", record)
		}
		if record.DurationMS != nil || record.Explicit != nil || record.Popularity != nil {
			t.Error("sparse record should have nil detail fields")
		}
		if record.ArtistsJoined != "First, Second" {
			t.Errorf("unexpected joined artists: %q", record.ArtistsJoined)
		}
		if record.ArtistGenres == nil || len(record.ArtistGenres) != 0 {
			t.Errorf("expected explicit empty genres, got %v", record.ArtistGenres)
		}
	})

	t.Run("Counts Markets And Carries Preview", func(t *testing.T) {
		enriched := MergeDetails(base, trackDetails, artistDetails, albumDetails, logger)

		if enriched[0].MarketsCount != 3 {
			t.Errorf("expected 3 markets, got %d", enriched[0].MarketsCount)
		}
		if enriched[0].PreviewURL != "https://p.example/t1" {
			t.Errorf("unexpected preview: %q", enriched[0].PreviewURL)
		}
	})
}

func TestVersionFlags(t *testing.T) {
	t.Run("Nil When Nothing Matches", func(t *testing.T) {
		if flags := versionFlags("Ordinary Song"); flags != nil {
			t.Errorf("expected nil flags, got %+v", flags)
		}
	})

	t.Run("Whole Word Only", func(t *testing.T) {
		// "Alive" and "Delivery" contain live but not as a word.
		if flags := versionFlags("Alive Delivery"); flags != nil {
			t.Errorf("expected nil flags for substring matches, got %+v", flags)
		}
	})

	t.Run("Case Insensitive Matches", func(t *testing.T) {
		cases := map[string]func(*models.VersionFlags) bool{
			"Song (LIVE at Wembley)":   func(f *models.VersionFlags) bool { return f.IsLive },
			"Song - Extended Mix":      func(f *models.VersionFlags) bool { return f.IsExtended },
			"Song (someone remix)":     func(f *models.VersionFlags) bool { return f.IsRemix },
			"Song [Instrumental]":      func(f *models.VersionFlags) bool { return f.IsInstrumental },
			"Song (Live Remix)":        func(f *models.VersionFlags) bool { return f.IsLive && f.IsRemix },
		}
		for title, check := range cases {
			flags := versionFlags(title)
			if flags == nil || !check(flags) {
				t.Errorf("%q: expected matching flags, got %+v", title, flags)
			}
		}
	})
}

func TestNearestImage(t *testing.T) {
	t.Run("Picks Closest Width", func(t *testing.T) {
		images := []spotify.Image{
			{URL: "u640", Width: 640},
			{URL: "u64", Width: 64},
		}
		if got := nearestImage(images, 300); got != "u64" {
			t.Errorf("expected u64, got %q", got)
		}
	})

	t.Run("Ties Favor First Encountered", func(t *testing.T) {
		images := []spotify.Image{
			{URL: "u200", Width: 200},
			{URL: "u400", Width: 400},
		}
		if got := nearestImage(images, 300); got != "u200" {
			t.Errorf("expected first of tied variants, got %q", got)
		}
	})

	t.Run("Empty Input Yields Empty URL", func(t *testing.T) {
		if got := nearestImage(nil, 300); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

func TestAttachAudioFeatures(t *testing.T) {
	tracks := []models.EnrichedTrack{{TrackID: "t1"}, {TrackID: "t2"}}
	features := map[string]*spotify.AudioFeatures{
		"t1": {ID: "t1", Valence: 0.8, Energy: 0.6, Danceability: 0.7, Tempo: 128},
	}

	AttachAudioFeatures(tracks, features)

	if tracks[0].AudioFeatures == nil {
		t.Fatal("expected features attached to t1")
	}
	if tracks[0].AudioFeatures.Tempo != 128 {
		t.Errorf("unexpected tempo: %v", tracks[0].AudioFeatures.Tempo)
	}
	if tracks[1].AudioFeatures != nil {
		t.Error("expected t2 left without features")
	}
}
