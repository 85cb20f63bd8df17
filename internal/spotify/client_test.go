package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/slx/internal/shared"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	tr := NewTransport(logger)
	tr.limiter = rate.NewLimiter(rate.Inf, 0)
	tr.sleep = func(context.Context, time.Duration) error { return nil }
	return NewClient(tr, logger).WithBaseURL(srv.URL)
}

func savedTracksHandler(t *testing.T, total, pageSize int) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user_token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		page := SavedTrackPage{Total: total, Limit: pageSize, Offset: offset}
		for i := offset; i < offset+pageSize && i < total; i++ {
			page.Items = append(page.Items, SavedTrack{
				AddedAt: "2024-01-01T00:00:00Z",
				Track:   &Track{ID: fmt.Sprintf("track_%03d", i), Name: fmt.Sprintf("Track %d", i)},
			})
		}
		if next := offset + pageSize; next < total {
			url := fmt.Sprintf("http://%s/me/tracks?limit=%d&offset=%d", r.Host, pageSize, next)
			page.Next = &url
		}
		json.NewEncoder(w).Encode(page)
	}
}

func TestClient(t *testing.T) {
	t.Run("AllSavedTracks", func(t *testing.T) {
		t.Run("Walks Every Page", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/me/tracks", savedTracksHandler(t, 150, 50))
			srv := httptest.NewServer(mux)
			defer srv.Close()

			var progress [][2]int
			client := newTestClient(t, srv)
			tracks, err := client.AllSavedTracks(context.Background(), "user_token", 0, func(fetched, total int) {
				progress = append(progress, [2]int{fetched, total})
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(tracks) != 150 {
				t.Errorf("expected 150 tracks, got %d", len(tracks))
			}
			if tracks[0].Track.ID != "track_000" || tracks[149].Track.ID != "track_149" {
				t.Error("tracks out of order across pages")
			}
			want := [][2]int{{50, 150}, {100, 150}, {150, 150}}
			if len(progress) != len(want) {
				t.Fatalf("expected %d progress calls, got %v", len(want), progress)
			}
			for i, p := range want {
				if progress[i] != p {
					t.Errorf("progress %d: expected %v, got %v", i, p, progress[i])
				}
			}
		})

		t.Run("Stops At Page Limit", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/me/tracks", savedTracksHandler(t, 150, 50))
			srv := httptest.NewServer(mux)
			defer srv.Close()

			client := newTestClient(t, srv)
			tracks, err := client.AllSavedTracks(context.Background(), "user_token", 2, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 100 {
				t.Errorf("expected 100 tracks with pageLimit=2, got %d", len(tracks))
			}
		})

		t.Run("Empty Library", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/me/tracks", savedTracksHandler(t, 0, 50))
			srv := httptest.NewServer(mux)
			defer srv.Close()

			client := newTestClient(t, srv)
			tracks, err := client.AllSavedTracks(context.Background(), "user_token", 0, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 0 {
				t.Errorf("expected empty result, got %d tracks", len(tracks))
			}
		})
	})

	t.Run("Me", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(User{ID: "user_1", DisplayName: "Tester"})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := newTestClient(t, srv)
		user, err := client.Me(context.Background(), "user_token")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "user_1" {
			t.Errorf("expected user_1, got %s", user.ID)
		}
	})
}
