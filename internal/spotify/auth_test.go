package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/slx/internal/shared"
)

// tokenEndpoint fakes the accounts token endpoint. Each form grant_type maps
// to a canned JSON response.
func tokenEndpoint(t *testing.T, responses map[string]map[string]any) (*httptest.Server, *[]string) {
	t.Helper()

	var grants []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		grant := r.Form.Get("grant_type")
		grants = append(grants, grant)

		body, ok := responses[grant]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "unsupported_grant_type"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	return srv, &grants
}

func newTestManager(t *testing.T, srv *httptest.Server, sp shared.SpotifyConfig) *TokenManager {
	t.Helper()

	cfg := &shared.Config{Spotify: sp}
	if cfg.Spotify.ClientID == "" {
		cfg.Spotify.ClientID = "test_client_id"
	}
	if cfg.Spotify.ClientSecret == "" {
		cfg.Spotify.ClientSecret = "test_client_secret"
	}
	cfg.Output.TokenFile = filepath.Join(t.TempDir(), "tokens.json")

	manager, err := NewTokenManager(cfg, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	manager.config.Endpoint.TokenURL = srv.URL
	manager.appCreds.TokenURL = srv.URL
	return manager
}

func TestTokenStore(t *testing.T) {
	t.Run("Missing File Loads Empty", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
		token, err := store.Load()
		if err != nil {
			t.Fatalf("expected no error for missing file, got %v", err)
		}
		if token.RefreshToken != "" {
			t.Errorf("expected empty token, got %q", token.RefreshToken)
		}
	})

	t.Run("Roundtrip", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
		if err := store.Save("refresh_abc"); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		token, err := store.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if token.RefreshToken != "refresh_abc" {
			t.Errorf("expected refresh_abc, got %q", token.RefreshToken)
		}
		if token.SavedAt == "" {
			t.Error("expected saved_at timestamp")
		}
	})
}

func TestTokenManager(t *testing.T) {
	t.Run("Requires Client Credentials", func(t *testing.T) {
		_, err := NewTokenManager(&shared.Config{}, shared.NewLogger(io.Discard))
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("UserToken", func(t *testing.T) {
		t.Run("Refreshes From Stored Token", func(t *testing.T) {
			srv, grants := tokenEndpoint(t, map[string]map[string]any{
				"refresh_token": {"access_token": "access_1", "token_type": "Bearer", "expires_in": 3600},
			})
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{})
			if err := manager.store.Save("stored_refresh"); err != nil {
				t.Fatalf("seed store: %v", err)
			}

			access, err := manager.UserToken(context.Background())
			if err != nil {
				t.Fatalf("expected access token, got %v", err)
			}
			if access != "access_1" {
				t.Errorf("expected access_1, got %q", access)
			}
			if len(*grants) != 1 || (*grants)[0] != "refresh_token" {
				t.Errorf("expected one refresh grant, got %v", *grants)
			}

			// Response omitted a refresh token, so the stored one survives.
			stored, _ := manager.store.Load()
			if stored.RefreshToken != "stored_refresh" {
				t.Errorf("expected stored refresh retained, got %q", stored.RefreshToken)
			}
		})

		t.Run("Persists Rotated Refresh Token", func(t *testing.T) {
			srv, _ := tokenEndpoint(t, map[string]map[string]any{
				"refresh_token": {
					"access_token":  "access_2",
					"token_type":    "Bearer",
					"expires_in":    3600,
					"refresh_token": "rotated_refresh",
				},
			})
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{})
			if err := manager.store.Save("stored_refresh"); err != nil {
				t.Fatalf("seed store: %v", err)
			}

			if _, err := manager.UserToken(context.Background()); err != nil {
				t.Fatalf("expected access token, got %v", err)
			}

			stored, _ := manager.store.Load()
			if stored.RefreshToken != "rotated_refresh" {
				t.Errorf("expected rotated token persisted, got %q", stored.RefreshToken)
			}
		})

		t.Run("Falls Back To Configured Refresh Token", func(t *testing.T) {
			srv, _ := tokenEndpoint(t, map[string]map[string]any{
				"refresh_token": {"access_token": "access_3", "token_type": "Bearer", "expires_in": 3600},
			})
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{RefreshToken: "env_refresh"})
			access, err := manager.UserToken(context.Background())
			if err != nil {
				t.Fatalf("expected access token, got %v", err)
			}
			if access != "access_3" {
				t.Errorf("expected access_3, got %q", access)
			}
		})

		t.Run("Exchanges Authorization Code", func(t *testing.T) {
			srv, grants := tokenEndpoint(t, map[string]map[string]any{
				"authorization_code": {
					"access_token":  "access_4",
					"token_type":    "Bearer",
					"expires_in":    3600,
					"refresh_token": "fresh_refresh",
				},
			})
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{AuthorizationCode: "the_code"})
			access, err := manager.UserToken(context.Background())
			if err != nil {
				t.Fatalf("expected access token, got %v", err)
			}
			if access != "access_4" {
				t.Errorf("expected access_4, got %q", access)
			}
			if len(*grants) != 1 || (*grants)[0] != "authorization_code" {
				t.Errorf("expected one code exchange, got %v", *grants)
			}

			stored, _ := manager.store.Load()
			if stored.RefreshToken != "fresh_refresh" {
				t.Errorf("expected exchanged refresh persisted, got %q", stored.RefreshToken)
			}
		})

		t.Run("Stale Stored Token Falls Through To Authorization Code", func(t *testing.T) {
			srv, grants := tokenEndpoint(t, map[string]map[string]any{
				"authorization_code": {
					"access_token":  "access_5",
					"token_type":    "Bearer",
					"expires_in":    3600,
					"refresh_token": "fresh_refresh",
				},
			})
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{AuthorizationCode: "the_code"})
			if err := manager.store.Save("stale_refresh"); err != nil {
				t.Fatalf("seed store: %v", err)
			}

			access, err := manager.UserToken(context.Background())
			if err != nil {
				t.Fatalf("expected fall through to code exchange, got %v", err)
			}
			if access != "access_5" {
				t.Errorf("expected access_5, got %q", access)
			}
			if want := []string{"refresh_token", "authorization_code"}; len(*grants) != 2 || (*grants)[0] != want[0] || (*grants)[1] != want[1] {
				t.Errorf("expected grants %v, got %v", want, *grants)
			}

			stored, _ := manager.store.Load()
			if stored.RefreshToken != "fresh_refresh" {
				t.Errorf("expected exchanged refresh to replace the stale one, got %q", stored.RefreshToken)
			}
		})

		t.Run("Stale Stored Token Falls Through To Configured Token", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if r.Form.Get("refresh_token") != "env_refresh" {
					w.WriteHeader(http.StatusBadRequest)
					json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
					return
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{"access_token": "access_6", "token_type": "Bearer", "expires_in": 3600})
			}))
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{RefreshToken: "env_refresh"})
			if err := manager.store.Save("stale_refresh"); err != nil {
				t.Fatalf("seed store: %v", err)
			}

			access, err := manager.UserToken(context.Background())
			if err != nil {
				t.Fatalf("expected fall through to configured token, got %v", err)
			}
			if access != "access_6" {
				t.Errorf("expected access_6, got %q", access)
			}
		})

		t.Run("All Rejected Tokens Without Code Is Fatal", func(t *testing.T) {
			srv, _ := tokenEndpoint(t, nil)
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{RefreshToken: "env_refresh"})
			if err := manager.store.Save("stale_refresh"); err != nil {
				t.Fatalf("seed store: %v", err)
			}

			_, err := manager.UserToken(context.Background())
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("expected ErrRefreshFailed, got %v", err)
			}
		})

		t.Run("No Credential Is Fatal", func(t *testing.T) {
			srv, _ := tokenEndpoint(t, nil)
			defer srv.Close()

			manager := newTestManager(t, srv, shared.SpotifyConfig{})
			_, err := manager.UserToken(context.Background())
			if !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
		})
	})

	t.Run("ClientToken", func(t *testing.T) {
		srv, grants := tokenEndpoint(t, map[string]map[string]any{
			"client_credentials": {"access_token": "app_access", "token_type": "Bearer", "expires_in": 3600},
		})
		defer srv.Close()

		manager := newTestManager(t, srv, shared.SpotifyConfig{})
		access, err := manager.ClientToken(context.Background())
		if err != nil {
			t.Fatalf("expected app token, got %v", err)
		}
		if access != "app_access" {
			t.Errorf("expected app_access, got %q", access)
		}
		if len(*grants) != 1 || (*grants)[0] != "client_credentials" {
			t.Errorf("expected one client credentials grant, got %v", *grants)
		}
	})

	t.Run("AuthCodeURL Contains State And Scope", func(t *testing.T) {
		srv, _ := tokenEndpoint(t, nil)
		defer srv.Close()

		manager := newTestManager(t, srv, shared.SpotifyConfig{RedirectURI: "http://localhost:8080/callback"})
		url := manager.AuthCodeURL("test_state")
		for _, fragment := range []string{"test_state", "user-library-read", "test_client_id"} {
			if !strings.Contains(url, fragment) {
				t.Errorf("expected auth URL to contain %q, got %s", fragment, url)
			}
		}
	})
}
