package spotify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/slx/internal/shared"
)

// Scopes requested for the user grant. Library access is the only scope the
// exporter needs.
var Scopes = []string{"user-library-read"}

// TokenManager resolves access tokens for both grants the exporter uses: the
// user (authorization code) grant for library reads and the client
// credentials grant as an enrichment fallback.
//
// Refresh token resolution order: the token store on disk, then the
// configured refresh token, then a one-time authorization code exchange.
type TokenManager struct {
	config   *oauth2.Config
	appCreds *clientcredentials.Config
	spotify  shared.SpotifyConfig
	store    *TokenStore
	logger   *log.Logger

	userSource oauth2.TokenSource
	refresh    string
}

// NewTokenManager builds a manager from the Spotify credentials in cfg.
func NewTokenManager(cfg *shared.Config, logger *log.Logger) (*TokenManager, error) {
	sp := cfg.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	return &TokenManager{
		config: &oauth2.Config{
			ClientID:     sp.ClientID,
			ClientSecret: sp.ClientSecret,
			RedirectURL:  sp.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  AuthURL,
				TokenURL: TokenURL,
			},
		},
		appCreds: &clientcredentials.Config{
			ClientID:     sp.ClientID,
			ClientSecret: sp.ClientSecret,
			TokenURL:     TokenURL,
		},
		spotify: sp,
		store:   NewTokenStore(cfg.Output.TokenFile),
		logger:  logger,
	}, nil
}

// WithTokenURL overrides the token endpoint for both grants. Used by tests
// to point the manager at a local server.
func (m *TokenManager) WithTokenURL(tokenURL string) *TokenManager {
	m.config.Endpoint.TokenURL = tokenURL
	m.appCreds.TokenURL = tokenURL
	return m
}

// OAuthConfig exposes the user-grant configuration for the callback server.
func (m *TokenManager) OAuthConfig() *oauth2.Config {
	return m.config
}

// AuthCodeURL returns the authorization URL for the user login flow.
func (m *TokenManager) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and persists the refresh
// token for later runs.
func (m *TokenManager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %w", shared.ErrAuthFailed, err)
	}
	m.persist(token.RefreshToken)
	m.userSource = m.config.TokenSource(context.WithoutCancel(ctx), token)
	return token, nil
}

// UserToken returns a valid user access token, refreshing as needed.
func (m *TokenManager) UserToken(ctx context.Context) (string, error) {
	if m.userSource == nil {
		if err := m.initUserSource(ctx); err != nil {
			return "", err
		}
	}

	token, err := m.userSource.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	// The token endpoint may rotate the refresh token; oauth2 carries the
	// prior one forward when the response omits it.
	if token.RefreshToken != "" && token.RefreshToken != m.refresh {
		m.persist(token.RefreshToken)
	}

	return token.AccessToken, nil
}

// ClientToken returns an app-only access token via the client credentials
// grant. This token has no user scope and cannot read the library.
func (m *TokenManager) ClientToken(ctx context.Context) (string, error) {
	token, err := m.appCreds.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: client credentials grant failed: %w", shared.ErrAuthFailed, err)
	}
	return token.AccessToken, nil
}

// RefreshToken returns the refresh token currently in use, if any.
func (m *TokenManager) RefreshToken() string {
	if m.refresh != "" {
		return m.refresh
	}
	if stored, err := m.store.Load(); err == nil {
		return stored.RefreshToken
	}
	return ""
}

// initUserSource resolves a credential source in order: stored refresh token,
// configured refresh token, one-time authorization code. A refresh token is
// verified with an immediate refresh; rejection falls through to the next
// source rather than failing the run.
func (m *TokenManager) initUserSource(ctx context.Context) error {
	stored, err := m.store.Load()
	if err != nil {
		m.logger.Warn("could not read token file", "path", m.store.Path(), "error", err)
	}

	tried := false
	for _, refresh := range []string{stored.RefreshToken, m.spotify.RefreshToken} {
		if refresh == "" {
			continue
		}
		tried = true
		source := m.config.TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: refresh})
		if _, err := source.Token(); err != nil {
			m.logger.Warn("refresh token rejected, trying next credential source", "error", err)
			continue
		}
		m.refresh = refresh
		m.userSource = source
		return nil
	}

	if m.spotify.AuthorizationCode != "" {
		_, err := m.Exchange(ctx, m.spotify.AuthorizationCode)
		return err
	}

	if tried {
		return fmt.Errorf("%w: every refresh token was rejected, run the login flow", shared.ErrRefreshFailed)
	}
	return fmt.Errorf("%w: set a refresh token or run the login flow", shared.ErrNoRefreshToken)
}

// persist saves the refresh token, logging instead of failing: a missing
// token file only costs a re-auth on the next run.
func (m *TokenManager) persist(refreshToken string) {
	if refreshToken == "" {
		return
	}
	m.refresh = refreshToken
	if err := m.store.Save(refreshToken); err != nil {
		m.logger.Warn("could not persist refresh token", "path", m.store.Path(), "error", err)
		return
	}
	m.logger.Debug("refresh token saved", "path", m.store.Path())
}
