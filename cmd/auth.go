package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/slx/internal/server"
	"github.com/desertthunder/slx/internal/shared"
	"github.com/desertthunder/slx/internal/spotify"
)

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// persists the resulting refresh token for later runs.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	if err := r.config.Validate(); err != nil {
		return err
	}

	tokens, err := spotify.NewTokenManager(r.config, r.logger)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(tokens)
	if err != nil {
		return err
	}

	if token.RefreshToken == "" {
		r.logger.Warn("authorization response carried no refresh token")
	} else if err := spotify.NewTokenStore(r.config.Output.TokenFile).Save(token.RefreshToken); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Refresh token saved to %s\n\n", r.config.Output.TokenFile)
	r.writePlain("You can now use: slx run\n")

	return nil
}

// AuthStatus checks the current authentication state by resolving a user
// token and fetching the profile it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	if err := r.config.Validate(); err != nil {
		return err
	}

	tokens, err := spotify.NewTokenManager(r.config, r.logger)
	if err != nil {
		return err
	}

	if tokens.RefreshToken() == "" && r.config.Spotify.AuthorizationCode == "" {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		r.writePlain("Run 'slx auth login' to authorize.\n")
		return nil
	}

	accessToken, err := tokens.UserToken(ctx)
	if err != nil {
		r.writePlain("Authentication: ✗ Token refresh failed\n")
		return err
	}

	client := spotify.NewClient(spotify.NewTransport(r.logger), r.logger)
	user, err := client.Me(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("%w: profile lookup failed: %w", shared.ErrAPIRequest, err)
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	r.writePlain("Account: %s (%s)\n", user.DisplayName, user.ID)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(tokens *spotify.TokenManager) (*oauth2.Token, error) {
	state := shared.GenerateID()
	authURL := tokens.AuthCodeURL(state)

	oauthHandler := server.NewOAuthHandler(tokens.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrAuthFailed)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
