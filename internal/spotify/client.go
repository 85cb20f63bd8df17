package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
)

const savedTracksPageSize = 50

// Client wraps the catalog and library endpoints behind the retry transport.
type Client struct {
	transport *Transport
	logger    *log.Logger
	baseURL   string
}

// NewClient creates a client over the given transport.
func NewClient(transport *Transport, logger *log.Logger) *Client {
	return &Client{
		transport: transport,
		logger:    logger,
		baseURL:   BaseURL,
	}
}

// WithBaseURL overrides the API base URL. Used by tests to point the client
// at a local server.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimSuffix(base, "/")
	return c
}

// get performs an authenticated GET against an endpoint path or absolute URL
// and decodes the JSON response into result.
func (c *Client) get(ctx context.Context, token, endpoint string, result any) error {
	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		apiURL = c.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Me retrieves the authenticated user's profile.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.get(ctx, token, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracksPage retrieves one page of the user's saved tracks.
func (c *Client) SavedTracksPage(ctx context.Context, token string, limit, offset int) (*SavedTrackPage, error) {
	if limit <= 0 || limit > savedTracksPageSize {
		limit = savedTracksPageSize
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var page SavedTrackPage
	if err := c.get(ctx, token, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AllSavedTracks retrieves the user's entire saved-tracks library by walking
// the server's next-page cursor. Pages are fetched strictly sequentially; the
// cursor for page N+1 is only known after page N. pageLimit > 0 caps the
// number of pages for bounded runs. onPage, when set, fires after each page
// with the running and total counts.
func (c *Client) AllSavedTracks(ctx context.Context, token string, pageLimit int, onPage func(fetched, total int)) ([]SavedTrack, error) {
	var all []SavedTrack

	page, err := c.SavedTracksPage(ctx, token, savedTracksPageSize, 0)
	if err != nil {
		return nil, err
	}

	for pageNum := 1; ; pageNum++ {
		all = append(all, page.Items...)
		if onPage != nil {
			onPage(len(all), page.Total)
		}
		c.logger.Debug("fetched saved tracks page", "page", pageNum, "fetched", len(all), "total", page.Total)

		if page.Next == nil {
			break
		}
		if pageLimit > 0 && pageNum >= pageLimit {
			c.logger.Info("page limit reached", "pages", pageNum)
			break
		}

		next := new(SavedTrackPage)
		if err := c.get(ctx, token, *page.Next, next); err != nil {
			return nil, err
		}
		page = next
	}

	return all, nil
}

// Track retrieves a single track by ID.
func (c *Client) Track(ctx context.Context, token, trackID string) (*Track, error) {
	var track Track
	if err := c.get(ctx, token, "/tracks/"+url.PathEscape(trackID), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Artist retrieves a single artist by ID.
func (c *Client) Artist(ctx context.Context, token, artistID string) (*Artist, error) {
	var artist Artist
	if err := c.get(ctx, token, "/artists/"+url.PathEscape(artistID), &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// Album retrieves a single album by ID.
func (c *Client) Album(ctx context.Context, token, albumID string) (*Album, error) {
	var album Album
	if err := c.get(ctx, token, "/albums/"+url.PathEscape(albumID), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// AudioFeaturesForTrack retrieves the audio features of a single track.
func (c *Client) AudioFeaturesForTrack(ctx context.Context, token, trackID string) (*AudioFeatures, error) {
	var features AudioFeatures
	if err := c.get(ctx, token, "/audio-features/"+url.PathEscape(trackID), &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// SeveralTracks retrieves up to 50 tracks in one request. Entries the server
// could not resolve come back null and are dropped.
func (c *Client) SeveralTracks(ctx context.Context, token string, ids []string) ([]*Track, error) {
	var response struct {
		Tracks []*Track `json:"tracks"`
	}
	if err := c.get(ctx, token, "/tracks?ids="+url.QueryEscape(strings.Join(ids, ",")), &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// SeveralArtists retrieves up to 50 artists in one request.
func (c *Client) SeveralArtists(ctx context.Context, token string, ids []string) ([]*Artist, error) {
	var response struct {
		Artists []*Artist `json:"artists"`
	}
	if err := c.get(ctx, token, "/artists?ids="+url.QueryEscape(strings.Join(ids, ",")), &response); err != nil {
		return nil, err
	}
	return response.Artists, nil
}

// SeveralAlbums retrieves up to 20 albums in one request.
func (c *Client) SeveralAlbums(ctx context.Context, token string, ids []string) ([]*Album, error) {
	var response struct {
		Albums []*Album `json:"albums"`
	}
	if err := c.get(ctx, token, "/albums?ids="+url.QueryEscape(strings.Join(ids, ",")), &response); err != nil {
		return nil, err
	}
	return response.Albums, nil
}

// SeveralAudioFeatures retrieves audio features for up to 100 tracks in one
// request. Tracks without analysis come back null.
func (c *Client) SeveralAudioFeatures(ctx context.Context, token string, ids []string) ([]*AudioFeatures, error) {
	var response struct {
		AudioFeatures []*AudioFeatures `json:"audio_features"`
	}
	if err := c.get(ctx, token, "/audio-features?ids="+url.QueryEscape(strings.Join(ids, ",")), &response); err != nil {
		return nil, err
	}
	return response.AudioFeatures, nil
}
