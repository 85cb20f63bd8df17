package spotify

import (
	"context"
	"fmt"

	"github.com/desertthunder/slx/internal/models"
)

// Batch size limits per endpoint, from the provider's documented maximums.
const (
	TrackBatchSize   = 50
	ArtistBatchSize  = 50
	AlbumBatchSize   = 20
	FeatureBatchSize = 100
)

// ProgressFunc receives running counts after each processed batch.
type ProgressFunc func(processed, total int)

// fallbackStatus reports whether an error is a terminal rejection worth
// retrying with a different token. Transient statuses never reach here; the
// transport absorbs them.
func fallbackStatus(err error) bool {
	for _, status := range []int{400, 403, 404} {
		if IsStatus(err, status) {
			return true
		}
	}
	return false
}

type batchFunc[T any] func(ctx context.Context, token string, ids []string) ([]*T, error)

type singleFunc[T any] func(ctx context.Context, token, id string) (*T, error)

// fetchDetails resolves ids into a detail map using multi-id requests,
// degrading gracefully on partial failure.
//
// For each batch, tokens are tried in order; a token is only abandoned on a
// 400/403/404 rejection. When the whole batch is rejected on every token, the
// batch decomposes into per-id single requests with the same token ladder,
// and an id is recorded as skipped only once every token has been exhausted
// for it individually. Batches of size one skip immediately. Ids absent from
// a successful response are simply missing from the map, not an error.
//
// Any error that is not a token-fallback rejection aborts the whole fetch.
func fetchDetails[T any](
	ctx context.Context,
	tokens []string,
	ids []string,
	batchSize int,
	batch batchFunc[T],
	single singleFunc[T],
	keyOf func(*T) string,
	onProgress ProgressFunc,
) (map[string]*T, []models.SkippedTrack, error) {
	unique := dedupe(ids)
	details := make(map[string]*T, len(unique))
	var skipped []models.SkippedTrack

	total := len(unique)
	processed := 0

	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)
		chunk := unique[start:end]

		resolved, err := tryTokens(tokens, func(token string) ([]*T, error) {
			return batch(ctx, token, chunk)
		})
		switch {
		case err == nil:
			for _, item := range resolved {
				if item != nil {
					details[keyOf(item)] = item
				}
			}
		case fallbackStatus(err):
			if len(chunk) == 1 {
				skipped = append(skipped, skipRecord(chunk[0], err))
				break
			}
			perItem, itemSkips, itemErr := fetchPerItem(ctx, tokens, chunk, single, keyOf)
			if itemErr != nil {
				return nil, nil, itemErr
			}
			for id, item := range perItem {
				details[id] = item
			}
			skipped = append(skipped, itemSkips...)
		default:
			return nil, nil, err
		}

		processed += len(chunk)
		if onProgress != nil {
			onProgress(processed, total)
		}
	}

	return details, skipped, nil
}

// fetchPerItem resolves ids one at a time after a whole batch was rejected.
func fetchPerItem[T any](
	ctx context.Context,
	tokens []string,
	ids []string,
	single singleFunc[T],
	keyOf func(*T) string,
) (map[string]*T, []models.SkippedTrack, error) {
	details := make(map[string]*T, len(ids))
	var skipped []models.SkippedTrack

	for _, id := range ids {
		item, err := tryTokens(tokens, func(token string) (*T, error) {
			return single(ctx, token, id)
		})
		switch {
		case err == nil:
			if item != nil {
				details[keyOf(item)] = item
			}
		case fallbackStatus(err):
			skipped = append(skipped, skipRecord(id, err))
		default:
			return nil, nil, err
		}
	}

	return details, skipped, nil
}

// tryTokens runs fn with each token in order, moving on only when the failure
// is a token-fallback rejection. The last error wins.
func tryTokens[R any](tokens []string, fn func(token string) (R, error)) (R, error) {
	var zero R
	var lastErr error

	for _, token := range tokens {
		result, err := fn(token)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !fallbackStatus(err) {
			return zero, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no tokens supplied")
	}
	return zero, lastErr
}

func skipRecord(id string, err error) models.SkippedTrack {
	return models.SkippedTrack{
		TrackID: id,
		Status:  StatusOf(err),
		Error:   err.Error(),
	}
}

// dedupe removes duplicate ids preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var unique []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// TrackDetails resolves full track objects for the given ids.
func (c *Client) TrackDetails(ctx context.Context, tokens []string, ids []string, onProgress ProgressFunc) (map[string]*Track, []models.SkippedTrack, error) {
	return fetchDetails(ctx, tokens, ids, TrackBatchSize,
		c.SeveralTracks, c.Track,
		func(t *Track) string { return t.ID }, onProgress)
}

// ArtistDetails resolves full artist objects for the given ids.
func (c *Client) ArtistDetails(ctx context.Context, tokens []string, ids []string, onProgress ProgressFunc) (map[string]*Artist, []models.SkippedTrack, error) {
	return fetchDetails(ctx, tokens, ids, ArtistBatchSize,
		c.SeveralArtists, c.Artist,
		func(a *Artist) string { return a.ID }, onProgress)
}

// AlbumDetails resolves full album objects for the given ids.
func (c *Client) AlbumDetails(ctx context.Context, tokens []string, ids []string, onProgress ProgressFunc) (map[string]*Album, []models.SkippedTrack, error) {
	return fetchDetails(ctx, tokens, ids, AlbumBatchSize,
		c.SeveralAlbums, c.Album,
		func(a *Album) string { return a.ID }, onProgress)
}

// AudioFeatureDetails resolves audio features for the given track ids. The
// caller usually passes the app-only token first and the user token as the
// fallback so bulk lookups stay out of the user's rate-limit bucket.
func (c *Client) AudioFeatureDetails(ctx context.Context, tokens []string, ids []string, onProgress ProgressFunc) (map[string]*AudioFeatures, []models.SkippedTrack, error) {
	return fetchDetails(ctx, tokens, ids, FeatureBatchSize,
		c.SeveralAudioFeatures, c.AudioFeaturesForTrack,
		func(f *AudioFeatures) string { return f.ID }, onProgress)
}
