// Package spotify implements the Spotify Web API client used by the exporter.
//
// The package is split along the API's failure modes: [Transport] owns the
// retry and rate limit policy for a single request, [TokenManager] owns the
// OAuth token lifecycle for both the user and client-credentials grants, and
// [Client] composes them into paginated and batched catalog operations.
//
// API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify
