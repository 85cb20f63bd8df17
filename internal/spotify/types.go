package spotify

const (
	AuthURL  = "https://accounts.spotify.com/authorize"
	TokenURL = "https://accounts.spotify.com/api/token"
	BaseURL  = "https://api.spotify.com/v1"
)

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type followers struct {
	Total int `json:"total"`
}

// Artist represents a Spotify artist. Genres and Followers are only populated
// on full artist objects returned by the artist endpoints, not on the
// simplified references embedded in tracks.
type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Popularity   *int         `json:"popularity"`
	Followers    *followers   `json:"followers"`
	Images       []Image      `json:"images"`
	ExternalURLs externalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Artists              []Artist     `json:"artists"`
	AlbumType            string       `json:"album_type"`
	ReleaseDate          string       `json:"release_date"`
	ReleaseDatePrecision string       `json:"release_date_precision"`
	TotalTracks          int          `json:"total_tracks"`
	Images               []Image      `json:"images"`
	ExternalURLs         externalURLs `json:"external_urls"`
	URI                  string       `json:"uri"`
}

// Track represents a Spotify track.
type Track struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Artists          []Artist     `json:"artists"`
	Album            Album        `json:"album"`
	DurationMS       int          `json:"duration_ms"`
	Explicit         bool         `json:"explicit"`
	Popularity       int          `json:"popularity"`
	PreviewURL       *string      `json:"preview_url"`
	AvailableMarkets []string     `json:"available_markets"`
	ExternalIDs      externalIDs  `json:"external_ids"`
	ExternalURLs     externalURLs `json:"external_urls"`
	URI              string       `json:"uri"`
}

// SavedTrack represents a track saved in the user's library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

// SavedTrackPage represents one page of the user's saved tracks.
type SavedTrackPage struct {
	Items    []SavedTrack `json:"items"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
}

// AudioFeatures represents the audio analysis summary for a track. Entries in
// a batch response can be null for tracks without analysis.
type AudioFeatures struct {
	ID           string  `json:"id"`
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
}

// User represents a Spotify user profile.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	Followers   followers `json:"followers"`
	Images      []Image   `json:"images"`
}
