package models

// ArtistRef is a minimal artist reference carried on export records.
type ArtistRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// LikedTrack is the minimal exported unit for a saved track.
//
// Immutable once written; it is the input to the enrichment stage.
type LikedTrack struct {
	TrackID   string      `json:"track_id"`
	TrackName string      `json:"track_name"`
	Artists   []ArtistRef `json:"artists"`
	AddedAt   string      `json:"added_at"`
}

// ArtistDetail is the enriched artist shape resolved from a batch lookup.
type ArtistDetail struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Genres         []string `json:"genres"`
	Popularity     *int     `json:"popularity"`
	FollowersTotal *int     `json:"followers_total"`
	SpotifyURL     string   `json:"spotify_url,omitempty"`
}

// Image is an album art variant.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// AlbumDetail is the resolved album shape attached to an enriched record.
type AlbumDetail struct {
	ID                   string  `json:"id,omitempty"`
	Name                 string  `json:"name"`
	ReleaseDate          string  `json:"release_date,omitempty"`
	ReleaseDatePrecision string  `json:"release_date_precision,omitempty"`
	TotalTracks          *int    `json:"total_tracks,omitempty"`
	AlbumType            string  `json:"album_type,omitempty"`
	Images               []Image `json:"images,omitempty"`
	AlbumSpotifyURL      string  `json:"album_spotify_url,omitempty"`
	Image300             string  `json:"image_300,omitempty"`
}

// VersionFlags marks track-title variants. A nil *VersionFlags means no flag
// matched; individual flags are omitted rather than serialized as false.
type VersionFlags struct {
	IsLive         bool `json:"is_live,omitempty"`
	IsRemix        bool `json:"is_remix,omitempty"`
	IsExtended     bool `json:"is_extended,omitempty"`
	IsInstrumental bool `json:"is_instrumental,omitempty"`
}

// AudioFeatureSet carries the subset of audio features the exporter keeps.
type AudioFeatureSet struct {
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
}

// EnrichedTrack is a LikedTrack joined with detail lookups.
//
// ArtistGenres is always the sorted, deduplicated union of genres across all
// the track's enriched artists. Built once per enrichment run and superseded
// entirely on re-run.
type EnrichedTrack struct {
	TrackID            string           `json:"track_id"`
	TrackName          string           `json:"track_name"`
	Artists            []ArtistRef      `json:"artists"`
	ArtistsJoined      string           `json:"artists_joined"`
	AddedAt            string           `json:"added_at"`
	DurationMS         *int             `json:"duration_ms"`
	Explicit           *bool            `json:"explicit"`
	Popularity         *int             `json:"popularity"`
	PreviewURL         string           `json:"preview_url,omitempty"`
	Album              *AlbumDetail     `json:"album"`
	ArtistsEnriched    []ArtistDetail   `json:"artists_enriched"`
	Year               string           `json:"year,omitempty"`
	TrackSpotifyURL    string           `json:"track_spotify_url,omitempty"`
	ArtistGenres       []string         `json:"artist_genres"`
	ArtistGenresJoined string           `json:"artist_genres_joined"`
	VersionFlags       *VersionFlags    `json:"version_flags,omitempty"`
	ISRC               string           `json:"isrc,omitempty"`
	MarketsCount       int              `json:"markets_count"`
	AudioFeatures      *AudioFeatureSet `json:"audio_features,omitempty"`
}

// CompactAlbum is the album projection kept on compact records.
type CompactAlbum struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	ReleaseDate     string `json:"release_date,omitempty"`
	AlbumSpotifyURL string `json:"album_spotify_url,omitempty"`
	Image300        string `json:"image_300,omitempty"`
}

// CompactTrack is the minimal UI-facing projection of an enriched record.
//
// Compaction is a filter as well as a projection: records missing artists, an
// album, or a canonical track URL are dropped, never nulled.
type CompactTrack struct {
	TrackID         string        `json:"track_id"`
	TrackName       string        `json:"track_name"`
	AddedAt         string        `json:"added_at"`
	Artists         []ArtistRef   `json:"artists"`
	Album           CompactAlbum  `json:"album"`
	TrackSpotifyURL string        `json:"track_spotify_url"`
	Year            string        `json:"year,omitempty"`
	ArtistGenres    []string      `json:"artist_genres,omitempty"`
	Popularity      *int          `json:"popularity,omitempty"`
	Explicit        bool          `json:"explicit,omitempty"`
	VersionFlags    *VersionFlags `json:"version_flags,omitempty"`
	ISRC            string        `json:"isrc,omitempty"`
}

// SkippedTrack records an id that could not be enriched after every fallback
// token was exhausted. Persisted as an auditable side channel.
type SkippedTrack struct {
	TrackID string `json:"track_id"`
	Status  *int   `json:"status,omitempty"`
	Error   string `json:"error"`
}

// StoredArtist is the relational artist shape served by the query API.
type StoredArtist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Genres   []string `json:"genres"`
	ImageURL string   `json:"image_url,omitempty"`
}

// StoredAlbum is the relational album shape served by the query API.
type StoredAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	ReleaseYear *int   `json:"release_year,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// StoredTrack is the persisted track entity served by the query API.
type StoredTrack struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	AddedAt    string         `json:"added_at"`
	DurationMS int            `json:"duration_ms"`
	Popularity *int           `json:"popularity,omitempty"`
	Artists    []StoredArtist `json:"artists"`
	Album      StoredAlbum    `json:"album"`
	PreviewURL string         `json:"preview_url,omitempty"`
	SpotifyURL string         `json:"spotify_url,omitempty"`
}
