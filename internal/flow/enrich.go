package flow

import (
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/slx/internal/models"
	"github.com/desertthunder/slx/internal/spotify"
)

// albumArtTargetWidth is the preferred album art size for downstream UIs.
const albumArtTargetWidth = 300

var versionPatterns = map[string]*regexp.Regexp{
	"live":         regexp.MustCompile(`(?i)\blive\b`),
	"remix":        regexp.MustCompile(`(?i)\bremix\b`),
	"extended":     regexp.MustCompile(`(?i)\bextended\b`),
	"instrumental": regexp.MustCompile(`(?i)\binstrumental\b`),
}

// MergeDetails joins base export records with their resolved track, artist
// and album details into enriched records.
//
// Pure with respect to its inputs: no network access, no mutation of the
// detail maps. A base record whose track detail is missing degrades to its
// own sparse fields with a logged warning; it never fails the merge.
func MergeDetails(
	base []models.LikedTrack,
	trackDetails map[string]*spotify.Track,
	artistDetails map[string]*spotify.Artist,
	albumDetails map[string]*spotify.Album,
	logger *log.Logger,
) []models.EnrichedTrack {
	enriched := make([]models.EnrichedTrack, 0, len(base))

	for _, record := range base {
		detail := trackDetails[record.TrackID]
		if detail == nil {
			logger.Warn("no track detail resolved, keeping sparse record", "track_id", record.TrackID, "name", record.TrackName)
			enriched = append(enriched, sparseRecord(record))
			continue
		}

		artists := resolveArtists(detail.Artists, artistDetails)
		genres := genreUnion(artists)
		album := resolveAlbum(detail.Album, albumDetails)

		track := models.EnrichedTrack{
			TrackID:            record.TrackID,
			TrackName:          detail.Name,
			Artists:            artistRefs(detail.Artists),
			ArtistsJoined:      joinNames(detail.Artists),
			AddedAt:            record.AddedAt,
			DurationMS:         &detail.DurationMS,
			Explicit:           &detail.Explicit,
			Popularity:         &detail.Popularity,
			Album:              album,
			ArtistsEnriched:    artists,
			Year:               yearOf(album.ReleaseDate),
			TrackSpotifyURL:    detail.ExternalURLs.Spotify,
			ArtistGenres:       genres,
			ArtistGenresJoined: strings.Join(genres, ", "),
			VersionFlags:       versionFlags(detail.Name),
			ISRC:               detail.ExternalIDs.ISRC,
			MarketsCount:       len(detail.AvailableMarkets),
		}
		if detail.PreviewURL != nil {
			track.PreviewURL = *detail.PreviewURL
		}

		enriched = append(enriched, track)
	}

	return enriched
}

// AttachAudioFeatures annotates enriched records in place with their resolved
// audio features. Records without a resolved entry are left untouched.
func AttachAudioFeatures(tracks []models.EnrichedTrack, features map[string]*spotify.AudioFeatures) {
	for i := range tracks {
		f := features[tracks[i].TrackID]
		if f == nil {
			continue
		}
		tracks[i].AudioFeatures = &models.AudioFeatureSet{
			Valence:      f.Valence,
			Energy:       f.Energy,
			Danceability: f.Danceability,
			Tempo:        f.Tempo,
		}
	}
}

// sparseRecord builds an enriched record from the base export fields alone.
func sparseRecord(record models.LikedTrack) models.EnrichedTrack {
	names := make([]string, 0, len(record.Artists))
	for _, a := range record.Artists {
		names = append(names, a.Name)
	}
	return models.EnrichedTrack{
		TrackID:         record.TrackID,
		TrackName:       record.TrackName,
		Artists:         record.Artists,
		ArtistsJoined:   strings.Join(names, ", "),
		AddedAt:         record.AddedAt,
		ArtistsEnriched: []models.ArtistDetail{},
		ArtistGenres:    []string{},
		VersionFlags:    versionFlags(record.TrackName),
	}
}

// resolveArtists maps embedded artist references through the detail map,
// degrading to the embedded name when a detail was not resolved.
func resolveArtists(refs []spotify.Artist, details map[string]*spotify.Artist) []models.ArtistDetail {
	resolved := make([]models.ArtistDetail, 0, len(refs))
	for _, ref := range refs {
		if detail := details[ref.ID]; detail != nil {
			artist := models.ArtistDetail{
				ID:         detail.ID,
				Name:       detail.Name,
				Genres:     detail.Genres,
				Popularity: detail.Popularity,
				SpotifyURL: detail.ExternalURLs.Spotify,
			}
			if artist.Genres == nil {
				artist.Genres = []string{}
			}
			if detail.Followers != nil {
				artist.FollowersTotal = &detail.Followers.Total
			}
			resolved = append(resolved, artist)
			continue
		}
		resolved = append(resolved, models.ArtistDetail{
			ID:         ref.ID,
			Name:       ref.Name,
			Genres:     []string{},
			SpotifyURL: ref.ExternalURLs.Spotify,
		})
	}
	return resolved
}

// resolveAlbum prefers the separately fetched album detail over the track's
// embedded album summary, which often lacks release date and images.
func resolveAlbum(embedded spotify.Album, details map[string]*spotify.Album) *models.AlbumDetail {
	source := &embedded
	if detail := details[embedded.ID]; detail != nil {
		source = detail
	}

	album := &models.AlbumDetail{
		ID:                   source.ID,
		Name:                 source.Name,
		ReleaseDate:          source.ReleaseDate,
		ReleaseDatePrecision: source.ReleaseDatePrecision,
		AlbumType:            source.AlbumType,
		AlbumSpotifyURL:      source.ExternalURLs.Spotify,
		Image300:             nearestImage(source.Images, albumArtTargetWidth),
	}
	if source.TotalTracks > 0 {
		total := source.TotalTracks
		album.TotalTracks = &total
	}
	for _, img := range source.Images {
		album.Images = append(album.Images, models.Image{URL: img.URL, Width: img.Width, Height: img.Height})
	}
	return album
}

// genreUnion collects genres across all resolved artists, deduplicated and
// sorted lexicographically.
func genreUnion(artists []models.ArtistDetail) []string {
	seen := make(map[string]struct{})
	union := []string{}
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			if _, ok := seen[genre]; ok {
				continue
			}
			seen[genre] = struct{}{}
			union = append(union, genre)
		}
	}
	sort.Strings(union)
	return union
}

// versionFlags scans a track title for whole-word version markers. Returns
// nil when nothing matches: absence, not negation, is the empty state.
func versionFlags(title string) *models.VersionFlags {
	flags := models.VersionFlags{
		IsLive:         versionPatterns["live"].MatchString(title),
		IsRemix:        versionPatterns["remix"].MatchString(title),
		IsExtended:     versionPatterns["extended"].MatchString(title),
		IsInstrumental: versionPatterns["instrumental"].MatchString(title),
	}
	if !flags.IsLive && !flags.IsRemix && !flags.IsExtended && !flags.IsInstrumental {
		return nil
	}
	return &flags
}

// nearestImage picks the variant whose width is closest to target. Ties favor
// the first encountered.
func nearestImage(images []spotify.Image, target int) string {
	best := ""
	bestDiff := -1
	for _, img := range images {
		diff := img.Width - target
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best = img.URL
			bestDiff = diff
		}
	}
	return best
}

// yearOf extracts the year from a release date, empty when the date is
// missing or malformed.
func yearOf(releaseDate string) string {
	if len(releaseDate) < 4 {
		return ""
	}
	return releaseDate[:4]
}

func artistRefs(artists []spotify.Artist) []models.ArtistRef {
	refs := make([]models.ArtistRef, 0, len(artists))
	for _, a := range artists {
		refs = append(refs, models.ArtistRef{ID: a.ID, Name: a.Name})
	}
	return refs
}

func joinNames(artists []spotify.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
