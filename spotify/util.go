package spotify

import (
	"errors"

	"github.com/mager/auricle/auricle"
	spot "github.com/zmb3/spotify/v2"
)

// ErrNotConfigured is returned by calls on a client built without credentials.
var ErrNotConfigured = errors.New("spotify: client not configured")

// MapArtist converts a Spotify artist to the catalog model
func MapArtist(a spot.FullArtist) auricle.Artist {
	return auricle.Artist{
		ID:   string(a.ID),
		Name: a.Name,
		URL:  ArtistURL(a.SimpleArtist),
	}
}

// ArtistURL returns the artist's open.spotify.com page, or "" if unknown
func ArtistURL(a spot.SimpleArtist) string {
	if u, ok := a.ExternalURLs["spotify"]; ok {
		return u
	}
	return ""
}

// AlbumIDs returns the distinct album IDs of the tracks, in order
func AlbumIDs(tracks []spot.FullTrack) []string {
	seen := make(map[spot.ID]struct{}, len(tracks))
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.Album.ID == "" {
			continue
		}
		if _, ok := seen[t.Album.ID]; ok {
			continue
		}
		seen[t.Album.ID] = struct{}{}
		ids = append(ids, string(t.Album.ID))
	}
	return ids
}
