package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mager/auricle/auricle"
	"github.com/mager/auricle/config"
	spot "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1/"
	// maxAlbumIDs is the most album IDs the several-albums endpoint accepts.
	maxAlbumIDs = 20
)

// SpotifyClient is the app's handle on the Spotify Web API. A client built
// without credentials is valid but unconfigured and refuses all calls.
type SpotifyClient struct {
	Client *spot.Client

	httpClient *http.Client
	baseURL    string
	market     string
}

// NewSpotifyClient wraps an authenticated HTTP client. baseURL must end in a slash.
func NewSpotifyClient(httpClient *http.Client, baseURL, market string) *SpotifyClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &SpotifyClient{
		Client:     spot.New(httpClient, spot.WithBaseURL(baseURL)),
		httpClient: httpClient,
		baseURL:    baseURL,
		market:     market,
	}
}

// ProvideSpotify provides a client-credentials Spotify client, or an
// unconfigured one when credentials are missing.
func ProvideSpotify(cfg config.Config, log *zap.SugaredLogger) *SpotifyClient {
	if !cfg.SpotifyConfigured() {
		log.Warn("spotify credentials not set, label search disabled")
		return &SpotifyClient{market: cfg.SpotifyMarket}
	}

	log.Infow("setting up spotify client", "market", cfg.SpotifyMarket)

	ccfg := &clientcredentials.Config{
		ClientID:     cfg.SpotifyID,
		ClientSecret: cfg.SpotifySecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return NewSpotifyClient(ccfg.Client(context.Background()), defaultBaseURL, cfg.SpotifyMarket)
}

// Configured reports whether the client can reach Spotify.
func (c *SpotifyClient) Configured() bool {
	return c != nil && c.Client != nil
}

// SearchArtists runs an artist search and returns at most limit artists.
func (c *SpotifyClient) SearchArtists(ctx context.Context, query string, limit int) ([]auricle.Artist, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	results, err := c.Client.Search(ctx, query, spot.SearchTypeArtist, spot.Limit(limit))
	if err != nil {
		return nil, err
	}
	if results == nil || results.Artists == nil {
		return nil, nil
	}

	artists := make([]auricle.Artist, 0, len(results.Artists.Artists))
	for _, a := range results.Artists.Artists {
		artists = append(artists, MapArtist(a))
		if len(artists) == limit {
			break
		}
	}
	return artists, nil
}

// TopTracks returns an artist's top tracks with their album labels filled in.
func (c *SpotifyClient) TopTracks(ctx context.Context, artistID string) ([]auricle.Track, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	full, err := c.Client.GetArtistsTopTracks(ctx, spot.ID(artistID), c.market)
	if err != nil {
		return nil, err
	}
	if len(full) == 0 {
		return nil, nil
	}

	labels, err := c.albumLabels(ctx, AlbumIDs(full))
	if err != nil {
		return nil, err
	}

	tracks := make([]auricle.Track, 0, len(full))
	for _, t := range full {
		tracks = append(tracks, auricle.Track{
			ID:      string(t.ID),
			Name:    t.Name,
			AlbumID: string(t.Album.ID),
			Label:   strings.TrimSpace(labels[string(t.Album.ID)]),
		})
	}
	return tracks, nil
}

type severalAlbumsResponse struct {
	Albums []*struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"albums"`
}

// albumLabels looks up the record label of each album. The zmb3 album
// types do not carry the label field, so this reads the raw endpoint
// through the same authenticated client.
func (c *SpotifyClient) albumLabels(ctx context.Context, ids []string) (map[string]string, error) {
	labels := make(map[string]string, len(ids))

	for start := 0; start < len(ids); start += maxAlbumIDs {
		end := min(start+maxAlbumIDs, len(ids))

		q := url.Values{}
		q.Set("ids", strings.Join(ids[start:end], ","))
		if c.market != "" {
			q.Set("market", c.market)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"albums?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("get albums: %w", err)
		}

		var body severalAlbumsResponse
		err = decodeResponse(resp, &body)
		if err != nil {
			return nil, fmt.Errorf("get albums: %w", err)
		}

		for _, a := range body.Albums {
			if a != nil {
				labels[a.ID] = a.Label
			}
		}
	}

	return labels, nil
}

func decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error spot.Error `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error.Message == "" {
			return fmt.Errorf("spotify: unexpected status %d", resp.StatusCode)
		}
		return e.Error
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

var Options = ProvideSpotify
