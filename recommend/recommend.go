package recommend

import (
	"context"
	"fmt"
	"iter"

	"github.com/mager/auricle/auricle"
	"github.com/mager/auricle/style"
	"go.uber.org/zap"
)

const (
	keywordsPerSearch = 2
	artistsPerKeyword = 5
	tracksPerArtist   = 2
	dashboardURL      = "https://developer.spotify.com/dashboard"
)

// Catalog is the music catalog the recommender searches.
type Catalog interface {
	// Configured reports whether the catalog has credentials.
	Configured() bool
	SearchArtists(ctx context.Context, query string, limit int) ([]auricle.Artist, error)
	TopTracks(ctx context.Context, artistID string) ([]auricle.Track, error)
}

// Placeholder is returned while the catalog has no credentials.
var Placeholder = []auricle.Label{
	{Name: "Spotify API not configured", URL: dashboardURL},
	{Name: "Set SPOTIFY_CLIENT_ID", URL: dashboardURL},
	{Name: "Set SPOTIFY_CLIENT_SECRET", URL: dashboardURL},
}

// Recommender finds record labels associated with a tempo's style.
type Recommender struct {
	log     *zap.SugaredLogger
	catalog Catalog
}

// NewRecommender builds a Recommender backed by catalog.
func NewRecommender(log *zap.SugaredLogger, catalog Catalog) *Recommender {
	return &Recommender{
		log:     log,
		catalog: catalog,
	}
}

// Recommend returns at most auricle.MaxLabels labels with unique names.
// Catalog failures never surface as errors: an unconfigured catalog yields
// Placeholder, a failed search yields a single diagnostic entry and an
// empty search yields the bucket's fallback list.
func (r *Recommender) Recommend(ctx context.Context, tempo float64) []auricle.Label {
	if r.catalog == nil || !r.catalog.Configured() {
		return clone(Placeholder)
	}

	keywords := style.Keywords(tempo)
	if len(keywords) > keywordsPerSearch {
		keywords = keywords[:keywordsPerSearch]
	}

	labels, err := take(unique(r.candidates(ctx, keywords)), auricle.MaxLabels)
	if err != nil {
		r.log.Errorw("catalog search failed", "tempo", tempo, "error", err)
		return []auricle.Label{{Name: fmt.Sprintf("Search error: %s", err), URL: ""}}
	}

	if len(labels) == 0 {
		r.log.Infow("no labels found, using fallback", "tempo", tempo)
		labels = style.Fallback(tempo)
	}

	if len(labels) > auricle.MaxLabels {
		labels = labels[:auricle.MaxLabels]
	}

	r.log.Infow("labels recommended", "tempo", tempo, "count", len(labels))
	return labels
}

// candidates yields a label for every inspected track that carries one, in
// search order. Catalog calls are made only as the consumer pulls.
func (r *Recommender) candidates(ctx context.Context, keywords []string) iter.Seq2[auricle.Label, error] {
	return func(yield func(auricle.Label, error) bool) {
		for _, keyword := range keywords {
			artists, err := r.catalog.SearchArtists(ctx, "genre:"+keyword, artistsPerKeyword)
			if err != nil {
				yield(auricle.Label{}, fmt.Errorf("search artists %q: %w", keyword, err))
				return
			}

			for _, artist := range artists {
				tracks, err := r.catalog.TopTracks(ctx, artist.ID)
				if err != nil {
					yield(auricle.Label{}, fmt.Errorf("top tracks for %s: %w", artist.ID, err))
					return
				}

				if len(tracks) > tracksPerArtist {
					tracks = tracks[:tracksPerArtist]
				}
				for _, track := range tracks {
					if track.Label == "" {
						continue
					}
					if !yield(auricle.Label{Name: track.Label, URL: artist.URL}, nil) {
						return
					}
				}
			}
		}
	}
}

// unique drops labels whose name was already yielded. Names are compared exactly.
func unique(seq iter.Seq2[auricle.Label, error]) iter.Seq2[auricle.Label, error] {
	return func(yield func(auricle.Label, error) bool) {
		seen := make(map[string]struct{})
		for l, err := range seq {
			if err != nil {
				yield(l, err)
				return
			}
			if _, ok := seen[l.Name]; ok {
				continue
			}
			seen[l.Name] = struct{}{}
			if !yield(l, nil) {
				return
			}
		}
	}
}

// take collects up to n labels from seq and stops pulling once it has them.
func take(seq iter.Seq2[auricle.Label, error], n int) ([]auricle.Label, error) {
	out := make([]auricle.Label, 0, n)
	if n <= 0 {
		return out, nil
	}
	for l, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, l)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func clone(labels []auricle.Label) []auricle.Label {
	out := make([]auricle.Label, len(labels))
	copy(out, labels)
	return out
}
