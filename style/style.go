package style

import (
	"math"

	"github.com/mager/auricle/auricle"
)

// Bucket is one row of the tempo table. A tempo belongs to the first bucket
// whose Upper bound is strictly greater than it.
type Bucket struct {
	Upper    float64
	Style    auricle.Style
	Keywords []string
	Fallback []auricle.Label
}

// Buckets is ordered ascending by Upper. The last bound is +Inf.
var Buckets = []Bucket{
	{
		Upper:    90,
		Style:    auricle.StyleAmbient,
		Keywords: []string{"ambient", "downtempo", "chillout", "lofi"},
		Fallback: []auricle.Label{
			{Name: "Ninja Tune", URL: "https://open.spotify.com/label/0aOC4pKKYl9wDLqaScqBKq"},
			{Name: "Ghostly International", URL: "https://open.spotify.com/label/0f1J4JvjYbVB1p1ZvLQmZg"},
			{Name: "Warp Records", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
		},
	},
	{
		Upper:    115,
		Style:    auricle.StylePop,
		Keywords: []string{"pop", "rnb", "indie", "alternative"},
		Fallback: []auricle.Label{
			{Name: "XL Recordings", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Interscope Records", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Republic Records", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
		},
	},
	{
		Upper:    128,
		Style:    auricle.StyleHouse,
		Keywords: []string{"house", "deep house", "tech house"},
		Fallback: []auricle.Label{
			{Name: "Defected Records", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Toolroom Records", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Spinnin' Deep", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
		},
	},
	{
		Upper:    140,
		Style:    auricle.StyleTechno,
		Keywords: []string{"techno", "minimal techno", "progressive"},
		Fallback: []auricle.Label{
			{Name: "Drumcode", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Afterlife", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "KNTXT", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
		},
	},
	{
		Upper:    160,
		Style:    auricle.StyleDrumBass,
		Keywords: []string{"drum and bass", "dnb", "jungle"},
		Fallback: []auricle.Label{
			{Name: "Hospital Records", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "RAM Records", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Critical Music", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
		},
	},
	{
		Upper:    math.Inf(1),
		Style:    auricle.StyleHardcore,
		Keywords: []string{"hardcore", "hardstyle", "gabber"},
		Fallback: []auricle.Label{
			{Name: "Masters of Hardcore", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Q-dance", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
			{Name: "Dirty Workz", URL: "https://open.spotify.com/label/0aT7J5CbM8kHPVnFLGZsLz"},
		},
	},
}

// Lookup returns the bucket containing tempo. Negative tempos land in the
// first bucket, NaN in the last.
func Lookup(tempo float64) Bucket {
	for _, b := range Buckets {
		if tempo < b.Upper {
			return b
		}
	}
	return Buckets[len(Buckets)-1]
}

// Classify maps a tempo to its style.
func Classify(tempo float64) auricle.Style {
	return Lookup(tempo).Style
}

// Keywords returns the catalog genre keywords for a tempo.
func Keywords(tempo float64) []string {
	kw := Lookup(tempo).Keywords
	out := make([]string, len(kw))
	copy(out, kw)
	return out
}

// Fallback returns the curated labels for a tempo's bucket.
func Fallback(tempo float64) []auricle.Label {
	fb := Lookup(tempo).Fallback
	out := make([]auricle.Label, len(fb))
	copy(out, fb)
	return out
}
