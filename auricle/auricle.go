package auricle

// DefaultTempo is reported when tempo detection fails or is inconclusive.
const DefaultTempo = 120.0

// MaxLabels caps the number of recommended labels in a single response.
const MaxLabels = 8

// Style is a coarse musical style derived from tempo.
type Style string

const (
	StyleAmbient  Style = "Ambient/Downtempo"
	StylePop      Style = "Pop/R&B"
	StyleHouse    Style = "House"
	StyleTechno   Style = "Techno"
	StyleDrumBass Style = "Drum & Bass/Jungle"
	StyleHardcore Style = "Fast Electronic/Hardcore"
)

// Label is a record label recommendation.
type Label struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Artist is an artist returned by a catalog search.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// URL is the artist's public profile page.
	URL string `json:"url"`
}

// Track is one of an artist's top tracks.
type Track struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AlbumID string `json:"album_id"`
	// Label is the record label of the track's album. Empty when the
	// catalog has no label metadata for it.
	Label string `json:"label"`
}

// Features are the spectral measurements taken from an upload.
type Features struct {
	// Tempo is the estimated tempo in beats per minute. Always > 0.
	// Example: 123.05
	Tempo float64 `json:"tempo"`
	// Duration is the length of the decoded audio in seconds.
	Duration float64 `json:"duration"`
	// SpectralCentroid is the mean spectral centroid in Hz, a rough measure of brightness.
	SpectralCentroid float64 `json:"spectral_centroid"`
	// RMSEnergy is the root mean square amplitude of the mono signal, from 0.0 to 1.0.
	RMSEnergy float64 `json:"rms_energy"`
}

// AnalysisResult is the response body of a successful analysis.
type AnalysisResult struct {
	Tempo             float64 `json:"tempo"`
	Style             Style   `json:"style"`
	RecommendedLabels []Label `json:"recommended_labels"`

	Duration         float64 `json:"duration,omitempty"`
	SpectralCentroid float64 `json:"spectral_centroid,omitempty"`
	RMSEnergy        float64 `json:"rms_energy,omitempty"`
}
