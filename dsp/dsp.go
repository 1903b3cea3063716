// Package dsp estimates tempo and simple spectral features from mono PCM.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mager/auricle/audio"
	"github.com/mager/auricle/auricle"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultFrameSize = 1024
	defaultHopSize   = 512

	minBPM = 60.0
	maxBPM = 200.0

	// minOnsetFrames is roughly two seconds at 22050 Hz. Shorter clips
	// report the default tempo.
	minOnsetFrames = 100

	// Autocorrelation peaks are weighted by a log-normal prior around
	// priorBPM with a spread of priorOctaves, which keeps clean click
	// tracks from locking onto their half-tempo sub-harmonic.
	priorBPM     = 120.0
	priorOctaves = 0.5

	// The prior buries tempos above ~175 BPM under their half-tempo
	// reading. Double the tempo when the half lag keeps at least this
	// share of the raw correlation.
	halfLagRatio = 0.7
)

// Analyzer measures tempo, spectral centroid and energy.
// It is safe for concurrent use.
type Analyzer struct {
	frameSize int
	hopSize   int
}

// NewAnalyzer builds an Analyzer with a 1024-sample frame and 512-sample hop.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		frameSize: defaultFrameSize,
		hopSize:   defaultHopSize,
	}
}

// Analyze expects mono PCM. Tempo is always > 0 and falls back to
// auricle.DefaultTempo when the signal is too short or has no pulse.
func (a *Analyzer) Analyze(pcm audio.PCM) auricle.Features {
	f := auricle.Features{
		Tempo:    auricle.DefaultTempo,
		Duration: round(pcm.Duration(), 3),
	}
	if len(pcm.Samples) == 0 || pcm.SampleRate <= 0 {
		return f
	}

	x := make([]float64, len(pcm.Samples))
	for i, s := range pcm.Samples {
		x[i] = float64(s)
	}
	f.RMSEnergy = round(math.Sqrt(floats.Dot(x, x)/float64(len(x))), 4)

	onset, centroid := a.spectralFlux(x, pcm.SampleRate)
	f.SpectralCentroid = round(centroid, 2)
	f.Tempo = EstimateTempo(onset, pcm.SampleRate, a.hopSize)

	return f
}

// spectralFlux returns the half-wave rectified spectral flux per frame and
// the mean spectral centroid in Hz across frames that carry energy.
func (a *Analyzer) spectralFlux(x []float64, sampleRate int) ([]float64, float64) {
	if len(x) < a.frameSize {
		return nil, 0
	}
	numFrames := (len(x)-a.frameSize)/a.hopSize + 1

	fft := fourier.NewFFT(a.frameSize)
	window := hann(a.frameSize)
	frame := make([]float64, a.frameSize)
	coeffs := make([]complex128, a.frameSize/2+1)
	mag := make([]float64, len(coeffs))
	prev := make([]float64, len(coeffs))
	binHz := float64(sampleRate) / float64(a.frameSize)

	onset := make([]float64, numFrames)
	var centroidSum float64
	var centroidFrames int

	for i := 0; i < numFrames; i++ {
		start := i * a.hopSize
		floats.MulTo(frame, x[start:start+a.frameSize], window)
		coeffs = fft.Coefficients(coeffs, frame)

		var flux, weighted, total float64
		for k, c := range coeffs {
			mag[k] = cmplx.Abs(c)
			if d := mag[k] - prev[k]; i > 0 && d > 0 {
				flux += d
			}
			weighted += float64(k) * binHz * mag[k]
			total += mag[k]
		}
		onset[i] = flux
		if total > 1e-9 {
			centroidSum += weighted / total
			centroidFrames++
		}
		prev, mag = mag, prev
	}

	if centroidFrames == 0 {
		return onset, 0
	}
	return onset, centroidSum / float64(centroidFrames)
}

// EstimateTempo picks the beat period from the autocorrelation of an onset
// envelope sampled every hopSize samples. It returns auricle.DefaultTempo
// when the envelope is too short or shows no periodicity.
func EstimateTempo(onset []float64, sampleRate, hopSize int) float64 {
	if len(onset) < minOnsetFrames || sampleRate <= 0 || hopSize <= 0 {
		return auricle.DefaultTempo
	}

	env := make([]float64, len(onset))
	copy(env, onset)
	floats.AddConst(-floats.Sum(env)/float64(len(env)), env)

	framesPerMinute := 60 * float64(sampleRate) / float64(hopSize)
	minLag := int(math.Ceil(framesPerMinute / maxBPM))
	maxLag := min(int(math.Floor(framesPerMinute/minBPM)), len(env)-1)
	if minLag < 1 || minLag >= maxLag {
		return auricle.DefaultTempo
	}

	raw := make([]float64, maxLag+1)
	scores := make([]float64, maxLag+1)
	best := -1
	for lag := minLag; lag <= maxLag; lag++ {
		n := len(env) - lag
		raw[lag] = floats.Dot(env[:n], env[lag:]) / float64(n)
		scores[lag] = raw[lag] * tempoPrior(framesPerMinute/float64(lag))
		if best < 0 || scores[lag] > scores[best] {
			best = lag
		}
	}
	if best < 0 || scores[best] <= 0 {
		return auricle.DefaultTempo
	}
	if half := halfLag(raw, best, minLag); half > 0 {
		best = half
	}

	period := float64(best)
	if best > minLag && best < maxLag {
		l, c, r := scores[best-1], scores[best], scores[best+1]
		if denom := l - 2*c + r; denom < 0 {
			period += 0.5 * (l - r) / denom
		}
	}

	bpm := framesPerMinute / period
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return auricle.DefaultTempo
	}
	return round(bpm, 2)
}

// halfLag returns the lag near lag/2 with the strongest raw correlation, or
// -1 when no lag in range holds halfLagRatio of the correlation at lag.
func halfLag(raw []float64, lag, minLag int) int {
	cand := -1
	for l := max(lag/2-1, minLag); l <= (lag+1)/2+1 && l < lag; l++ {
		if cand < 0 || raw[l] > raw[cand] {
			cand = l
		}
	}
	if cand < 0 || raw[cand] < halfLagRatio*raw[lag] {
		return -1
	}
	return cand
}

func tempoPrior(bpm float64) float64 {
	z := math.Log2(bpm/priorBPM) / priorOctaves
	return math.Exp(-0.5 * z * z)
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
