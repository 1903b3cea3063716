package audio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, rate, channels int, seconds float64) PCM {
	frames := int(seconds * float64(rate))
	samples := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return PCM{Samples: samples, Channels: channels, SampleRate: rate}
}

func writeWAV(t *testing.T, dir, name string, p PCM) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, p))
	require.NoError(t, f.Close())
	return path
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name string
		want Format
		ok   bool
	}{
		{"track.wav", FormatWAV, true},
		{"TRACK.WAV", FormatWAV, true},
		{"take.wave", FormatWAV, true},
		{"song.mp3", FormatMP3, true},
		{"song.Mp3", FormatMP3, true},
		{"notes.txt", "", false},
		{"track.wav.exe", "", false},
		{"no-extension", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := FormatOf(tt.name)
		if tt.ok {
			require.NoError(t, err, tt.name)
			assert.Equal(t, tt.want, got, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, tt.name)
		}
	}
}

func TestLoadWAVStereoResampled(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "tone.wav", sine(440, 44100, 2, 1))

	pcm, err := Load(path, 22050)
	require.NoError(t, err)

	assert.Equal(t, 1, pcm.Channels)
	assert.Equal(t, 22050, pcm.SampleRate)
	assert.InDelta(t, 22050, len(pcm.Samples), 2)
	assert.InDelta(t, 1.0, pcm.Duration(), 0.001)

	var peak float32
	for _, s := range pcm.Samples {
		peak = max(peak, s)
	}
	assert.InDelta(t, 0.5, peak, 0.01)
}

func TestLoadWAVMonoNativeRate(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "tone.WAV", sine(220, 22050, 1, 0.5))

	pcm, err := Load(path, 22050)
	require.NoError(t, err)
	assert.Equal(t, 22050/2, len(pcm.Samples))
}

func TestLoadInvalidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o600))

	_, err := Load(path, 22050)
	assert.Error(t, err)
}

// testdata/silence.mp3 is 40 silent MPEG-1 Layer III frames, 44.1 kHz stereo.
const silenceFrames = 40

func TestDecodeMP3(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "silence.mp3"))
	require.NoError(t, err)
	defer f.Close()

	pcm, err := DecodeMP3(f)
	require.NoError(t, err)

	assert.Equal(t, 2, pcm.Channels)
	assert.Equal(t, 44100, pcm.SampleRate)
	assert.Zero(t, len(pcm.Samples)%2)
	assert.InDelta(t, silenceFrames*1152.0/44100, pcm.Duration(), 0.05)
	for _, s := range pcm.Samples {
		require.LessOrEqual(t, s, float32(1))
		require.GreaterOrEqual(t, s, float32(-1))
	}
}

func TestLoadMP3(t *testing.T) {
	pcm, err := Load(filepath.Join("testdata", "silence.mp3"), 22050)
	require.NoError(t, err)

	assert.Equal(t, 1, pcm.Channels)
	assert.Equal(t, 22050, pcm.SampleRate)
	assert.InDelta(t, silenceFrames*1152.0/44100, pcm.Duration(), 0.05)
}

func TestLoadInvalidMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mp3")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0}, 64), 0o600))

	_, err := Load(path, 22050)
	assert.Error(t, err)
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load("/does/not/matter.flac", 22050)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestMono(t *testing.T) {
	p := PCM{Samples: []float32{1, 0, 0.5, 0.5, -1, 1}, Channels: 2, SampleRate: 8000}

	got := Mono(p)

	assert.Equal(t, []float32{0.5, 0.5, 0}, got.Samples)
	assert.Equal(t, 1, got.Channels)
	assert.Equal(t, 8000, got.SampleRate)
}

func TestResample(t *testing.T) {
	p := PCM{Samples: []float32{0, 1, 2, 3, 4, 5, 6, 7}, Channels: 1, SampleRate: 8}

	down := Resample(p, 4)
	assert.Equal(t, []float32{0, 2, 4, 6}, down.Samples)
	assert.Equal(t, 4, down.SampleRate)

	up := Resample(PCM{Samples: []float32{0, 1}, Channels: 1, SampleRate: 1}, 2)
	assert.Equal(t, []float32{0, 0.5, 1, 1}, up.Samples)

	same := Resample(p, 8)
	assert.Equal(t, p, same)
}
