// Package audio decodes uploaded audio files into mono float32 PCM.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned for files whose extension is not a known audio format.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format is a container format recognised by its file extension.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

var extensions = map[string]Format{
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".mp3":  FormatMP3,
}

// FormatOf returns the format of a file name, matching the extension case-insensitively.
func FormatOf(name string) (Format, error) {
	f, ok := extensions[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	return f, nil
}

// PCM is interleaved audio with samples in [-1, 1].
type PCM struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Duration returns the length of the audio in seconds.
func (p PCM) Duration() float64 {
	if p.Channels <= 0 || p.SampleRate <= 0 {
		return 0
	}
	return float64(len(p.Samples)/p.Channels) / float64(p.SampleRate)
}

// Load decodes the file at path and returns mono samples at sampleRate.
func Load(path string, sampleRate int) (PCM, error) {
	format, err := FormatOf(path)
	if err != nil {
		return PCM{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return PCM{}, err
	}
	defer f.Close()

	var pcm PCM
	switch format {
	case FormatWAV:
		pcm, err = DecodeWAV(f)
	case FormatMP3:
		pcm, err = DecodeMP3(f)
	}
	if err != nil {
		return PCM{}, err
	}

	return Resample(Mono(pcm), sampleRate), nil
}

// DecodeWAV decodes a PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return PCM{}, errors.New("wav: invalid file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return PCM{}, errors.New("wav: missing format")
	}

	return fromIntBuffer(buf, int(d.BitDepth)), nil
}

func fromIntBuffer(buf *goaudio.IntBuffer, bitDepth int) PCM {
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}

	// 8-bit WAV is unsigned, everything wider is signed.
	scale := float32(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v-offset) / scale
	}

	return PCM{
		Samples:    samples,
		Channels:   buf.Format.NumChannels,
		SampleRate: buf.Format.SampleRate,
	}
}

// DecodeMP3 decodes an MP3 stream. go-mp3 always produces 16-bit stereo.
func DecodeMP3(r io.Reader) (PCM, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return PCM{}, fmt.Errorf("mp3: %w", err)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return PCM{}, fmt.Errorf("mp3: %w", err)
	}
	if len(raw) == 0 {
		return PCM{}, errors.New("mp3: no audio frames")
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(raw[2*i]) | int16(raw[2*i+1])<<8
		samples[i] = float32(s) / 32768
	}

	return PCM{
		Samples:    samples,
		Channels:   2,
		SampleRate: d.SampleRate(),
	}, nil
}

// Mono averages interleaved channels into one.
func Mono(p PCM) PCM {
	if p.Channels <= 1 {
		p.Channels = 1
		return p
	}

	frames := len(p.Samples) / p.Channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < p.Channels; c++ {
			sum += p.Samples[i*p.Channels+c]
		}
		out[i] = sum / float32(p.Channels)
	}

	return PCM{Samples: out, Channels: 1, SampleRate: p.SampleRate}
}

// Resample converts mono audio to rate with linear interpolation.
func Resample(p PCM, rate int) PCM {
	if rate <= 0 || p.SampleRate <= 0 || p.SampleRate == rate || len(p.Samples) == 0 {
		return p
	}

	ratio := float64(p.SampleRate) / float64(rate)
	n := int(float64(len(p.Samples)) / ratio)
	out := make([]float32, n)
	last := len(p.Samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = p.Samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = p.Samples[j]*(1-frac) + p.Samples[j+1]*frac
	}

	return PCM{Samples: out, Channels: p.Channels, SampleRate: rate}
}

// EncodeWAV writes p as a 16-bit PCM WAV stream.
func EncodeWAV(w io.WriteSeeker, p PCM) error {
	const bitDepth = 16

	data := make([]int, len(p.Samples))
	for i, s := range p.Samples {
		s = max(-1, min(1, s))
		data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(w, p.SampleRate, bitDepth, p.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: p.Channels, SampleRate: p.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return enc.Close()
}
