// Package track loads audio files into memory for playback and analysis.
//
// Files are decoded completely at load time into interleaved float32 samples
// normalized to [-1, 1]; the audio callback then only copies memory.
package track

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without a decoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrEmptyAudio is returned when a file decodes to zero samples.
	ErrEmptyAudio = errors.New("no audio data")
)

// Track is a fully decoded audio file.
type Track struct {
	Name       string // Display name, from tags or the file name.
	Path       string
	Format     string // Lower-case extension without the dot.
	SampleRate int
	Channels   int
	Samples    []float32 // Interleaved, normalized to [-1, 1].
}

// Frames returns the number of sample frames.
func (t *Track) Frames() int {
	if t.Channels == 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// Duration returns the playing time.
func (t *Track) Duration() time.Duration {
	if t.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(t.Frames()) / float64(t.SampleRate) * float64(time.Second))
}

type decodeFunc func(r io.Reader) (samples []float32, sampleRate, channels int, err error)

var decoders = map[string]decodeFunc{
	".wav":  decodeWAV,
	".mp3":  decodeMP3,
	".flac": decodeFLAC,
	".ogg":  decodeOGG,
}

// Supported reports whether path has an extension Load can decode.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load opens and decodes the file at path, choosing the decoder by extension.
func Load(path string) (*Track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, sampleRate, channels, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("decoding %s: invalid stream format (%d Hz, %d channels)",
			strings.TrimPrefix(ext, "."), sampleRate, channels)
	}
	if len(samples) < channels {
		return nil, ErrEmptyAudio
	}

	return &Track{
		Name:       ReadMetadata(path).DisplayName(),
		Path:       path,
		Format:     strings.TrimPrefix(ext, "."),
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples[:len(samples)-len(samples)%channels],
	}, nil
}
