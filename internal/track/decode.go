package track

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// --- WAV decoder ---

func decodeWAV(r io.Reader) ([]float32, int, int, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, 0, 0, errors.New("wav decoding needs a seekable reader")
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth != 8 && bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, 0, 0, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}

	samples := make([]float32, len(buf.Data))
	scale := 1 / float32(int64(1)<<(bitDepth-1))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = clampSample(float32(v) * scale)
	}

	return samples, int(dec.SampleRate), int(dec.NumChans), nil
}

// --- MP3 decoder ---

// go-mp3 always produces 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(r io.Reader) ([]float32, int, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, err
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading MP3 frames: %w", err)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}

	return samples, dec.SampleRate(), mp3Channels, nil
}

// --- FLAC decoder ---

func decodeFLAC(r io.Reader) ([]float32, int, int, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, 0, 0, err
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bps := int(info.BitsPerSample)
	if bps <= 0 || bps > 32 {
		return nil, 0, 0, fmt.Errorf("unsupported FLAC bit depth %d", bps)
	}
	scale := 1 / float32(int64(1)<<(bps-1))

	samples := make([]float32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, fmt.Errorf("parsing FLAC frame: %w", err)
		}
		if len(frame.Subframes) < channels {
			return nil, 0, 0, fmt.Errorf("FLAC frame has %d subframes, want %d", len(frame.Subframes), channels)
		}

		n := int(frame.Subframes[0].NSamples)
		for i := range n {
			for ch := range channels {
				samples = append(samples, clampSample(float32(frame.Subframes[ch].Samples[i])*scale))
			}
		}
	}

	return samples, int(info.SampleRate), channels, nil
}

// --- OGG Vorbis decoder ---

func decodeOGG(r io.Reader) ([]float32, int, int, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, 0, 0, err
	}

	channels := reader.Channels()
	samples := make([]float32, 0, max(reader.Length(), 0)*int64(channels))
	chunk := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(chunk)
		for _, s := range chunk[:n] {
			samples = append(samples, clampSample(s))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, fmt.Errorf("reading OGG packets: %w", err)
		}
	}

	return samples, reader.SampleRate(), channels, nil
}

func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
