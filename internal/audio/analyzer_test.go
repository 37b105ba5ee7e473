package audio

import (
	"testing"

	"audioviz/internal/analysis"
	"audioviz/internal/publish"
	"audioviz/pkg/utils"
)

const testFrames = 2048

func newTestAnalyzer(t testing.TB) (*Analyzer, *publish.Publisher) {
	t.Helper()
	pub := publish.New()
	a, err := NewAnalyzer(analysis.DefaultTransformConfig(), analysis.DefaultAmplitudeGain, pub)
	if err != nil {
		t.Fatalf("NewAnalyzer() error: %v", err)
	}
	return a, pub
}

func TestNewAnalyzerErrors(t *testing.T) {
	pub := publish.New()
	cfg := analysis.DefaultTransformConfig()

	if _, err := NewAnalyzer(cfg, analysis.DefaultAmplitudeGain, nil); err == nil {
		t.Error("expected error without publisher")
	}
	if _, err := NewAnalyzer(cfg, 0, pub); err == nil {
		t.Error("expected error for zero gain")
	}
	cfg.FFTSize = 3000
	if _, err := NewAnalyzer(cfg, analysis.DefaultAmplitudeGain, pub); err == nil {
		t.Error("expected error for invalid fft size")
	}
}

func TestAnalyzerProcess(t *testing.T) {
	a, pub := newTestAnalyzer(t)

	a.Process(utils.GenerateConstant(testFrames, 0.1))
	f := pub.Latest()
	if f.Seq != 1 {
		t.Fatalf("expected one publish, Seq = %d", f.Seq)
	}
	if f.Amplitude < 0.49 || f.Amplitude > 0.51 {
		t.Errorf("amplitude = %g, want ~0.5", f.Amplitude)
	}

	a.Process(make([]float32, testFrames))
	f = pub.Latest()
	if !f.IsZero() {
		t.Errorf("silent buffer produced a non-zero frame: amplitude %g", f.Amplitude)
	}
}

func TestAnalyzerIgnoresEmptyBuffer(t *testing.T) {
	a, pub := newTestAnalyzer(t)

	a.Process(utils.GenerateBinSine(testFrames, 100))
	before := pub.Latest()

	a.Process(nil)
	a.Process([]float32{})

	after := pub.Latest()
	if after != before {
		t.Error("empty buffer changed the published frame")
	}
}

func TestAnalyzerSineBand(t *testing.T) {
	a, pub := newTestAnalyzer(t)

	a.Process(utils.GenerateBinSine(testFrames, 200))
	f := pub.Latest()

	if band, _ := f.Peak(); band != 12 {
		t.Errorf("peak band = %d, want 12", band)
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		src      []float32
		channels int
		dstLen   int
		want     []float32
	}{
		{"Mono", []float32{0.1, 0.2, 0.3}, 1, 4, []float32{0.1, 0.2, 0.3}},
		{"Stereo", []float32{1, 0, 0.5, 0.5, -1, 1}, 2, 4, []float32{0.5, 0.5, 0}},
		{"Truncated by dst", []float32{1, 1, 1, 1, 1, 1}, 2, 2, []float32{1, 1}},
		{"Partial frame dropped", []float32{1, 1, 1}, 2, 4, []float32{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, tt.dstLen)
			n := downmix(dst, tt.src, tt.channels)
			if n != len(tt.want) {
				t.Fatalf("downmix wrote %d frames, want %d", n, len(tt.want))
			}
			for i := range tt.want {
				if dst[i] != tt.want[i] {
					t.Errorf("dst[%d] = %g, want %g", i, dst[i], tt.want[i])
				}
			}
		})
	}
}

func TestAnalyzerHotPath(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	in := utils.GenerateComplexWave(testFrames, 44100)

	a.Process(in)
	allocs := testing.AllocsPerRun(100, func() {
		a.Process(in)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in Analyzer hot path, got %.1f", allocs)
	}
}

func BenchmarkAnalyzerProcess(b *testing.B) {
	a, _ := newTestAnalyzer(b)
	in := utils.GenerateComplexWave(testFrames, 44100)

	b.ReportAllocs()

	for b.Loop() {
		a.Process(in)
	}
}
