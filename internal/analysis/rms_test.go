// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"audioviz/pkg/utils"
)

func TestAmplitude(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		gain    float64
		want    float64
	}{
		{"Empty", nil, DefaultAmplitudeGain, 0},
		{"Silence", make([]float32, 256), DefaultAmplitudeGain, 0},
		{"Constant", utils.GenerateConstant(256, 0.1), DefaultAmplitudeGain, 0.5},
		{"Negative constant", utils.GenerateConstant(256, -0.1), DefaultAmplitudeGain, 0.5},
		{"Unity gain", utils.GenerateConstant(256, 0.25), 1, 0.25},
		{"Sine", utils.GenerateBinSine(1024, 8), 0.1, 0.1 / math.Sqrt2},
		{"Clamped", utils.GenerateConstant(256, 0.9), DefaultAmplitudeGain, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amplitude(tt.samples, tt.gain)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Amplitude() = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestAmplitudeHotPath(t *testing.T) {
	in := utils.GenerateComplexWave(2048, testSampleRate)
	allocs := testing.AllocsPerRun(100, func() {
		_ = Amplitude(in, DefaultAmplitudeGain)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Amplitude, got %.1f", allocs)
	}
}

func TestFramePeak(t *testing.T) {
	var f Frame
	if !f.IsZero() {
		t.Error("zero frame not reported as zero")
	}
	f.Bands[17] = 0.8
	f.Bands[3] = 0.4
	if idx, v := f.Peak(); idx != 17 || v != 0.8 {
		t.Errorf("Peak() = (%d, %g), want (17, 0.8)", idx, v)
	}
	if f.IsZero() {
		t.Error("frame with band energy reported as zero")
	}
}
