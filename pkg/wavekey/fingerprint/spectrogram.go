package fingerprint

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/ishaanbhide/WaveKey/pkg/models"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"
)

// Tunables
const (
	DefaultWindowSize = 4096
	DefaultOverlap    = 0.5
	DefaultFracCut    = 0.77

	// Magnitudes are clipped to this floor before the log so that log(0)
	// never appears in the spectrogram.
	logFloor = 1e-20
)

// ComputeSpectrogram runs a Hann-windowed STFT over the sample buffer and
// returns a time-major magnitude spectrogram: spec[frameIdx][freqBin],
// with windowSize/2 positive-frequency bins per frame. The hop between
// frames is windowSize*(1-overlap).
func ComputeSpectrogram(samples []float64, windowSize int, overlap float64) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty sample buffer: %w", models.ErrInvalidParameter)
	}
	if windowSize < 2 {
		return nil, fmt.Errorf("window size %d: %w", windowSize, models.ErrInvalidParameter)
	}
	if overlap < 0 || overlap >= 1 {
		return nil, fmt.Errorf("overlap %v outside [0,1): %w", overlap, models.ErrInvalidParameter)
	}
	if len(samples) < windowSize {
		return nil, fmt.Errorf("buffer shorter than one window (%d < %d): %w",
			len(samples), windowSize, models.ErrInvalidParameter)
	}

	hop := windowSize - int(overlap*float64(windowSize))
	if hop < 1 {
		hop = 1
	}

	nBins := windowSize / 2
	spec := make([][]float64, 0, (len(samples)-windowSize)/hop+1)
	frame := make([]float64, windowSize)

	for start := 0; start+windowSize <= len(samples); start += hop {
		copy(frame, samples[start:start+windowSize])
		window.Hann(frame)

		spectrum := fft.FFTReal(frame)
		mags := make([]float64, nBins)
		for i := 0; i < nBins; i++ {
			mags[i] = cmplx.Abs(spectrum[i])
		}
		spec = append(spec, mags)
	}

	return spec, nil
}

// LogCompress clips every magnitude to a small positive floor and replaces
// it with its natural logarithm, in place. Log-scaled amplitudes have a much
// more gradual distribution for audio data. Returns spec for chaining.
func LogCompress(spec [][]float64) [][]float64 {
	for _, frame := range spec {
		for i, v := range frame {
			if v < logFloor {
				v = logFloor
			}
			frame[i] = math.Log(v)
		}
	}
	return spec
}

// AmplitudeCutoff computes the per-clip amplitude threshold: the value that
// sits at sorted index floor(fracCut * N) of the flattened spectrogram, so
// roughly the bottom fracCut of all cells lie at or below it.
func AmplitudeCutoff(spec [][]float64, fracCut float64) (float64, error) {
	if fracCut < 0 || fracCut > 1 {
		return 0, fmt.Errorf("cutoff fraction %v outside [0,1]: %w", fracCut, models.ErrInvalidParameter)
	}
	if len(spec) == 0 || len(spec[0]) == 0 {
		return 0, fmt.Errorf("empty spectrogram: %w", models.ErrInvalidParameter)
	}

	flat := make([]float64, 0, len(spec)*len(spec[0]))
	for _, frame := range spec {
		flat = append(flat, frame...)
	}
	sort.Float64s(flat)

	idx := int(fracCut * float64(len(flat)))
	if idx >= len(flat) {
		idx = len(flat) - 1
	}
	return flat[idx], nil
}

// Preprocess is the full preprocessing step: STFT, log compression and
// cutoff selection. It returns the log spectrogram and the amplitude cutoff.
func Preprocess(samples []float64, windowSize int, overlap, fracCut float64) ([][]float64, float64, error) {
	spec, err := ComputeSpectrogram(samples, windowSize, overlap)
	if err != nil {
		return nil, 0, err
	}
	LogCompress(spec)
	cutoff, err := AmplitudeCutoff(spec, fracCut)
	if err != nil {
		return nil, 0, err
	}
	return spec, cutoff, nil
}
