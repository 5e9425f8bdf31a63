// Package audio acquires sample buffers for the fingerprinting core: WAV
// decoding, ffmpeg-based format conversion, and clip extraction. The core
// trusts the sampling rate and mono downmix done here; it only checks
// non-emptiness.
package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWAV decodes a PCM WAV file into mono float64 samples normalized to
// [-1, 1] and returns the file's sample rate. Stereo input is downmixed by
// averaging channels.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading PCM data: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("WAV file contains no samples")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	scale := 1.0 / float64(int(1)<<(uint(bitDepth)-1))

	var samples []float64
	switch buf.Format.NumChannels {
	case 1:
		samples = make([]float64, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = float64(v) * scale
		}
	case 2:
		frames := len(buf.Data) / 2
		samples = make([]float64, frames)
		for i := 0; i < frames; i++ {
			l := float64(buf.Data[2*i]) * scale
			r := float64(buf.Data[2*i+1]) * scale
			samples[i] = (l + r) * 0.5
		}
	default:
		return nil, 0, fmt.Errorf("unsupported channel count %d: only mono/stereo supported",
			buf.Format.NumChannels)
	}

	return samples, buf.Format.SampleRate, nil
}
