package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes 16-bit PCM test data so ReadWAV has a real file to decode.
func writeWAV(t *testing.T, path string, data []int, numChannels, sampleRate int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChannels, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	data := []int{0, 16384, -16384, 32767, -32768}
	writeWAV(t, path, data, 1, 44100)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != 44100 {
		t.Errorf("sample rate = %d, want 44100", rate)
	}
	if len(samples) != len(data) {
		t.Fatalf("got %d samples, want %d", len(samples), len(data))
	}
	for i, v := range data {
		want := float64(v) / 32768
		if math.Abs(samples[i]-want) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, samples[i], want)
		}
	}
}

func TestReadWAVStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// Interleaved L/R frames.
	writeWAV(t, path, []int{16384, -16384, 8192, 8192}, 2, 22050)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != 22050 {
		t.Errorf("sample rate = %d, want 22050", rate)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if math.Abs(samples[0]) > 1e-9 {
		t.Errorf("frame 0 downmix = %v, want 0", samples[0])
	}
	if want := 8192.0 / 32768; math.Abs(samples[1]-want) > 1e-9 {
		t.Errorf("frame 1 downmix = %v, want %v", samples[1], want)
	}
}

func TestReadWAVNotAWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadWAV(path); err == nil {
		t.Fatal("expected an error for a non-WAV file")
	}
}

func TestReadWAVMissing(t *testing.T) {
	if _, _, err := ReadWAV(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestRandomClips(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = float64(i)
	}

	clips := RandomClips(samples, 5, 100)
	if len(clips) != 5 {
		t.Fatalf("got %d clips, want 5", len(clips))
	}
	for i, clip := range clips {
		if len(clip) != 100 {
			t.Fatalf("clip %d has %d samples, want 100", i, len(clip))
		}
		// Each clip must be a contiguous run of the source.
		start := int(clip[0])
		if start < 0 || start+100 > len(samples) {
			t.Fatalf("clip %d starts at %d, out of range", i, start)
		}
		for j, v := range clip {
			if v != float64(start+j) {
				t.Fatalf("clip %d sample %d = %v, want %v", i, j, v, float64(start+j))
			}
		}
	}
}

func TestRandomClipsTooShort(t *testing.T) {
	if clips := RandomClips(make([]float64, 50), 3, 100); clips != nil {
		t.Errorf("got %v, want nil for a recording shorter than one clip", clips)
	}
	if clips := RandomClips(nil, 1, 10); clips != nil {
		t.Errorf("got %v, want nil for empty input", clips)
	}
}
