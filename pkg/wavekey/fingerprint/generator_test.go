package fingerprint

import (
	"errors"
	"slices"
	"testing"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

func collect(t *testing.T, peaks []models.Peak, fanOut int) []models.Fingerprint {
	t.Helper()
	seq, err := Fingerprints(peaks, fanOut)
	if err != nil {
		t.Fatalf("Fingerprints failed: %v", err)
	}
	var out []models.Fingerprint
	for fp := range seq {
		out = append(out, fp)
	}
	return out
}

func makePeaks(n int) []models.Peak {
	peaks := make([]models.Peak, n)
	for i := range peaks {
		peaks[i] = models.Peak{TimeIdx: i, FreqIdx: 10 * (i + 1)}
	}
	return peaks
}

func TestFingerprintContents(t *testing.T) {
	peaks := []models.Peak{
		{TimeIdx: 0, FreqIdx: 10},
		{TimeIdx: 1, FreqIdx: 20},
		{TimeIdx: 3, FreqIdx: 30},
	}

	got := collect(t, peaks, 15)
	want := []models.Fingerprint{
		{Key: models.FingerprintKey{AnchorFreq: 10, TargetFreq: 20, DeltaT: 1}, AnchorTime: 0},
		{Key: models.FingerprintKey{AnchorFreq: 10, TargetFreq: 30, DeltaT: 3}, AnchorTime: 0},
		{Key: models.FingerprintKey{AnchorFreq: 20, TargetFreq: 30, DeltaT: 2}, AnchorTime: 1},
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFingerprintCountMatchesFormula(t *testing.T) {
	tests := []struct {
		numPeaks, fanOut, want int
	}{
		{0, 15, 0},
		{1, 15, 0},
		{5, 2, 7},  // 2+2+2+1+0
		{4, 15, 6}, // 3+2+1+0
		{10, 3, 24},
	}

	for _, tt := range tests {
		if got := CountFingerprints(tt.numPeaks, tt.fanOut); got != tt.want {
			t.Errorf("CountFingerprints(%d, %d) = %d, want %d",
				tt.numPeaks, tt.fanOut, got, tt.want)
		}
		got := collect(t, makePeaks(tt.numPeaks), tt.fanOut)
		if len(got) != tt.want {
			t.Errorf("Fingerprints(%d peaks, fan %d) yielded %d, want %d",
				tt.numPeaks, tt.fanOut, len(got), tt.want)
		}
	}
}

func TestFingerprintsAnchorAscendingOrder(t *testing.T) {
	got := collect(t, makePeaks(8), 3)
	for i := 1; i < len(got); i++ {
		if got[i].AnchorTime < got[i-1].AnchorTime {
			t.Fatalf("record %d anchor %d before %d", i, got[i].AnchorTime, got[i-1].AnchorTime)
		}
	}
}

func TestFingerprintsRestartable(t *testing.T) {
	seq, err := Fingerprints(makePeaks(6), 2)
	if err != nil {
		t.Fatalf("Fingerprints failed: %v", err)
	}

	var first, second []models.Fingerprint
	for fp := range seq {
		first = append(first, fp)
	}
	for fp := range seq {
		second = append(second, fp)
	}
	if !slices.Equal(first, second) {
		t.Errorf("second pass %v differs from first %v", second, first)
	}
}

func TestFingerprintsEarlyStop(t *testing.T) {
	seq, err := Fingerprints(makePeaks(10), 5)
	if err != nil {
		t.Fatalf("Fingerprints failed: %v", err)
	}

	count := 0
	for range seq {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("consumed %d records, want 3", count)
	}
}

func TestFingerprintsInvalidFanOut(t *testing.T) {
	if _, err := Fingerprints(makePeaks(3), 0); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("fan-out 0: got %v, want ErrInvalidParameter", err)
	}
}
