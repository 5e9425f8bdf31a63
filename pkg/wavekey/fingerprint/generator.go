package fingerprint

import (
	"fmt"
	"iter"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

// DefaultFanOut is the number of subsequent peaks each anchor is paired
// with. Larger values trade storage for collision resistance.
const DefaultFanOut = 15

// Fingerprints returns a lazy, restartable sequence of fingerprint records
// for the given peaks. Each peak acts as an anchor and is paired with the
// next fanOut peaks in sequence order (fewer near the end), yielding one
// record per pair: key (anchorFreq, targetFreq, targetTime-anchorTime) and
// value anchorTime. Records come out in anchor-ascending order; consumers
// may stream them or materialize eagerly.
//
// The sequence is deterministic but, like any shared iterator, must not be
// consumed from several goroutines without synchronization.
func Fingerprints(peaks []models.Peak, fanOut int) (iter.Seq[models.Fingerprint], error) {
	if fanOut < 1 {
		return nil, fmt.Errorf("fan-out %d < 1: %w", fanOut, models.ErrInvalidParameter)
	}

	return func(yield func(models.Fingerprint) bool) {
		for n, anchor := range peaks {
			last := n + fanOut
			if last >= len(peaks) {
				last = len(peaks) - 1
			}
			for j := n + 1; j <= last; j++ {
				target := peaks[j]
				fp := models.Fingerprint{
					Key: models.FingerprintKey{
						AnchorFreq: anchor.FreqIdx,
						TargetFreq: target.FreqIdx,
						DeltaT:     target.TimeIdx - anchor.TimeIdx,
					},
					AnchorTime: anchor.TimeIdx,
				}
				if !yield(fp) {
					return
				}
			}
		}
	}, nil
}

// CountFingerprints reports how many records Fingerprints will yield for
// numPeaks peaks: sum over n of min(fanOut, numPeaks-1-n).
func CountFingerprints(numPeaks, fanOut int) int {
	total := 0
	for n := 0; n < numPeaks; n++ {
		rest := numPeaks - 1 - n
		if rest > fanOut {
			rest = fanOut
		}
		total += rest
	}
	return total
}
