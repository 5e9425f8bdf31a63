package fingerprint

import (
	"fmt"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

// DefaultPeakRadius is the neighborhood radius, in spectrogram cells, used
// to decide whether a cell is a local peak.
const DefaultPeakRadius = 20

// Neighborhood builds the set of (row, col) offsets a candidate cell is
// compared against. The shape is grown by binary dilation: starting from the
// center cell, each step ORs in the 4-connected neighbors of every cell set
// so far. After radius steps the footprint is the diamond of cells whose
// Manhattan distance from the center is at most radius, with odd height and
// width so the center is unambiguous. The zero offset is included; callers
// skip it when comparing.
func Neighborhood(radius int) ([][2]int, error) {
	if radius < 1 {
		return nil, fmt.Errorf("neighborhood radius %d < 1: %w", radius, models.ErrInvalidParameter)
	}

	side := 2*radius + 1
	grid := make([][]bool, side)
	for i := range grid {
		grid[i] = make([]bool, side)
	}
	grid[radius][radius] = true

	for step := 0; step < radius; step++ {
		grid = dilate(grid)
	}

	offsets := make([][2]int, 0, 2*radius*radius+2*radius+1)
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			if grid[r][c] {
				offsets = append(offsets, [2]int{r - radius, c - radius})
			}
		}
	}
	return offsets, nil
}

// dilate ORs grid with itself shifted one cell in each of the four
// cardinal directions.
func dilate(grid [][]bool) [][]bool {
	side := len(grid)
	out := make([][]bool, side)
	for i := range out {
		out[i] = make([]bool, side)
	}
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			if !grid[r][c] {
				continue
			}
			out[r][c] = true
			if r > 0 {
				out[r-1][c] = true
			}
			if r < side-1 {
				out[r+1][c] = true
			}
			if c > 0 {
				out[r][c-1] = true
			}
			if c < side-1 {
				out[r][c+1] = true
			}
		}
	}
	return out
}

// ExtractPeaks scans a log spectrogram (time-major, spec[frame][bin]) for
// local maxima. A cell qualifies when its value exceeds the cutoff and no
// in-bounds neighbor within the diamond neighborhood is strictly greater.
// Equal neighbors do not disqualify, so plateaus can yield several peaks;
// downstream voting depends on reproducing this exactly.
//
// Peaks come back in column-major scan order: ascending time index, then
// ascending frequency index within a frame. The generator relies on this.
func ExtractPeaks(spec [][]float64, cutoff float64, radius int) ([]models.Peak, error) {
	if len(spec) == 0 || len(spec[0]) == 0 {
		return nil, fmt.Errorf("empty spectrogram: %w", models.ErrInvalidParameter)
	}
	offsets, err := Neighborhood(radius)
	if err != nil {
		return nil, err
	}

	nFrames := len(spec)
	nBins := len(spec[0])
	var peaks []models.Peak

	for c := 0; c < nFrames; c++ {
		for r := 0; r < nBins; r++ {
			v := spec[c][r]
			if v <= cutoff {
				continue
			}

			isPeak := true
			for _, off := range offsets {
				dr, dc := off[0], off[1]
				if dr == 0 && dc == 0 {
					continue
				}
				rr := r + dr
				cc := c + dc
				if rr < 0 || rr >= nBins || cc < 0 || cc >= nFrames {
					continue
				}
				if spec[cc][rr] > v {
					isPeak = false
					break
				}
			}
			if isPeak {
				peaks = append(peaks, models.Peak{TimeIdx: c, FreqIdx: r})
			}
		}
	}

	return peaks, nil
}
