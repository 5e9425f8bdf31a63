package audio

import "math/rand"

// RandomClips cuts n clips of clipLen samples from random positions in the
// recording. Useful for recognition probes against known songs. Returns nil
// when the recording is shorter than one clip.
func RandomClips(samples []float64, n, clipLen int) [][]float64 {
	if clipLen <= 0 || len(samples) < clipLen {
		return nil
	}
	clips := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		start := rand.Intn(len(samples) - clipLen + 1)
		clip := make([]float64, clipLen)
		copy(clip, samples[start:start+clipLen])
		clips = append(clips, clip)
	}
	return clips
}
