package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ishaanbhide/WaveKey/pkg/utils"
)

// ConvertConfig controls ffmpeg conversion.
type ConvertConfig struct {
	SampleRate int
}

// ConvertToMonoWAV shells out to ffmpeg to transcode any input audio into a
// mono 16-bit PCM WAV at the configured rate, writing the result under
// outputDir. The conversion goes through a temp file so a killed ffmpeg
// never leaves a half-written WAV behind.
func ConvertToMonoWAV(ctx context.Context, inputPath, outputDir string, cfg ConvertConfig) (string, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	base := filepath.Base(inputPath)
	outputPath := filepath.Join(outputDir, base[:len(base)-len(filepath.Ext(base))]+".wav")
	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg conversion failed: %w (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}
