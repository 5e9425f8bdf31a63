package wavekey

import "fmt"

// Config carries the recognized fingerprinting options. Zero values are
// filled from the defaults; out-of-range values are rejected by NewService
// with ErrInvalidParameter rather than clamped.
type Config struct {
	SampleRate   int     // target rate for audio conversion
	WindowSize   int     // FFT window, in samples
	Overlap      float64 // fraction of window shared by adjacent frames
	FracCut      float64 // fraction of cells at or below the amplitude cutoff
	PeakRadius   int     // peak neighborhood radius, in spectrogram cells
	FanOut       int     // subsequent peaks paired with each anchor
	TempDir      string  // scratch space for audio conversion
	SnapshotPath string  // default gob snapshot location
	Logger       Logger
	Store        SnapshotStore
}

type Option func(*Config)

func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

func WithWindowSize(size int) Option {
	return func(c *Config) { c.WindowSize = size }
}

func WithOverlap(overlap float64) Option {
	return func(c *Config) { c.Overlap = overlap }
}

func WithFracCut(frac float64) Option {
	return func(c *Config) { c.FracCut = frac }
}

func WithPeakRadius(radius int) Option {
	return func(c *Config) { c.PeakRadius = radius }
}

func WithFanOut(fan int) Option {
	return func(c *Config) { c.FanOut = fan }
}

func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

func WithSnapshotPath(path string) Option {
	return func(c *Config) { c.SnapshotPath = path }
}

func WithLogger(log Logger) Option {
	return func(c *Config) { c.Logger = log }
}

func WithStore(store SnapshotStore) Option {
	return func(c *Config) { c.Store = store }
}

func defaultConfig() *Config {
	return &Config{
		SampleRate:   44100,
		WindowSize:   4096,
		Overlap:      0.5,
		FracCut:      0.77,
		PeakRadius:   20,
		FanOut:       15,
		TempDir:      "/tmp",
		SnapshotPath: "wavekey.snapshot",
	}
}

func (c *Config) validate() error {
	if c.SampleRate < 1 {
		return fmt.Errorf("sample rate %d: %w", c.SampleRate, ErrInvalidParameter)
	}
	if c.WindowSize < 2 {
		return fmt.Errorf("window size %d: %w", c.WindowSize, ErrInvalidParameter)
	}
	if c.Overlap < 0 || c.Overlap >= 1 {
		return fmt.Errorf("overlap %v outside [0,1): %w", c.Overlap, ErrInvalidParameter)
	}
	if c.FracCut < 0 || c.FracCut > 1 {
		return fmt.Errorf("cutoff fraction %v outside [0,1]: %w", c.FracCut, ErrInvalidParameter)
	}
	if c.PeakRadius < 1 {
		return fmt.Errorf("peak radius %d < 1: %w", c.PeakRadius, ErrInvalidParameter)
	}
	if c.FanOut < 1 {
		return fmt.Errorf("fan-out %d < 1: %w", c.FanOut, ErrInvalidParameter)
	}
	return nil
}
