// specview renders WAV files as spectrogram PNGs. It is a debugging aid for
// tuning the fingerprinting parameters: the rendered image shows the same
// time-frequency energy the peak extractor works on.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/eligwz/spectrogram"

	"github.com/ishaanbhide/WaveKey/internal/audio"
)

func main() {
	inputDir := flag.String("in", ".", "Directory of WAV files to render")
	outputDir := flag.String("out", "spectrograms", "Directory for the rendered PNGs")
	width := flag.Int("width", 2048, "Image width in pixels")
	height := flag.Int("height", 512, "Image height in pixels (frequency bins)")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatal(err)
	}

	err := filepath.WalkDir(*inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".wav" {
			return nil
		}

		fmt.Printf("Processing %s...\n", path)

		samples, sampleRate, err := audio.ReadWAV(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			return nil
		}
		fmt.Printf("Read %d samples at %d Hz\n", len(samples), sampleRate)

		img := spectrogram.NewImage128(image.Rect(0, 0, *width, *height))

		black := spectrogram.ParseColor("000000")
		draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

		// FFT with a Hamming window, linear magnitude scale.
		spectrogram.Drawfft(
			img,
			samples,
			uint32(sampleRate),
			uint32(*height), // bins
			false,           // RECTANGLE (use Hamming window)
			false,           // DFT (use FFT instead)
			true,            // MAG (magnitude)
			false,           // LOG10 (linear scale)
		)

		outputPath := filepath.Join(*outputDir, filepath.Base(path)+".png")
		if err := spectrogram.SavePng(img, outputPath); err != nil {
			log.Printf("Error saving PNG for %s: %v", outputPath, err)
			return nil
		}

		fmt.Printf("Saved spectrogram to %s\n", outputPath)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Done!")
}
