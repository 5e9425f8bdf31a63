package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ishaanbhide/WaveKey/pkg/wavekey"
)

var (
	port           int
	snapshotPath   string
	tempDir        string
	sampleRate     int
	allowedOrigins string
)

func init() {
	// .env values feed the flag defaults; explicit flags still win.
	godotenv.Load()

	flag.IntVar(&port, "port", getEnvIntOrDefault("WAVEKEY_PORT", 8080), "HTTP server port")
	flag.StringVar(&snapshotPath, "snapshot", getEnvOrDefault("WAVEKEY_SNAPSHOT", "wavekey.snapshot"), "Path to the snapshot file")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("WAVEKEY_TEMP_DIR", "/tmp"), "Temporary directory")
	flag.IntVar(&sampleRate, "rate", getEnvIntOrDefault("WAVEKEY_SAMPLE_RATE", 44100), "Audio sample rate")
	flag.StringVar(&allowedOrigins, "origins", getEnvOrDefault("WAVEKEY_ORIGINS", "*"), "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	service, err := wavekey.NewService(
		wavekey.WithSnapshotPath(snapshotPath),
		wavekey.WithTempDir(tempDir),
		wavekey.WithSampleRate(sampleRate),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		SnapshotPath:   snapshotPath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
