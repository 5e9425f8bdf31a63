package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ishaanbhide/WaveKey/pkg/logger"
	"github.com/ishaanbhide/WaveKey/pkg/wavekey"
	"github.com/ishaanbhide/WaveKey/pkg/wavekey/storage"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Global flags
var (
	snapshotPath string
	storeKind    string
	tempDir      string
	sampleRate   int
)

func init() {
	flag.StringVar(&snapshotPath, "snapshot", getEnvOrDefault("WAVEKEY_SNAPSHOT", "wavekey.snapshot"), "Snapshot location (file path, or directory for the badger store)")
	flag.StringVar(&storeKind, "store", getEnvOrDefault("WAVEKEY_STORE", "gob"), "Snapshot backend: gob, sqlite, badger or mongo")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("WAVEKEY_TEMP_DIR", "/tmp"), "Directory for temporary audio conversion files")
	flag.IntVar(&sampleRate, "rate", 44100, "Audio sample rate for processing")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// buildStore maps the -store flag to a snapshot backend. The gob store is
// also the service default, but building it here keeps the error handling
// in one place.
func buildStore() (wavekey.SnapshotStore, error) {
	switch storeKind {
	case "gob":
		return storage.NewGobFileStore(snapshotPath), nil
	case "sqlite":
		return storage.NewSQLiteStore(snapshotPath)
	case "badger":
		return storage.NewBadgerStore(snapshotPath)
	case "mongo":
		uri := os.Getenv("WAVEKEY_MONGO_URI")
		if uri == "" {
			return nil, fmt.Errorf("mongo store requires WAVEKEY_MONGO_URI")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewMongoStore(ctx, uri, "wavekey")
	default:
		return nil, fmt.Errorf("unknown store %q (want gob, sqlite, badger or mongo)", storeKind)
	}
}

func createService() (wavekey.Service, error) {
	store, err := buildStore()
	if err != nil {
		return nil, err
	}
	return wavekey.NewService(
		wavekey.WithStore(store),
		wavekey.WithTempDir(tempDir),
		wavekey.WithSampleRate(sampleRate),
	)
}

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Infof("Executing command: %s", command)

	switch command {
	case "add":
		handleAdd()
	case "add-dir":
		handleAddDir()
	case "match":
		handleMatch()
	case "list":
		handleList()
	case "delete":
		handleDelete()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
__        __              _  __
\ \      / /_ ___   _____| |/ /___ _   _
 \ \ /\ / / _` + "`" + ` \ \ / / _ \ ' // _ \ | | |
  \ V  V / (_| |\ V /  __/ . \  __/ |_| |
   \_/\_/ \__,_| \_/ \___|_|\_\___|\__, |
                                   |___/
        Audio Fingerprinting CLI Tool
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("Usage: wavekey [flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  add <audio_file> --name <name>   Fingerprint a song and add it to the database")
	fmt.Println("  add-dir <directory>              Add every audio file in a directory")
	fmt.Println("  match <audio_file>               Identify an unknown clip")
	fmt.Println("  list                             List all registered songs")
	fmt.Println("  delete <song_id>                 Remove a song from the database")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// splitArgs separates the first positional argument from trailing flags so
// commands can be written as `wavekey add song.mp3 --name "..."`.
func splitArgs(args []string) (positional string, flagArgs []string) {
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && positional == "" {
			positional = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}
	return positional, flagArgs
}

func handleAdd() {
	log := logger.GetLogger()

	audioPath, flagArgs := splitArgs(os.Args[2:])

	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	name := addCmd.String("name", "", "Song name (defaults to the file name)")
	addCmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("Error: audio file path required")
		fmt.Println("Usage: wavekey add <audio_file> --name <name>")
		os.Exit(1)
	}
	if *name == "" {
		*name = songNameFromPath(audioPath)
	}

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	fmt.Println("Processing audio file...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	songID, err := svc.AddSongFile(ctx, audioPath, *name)
	if err != nil {
		fmt.Printf("Failed to add song: %v\n", err)
		log.Errorf("AddSongFile failed: %v", err)
		os.Exit(1)
	}

	if err := svc.SaveSnapshot(ctx); err != nil {
		fmt.Printf("Failed to save snapshot: %v\n", err)
		log.Errorf("SaveSnapshot failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\nAdded song to database")
	fmt.Printf("   ID:        %d\n", songID)
	fmt.Printf("   Name:      %s\n", *name)
	fmt.Printf("   Postings:  %s\n", humanize.Comma(int64(svc.NumPostings())))
	log.Infof("Successfully added song ID=%d", songID)
}

func handleAddDir() {
	log := logger.GetLogger()

	if len(os.Args) < 3 {
		fmt.Println("Usage: wavekey add-dir <directory>")
		os.Exit(1)
	}
	dir := os.Args[2]

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("Failed to read directory: %v\n", err)
		os.Exit(1)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".wav", ".mp3", ".flac", ".ogg", ".m4a", ".aac":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		fmt.Println("No audio files found in directory")
		return
	}

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(files)),
		mpb.PrependDecorators(
			decor.Name("Indexing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	ctx := context.Background()
	var added, skipped int
	for _, path := range files {
		start := time.Now()
		_, err := svc.AddSongFile(ctx, path, songNameFromPath(path))
		switch {
		case errors.Is(err, wavekey.ErrDuplicateSong):
			log.Warnf("Skipping %s: already in database", path)
			skipped++
		case err != nil:
			log.Errorf("Failed to add %s: %v", path, err)
			skipped++
		default:
			added++
		}
		bar.EwmaIncrement(time.Since(start))
	}
	p.Wait()

	if err := svc.SaveSnapshot(ctx); err != nil {
		fmt.Printf("Failed to save snapshot: %v\n", err)
		log.Errorf("SaveSnapshot failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\nAdded %d song(s), skipped %d\n", added, skipped)
	fmt.Printf("Database now holds %s postings\n", humanize.Comma(int64(svc.NumPostings())))
}

func handleMatch() {
	log := logger.GetLogger()

	if len(os.Args) < 3 {
		fmt.Println("Usage: wavekey match <audio_file>")
		os.Exit(1)
	}
	audioPath := os.Args[2]
	log.Infof("Matching audio file: %s", audioPath)

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	fmt.Println("Analyzing audio file...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := svc.MatchFile(ctx, audioPath)
	if err != nil {
		fmt.Printf("Failed to match song: %v\n", err)
		log.Errorf("MatchFile failed: %v", err)
		os.Exit(1)
	}

	if !result.Found() {
		fmt.Println("\nNo match found in database")
		return
	}

	fmt.Println("\nMatch found!")
	fmt.Printf("   Name:   %s\n", result.SongName)
	fmt.Printf("   ID:     %d\n", result.SongID)
	fmt.Printf("   Votes:  %s\n", humanize.Comma(int64(result.Votes)))
	fmt.Printf("   Offset: %d frames\n", result.Offset)
}

func handleList() {
	log := logger.GetLogger()

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	songs := svc.ListSongs()
	if len(songs) == 0 {
		fmt.Println("\nNo songs in database")
		return
	}

	fmt.Printf("\n%d song(s) in database (%s postings):\n\n",
		len(songs), humanize.Comma(int64(svc.NumPostings())))
	for _, song := range songs {
		fmt.Printf("  %4d  %s\n", song.ID, song.Name)
	}
}

func handleDelete() {
	log := logger.GetLogger()

	if len(os.Args) < 3 {
		fmt.Println("Usage: wavekey delete <song_id>")
		os.Exit(1)
	}

	id, err := strconv.ParseUint(os.Args[2], 10, 32)
	if err != nil {
		fmt.Printf("Invalid song ID %q\n", os.Args[2])
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx := context.Background()
	if err := svc.DeleteSong(ctx, uint32(id)); err != nil {
		fmt.Printf("Failed to delete song: %v\n", err)
		log.Errorf("DeleteSong failed: %v", err)
		os.Exit(1)
	}
	if err := svc.SaveSnapshot(ctx); err != nil {
		fmt.Printf("Failed to save snapshot: %v\n", err)
		log.Errorf("SaveSnapshot failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Deleted song ID=%d\n", id)
}

func songNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
