package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ishaanbhide/WaveKey/pkg/logger"
	"github.com/ishaanbhide/WaveKey/pkg/wavekey"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service wavekey.Service
	config  *ServerConfig
	log     wavekey.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	SnapshotPath   string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service wavekey.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "WaveKey API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":     "GET /health",
			"metrics":    "GET /api/health/metrics",
			"songs":      "GET /api/songs",
			"addSong":    "POST /api/songs",
			"deleteSong": "DELETE /api/songs/{id}",
			"match":      "POST /api/match",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		SnapshotPath: s.config.SnapshotPath,
		SongCount:    len(s.service.ListSongs()),
		PostingCount: s.service.NumPostings(),
		SampleRate:   s.config.SampleRate,
	})
}

// handleListSongs handles GET /api/songs
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs := s.service.ListSongs()

	songDTOs := make([]SongDTO, len(songs))
	for i, song := range songs {
		songDTOs[i] = SongDTO{ID: song.ID, Name: song.Name}
	}

	s.respondJSON(w, http.StatusOK, ListSongsResponse{
		Songs: songDTOs,
		Count: len(songDTOs),
	})
}

// handleDeleteSong handles DELETE /api/songs/{id}
func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request, songID uint32) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := s.service.DeleteSong(ctx, songID); err != nil {
		s.log.Errorf("Failed to delete song %d: %v", songID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete song")
		return
	}

	if err := s.service.SaveSnapshot(ctx); err != nil {
		s.log.Errorf("Failed to save snapshot after delete: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to persist deletion")
		return
	}

	s.log.Infof("Deleted song ID=%d", songID)
	s.respondJSON(w, http.StatusOK, DeleteSongResponse{
		Message: "Song deleted successfully",
		ID:      songID,
	})
}

// saveUpload copies a multipart upload into the temp dir and returns its path.
func (s *Server) saveUpload(r *http.Request, prefix string) (string, error) {
	file, header, err := r.FormFile("audio")
	if err != nil {
		return "", fmt.Errorf("audio file is required")
	}
	defer file.Close()

	tempFile := filepath.Join(s.config.TempDir,
		fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("saving uploaded file: %w", err)
	}
	return tempFile, nil
}

// handleAddSong handles POST /api/songs (multipart file upload)
func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	// Parse multipart form (max 100MB)
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	tempFile, err := s.saveUpload(r, "upload")
	if err != nil {
		s.log.Errorf("Upload failed: %v", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(tempFile)

	s.log.Infof("Adding song from upload: %s", name)
	songID, err := s.service.AddSongFile(ctx, tempFile, name)
	if err != nil {
		if errors.Is(err, wavekey.ErrDuplicateSong) {
			s.respondError(w, http.StatusConflict, fmt.Sprintf("Song %q already exists", name))
			return
		}
		s.log.Errorf("Failed to add song: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to add song: %v", err))
		return
	}

	if err := s.service.SaveSnapshot(ctx); err != nil {
		s.log.Errorf("Failed to save snapshot after add: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to persist song")
		return
	}

	s.log.Infof("Successfully added song %q (ID: %d)", name, songID)
	s.respondJSON(w, http.StatusCreated, AddSongResponse{
		Message: "Song added successfully",
		ID:      songID,
		Name:    name,
	})
}

// handleMatchUpload handles POST /api/match (multipart file upload)
func (s *Server) handleMatchUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	// Parse multipart form (max 50MB)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	tempFile, err := s.saveUpload(r, "query")
	if err != nil {
		s.log.Errorf("Upload failed: %v", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(tempFile)

	s.log.Infof("Matching uploaded clip: %s", filepath.Base(tempFile))
	result, err := s.service.MatchFile(ctx, tempFile)
	if err != nil {
		s.log.Errorf("Failed to match clip: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to match clip: %v", err))
		return
	}

	resp := MatchResponse{
		Found:  result.Found(),
		Votes:  result.Votes,
		Offset: result.Offset,
	}
	if result.Found() {
		resp.SongID = result.SongID
		resp.SongName = result.SongName
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleSongs routes requests to /api/songs
func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSongs(w, r)
	case http.MethodPost:
		s.handleAddSong(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSong routes requests to /api/songs/{id}
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/songs/")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid song ID %q", idStr))
		return
	}

	switch r.Method {
	case http.MethodDelete:
		s.handleDeleteSong(w, r, uint32(id))
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleMatch routes requests to /api/match
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleMatchUpload(w, r)
}
