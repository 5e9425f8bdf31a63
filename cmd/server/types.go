package main

// SongDTO represents a song in API responses
type SongDTO struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// ListSongsResponse is the response for GET /api/songs
type ListSongsResponse struct {
	Songs []SongDTO `json:"songs"`
	Count int       `json:"count"`
}

// AddSongResponse is the response for successful song addition
type AddSongResponse struct {
	Message string `json:"message"`
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
}

// DeleteSongResponse is the response for successful song deletion
type DeleteSongResponse struct {
	Message string `json:"message"`
	ID      uint32 `json:"id"`
}

// MatchResponse is the response for POST /api/match
type MatchResponse struct {
	Found    bool   `json:"found"`
	SongID   uint32 `json:"song_id,omitempty"`
	SongName string `json:"song_name,omitempty"`
	Votes    int    `json:"votes"`
	Offset   int    `json:"offset"`
}

// MetricsResponse is the response for GET /api/health/metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	SnapshotPath string `json:"snapshot_path"`
	SongCount    int    `json:"song_count"`
	PostingCount int    `json:"posting_count"`
	SampleRate   int    `json:"sample_rate"`
}

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
