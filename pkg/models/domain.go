package models

// Peak is one spectrogram cell that survived the local-maximum test.
// Indices are integer bin positions; physical time/frequency are
// index * bin-width and are never stored.
type Peak struct {
	TimeIdx int // spectrogram frame index
	FreqIdx int // frequency bin index
}

// FingerprintKey identifies one acoustic event: the frequency bins of an
// anchor peak and a later target peak plus their frame distance. Two
// fingerprints with the same key are the same event regardless of song.
type FingerprintKey struct {
	AnchorFreq int
	TargetFreq int
	DeltaT     int // always > 0: the target peak is strictly later
}

// Fingerprint pairs a key with the absolute frame of its anchor peak.
type Fingerprint struct {
	Key        FingerprintKey
	AnchorTime int
}

// Posting is the stored value for one hash-bucket entry.
type Posting struct {
	SongID     uint32
	AnchorTime int // frame at which the anchor peak occurred in the song
}

// Song is an entry in the database's name table.
type Song struct {
	ID   uint32
	Name string
}

// MatchResult is the outcome of matching an unknown clip. A zero-vote
// result means no match; that is a normal outcome, not an error.
type MatchResult struct {
	SongID   uint32
	SongName string
	Offset   int // songAnchorTime - clipAnchorTime, in frames
	Votes    int
}

// Found reports whether the result identifies a song.
func (m MatchResult) Found() bool { return m.Votes > 0 }

// Snapshot is the opaque persisted form of the database: both mappings
// plus the song-ID allocator cursor. Stores must round-trip it verbatim.
type Snapshot struct {
	Buckets map[FingerprintKey][]Posting
	Names   map[uint32]string
	NextID  uint32
}
