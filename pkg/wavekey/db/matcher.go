package db

import (
	"iter"

	"github.com/ishaanbhide/WaveKey/pkg/models"
)

// candidate is one (song, time offset) hypothesis. A clip that is truly an
// excerpt of a song produces many postings sharing the same offset, while
// coincidental key collisions scatter across offsets.
type candidate struct {
	songID uint32
	offset int
}

// Match votes every fingerprint of an unknown clip against the database.
// For each posting found under a fingerprint's key, the (songID,
// songAnchorTime - clipAnchorTime) candidate gains one vote; the candidate
// with the most votes wins. Ties break deterministically: the first
// candidate to reach the winning count, in fingerprint input order, is
// kept, because later candidates only displace it with a strictly greater
// count. A clip whose keys hit nothing yields a zero-vote result.
func (d *Database) Match(fps iter.Seq[models.Fingerprint]) models.MatchResult {
	d.mu.RLock()
	defer d.mu.RUnlock()

	votes := make(map[candidate]int)
	var best candidate
	bestVotes := 0

	for fp := range fps {
		for _, p := range d.buckets[fp.Key] {
			c := candidate{songID: p.SongID, offset: p.AnchorTime - fp.AnchorTime}
			votes[c]++
			if votes[c] > bestVotes {
				bestVotes = votes[c]
				best = c
			}
		}
	}

	if bestVotes == 0 {
		return models.MatchResult{}
	}
	return models.MatchResult{
		SongID:   best.songID,
		SongName: d.names[best.songID],
		Offset:   best.offset,
		Votes:    bestVotes,
	}
}
