// Package compat scores how alike two listeners' tastes are by
// comparing their all-time top artists.
package compat

import (
	"math"
	"sort"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// maxEntries caps how many top artists per side feed the score.
const maxEntries = 50

// SharedArtist is one artist both users play, with each side's count.
type SharedArtist struct {
	Name   string
	PlaysA int64
	PlaysB int64
}

// Result is a compatibility verdict between two users.
type Result struct {
	UserA string
	UserB string
	// Score is in [0, 1]. Comparing a library against itself yields
	// exactly 1.
	Score  float64
	Shared []SharedArtist
}

// Score computes the cosine similarity of two users' play-count
// vectors over the union of their top artists. Users with no overlap
// score 0; an empty chart on either side scores 0 as well.
func Score(entriesA, entriesB []scrobble.RankedEntry, userA, userB string) *Result {
	if len(entriesA) > maxEntries {
		entriesA = entriesA[:maxEntries]
	}
	if len(entriesB) > maxEntries {
		entriesB = entriesB[:maxEntries]
	}

	playsA := make(map[string]int64, len(entriesA))
	for _, e := range entriesA {
		playsA[e.Subject] += e.PlayCount
	}
	playsB := make(map[string]int64, len(entriesB))
	for _, e := range entriesB {
		playsB[e.Subject] += e.PlayCount
	}

	var dot, normA, normB float64
	for _, count := range playsA {
		normA += float64(count) * float64(count)
	}
	for _, count := range playsB {
		normB += float64(count) * float64(count)
	}

	var shared []SharedArtist
	for name, a := range playsA {
		b, ok := playsB[name]
		if !ok {
			continue
		}
		dot += float64(a) * float64(b)
		shared = append(shared, SharedArtist{Name: name, PlaysA: a, PlaysB: b})
	}

	sort.Slice(shared, func(i, j int) bool {
		ci := shared[i].PlaysA + shared[i].PlaysB
		cj := shared[j].PlaysA + shared[j].PlaysB
		if ci != cj {
			return ci > cj
		}
		return shared[i].Name < shared[j].Name
	})

	result := &Result{UserA: userA, UserB: userB, Shared: shared}
	if normA == 0 || normB == 0 {
		return result
	}

	// Identical vectors must land on exactly 1.0, not a float whisker
	// below it.
	if dot == normA && normA == normB {
		result.Score = 1
		return result
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	result.Score = score
	return result
}
