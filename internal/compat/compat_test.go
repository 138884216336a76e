package compat

import (
	"testing"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

func entries(pairs ...interface{}) []scrobble.RankedEntry {
	out := make([]scrobble.RankedEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, scrobble.RankedEntry{
			Subject:   pairs[i].(string),
			PlayCount: int64(pairs[i+1].(int)),
			Rank:      len(out) + 1,
		})
	}
	return out
}

func TestScoreIdenticalLibraries(t *testing.T) {
	lib := entries("Burial", 955, "Aphex Twin", 812, "Autechre", 640)

	got := Score(lib, lib, "kate", "kate")
	if got.Score != 1 {
		t.Errorf("a library compared with itself must score exactly 1, got %v", got.Score)
	}
	if len(got.Shared) != 3 {
		t.Errorf("expected 3 shared artists, got %d", len(got.Shared))
	}
}

func TestScoreDisjointLibraries(t *testing.T) {
	got := Score(
		entries("Burial", 955, "Aphex Twin", 812),
		entries("Taylor Swift", 1200, "Carly Rae Jepsen", 400),
		"kate", "maria",
	)
	if got.Score != 0 {
		t.Errorf("no overlap must score 0, got %v", got.Score)
	}
	if len(got.Shared) != 0 {
		t.Errorf("expected no shared artists, got %v", got.Shared)
	}
}

func TestScorePartialOverlap(t *testing.T) {
	got := Score(
		entries("Burial", 900, "Aphex Twin", 100),
		entries("Burial", 800, "Taylor Swift", 200),
		"kate", "maria",
	)
	if got.Score <= 0 || got.Score >= 1 {
		t.Errorf("partial overlap must land strictly between 0 and 1, got %v", got.Score)
	}
	if len(got.Shared) != 1 || got.Shared[0].Name != "Burial" {
		t.Errorf("unexpected shared artists: %v", got.Shared)
	}
	if got.Shared[0].PlaysA != 900 || got.Shared[0].PlaysB != 800 {
		t.Errorf("unexpected shared counts: %+v", got.Shared[0])
	}
}

func TestScoreSharedOrdering(t *testing.T) {
	got := Score(
		entries("Burial", 100, "Aphex Twin", 500, "Autechre", 300),
		entries("Burial", 100, "Aphex Twin", 100, "Autechre", 300),
		"kate", "maria",
	)
	want := []string{"Aphex Twin", "Autechre", "Burial"}
	if len(got.Shared) != len(want) {
		t.Fatalf("expected %d shared artists, got %d", len(want), len(got.Shared))
	}
	for i, name := range want {
		if got.Shared[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, got.Shared[i].Name, name)
		}
	}
}

func TestScoreEmptySide(t *testing.T) {
	got := Score(entries("Burial", 955), nil, "kate", "maria")
	if got.Score != 0 {
		t.Errorf("an empty chart must score 0, got %v", got.Score)
	}
}

func TestScoreCapsInput(t *testing.T) {
	big := make([]scrobble.RankedEntry, 80)
	for i := range big {
		big[i] = scrobble.RankedEntry{Subject: string(rune('A'))+string(rune('a'+i%26))+string(rune('a'+i/26)), PlayCount: int64(200 - i), Rank: i + 1}
	}
	// The overlapping artist sits past the cap on side B, so it must
	// not count.
	a := entries("Zebra", 10)
	b := append(append([]scrobble.RankedEntry{}, big...), scrobble.RankedEntry{Subject: "Zebra", PlayCount: 5, Rank: 81})

	got := Score(a, b, "kate", "maria")
	if got.Score != 0 || len(got.Shared) != 0 {
		t.Errorf("entries past the cap must be ignored, got score %v shared %v", got.Score, got.Shared)
	}
}
