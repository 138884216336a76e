package scrobble

import (
	"testing"
	"time"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input   string
		want    BackendKind
		wantErr bool
	}{
		{input: "lastfm", want: LastFM},
		{input: "librefm", want: LibreFM},
		{input: "listenbrainz", want: ListenBrainz},
		{input: "spotify", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBackend(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	for _, valid := range []string{"overall", "7day", "1month", "3month", "6month", "12month"} {
		if _, err := ParsePeriod(valid); err != nil {
			t.Errorf("ParsePeriod(%q) failed: %v", valid, err)
		}
	}

	aliases := map[string]Period{
		"week":      LastWeek,
		"month":     LastMonth,
		"quarter":   LastQuarter,
		"half-year": LastHalfYear,
		"year":      LastYear,
		"all":       Overall,
	}
	for alias, want := range aliases {
		got, err := ParsePeriod(alias)
		if err != nil {
			t.Errorf("ParsePeriod(%q) failed: %v", alias, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", alias, got, want)
		}
	}

	if _, err := ParsePeriod("2week"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestRankEntries(t *testing.T) {
	entries := []RankedEntry{
		{Subject: "Portishead", PlayCount: 40},
		{Subject: "Autechre", PlayCount: 120},
		{Subject: "Boards of Canada", PlayCount: 40},
		{Subject: "Aphex Twin", PlayCount: 120},
	}

	RankEntries(entries)

	want := []struct {
		subject string
		rank    int
	}{
		{"Aphex Twin", 1},
		{"Autechre", 2},
		{"Boards of Canada", 3},
		{"Portishead", 4},
	}

	for i, w := range want {
		if entries[i].Subject != w.subject {
			t.Errorf("position %d: expected %q, got %q", i, w.subject, entries[i].Subject)
		}
		if entries[i].Rank != w.rank {
			t.Errorf("position %d: expected rank %d, got %d", i, w.rank, entries[i].Rank)
		}
	}
}

func TestSnapshotExpired(t *testing.T) {
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := &ListeningSnapshot{FetchedAt: fetched, TTL: 30 * time.Second}

	if snap.Expired(fetched.Add(10 * time.Second)) {
		t.Error("snapshot should be fresh inside its TTL")
	}
	if snap.Expired(fetched.Add(30 * time.Second)) {
		t.Error("snapshot should be fresh at exactly its TTL")
	}
	if !snap.Expired(fetched.Add(31 * time.Second)) {
		t.Error("snapshot should be expired past its TTL")
	}
}

func TestSubjectEndpoint(t *testing.T) {
	if SubjectArtist.Endpoint() != TopArtists {
		t.Error("artist subject should map to top_artists")
	}
	if SubjectAlbum.Endpoint() != TopAlbums {
		t.Error("album subject should map to top_albums")
	}
	if SubjectTrack.Endpoint() != TopTracks {
		t.Error("track subject should map to top_tracks")
	}
}
