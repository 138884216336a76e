package backend

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

func TestListenBrainzRecentTracks(t *testing.T) {
	adapter := newTestAdapter(t, scrobble.ListenBrainz, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/playing-now"):
			_, _ = w.Write([]byte(`{
				"payload": {
					"listens": [
						{"track_metadata": {"artist_name": "Burial", "track_name": "Archangel", "release_name": "Untrue"}}
					]
				}
			}`))
		case strings.HasSuffix(r.URL.Path, "/listens"):
			if got := r.URL.Query().Get("count"); got != "3" {
				t.Errorf("expected count=3, got %q", got)
			}
			_, _ = w.Write([]byte(`{
				"payload": {
					"listens": [
						{
							"listened_at": 1735689600,
							"track_metadata": {
								"artist_name": "Actress",
								"track_name": "Jardin",
								"release_name": "AZD",
								"release_mbid": "abcd-1234"
							}
						}
					]
				}
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	snap, err := adapter.Fetch(context.Background(), scrobble.Account{Kind: scrobble.ListenBrainz, Username: "kate"}, scrobble.RecentTracks, "", 3)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(snap.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(snap.Tracks))
	}
	if !snap.Tracks[0].NowPlaying || snap.Tracks[0].Title != "Archangel" {
		t.Errorf("expected playing-now track first, got %+v", snap.Tracks[0])
	}
	if snap.Tracks[1].PlayedAt == nil || snap.Tracks[1].PlayedAt.Unix() != 1735689600 {
		t.Errorf("expected listened_at timestamp, got %+v", snap.Tracks[1])
	}
	if want := "https://coverartarchive.org/release/abcd-1234/front-500"; snap.Tracks[1].ArtURL != want {
		t.Errorf("expected cover art archive URL %q, got %q", want, snap.Tracks[1].ArtURL)
	}
}

func TestListenBrainzPlayingNowOnlyWhenDepthOne(t *testing.T) {
	var historyCalls int
	adapter := newTestAdapter(t, scrobble.ListenBrainz, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/playing-now"):
			_, _ = w.Write([]byte(`{"payload": {"listens": [{"track_metadata": {"artist_name": "Burial", "track_name": "Archangel"}}]}}`))
		default:
			historyCalls++
			_, _ = w.Write([]byte(`{"payload": {"listens": []}}`))
		}
	})

	snap, err := adapter.Fetch(context.Background(), scrobble.Account{Kind: scrobble.ListenBrainz, Username: "kate"}, scrobble.RecentTracks, "", 1)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snap.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(snap.Tracks))
	}
	if historyCalls != 0 {
		t.Errorf("history endpoint should be skipped when playing-now satisfies the limit, got %d calls", historyCalls)
	}
}

func TestListenBrainzTopAlbums(t *testing.T) {
	adapter := newTestAdapter(t, scrobble.ListenBrainz, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/stats/user/kate/releases") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("range"); got != "year" {
			t.Errorf("expected range=year, got %q", got)
		}
		_, _ = w.Write([]byte(`{
			"payload": {
				"releases": [
					{"artist_name": "Actress", "release_name": "AZD", "release_mbid": "mbid-1", "listen_count": 42},
					{"artist_name": "Burial", "release_name": "Untrue", "listen_count": 77}
				]
			}
		}`))
	})

	snap, err := adapter.Fetch(context.Background(), scrobble.Account{Kind: scrobble.ListenBrainz, Username: "kate"}, scrobble.TopAlbums, scrobble.LastYear, 50)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Entries))
	}
	if snap.Entries[0].Subject != "Untrue" || snap.Entries[0].Rank != 1 {
		t.Errorf("expected Untrue ranked first, got %+v", snap.Entries[0])
	}
	if snap.Entries[1].ArtURL != "https://coverartarchive.org/release/mbid-1/front-500" {
		t.Errorf("expected cover art URL, got %q", snap.Entries[1].ArtURL)
	}
}

func TestListenBrainzUserNotFound(t *testing.T) {
	adapter := newTestAdapter(t, scrobble.ListenBrainz, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code": 404, "error": "User nobody not found"}`))
	})

	_, err := adapter.Fetch(context.Background(), scrobble.Account{Kind: scrobble.ListenBrainz, Username: "nobody"}, scrobble.RecentTracks, "", 3)
	if !scrobble.IsKind(err, scrobble.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
