package scrobble

import (
	"fmt"
	"sort"
	"time"
)

// BackendKind identifies one of the supported scrobble services.
type BackendKind string

const (
	LastFM       BackendKind = "lastfm"
	LibreFM      BackendKind = "librefm"
	ListenBrainz BackendKind = "listenbrainz"
)

// ParseBackend converts a configuration string into a BackendKind.
func ParseBackend(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case LastFM, LibreFM, ListenBrainz:
		return BackendKind(s), nil
	default:
		return "", fmt.Errorf("unknown backend %q", s)
	}
}

// EndpointKind identifies the class of data being fetched from a backend.
type EndpointKind string

const (
	RecentTracks EndpointKind = "recent_tracks"
	LovedTracks  EndpointKind = "loved_tracks"
	TopArtists   EndpointKind = "top_artists"
	TopAlbums    EndpointKind = "top_albums"
	TopTracks    EndpointKind = "top_tracks"
	UserInfo     EndpointKind = "user_info"
)

// Period is the time window over which top rankings are computed.
// The values follow the audioscrobbler convention; the ListenBrainz
// adapter translates them to its own range names.
type Period string

const (
	Overall      Period = "overall"
	LastWeek     Period = "7day"
	LastMonth    Period = "1month"
	LastQuarter  Period = "3month"
	LastHalfYear Period = "6month"
	LastYear     Period = "12month"
)

// ParsePeriod converts a user-supplied period string into a Period.
// Both the canonical audioscrobbler tokens and friendlier aliases are
// accepted.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Overall, LastWeek, LastMonth, LastQuarter, LastHalfYear, LastYear:
		return Period(s), nil
	}
	switch s {
	case "all", "alltime":
		return Overall, nil
	case "week", "weekly":
		return LastWeek, nil
	case "month", "monthly":
		return LastMonth, nil
	case "quarter":
		return LastQuarter, nil
	case "half-year", "halfyear":
		return LastHalfYear, nil
	case "year", "yearly":
		return LastYear, nil
	default:
		return "", fmt.Errorf("unknown period %q (want overall, week, month, quarter, half-year or year)", s)
	}
}

// SubjectKind is the kind of entity a top ranking or random pick is about.
type SubjectKind string

const (
	SubjectArtist SubjectKind = "artist"
	SubjectAlbum  SubjectKind = "album"
	SubjectTrack  SubjectKind = "track"
)

// Endpoint returns the top-N endpoint that serves this subject kind.
func (k SubjectKind) Endpoint() EndpointKind {
	switch k {
	case SubjectAlbum:
		return TopAlbums
	case SubjectTrack:
		return TopTracks
	default:
		return TopArtists
	}
}

// Account is a linked scrobble account, resolved and validated by the
// chat layer. The engine only ever reads it.
type Account struct {
	Kind     BackendKind
	Username string
}

// Track is one normalized scrobble. A track with NowPlaying set has no
// PlayedAt timestamp: it is still in progress.
type Track struct {
	Artist     string
	Title      string
	Album      string     // optional
	ArtURL     string     // optional album art URL
	PlayedAt   *time.Time // nil while now playing
	NowPlaying bool
	Loved      bool
}

// RankedEntry is one row of a top-N ranking.
type RankedEntry struct {
	Subject   string // artist, album or track name
	Artist    string // owning artist; empty for artist entries
	ArtURL    string // optional album art URL
	PlayCount int64
	Rank      int // 1-based
}

// RankEntries sorts entries by descending play count, breaking ties by
// ascending subject name, and assigns 1-based ranks. The input slice is
// sorted in place.
func RankEntries(entries []RankedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].PlayCount != entries[j].PlayCount {
			return entries[i].PlayCount > entries[j].PlayCount
		}
		return entries[i].Subject < entries[j].Subject
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// UserProfile holds the profile statistics a backend exposes for a user.
type UserProfile struct {
	Username     string
	PlayCount    int64
	ArtistCount  int64
	AlbumCount   int64
	TrackCount   int64
	ImageURL     string
	RegisteredAt *time.Time
}

// ListeningSnapshot is one normalized fetch result: either an ordered
// track list (most-recent-first), a ranked top-N list, or a user
// profile, together with its provenance and freshness window.
type ListeningSnapshot struct {
	Backend  BackendKind
	Endpoint EndpointKind
	Tracks   []Track
	Entries  []RankedEntry
	User     *UserProfile

	FetchedAt time.Time
	TTL       time.Duration

	// Stale is set by the cache when it serves an entry past its TTL
	// because the backend request budget is exhausted.
	Stale bool
}

// Expired reports whether the snapshot's freshness window has passed.
func (s *ListeningSnapshot) Expired(now time.Time) bool {
	return now.After(s.FetchedAt.Add(s.TTL))
}
