package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// listenBrainz adapts the ListenBrainz 1.x API. Listening data is
// public, so no token is needed for reads. Album art is resolved via
// the Cover Art Archive using release MBIDs.
type listenBrainz struct {
	baseURL string
	tr      *transport
	now     func() time.Time
}

func newListenBrainz(opts Options) *listenBrainz {
	baseURL := listenbrainzBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	lb := &listenBrainz{
		baseURL: baseURL,
		now:     time.Now,
	}
	lb.tr = newTransport(scrobble.ListenBrainz, lb.classify, opts)
	return lb
}

func (lb *listenBrainz) Fetch(ctx context.Context, account scrobble.Account, endpoint scrobble.EndpointKind, period scrobble.Period, limit int) (*scrobble.ListeningSnapshot, error) {
	snap := &scrobble.ListeningSnapshot{
		Backend:   scrobble.ListenBrainz,
		Endpoint:  endpoint,
		FetchedAt: lb.now(),
	}

	switch endpoint {
	case scrobble.RecentTracks:
		tracks, err := lb.recentTracks(ctx, account.Username, limit)
		if err != nil {
			return nil, err
		}
		snap.Tracks = tracks
	case scrobble.LovedTracks:
		tracks, err := lb.lovedTracks(ctx, account.Username, limit)
		if err != nil {
			return nil, err
		}
		snap.Tracks = tracks
	case scrobble.TopArtists, scrobble.TopAlbums, scrobble.TopTracks:
		entries, err := lb.topEntries(ctx, account.Username, endpoint, period, limit)
		if err != nil {
			return nil, err
		}
		snap.Entries = entries
	case scrobble.UserInfo:
		user, err := lb.userInfo(ctx, account.Username)
		if err != nil {
			return nil, err
		}
		snap.User = user
	default:
		return nil, fmt.Errorf("listenbrainz: unknown endpoint %q", endpoint)
	}

	return snap, nil
}

// lbRange maps the canonical period names to ListenBrainz stat ranges.
func lbRange(period scrobble.Period) string {
	switch period {
	case scrobble.LastWeek:
		return "week"
	case scrobble.LastMonth:
		return "month"
	case scrobble.LastQuarter:
		return "quarter"
	case scrobble.LastHalfYear:
		return "half_yearly"
	case scrobble.LastYear:
		return "year"
	default:
		return "all_time"
	}
}

func coverArtURL(releaseMBID string) string {
	if releaseMBID == "" {
		return ""
	}
	return fmt.Sprintf("https://coverartarchive.org/release/%s/front-500", releaseMBID)
}

// lbListen is one listen entry; track details may sit directly on the
// object or nested under track_metadata depending on the endpoint.
type lbListen struct {
	ListenedAt    *int64          `json:"listened_at"`
	TrackMetadata *lbTrackDetails `json:"track_metadata"`
	lbTrackDetails
}

type lbTrackDetails struct {
	ArtistName  string `json:"artist_name"`
	TrackName   string `json:"track_name"`
	ReleaseName string `json:"release_name"`
	ReleaseMBID string `json:"release_mbid"`
	ListenCount int64  `json:"listen_count"`
}

func (l *lbListen) details() *lbTrackDetails {
	if l.TrackMetadata != nil {
		return l.TrackMetadata
	}
	return &l.lbTrackDetails
}

func (l *lbListen) toTrack(nowPlaying bool) scrobble.Track {
	d := l.details()
	track := scrobble.Track{
		Artist:     d.ArtistName,
		Title:      d.TrackName,
		Album:      d.ReleaseName,
		ArtURL:     coverArtURL(d.ReleaseMBID),
		NowPlaying: nowPlaying,
	}
	if !nowPlaying && l.ListenedAt != nil {
		at := time.Unix(*l.ListenedAt, 0).UTC()
		track.PlayedAt = &at
	}
	return track
}

func (lb *listenBrainz) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := lb.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	body, err := lb.tr.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return scrobble.WrapError(scrobble.KindUnavailable, scrobble.ListenBrainz, "decode response", err)
	}
	return nil
}

// recentTracks combines the playing-now endpoint with the listen
// history so that an in-progress track always leads the result.
func (lb *listenBrainz) recentTracks(ctx context.Context, username string, limit int) ([]scrobble.Track, error) {
	var nowResp struct {
		Payload struct {
			Listens []lbListen `json:"listens"`
		} `json:"payload"`
	}
	if err := lb.getJSON(ctx, "user/"+url.PathEscape(username)+"/playing-now", nil, &nowResp); err != nil {
		return nil, err
	}

	var tracks []scrobble.Track
	for i := range nowResp.Payload.Listens {
		tracks = append(tracks, nowResp.Payload.Listens[i].toTrack(true))
	}
	if len(tracks) >= limit {
		return tracks[:limit], nil
	}

	query := url.Values{}
	query.Set("count", strconv.Itoa(limit))
	var histResp struct {
		Payload struct {
			Listens []lbListen `json:"listens"`
		} `json:"payload"`
	}
	if err := lb.getJSON(ctx, "user/"+url.PathEscape(username)+"/listens", query, &histResp); err != nil {
		return nil, err
	}
	for i := range histResp.Payload.Listens {
		tracks = append(tracks, histResp.Payload.Listens[i].toTrack(false))
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (lb *listenBrainz) lovedTracks(ctx context.Context, username string, limit int) ([]scrobble.Track, error) {
	query := url.Values{}
	query.Set("metadata", "true")
	query.Set("count", strconv.Itoa(limit))

	var resp struct {
		Feedback []lbListen `json:"feedback"`
	}
	if err := lb.getJSON(ctx, "user/"+url.PathEscape(username)+"/get-feedback", query, &resp); err != nil {
		return nil, err
	}

	tracks := make([]scrobble.Track, 0, len(resp.Feedback))
	for i := range resp.Feedback {
		track := resp.Feedback[i].toTrack(false)
		track.Loved = true
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (lb *listenBrainz) topEntries(ctx context.Context, username string, endpoint scrobble.EndpointKind, period scrobble.Period, limit int) ([]scrobble.RankedEntry, error) {
	var stat string
	switch endpoint {
	case scrobble.TopArtists:
		stat = "artists"
	case scrobble.TopAlbums:
		stat = "releases"
	case scrobble.TopTracks:
		stat = "recordings"
	}

	query := url.Values{}
	query.Set("range", lbRange(period))
	query.Set("count", strconv.Itoa(limit))

	var resp struct {
		Payload struct {
			Artists    []lbTrackDetails `json:"artists"`
			Releases   []lbTrackDetails `json:"releases"`
			Recordings []lbTrackDetails `json:"recordings"`
		} `json:"payload"`
	}
	if err := lb.getJSON(ctx, "stats/user/"+url.PathEscape(username)+"/"+stat, query, &resp); err != nil {
		return nil, err
	}

	var items []lbTrackDetails
	switch endpoint {
	case scrobble.TopArtists:
		items = resp.Payload.Artists
	case scrobble.TopAlbums:
		items = resp.Payload.Releases
	case scrobble.TopTracks:
		items = resp.Payload.Recordings
	}

	entries := make([]scrobble.RankedEntry, 0, len(items))
	for _, item := range items {
		entry := scrobble.RankedEntry{
			Artist:    item.ArtistName,
			ArtURL:    coverArtURL(item.ReleaseMBID),
			PlayCount: item.ListenCount,
		}
		switch endpoint {
		case scrobble.TopArtists:
			entry.Subject = item.ArtistName
			entry.Artist = ""
			entry.ArtURL = ""
		case scrobble.TopAlbums:
			entry.Subject = item.ReleaseName
		case scrobble.TopTracks:
			entry.Subject = item.TrackName
		}
		entries = append(entries, entry)
	}
	scrobble.RankEntries(entries)
	return entries, nil
}

// userInfo assembles a profile from the listen-count endpoint plus the
// stat totals; ListenBrainz has no single user.getInfo equivalent.
func (lb *listenBrainz) userInfo(ctx context.Context, username string) (*scrobble.UserProfile, error) {
	var countResp struct {
		Payload struct {
			Count int64 `json:"count"`
		} `json:"payload"`
	}
	if err := lb.getJSON(ctx, "user/"+url.PathEscape(username)+"/listen-count", nil, &countResp); err != nil {
		return nil, err
	}

	profile := &scrobble.UserProfile{
		Username:  username,
		PlayCount: countResp.Payload.Count,
	}

	var totals struct {
		Payload struct {
			TotalArtistCount    int64 `json:"total_artist_count"`
			TotalReleaseCount   int64 `json:"total_release_count"`
			TotalRecordingCount int64 `json:"total_recording_count"`
		} `json:"payload"`
	}
	for _, stat := range []string{"artists", "releases", "recordings"} {
		if err := lb.getJSON(ctx, "stats/user/"+url.PathEscape(username)+"/"+stat, nil, &totals); err != nil {
			// Stats lag behind for fresh accounts; the listen count is
			// still worth returning.
			if scrobble.IsKind(err, scrobble.KindNotFound) {
				continue
			}
			return nil, err
		}
	}
	profile.ArtistCount = totals.Payload.TotalArtistCount
	profile.AlbumCount = totals.Payload.TotalReleaseCount
	profile.TrackCount = totals.Payload.TotalRecordingCount
	return profile, nil
}

func (lb *listenBrainz) classify(status int, _ []byte) *scrobble.Error {
	switch {
	case status >= 500:
		return scrobble.NewError(scrobble.KindUnavailable, scrobble.ListenBrainz, fmt.Sprintf("server error: %d", status))
	case status == 401 || status == 403:
		return scrobble.NewError(scrobble.KindAuthInvalid, scrobble.ListenBrainz, "credentials rejected")
	case status == 404:
		return scrobble.NewError(scrobble.KindNotFound, scrobble.ListenBrainz, "no such user")
	case status == 429:
		return scrobble.NewError(scrobble.KindRateLimited, scrobble.ListenBrainz, "rate limit exceeded")
	case status != 200:
		return scrobble.NewError(scrobble.KindUnavailable, scrobble.ListenBrainz, fmt.Sprintf("unexpected status: %d", status))
	}
	return nil
}
