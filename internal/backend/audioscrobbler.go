package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// Audioscrobbler 2.0 API error codes (shared by Last.fm and Libre.fm).
const (
	asErrAuthenticationFailed = 4
	asErrInvalidParameters    = 6
	asErrInvalidSessionKey    = 9
	asErrInvalidAPIKey        = 10
	asErrServiceOffline       = 11
	asErrInvalidSignature     = 13
	asErrUnauthorizedToken    = 14
	asErrExpiredToken         = 15
	asErrTempUnavailable      = 16
	asErrRateLimitExceeded    = 29
)

// Last.fm serves this image hash for subjects it has no artwork for.
const lastfmPlaceholderHash = "2a96cbd8b46e442fc41c2b86b821562f"

// audioscrobbler adapts the audioscrobbler 2.0 JSON API. It serves
// both Last.fm and Libre.fm, which differ only in base URL and in
// whether a loved-tracks feedback store exists.
type audioscrobbler struct {
	kind          scrobble.BackendKind
	baseURL       string
	apiKey        string
	supportsLoved bool
	tr            *transport
	now           func() time.Time
}

func newAudioscrobbler(kind scrobble.BackendKind, baseURL string, supportsLoved bool, opts Options) *audioscrobbler {
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	a := &audioscrobbler{
		kind:          kind,
		baseURL:       baseURL,
		apiKey:        opts.APIKey,
		supportsLoved: supportsLoved,
		now:           time.Now,
	}
	a.tr = newTransport(kind, a.classify, opts)
	return a
}

func (a *audioscrobbler) Fetch(ctx context.Context, account scrobble.Account, endpoint scrobble.EndpointKind, period scrobble.Period, limit int) (*scrobble.ListeningSnapshot, error) {
	snap := &scrobble.ListeningSnapshot{
		Backend:   a.kind,
		Endpoint:  endpoint,
		FetchedAt: a.now(),
	}

	switch endpoint {
	case scrobble.RecentTracks:
		tracks, err := a.recentTracks(ctx, account.Username, limit)
		if err != nil {
			return nil, err
		}
		snap.Tracks = tracks
	case scrobble.LovedTracks:
		if !a.supportsLoved {
			return nil, scrobble.NewError(scrobble.KindUnsupported, a.kind, "loved tracks are not available on this backend")
		}
		tracks, err := a.lovedTracks(ctx, account.Username, limit)
		if err != nil {
			return nil, err
		}
		snap.Tracks = tracks
	case scrobble.TopArtists, scrobble.TopAlbums, scrobble.TopTracks:
		entries, err := a.topEntries(ctx, account.Username, endpoint, period, limit)
		if err != nil {
			return nil, err
		}
		snap.Entries = entries
	case scrobble.UserInfo:
		user, err := a.userInfo(ctx, account.Username)
		if err != nil {
			return nil, err
		}
		snap.User = user
	default:
		return nil, fmt.Errorf("audioscrobbler: unknown endpoint %q", endpoint)
	}

	return snap, nil
}

// methodURL builds an audioscrobbler method call URL.
func (a *audioscrobbler) methodURL(method, username string, extra url.Values) string {
	params := url.Values{}
	params.Set("method", method)
	params.Set("user", username)
	params.Set("api_key", a.apiKey)
	params.Set("format", "json")
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return a.baseURL + "?" + params.Encode()
}

type asImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// biggestImage returns the largest non-placeholder image URL. The API
// orders the image array smallest-first.
func biggestImage(images []asImage) string {
	for i := len(images) - 1; i >= 0; i-- {
		u := images[i].URL
		if u == "" || strings.Contains(u, lastfmPlaceholderHash) {
			continue
		}
		return u
	}
	return ""
}

// parseCount parses the stringly-typed play counts the API returns.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type asRecentTrack struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
		Text string `json:"#text"`
	} `json:"artist"`
	Album struct {
		Text string `json:"#text"`
	} `json:"album"`
	Image []asImage `json:"image"`
	Date  struct {
		UTS string `json:"uts"`
	} `json:"date"`
	Loved string `json:"loved"`
	Attr  struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
}

func (rt *asRecentTrack) toTrack() scrobble.Track {
	artist := rt.Artist.Name
	if artist == "" {
		artist = rt.Artist.Text
	}
	track := scrobble.Track{
		Artist:     artist,
		Title:      rt.Name,
		Album:      rt.Album.Text,
		ArtURL:     biggestImage(rt.Image),
		Loved:      rt.Loved == "1",
		NowPlaying: rt.Attr.NowPlaying == "true",
	}
	if !track.NowPlaying {
		if uts, err := strconv.ParseInt(rt.Date.UTS, 10, 64); err == nil {
			at := time.Unix(uts, 0).UTC()
			track.PlayedAt = &at
		}
	}
	return track
}

func (a *audioscrobbler) recentTracks(ctx context.Context, username string, limit int) ([]scrobble.Track, error) {
	extra := url.Values{}
	extra.Set("extended", "1")
	extra.Set("limit", strconv.Itoa(limit))

	body, err := a.tr.get(ctx, a.methodURL("user.getrecenttracks", username, extra))
	if err != nil {
		return nil, err
	}

	var resp struct {
		RecentTracks struct {
			Track []asRecentTrack `json:"track"`
		} `json:"recenttracks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, scrobble.WrapError(scrobble.KindUnavailable, a.kind, "decode recent tracks", err)
	}

	tracks := make([]scrobble.Track, 0, len(resp.RecentTracks.Track))
	for i := range resp.RecentTracks.Track {
		tracks = append(tracks, resp.RecentTracks.Track[i].toTrack())
	}
	return tracks, nil
}

func (a *audioscrobbler) lovedTracks(ctx context.Context, username string, limit int) ([]scrobble.Track, error) {
	extra := url.Values{}
	extra.Set("limit", strconv.Itoa(limit))

	body, err := a.tr.get(ctx, a.methodURL("user.getlovedtracks", username, extra))
	if err != nil {
		return nil, err
	}

	var resp struct {
		LovedTracks struct {
			Track []asRecentTrack `json:"track"`
		} `json:"lovedtracks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, scrobble.WrapError(scrobble.KindUnavailable, a.kind, "decode loved tracks", err)
	}

	tracks := make([]scrobble.Track, 0, len(resp.LovedTracks.Track))
	for i := range resp.LovedTracks.Track {
		track := resp.LovedTracks.Track[i].toTrack()
		track.Loved = true
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (a *audioscrobbler) topEntries(ctx context.Context, username string, endpoint scrobble.EndpointKind, period scrobble.Period, limit int) ([]scrobble.RankedEntry, error) {
	var method string
	switch endpoint {
	case scrobble.TopArtists:
		method = "user.gettopartists"
	case scrobble.TopAlbums:
		method = "user.gettopalbums"
	case scrobble.TopTracks:
		method = "user.gettoptracks"
	}

	extra := url.Values{}
	extra.Set("period", string(period))
	extra.Set("limit", strconv.Itoa(limit))

	body, err := a.tr.get(ctx, a.methodURL(method, username, extra))
	if err != nil {
		return nil, err
	}

	type asRankedItem struct {
		Name   string `json:"name"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		Image     []asImage `json:"image"`
		PlayCount string    `json:"playcount"`
	}
	var resp struct {
		TopArtists struct {
			Artist []asRankedItem `json:"artist"`
		} `json:"topartists"`
		TopAlbums struct {
			Album []asRankedItem `json:"album"`
		} `json:"topalbums"`
		TopTracks struct {
			Track []asRankedItem `json:"track"`
		} `json:"toptracks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, scrobble.WrapError(scrobble.KindUnavailable, a.kind, "decode top entries", err)
	}

	var items []asRankedItem
	switch endpoint {
	case scrobble.TopArtists:
		items = resp.TopArtists.Artist
	case scrobble.TopAlbums:
		items = resp.TopAlbums.Album
	case scrobble.TopTracks:
		items = resp.TopTracks.Track
	}

	entries := make([]scrobble.RankedEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, scrobble.RankedEntry{
			Subject:   item.Name,
			Artist:    item.Artist.Name,
			ArtURL:    biggestImage(item.Image),
			PlayCount: parseCount(item.PlayCount),
		})
	}
	scrobble.RankEntries(entries)
	return entries, nil
}

func (a *audioscrobbler) userInfo(ctx context.Context, username string) (*scrobble.UserProfile, error) {
	body, err := a.tr.get(ctx, a.methodURL("user.getInfo", username, nil))
	if err != nil {
		return nil, err
	}

	var resp struct {
		User struct {
			Name        string    `json:"name"`
			PlayCount   string    `json:"playcount"`
			ArtistCount string    `json:"artist_count"`
			AlbumCount  string    `json:"album_count"`
			TrackCount  string    `json:"track_count"`
			Image       []asImage `json:"image"`
			Registered  struct {
				Text int64 `json:"#text"`
			} `json:"registered"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, scrobble.WrapError(scrobble.KindUnavailable, a.kind, "decode user info", err)
	}

	profile := &scrobble.UserProfile{
		Username:    resp.User.Name,
		PlayCount:   parseCount(resp.User.PlayCount),
		ArtistCount: parseCount(resp.User.ArtistCount),
		AlbumCount:  parseCount(resp.User.AlbumCount),
		TrackCount:  parseCount(resp.User.TrackCount),
		ImageURL:    biggestImage(resp.User.Image),
	}
	if resp.User.Registered.Text > 0 {
		at := time.Unix(resp.User.Registered.Text, 0).UTC()
		profile.RegisteredAt = &at
	}
	return profile, nil
}

// classify maps audioscrobbler responses to the error taxonomy. The
// API reports failures as {"error": code, "message": …}, usually with
// a 200 status, so the body is checked before the status code.
func (a *audioscrobbler) classify(status int, body []byte) *scrobble.Error {
	var apiErr struct {
		Code    int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return a.classifyCode(apiErr.Code, apiErr.Message)
	}

	switch {
	case status >= 500:
		return scrobble.NewError(scrobble.KindUnavailable, a.kind, fmt.Sprintf("server error: %d", status))
	case status == 401 || status == 403:
		return scrobble.NewError(scrobble.KindAuthInvalid, a.kind, "credentials rejected")
	case status == 404:
		return scrobble.NewError(scrobble.KindNotFound, a.kind, "no such user")
	case status == 429:
		return scrobble.NewError(scrobble.KindRateLimited, a.kind, "rate limit exceeded")
	case status != 200:
		return scrobble.NewError(scrobble.KindUnavailable, a.kind, fmt.Sprintf("unexpected status: %d", status))
	}
	return nil
}

func (a *audioscrobbler) classifyCode(code int, message string) *scrobble.Error {
	switch code {
	case asErrAuthenticationFailed, asErrInvalidSessionKey, asErrInvalidAPIKey,
		asErrInvalidSignature, asErrUnauthorizedToken, asErrExpiredToken:
		return scrobble.NewError(scrobble.KindAuthInvalid, a.kind, message)
	case asErrInvalidParameters:
		// The API reports an unknown user as "invalid parameters".
		return scrobble.NewError(scrobble.KindNotFound, a.kind, message)
	case asErrRateLimitExceeded:
		return scrobble.NewError(scrobble.KindRateLimited, a.kind, message)
	case asErrServiceOffline, asErrTempUnavailable:
		return scrobble.NewError(scrobble.KindUnavailable, a.kind, message)
	default:
		return scrobble.NewError(scrobble.KindUnavailable, a.kind, fmt.Sprintf("error %d: %s", code, message))
	}
}
