/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

func TestFormatStatusLine(t *testing.T) {
	played := time.Now().Add(-10 * time.Minute)

	tests := []struct {
		name  string
		track scrobble.Track
		first bool
		want  []string
	}{
		{
			name:  "now playing",
			track: scrobble.Track{Artist: "Burial", Title: "Archangel", NowPlaying: true},
			first: true,
			want:  []string{"now playing", "Burial - Archangel"},
		},
		{
			name:  "last played with album",
			track: scrobble.Track{Artist: "Burial", Title: "Archangel", Album: "Untrue", PlayedAt: &played},
			first: true,
			want:  []string{"last played", "Burial - Archangel (Untrue)", "10m ago"},
		},
		{
			name:  "loved marker",
			track: scrobble.Track{Artist: "Burial", Title: "Archangel", Loved: true, PlayedAt: &played},
			first: true,
			want:  []string{"♥"},
		},
		{
			name:  "earlier play",
			track: scrobble.Track{Artist: "Burial", Title: "Archangel", PlayedAt: &played},
			first: false,
			want:  []string{"earlier:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatStatusLine("kate", tt.track, tt.first)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("line %q should contain %q", got, want)
				}
			}
		})
	}
}

func TestParseSubject(t *testing.T) {
	tests := []struct {
		arg     string
		want    scrobble.SubjectKind
		wantErr bool
	}{
		{"artists", scrobble.SubjectArtist, false},
		{"artist", scrobble.SubjectArtist, false},
		{"albums", scrobble.SubjectAlbum, false},
		{"tracks", scrobble.SubjectTrack, false},
		{"", scrobble.SubjectArtist, false},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		got, err := parseSubject(tt.arg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSubject(%q) should fail", tt.arg)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSubject(%q) failed: %v", tt.arg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSubject(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", scrobble.NewError(scrobble.KindNotFound, scrobble.LastFM, "no user"), "no listening history"},
		{"auth", scrobble.NewError(scrobble.KindAuthInvalid, scrobble.LastFM, "bad key"), "credentials"},
		{"rate limited", scrobble.NewError(scrobble.KindRateLimited, scrobble.LastFM, "slow down"), "try again shortly"},
		{"throttled", scrobble.NewError(scrobble.KindThrottled, scrobble.LastFM, "budget"), "try again shortly"},
		{"timeout", scrobble.NewError(scrobble.KindTimeout, scrobble.LastFM, "deadline"), "too long"},
		{"unsupported", scrobble.NewError(scrobble.KindUnsupported, scrobble.LibreFM, "no loved"), "not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := friendlyError(tt.err)
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("friendlyError(%v) = %q, should contain %q", tt.err, got, tt.want)
			}
		})
	}

	plain := errors.New("something else")
	if got := friendlyError(plain); got != plain {
		t.Errorf("unclassified errors must pass through, got %v", got)
	}
}
