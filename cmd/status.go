/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what a user is listening to",
	Long: `Show the user's current or most recent track.

With --full, the two preceding plays are shown as well, along with the
account's total play count.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addAccountFlags(statusCmd)
	statusCmd.Flags().Bool("full", false, "Include the two preceding plays and profile totals")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	account, err := eng.resolveAccount(cmd)
	if err != nil {
		return err
	}

	full, _ := cmd.Flags().GetBool("full")
	depth := 1
	if full {
		depth = 3
	}

	result, err := eng.aggregator.Status(ctx, account, depth)
	if err != nil {
		return friendlyError(err)
	}
	if result.Empty {
		fmt.Printf("%s has not scrobbled anything yet\n", account.Username)
		return nil
	}

	for i, track := range result.Tracks {
		fmt.Println(formatStatusLine(account.Username, track, i == 0))
	}

	if full {
		if profile, err := eng.aggregator.Profile(ctx, account); err == nil {
			fmt.Printf("%s has %d scrobbles on %s\n", account.Username, profile.User.PlayCount, account.Kind)
		}
	}
	if result.Stale {
		fmt.Println("(cached data, the backend is busy)")
	}
	return nil
}

// formatStatusLine renders one track of a status answer.
func formatStatusLine(username string, track scrobble.Track, first bool) string {
	title := fmt.Sprintf("%s - %s", track.Artist, track.Title)
	if track.Album != "" {
		title = fmt.Sprintf("%s (%s)", title, track.Album)
	}
	if track.Loved {
		title += " ♥"
	}

	switch {
	case track.NowPlaying:
		return fmt.Sprintf("%s is now playing: %s", username, title)
	case first:
		return fmt.Sprintf("%s last played: %s%s", username, title, playedAgo(track.PlayedAt))
	default:
		return fmt.Sprintf("  earlier: %s%s", title, playedAgo(track.PlayedAt))
	}
}

func playedAgo(played *time.Time) string {
	if played == nil {
		return ""
	}
	d := time.Since(*played)
	switch {
	case d < time.Minute:
		return " (moments ago)"
	case d < time.Hour:
		return fmt.Sprintf(" (%dm ago)", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf(" (%dh ago)", int(d.Hours()))
	default:
		return fmt.Sprintf(" (%s)", played.Format("2006-01-02"))
	}
}
