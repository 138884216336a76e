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

// topCmd represents the top command
var topCmd = &cobra.Command{
	Use:   "top [artists|albums|tracks]",
	Short: "Show a user's top chart",
	Long: `Show a user's most played artists, albums, or tracks.

The --period flag selects the window: overall, week, month, quarter,
half-year, or year.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTop,
}

func init() {
	rootCmd.AddCommand(topCmd)
	addAccountFlags(topCmd)
	topCmd.Flags().StringP("period", "p", "overall", "Time window: overall, week, month, quarter, half-year, year")
	topCmd.Flags().IntP("count", "n", 5, "How many entries to show")
}

// parseSubject maps the chart argument to a subject kind.
func parseSubject(arg string) (scrobble.SubjectKind, error) {
	switch arg {
	case "", "artists", "artist":
		return scrobble.SubjectArtist, nil
	case "albums", "album":
		return scrobble.SubjectAlbum, nil
	case "tracks", "track":
		return scrobble.SubjectTrack, nil
	default:
		return "", fmt.Errorf("unknown chart %q, expected artists, albums, or tracks", arg)
	}
}

func runTop(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subjectArg := "artists"
	if len(args) > 0 {
		subjectArg = args[0]
	}
	subject, err := parseSubject(subjectArg)
	if err != nil {
		return err
	}

	periodArg, _ := cmd.Flags().GetString("period")
	period, err := scrobble.ParsePeriod(periodArg)
	if err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	account, err := eng.resolveAccount(cmd)
	if err != nil {
		return err
	}

	result, err := eng.aggregator.TopN(ctx, account, subject, period, count)
	if err != nil {
		return friendlyError(err)
	}
	if result.Empty {
		fmt.Printf("%s has no chart for that period yet\n", account.Username)
		return nil
	}

	fmt.Printf("%s's top %s (%s):\n", account.Username, subjectArg, periodArg)
	for _, entry := range result.Entries {
		label := entry.Subject
		if entry.Artist != "" {
			label = fmt.Sprintf("%s - %s", entry.Artist, entry.Subject)
		}
		fmt.Printf("%d. %s (%d plays)\n", entry.Rank, label, entry.PlayCount)
	}
	if result.Stale {
		fmt.Println("(cached data, the backend is busy)")
	}
	return nil
}
