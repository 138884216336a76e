/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/chorus/internal/collage"
	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// collageCmd represents the collage command
var collageCmd = &cobra.Command{
	Use:   "collage [artists|albums|tracks]",
	Short: "Render an album-art collage of a user's top chart",
	Long: `Fetch the artwork for a user's top chart and compose it into a
square JPEG grid, highest play counts first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollage,
}

func init() {
	rootCmd.AddCommand(collageCmd)
	addAccountFlags(collageCmd)
	collageCmd.Flags().IntP("size", "s", 3, fmt.Sprintf("Grid edge in cells, 1 to %d", collage.MaxGrid))
	collageCmd.Flags().StringP("period", "p", "overall", "Time window: overall, week, month, quarter, half-year, year")
	collageCmd.Flags().Bool("captions", true, "Overlay names and play counts on each cell")
	collageCmd.Flags().StringP("output", "o", "collage.jpg", "Output file")
}

func runCollage(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	subjectArg := "albums"
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

	size, _ := cmd.Flags().GetInt("size")
	if size < 1 || size > collage.MaxGrid {
		return fmt.Errorf("size must be between 1 and %d", collage.MaxGrid)
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	account, err := eng.resolveAccount(cmd)
	if err != nil {
		return err
	}

	result, err := eng.aggregator.TopN(ctx, account, subject, period, size*size)
	if err != nil {
		return friendlyError(err)
	}
	if result.Empty {
		fmt.Printf("%s has no chart for that period yet\n", account.Username)
		return nil
	}

	entries := make([]collage.Entry, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = collage.Entry{
			Title:    e.Subject,
			Subtitle: e.Artist,
			Plays:    e.PlayCount,
			ArtURL:   e.ArtURL,
		}
	}

	captions, _ := cmd.Flags().GetBool("captions")
	data, err := eng.renderer.Render(ctx, entries, size, captions)
	if err != nil {
		return friendlyError(err)
	}

	output, _ := cmd.Flags().GetString("output")
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write collage: %w", err)
	}
	fmt.Printf("Wrote %dx%d collage for %s to %s\n", size, size, account.Username, output)
	return nil
}
