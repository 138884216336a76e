/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Query listening data from Last.fm, Libre.fm, and ListenBrainz",
	Long: `chorus answers questions about a scrobble account: what is playing
right now, the latest loved tracks, top charts over a period, taste
compatibility between two listeners, and album-art collages.

It speaks to Last.fm, Libre.fm, and ListenBrainz through one set of
commands, caching responses so repeated queries stay cheap.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
