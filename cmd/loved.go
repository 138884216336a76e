/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// lovedCmd represents the loved command
var lovedCmd = &cobra.Command{
	Use:   "loved",
	Short: "Show a user's latest loved tracks",
	RunE:  runLoved,
}

func init() {
	rootCmd.AddCommand(lovedCmd)
	addAccountFlags(lovedCmd)
}

func runLoved(cmd *cobra.Command, args []string) error {
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

	result, err := eng.aggregator.Loved(ctx, account)
	if err != nil {
		return friendlyError(err)
	}
	if result.Empty {
		fmt.Printf("%s has not loved any tracks yet\n", account.Username)
		return nil
	}

	fmt.Printf("%s's loved tracks:\n", account.Username)
	for i, track := range result.Tracks {
		fmt.Printf("%d. %s - %s\n", i+1, track.Artist, track.Title)
	}
	if result.Stale {
		fmt.Println("(cached data, the backend is busy)")
	}
	return nil
}
