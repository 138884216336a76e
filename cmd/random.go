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

// randomCmd represents the random command
var randomCmd = &cobra.Command{
	Use:   "random [artists|albums|tracks]",
	Short: "Pick something at random from a user's heaviest rotation",
	Long: `Draw one entry at random from the user's all-time top fifty for the
given chart. Useful for "what should I listen to" moments.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRandom,
}

func init() {
	rootCmd.AddCommand(randomCmd)
	addAccountFlags(randomCmd)
}

func runRandom(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subjectArg := "tracks"
	if len(args) > 0 {
		subjectArg = args[0]
	}
	subject, err := parseSubject(subjectArg)
	if err != nil {
		return err
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

	result, err := eng.aggregator.RandomPick(ctx, account, subject)
	if err != nil {
		return friendlyError(err)
	}
	if result.Empty {
		fmt.Printf("%s has nothing to pick from yet\n", account.Username)
		return nil
	}

	label := result.Entry.Subject
	if result.Entry.Artist != "" {
		label = fmt.Sprintf("%s - %s", result.Entry.Artist, result.Entry.Subject)
	}
	fmt.Printf("How about %s? %s played it %d times.\n", label, account.Username, result.Entry.PlayCount)
	return nil
}
