/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/chorus/internal/compat"
	"github.com/mkarlsen/chorus/pkg/scrobble"
)

// compatCmd represents the compat command
var compatCmd = &cobra.Command{
	Use:   "compat <other-user>",
	Short: "Score taste compatibility with another listener",
	Long: `Compare two users' all-time top artists and report how alike their
tastes are, with the artists they share.

The other user is assumed to live on the same backend unless
--other-backend says otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompat,
}

func init() {
	rootCmd.AddCommand(compatCmd)
	addAccountFlags(compatCmd)
	compatCmd.Flags().String("other-backend", "", "Backend of the other user, if different")
}

func runCompat(cmd *cobra.Command, args []string) error {
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

	otherKind := account.Kind
	if name, _ := cmd.Flags().GetString("other-backend"); name != "" {
		otherKind, err = scrobble.ParseBackend(name)
		if err != nil {
			return err
		}
	}
	other := scrobble.Account{Kind: otherKind, Username: args[0]}

	mine, err := eng.aggregator.TopN(ctx, account, scrobble.SubjectArtist, scrobble.Overall, 50)
	if err != nil {
		return friendlyError(err)
	}
	theirs, err := eng.aggregator.TopN(ctx, other, scrobble.SubjectArtist, scrobble.Overall, 50)
	if err != nil {
		return friendlyError(err)
	}

	result := compat.Score(mine.Entries, theirs.Entries, account.Username, other.Username)
	fmt.Printf("%s and %s are %.0f%% compatible\n", result.UserA, result.UserB, result.Score*100)

	if len(result.Shared) > 0 {
		shown := result.Shared
		if len(shown) > 5 {
			shown = shown[:5]
		}
		fmt.Println("Artists in common:")
		for _, artist := range shown {
			fmt.Printf("  %s (%d and %d plays)\n", artist.Name, artist.PlaysA, artist.PlaysB)
		}
	}
	return nil
}
