package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/digitguess/internal/api/response"
)

func newLeaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the best bot-room results",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Leaderboard

			path := "/api/v1/leaderboard"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (server default if unset)")

	return cmd
}
