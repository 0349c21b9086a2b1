package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/digitguess/internal/api/request"
	"github.com/mcoot/digitguess/internal/api/response"
)

func newSoloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solo",
		Short: "Solo game commands",
	}

	cmd.AddCommand(newSoloStartCmd())
	cmd.AddCommand(newSoloGuessCmd())
	cmd.AddCommand(newSoloGetCmd())
	cmd.AddCommand(newSoloListCmd())

	return cmd
}

func newSoloStartCmd() *cobra.Command {
	var digits int
	var rule string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new solo game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game

			req := request.StartGameRequest{DigitCount: digits, Rule: rule}
			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&digits, "digits", 0, "Number of digits in the secret (server default if unset)")
	cmd.Flags().StringVar(&rule, "rule", "", "Scoring rule: strict or relaxed")

	return cmd
}

func newSoloGuessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guess <game-id> <digits>",
		Short: "Submit a guess for a solo game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SoloGuessResult

			path := fmt.Sprintf("/api/v1/games/%s/guesses", args[0])
			if err := client.Post(path, request.GuessRequest{Guess: args[1]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSoloGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show a solo game and its guess history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game

			if err := client.Get("/api/v1/games/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSoloListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your solo games",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameList

			if err := client.Get("/api/v1/games", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
