package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/digitguess/internal/api/request"
	"github.com/mcoot/digitguess/internal/api/response"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Multiplayer room commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomFindCmd())
	cmd.AddCommand(newRoomSecretCmd())
	cmd.AddCommand(newRoomGuessCmd())
	cmd.AddCommand(newRoomStatusCmd())
	cmd.AddCommand(newRoomSummaryCmd())
	cmd.AddCommand(newRoomResetCmd())
	cmd.AddCommand(newRoomEventsCmd())

	return cmd
}

func roomPath(id, suffix string) string {
	return fmt.Sprintf("/api/v1/rooms/%s%s", id, suffix)
}

func newRoomCreateCmd() *cobra.Command {
	var mode, policy, rule, secret string
	var digits int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room",
		Long: `Create a room and join it as the first player.

In bot mode the server picks the secret every player races to crack.
In two_player mode each player guesses a secret chosen by the other;
pass --secret to set the number your opponent must guess.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			req := request.CreateRoomRequest{
				Mode:           mode,
				DigitCount:     digits,
				WinningPolicy:  policy,
				Rule:           rule,
				OpponentSecret: secret,
			}
			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "bot", "Room mode: bot or two_player")
	cmd.Flags().IntVar(&digits, "digits", 0, "Number of digits in the secret (server default if unset)")
	cmd.Flags().StringVar(&policy, "policy", "", "Winning policy: fastest or lowest_turns")
	cmd.Flags().StringVar(&rule, "rule", "", "Scoring rule: strict or relaxed")
	cmd.Flags().StringVar(&secret, "secret", "", "Secret for your opponent to guess (two_player only)")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			req := request.JoinRoomRequest{Code: strings.ToUpper(args[0]), Secret: secret}
			if err := client.Post("/api/v1/rooms/join", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Secret for your opponent to guess (two_player only)")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show a room and its players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			if err := client.Get(roomPath(args[0], ""), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <code>",
		Short: "Look up a room by its join code without joining",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			code := strings.ToUpper(strings.TrimSpace(args[0]))
			if err := client.Get(roomPath("code/"+code, ""), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret <room-id> <digits>",
		Short: "Set the secret your opponent must guess",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			req := request.SetSecretRequest{Secret: args[1]}
			if err := client.Put(roomPath(args[0], "/opponent-secret"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomGuessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guess <room-id> <digits>",
		Short: "Submit a guess in a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RoomGuessResult

			req := request.GuessRequest{Guess: args[1]}
			if err := client.Post(roomPath(args[0], "/guesses"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <room-id>",
		Short: "Show whether a room is complete and who won",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RoomStatus

			if err := client.Get(roomPath(args[0], "/status"), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <room-id>",
		Short: "Show room standings ordered by turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RoomSummary

			if err := client.Get(roomPath(args[0], "/summary"), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomResetCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "reset <room-id>",
		Short: "Start a new round in a room (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			req := request.ResetRoomRequest{OpponentSecret: secret}
			if err := client.Post(roomPath(args[0], "/reset"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "New secret for your opponent (two_player only)")

	return cmd
}
