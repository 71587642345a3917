package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"glowchat/internal/chat"
)

// askCmd runs a single turn without the TUI: useful for scripting and
// for smoke-testing a gateway.
var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.Session.Submit(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("%s", chat.DescribeError(err))
		}

		fmt.Println(result.Reply)
		if len(result.Recommendations) > 0 {
			fmt.Println("\nRecommendations:")
			for _, rec := range result.Recommendations {
				fmt.Println(chat.FormatRecommendation(rec))
			}
		}
		return nil
	},
}
