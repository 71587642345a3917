package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// clearCmd wipes the saved conversation and user context.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase the saved conversation and user context",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		app.Session.Clear()
		fmt.Println("Session cleared.")
		return nil
	},
}
