package main

import (
	"os"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the Google Calendar consent flow and save a fresh token",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Drop the stale token so the flow starts clean.
		if _, err := os.Stat(cfg.TokenFile); err == nil {
			log.Infow("removing existing token", "path", cfg.TokenFile)
			if err := os.Remove(cfg.TokenFile); err != nil {
				return err
			}
		}

		broker, err := newBroker()
		if err != nil {
			return err
		}
		if err := broker.Authorize(cmd.Context()); err != nil {
			return err
		}
		log.Infow("authentication successful", "token", cfg.TokenFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
