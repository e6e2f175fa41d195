package main

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Periodically sync the current week on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		pass := func() {
			res, err := runSyncPass(cmd, time.Now())
			if err != nil {
				log.Errorw("scheduled sync pass failed", "err", err)
				return
			}
			log.Infow("scheduled sync pass",
				"created", res.Created, "updated", res.Updated,
				"deleted", res.Deleted, "skipped", res.Skipped)
		}

		c := cron.New()
		if _, err := c.AddFunc(cfg.Sync.Schedule, pass); err != nil {
			return err
		}

		log.Infow("daemon started", "schedule", cfg.Sync.Schedule)
		pass()
		c.Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
