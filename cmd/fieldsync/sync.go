package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rgoodwin/fieldsync/pkg/engine"
	"github.com/rgoodwin/fieldsync/pkg/model"
	"github.com/rgoodwin/fieldsync/pkg/store"
)

var syncWeekOf string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the calendar with the job record for one week",
	RunE: func(cmd *cobra.Command, args []string) error {
		anchor := time.Now()
		if syncWeekOf != "" {
			t, err := model.ParseDate(syncWeekOf)
			if err != nil {
				return err
			}
			anchor = t
		}
		res, err := runSyncPass(cmd, anchor)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func runSyncPass(cmd *cobra.Command, anchor time.Time) (*engine.Result, error) {
	weekStart, weekEnd := engine.WeekOf(anchor)

	s, err := openStore()
	if err != nil {
		return nil, err
	}
	jobs, err := s.Jobs(&store.WeekFilter{WeekStart: weekStart, WeekEnd: weekEnd})
	if err != nil {
		return nil, err
	}

	eng, err := newEngine(cmd.Context())
	if err != nil {
		return nil, err
	}
	return eng.SyncWeek(cmd.Context(), jobs, weekStart, weekEnd)
}

func init() {
	syncCmd.Flags().StringVar(&syncWeekOf, "week", "", "any date inside the target week (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(syncCmd)
}
