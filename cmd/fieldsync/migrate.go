package main

import (
	"github.com/spf13/cobra"

	"github.com/rgoodwin/fieldsync/pkg/supabase"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Push all local employees, customers, and jobs to Supabase",
	Long: `Pushes every locally stored record to the remote relational store with
upsert-by-id semantics, so repeated runs converge instead of duplicating.
Nothing is deleted remotely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, err := supabase.New(cfg.Supabase.URL, cfg.Supabase.APIKey,
			supabase.WithLogger(log))
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		counts, err := s.MigrateRemote(cmd.Context(), remote)
		if err != nil {
			return err
		}
		return printJSON(counts)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
