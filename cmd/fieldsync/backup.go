package main

import (
	"os"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore the local store",
}

var backupExportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write a self-contained snapshot (stdout when no file given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		data, err := s.ExportBackup()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		}
		return os.WriteFile(args[0], data, 0600)
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the local store with a snapshot's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		return s.ImportBackup(data)
	},
}

func init() {
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}
