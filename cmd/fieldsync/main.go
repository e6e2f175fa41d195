package main

import (
	"os"
)

func main() {
	err := rootCmd.Execute()
	if log != nil {
		log.Sync() //nolint:errcheck
	}
	if err != nil {
		os.Exit(1)
	}
}
