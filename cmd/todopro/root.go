package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todopro",
	Short: "Personal task tracker with expiry reports",
	Long: `todopro keeps per-user task lists with due dates and completion state.

It serves a JSON API, an optional Telegram bot with a daily digest of
expired tasks, and a few administrative commands.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createSuperuserCmd)
	rootCmd.AddCommand(reportCmd)
}
