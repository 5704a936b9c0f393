package main

import (
	"log"

	"github.com/spf13/cobra"

	"todopro/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := repository.Migrate(app.db); err != nil {
			return err
		}
		log.Printf("[info] schema is up to date (%s)", app.cfg.DatabaseURL)
		return nil
	},
}
