package main

import (
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/vnkhanh/dbsec-lab/config"
	"github.com/vnkhanh/dbsec-lab/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the configuration loaded once before any subcommand runs.
type app struct {
	cfg config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "dbseclab",
		Short:        "Database security lab: web server and content tools",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			logging.Init(a.cfg.LogLevel, !a.cfg.IsProduction())
		},
	}

	root.AddCommand(a.serveCommand())
	root.AddCommand(a.migrateContentCommand())
	root.AddCommand(a.adminCommand())
	return root
}

// openDB returns the database and a func that closes it.
func (a *app) openDB() (*gorm.DB, func(), error) {
	db, err := config.OpenDB(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, closeDB, nil
}
