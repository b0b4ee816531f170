package main

import (
	"github.com/spf13/cobra"

	"github.com/vnkhanh/dbsec-lab/importer"
	"github.com/vnkhanh/dbsec-lab/logging"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/utils"
)

type migrateFlags struct {
	htmlDir string
	region  string
	output  string
	noDB    bool
	noJSON  bool
	archive bool
}

func (a *app) migrateContentCommand() *cobra.Command {
	var flags migrateFlags
	cmd := &cobra.Command{
		Use:   "migrate-content",
		Short: "Import the legacy static HTML lab pages into the content store",
		Long: `Reads e<N>.html, e<N>-<M>.html, e<N>-<M>-A<S>.html and *-REFS.html pages from a
directory, rebuilds the exercise hierarchy, fills in missing steps, then saves the records
to the database and/or a JSON snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.migrateContent(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.htmlDir, "html-dir", ".", "Directory containing the legacy HTML files")
	cmd.Flags().StringVar(&flags.region, "region", "", "Object store region for --archive (default AWS_REGION)")
	cmd.Flags().StringVar(&flags.output, "output", "migrated_content.json", "Snapshot file path")
	cmd.Flags().BoolVar(&flags.noDB, "no-db", false, "Skip saving to the database")
	cmd.Flags().BoolVar(&flags.noJSON, "no-json", false, "Skip the JSON snapshot export")
	cmd.Flags().BoolVar(&flags.archive, "archive", false, "Also upload the snapshot to the object store")
	return cmd
}

func (a *app) migrateContent(cmd *cobra.Command, flags migrateFlags) error {
	ctx := cmd.Context()

	var contents store.ContentStore
	if !flags.noDB {
		db, closeDB, err := a.openDB()
		if err != nil {
			return err
		}
		defer closeDB()
		contents = store.NewContentStore(db)
	}

	var archive importer.Archiver
	if flags.archive && !flags.noJSON {
		storage := a.cfg.Storage
		if flags.region != "" {
			storage.S3Region = flags.region
		}
		objects, err := utils.NewObjectStore(ctx, storage)
		if err != nil {
			return err
		}
		archive = objects
	}

	if flags.noDB && flags.noJSON {
		logging.Warn().Msg("both --no-db and --no-json given: records are parsed but not written anywhere")
	}

	migrator := importer.NewMigrator(flags.htmlDir, contents, archive, *logging.GlobalLogger())
	summary, err := migrator.Run(ctx, importer.Options{
		SaveToDB:   !flags.noDB,
		ExportJSON: !flags.noJSON,
		OutputPath: flags.output,
		Archive:    flags.archive,
	})
	if summary != nil {
		summary.Print(cmd.OutOrStdout())
	}
	return err
}
