package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vnkhanh/dbsec-lab/importer"
	"github.com/vnkhanh/dbsec-lab/logging"
	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/oops"
	"github.com/vnkhanh/dbsec-lab/services"
	"github.com/vnkhanh/dbsec-lab/store"
)

func (a *app) adminCommand() *cobra.Command {
	adminCommand := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tools",
	}

	flagCommand := func(use, short string, flags models.UserFlags) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <username>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.setUserFlags(cmd, args[0], flags)
			},
		}
	}
	yes, no := true, false
	adminCommand.AddCommand(
		flagCommand("grant", "Give a user admin rights", models.UserFlags{IsAdmin: &yes}),
		flagCommand("revoke", "Take admin rights away from a user", models.UserFlags{IsAdmin: &no}),
		flagCommand("activate", "Re-enable a disabled account", models.UserFlags{IsActive: &yes}),
		flagCommand("deactivate", "Disable an account so it can no longer log in", models.UserFlags{IsActive: &no}),
	)

	adminCommand.AddCommand(&cobra.Command{
		Use:   "users",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listUsers(cmd)
		},
	})

	adminCommand.AddCommand(&cobra.Command{
		Use:   "import-snapshot <file>",
		Short: "Load a migration snapshot file into the content store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.importSnapshot(cmd, args[0])
		},
	})

	adminCommand.AddCommand(&cobra.Command{
		Use:   "orphans",
		Short: "List content records whose parent was deleted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listOrphans(cmd)
		},
	})

	return adminCommand
}

func (a *app) setUserFlags(cmd *cobra.Command, username string, flags models.UserFlags) error {
	db, closeDB, err := a.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := store.NewUserStore(db).SetFlags(cmd.Context(), username, flags)
	if err != nil {
		return fmt.Errorf("%s: %w", username, err)
	}
	logging.Info().Str("username", user.Username).Bool("is_admin", user.IsAdmin).Bool("is_active", user.IsActive).Msg("user flags changed")
	fmt.Fprintf(cmd.OutOrStdout(), "%s: is_admin=%t is_active=%t\n", user.Username, user.IsAdmin, user.IsActive)
	return nil
}

func (a *app) listUsers(cmd *cobra.Command) error {
	db, closeDB, err := a.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	users, err := store.NewUserStore(db).List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tEMAIL\tADMIN\tACTIVE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", u.Username, u.Email, u.IsAdmin, u.IsActive, u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func (a *app) importSnapshot(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return oops.New(err, "failed to open snapshot")
	}
	defer f.Close()

	snap, err := importer.LoadSnapshot(f)
	if err != nil {
		return err
	}

	db, closeDB, err := a.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	records := snap.RecordSet().Records()
	result := importer.SaveAll(cmd.Context(), store.NewContentStore(db), records, *logging.GlobalLogger())
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d records from %s\n", result.Saved, len(records), path)
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d records failed to save", len(result.Failed))
	}
	return nil
}

func (a *app) listOrphans(cmd *cobra.Command) error {
	db, closeDB, err := a.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	orphans, err := services.FindOrphans(cmd.Context(), store.NewContentStore(db))
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No orphaned content.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tMISSING PARENT\tTITLE")
	for _, rec := range orphans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.ID, rec.ContentType, rec.Parent(), rec.Title)
	}
	return w.Flush()
}
