package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entrypoint"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed the shifts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			// Opening the database migrates it
			db, err := entrypoint.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeQuietly(db)

			cmd.Printf("Migrated %s database:\n", db.DriverName())
			for _, table := range db.Tables() {
				cmd.Println("  " + table)
			}
			return nil
		},
	}
}

func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		fmt.Printf("warning: %v\n", err)
	}
}
