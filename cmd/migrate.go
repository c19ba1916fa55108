package cmd

import (
	"soulfamily/sounds-api/db"

	"github.com/spf13/cobra"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := db.New(v.GetString("db.driver"), v.GetString("db.dsn")); err != nil {
				return err
			}

			zap.L().Info("Database migrated", zap.String("driver", v.GetString("db.driver")))
			return nil
		},
	}
}
