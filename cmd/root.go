// Package cmd holds the sounds-api command line: serve, migrate and seed
package cmd

import (
	"soulfamily/sounds-api/config"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "sounds-api",
		Short:         "Sounds marketplace API",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Setup(path, cmd.Flags()); err != nil {
				return err
			}

			_, err := config.SetupLogger()
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./config.toml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, fatal)")
	cmd.PersistentFlags().String("db-driver", "sqlite", "database driver (sqlite, postgres)")
	cmd.PersistentFlags().String("db-dsn", "database.db", "database connection string")

	cmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(),
	)

	return cmd
}
