package cmd

import (
	"fmt"
	"os"

	"soulfamily/sounds-api/db"
	"soulfamily/sounds-api/internal/service"
	"soulfamily/sounds-api/pkg/security"

	"github.com/spf13/cobra"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create the first admin and load taxonomy from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open seed file, %w", err)
			}
			defer f.Close()

			seed, err := service.ParseSeed(f)
			if err != nil {
				return err
			}

			conn, err := db.New(v.GetString("db.driver"), v.GetString("db.dsn"))
			if err != nil {
				return err
			}

			if err := service.Seed(cmd.Context(), conn, security.NewArgon(), seed); err != nil {
				return err
			}

			zap.L().Info("Seed applied", zap.String("file", args[0]))
			return nil
		},
	}
}
