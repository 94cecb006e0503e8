package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/seed"
	"github.com/frahmantamala/user-management/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the default roles and superadmin account",
	Long:  `Seed the database with the roles and the superadmin account a fresh deployment needs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		result, err := seed.Run(context.Background(), db.Gorm, auth.NewBcryptHasher(cfg.Security.BCryptCost),
			seed.Options{Clear: clearData}, logger.LoggerWrapper())
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}

		fmt.Printf("Seeded %d roles and %d users; superadmin id %d\n", result.RolesCreated, result.UsersCreated, result.SuperadminID)
		return nil
	},
}
