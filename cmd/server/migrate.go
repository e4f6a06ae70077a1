package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/proptax/internal/config"
	"github.com/stwalsh4118/proptax/internal/database"
	"github.com/stwalsh4118/proptax/internal/logger"
)

func migrateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	return cmd
}

func runMigrate(ctx context.Context, dryRun bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	log := logger.New(envOrDefault())

	db, err := database.NewPostgresPool(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if dryRun {
		pending, err := db.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("No pending migrations.")
			return nil
		}
		fmt.Println("Pending migrations:")
		for _, v := range pending {
			fmt.Printf("- %s\n", v)
		}
		return nil
	}

	applied, err := db.Migrate(ctx)
	for _, v := range applied {
		log.Info("Migration applied", map[string]interface{}{"version": v})
	}
	if err != nil {
		return err
	}

	log.Info("Migrations complete", map[string]interface{}{
		"applied": len(applied),
	})
	return nil
}
