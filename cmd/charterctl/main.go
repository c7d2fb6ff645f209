package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yachtly/charter-service/internal/app"
	"github.com/yachtly/charter-service/internal/config"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/search"
	"github.com/yachtly/charter-service/internal/seeding"
	"github.com/yachtly/charter-service/internal/services"
	"github.com/yachtly/charter-service/internal/utils"
)

var (
	timeout       time.Duration
	migrationsDir string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "charterctl",
	Short: "Operator commands for the charter service",
	Long: `charterctl runs one-off maintenance against the charter service database:
schema migrations, demo data, and the sweeps the service also runs on its cron.

It reads the same environment (and .env / CONFIG_FILE) as the service, minus
the HTTP and Twilio settings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(config.AppName + "-ctl")
		cfg = config.LoadStoreConfig()
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.MigrationsDir
		if migrationsDir != "" {
			dir = migrationsDir
		}
		return app.Migrate(cfg.DBUrl, dir)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users and boats (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			cache := search.NewNoopCache()
			if a.Redis != nil {
				cache = search.NewRedisCache(a.Redis, cfg.SearchCacheTTL)
			}
			boatRepo := repositories.NewBoatRepository(a.DB)
			sum, err := seeding.SeedDemoData(ctx,
				repositories.NewUserRepository(a.DB),
				boatRepo,
				services.NewBoatSearchService(cfg, boatRepo, cache),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d boats\n", sum.Users, sum.Boats)
			return nil
		})
	},
}

var expireStaleCmd = &cobra.Command{
	Use:   "expire-stale",
	Short: "Mark pending phone verifications past expiry as EXPIRED",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			n, err := services.NewVerificationCleanupService(
				repositories.NewPhoneVerificationRepository(a.DB),
			).ExpireStale(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d verification(s)\n", n)
			return nil
		})
	},
}

var cleanupRateLimitsCmd = &cobra.Command{
	Use:   "cleanup-rate-limits",
	Short: "Delete lapsed SMS rate limit counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return services.NewRateLimitCleanupService(
				repositories.NewRateLimitRepository(a.DB),
			).CleanupDaily(ctx)
		})
	},
}

func withApp(fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, a)
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Deadline for the command")
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")

	rootCmd.AddCommand(migrateCmd, seedCmd, expireStaleCmd, cleanupRateLimitsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
