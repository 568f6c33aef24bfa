package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ishantswami13-crypto/bms-backend/internal/cities"
	"github.com/ishantswami13-crypto/bms-backend/internal/config"
	"github.com/ishantswami13-crypto/bms-backend/internal/logging"
	"github.com/ishantswami13-crypto/bms-backend/internal/store"
	"github.com/ishantswami13-crypto/bms-backend/internal/users"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "bms-migrate",
		Short:        "Database maintenance for the BMS API",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(indexesCmd(), seedCitiesCmd(), grantAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withStore connects, runs fn and disconnects.
func withStore(fn func(ctx context.Context, cfg *config.Config, s *store.Store, log *logrus.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.IsProduction())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s, err := store.Connect(ctx, cfg.MongoConnURI(), cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(context.Background()); err != nil {
			log.WithError(err).Warn("disconnect mongo")
		}
	}()
	return fn(ctx, cfg, s, log)
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the unique and lookup indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, _ *config.Config, s *store.Store, log *logrus.Logger) error {
				if err := s.EnsureIndexes(ctx); err != nil {
					return err
				}
				log.Info("indexes are in place")
				return nil
			})
		},
	}
}

func seedCitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-cities",
		Short: "Upsert the reference cities from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			items, err := cities.LoadSeed(path)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, cfg *config.Config, s *store.Store, log *logrus.Logger) error {
				repo := cities.NewRepository(s.Collection(store.Cities), cfg.DBTimeout)
				added, err := repo.Upsert(ctx, items)
				if err != nil {
					return fmt.Errorf("seed cities: %w", err)
				}
				log.WithFields(logrus.Fields{"file": path, "total": len(items), "added": added}).Info("cities seeded")
				return nil
			})
		},
	}
	cmd.Flags().String("file", "seed/cities.yaml", "YAML file with a top-level cities list")
	return cmd
}

func grantAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant-admin",
		Short: "Give an email the admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			return withStore(func(ctx context.Context, cfg *config.Config, s *store.Store, log *logrus.Logger) error {
				repo := users.NewRepository(s.Collection(store.Users), cfg.DBTimeout)
				created, err := repo.GrantAdmin(ctx, email)
				if err != nil {
					return err
				}
				log.WithFields(logrus.Fields{"email": email, "created": created}).Info("admin granted")
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "email of the account to promote")
	return cmd
}
