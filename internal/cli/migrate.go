package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/osamahm/biosphere/internal/bank"
	"github.com/osamahm/biosphere/internal/config"
	"github.com/osamahm/biosphere/internal/postgres/migrations/catalog"
	"github.com/osamahm/biosphere/internal/postgres/migrations/gameplay"
	"github.com/osamahm/biosphere/internal/server"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert the built-in question bank after migrating")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, seed bool) error {
	var c server.Config
	if err := config.Load(configPath, &c); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	catalogDB := openBun(dsn(c.Postgres.Catalog.Addr, c.Postgres.Catalog.User, c.Postgres.Catalog.Pass, c.Postgres.Catalog.Name))
	defer catalogDB.Close()
	if err := apply(ctx, catalogDB, catalog.Migrations, "catalog"); err != nil {
		return err
	}

	gameplayDB := openBun(dsn(c.Postgres.Gameplay.Addr, c.Postgres.Gameplay.User, c.Postgres.Gameplay.Pass, c.Postgres.Gameplay.Name))
	defer gameplayDB.Close()
	if err := apply(ctx, gameplayDB, gameplay.Migrations, "gameplay"); err != nil {
		return err
	}

	if seed {
		if err := seedQuestions(ctx, catalogDB); err != nil {
			return err
		}
	}
	return nil
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func dsn(addr, user, pass, name string) string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, pass, addr, name)
}

func apply(ctx context.Context, db *bun.DB, migrations *migrate.Migrations, label string) error {
	migrator := migrate.NewMigrator(db, migrations)

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("migrate %s: init: %w", label, err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", label, err)
	}

	slog.InfoContext(ctx, fmt.Sprintf("migrate %s: applied %s", label, group))
	return nil
}

// seedQuestions loads the built-in bank into the questions table, skipping ids
// that already exist so reruns stay safe.
func seedQuestions(ctx context.Context, db *bun.DB) error {
	for _, q := range bank.Seed() {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("seed: marshal options for %s: %w", q.ID, err)
		}

		_, err = db.ExecContext(ctx, `
INSERT INTO questions (question_id, sphere, prompt, options, correct_index, explanation, context)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (question_id) DO NOTHING`,
			q.ID, q.Sphere.String(), q.Prompt, string(options), q.CorrectIndex, q.Explanation, q.Context)
		if err != nil {
			return fmt.Errorf("seed: insert %s: %w", q.ID, err)
		}
	}

	slog.InfoContext(ctx, "seed: question bank inserted")
	return nil
}
