// Package gameplay holds the schema migrations for the gameplay database:
// sessions, per-sphere results and per-question response logs.
package gameplay

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_gameplay.sql
var createGameplaySQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createGameplaySQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS question_responses, sphere_results, sessions`)
			return err
		},
	)
}
