package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunDBMigration 套用所有 up migration, 已是最新版本不視為錯誤
// migrationURL 為空時使用編進 binary 的 migrations
func RunDBMigration(migrationURL string, cf ConnConfig) error {
	dbURL := "pgx5://" + strings.TrimPrefix(cf.DSN(), "postgres://")

	var (
		m   *migrate.Migrate
		err error
	)
	if migrationURL != "" {
		m, err = migrate.New(migrationURL, dbURL)
	} else {
		src, srcErr := iofs.New(migrationFS, "migrations")
		if srcErr != nil {
			return fmt.Errorf("load embedded migrations failed: %w", srcErr)
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, dbURL)
	}
	if err != nil {
		return fmt.Errorf("create migrate instance failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
