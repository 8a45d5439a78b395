package db

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type ConnConfig struct {
	DbName string
	Host   string
	Port   string
	User   string
	Pas    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c ConnConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Pas, c.Host, c.Port, c.DbName)
}

// GetDbConn 使用 pgx stdlib 當作 gorm postgres 的底層連線
func GetDbConn(cf ConnConfig, logger *zerolog.Logger) (*gorm.DB, error) {
	pgxCfg, err := pgx.ParseConfig(cf.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn failed: %w", err)
	}
	sqlDB := stdlib.OpenDB(*pgxCfg)
	if cf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cf.MaxOpenConns)
	}
	if cf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cf.MaxIdleConns)
	}
	if cf.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cf.ConnMaxLifetime)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), NewGormConfig(logger))
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// NewGormConfig 共用的gorm設定, TranslateError 讓 unique 衝突回傳 gorm.ErrDuplicatedKey
func NewGormConfig(logger *zerolog.Logger) *gorm.Config {
	cfg := &gorm.Config{
		TranslateError: true,
	}
	if logger != nil {
		cfg.Logger = gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}
	return cfg
}
