package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/classroom/internal/config"
	"github.com/yigit/classroom/internal/pkg/helpers"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewGormDB opens a gorm session on PostgreSQL with pool limits from config.
func NewGormDB(cfg *config.Config, lgr zerolog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.GetPostgresConnectionString(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: NewGormLogger(lgr),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access gorm sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(helpers.ParseDuration(cfg.Database.ConnMaxLifetime, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	return gdb, nil
}

// CloseGorm releases the pool behind a gorm session.
func CloseGorm(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormLogger forwards gorm's statements to zerolog.
type GormLogger struct {
	lgr           zerolog.Logger
	level         gormLogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger builds a gorm logger that only reports errors and slow queries
// unless zerolog is at debug level.
func NewGormLogger(lgr zerolog.Logger) gormLogger.Interface {
	level := gormLogger.Warn
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		level = gormLogger.Info
	}
	return &GormLogger{
		lgr:           lgr.With().Str("component", "gorm").Logger(),
		level:         level,
		SlowThreshold: 200 * time.Millisecond,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormLogger.Info {
		l.lgr.Info().Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormLogger.Warn {
		l.lgr.Warn().Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormLogger.Error {
		l.lgr.Error().Msgf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormLogger.Error:
		sql, rows := fc()
		l.lgr.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Query failed")
	case elapsed > l.SlowThreshold && l.level >= gormLogger.Warn:
		sql, rows := fc()
		l.lgr.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Slow query")
	case l.level >= gormLogger.Info:
		sql, rows := fc()
		l.lgr.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Query")
	}
}
