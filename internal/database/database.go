// Package database 管理排班库的 PostgreSQL 连接与建表
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zhiban/zhiban/internal/config"
	"github.com/zhiban/zhiban/pkg/logger"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

// slowQueryThreshold 超过该时长的语句记慢查询日志
const slowQueryThreshold = 100 * time.Millisecond

// connectTimeout 建连探活的超时
const connectTimeout = 5 * time.Second

// DB 排班库连接, 包装连接池并附带慢查询日志
type DB struct {
	*sql.DB
	cfg *config.DatabaseConfig
}

// New 建立排班库连接并探活
func New(cfg *config.DatabaseConfig) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("排班库已连接")

	return &DB{DB: pool, cfg: cfg}, nil
}

// schemaStatements 排班库三张表: 排班头, 每日分配, 花名册
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schedules (
		id UUID PRIMARY KEY,
		block_start DATE NOT NULL,
		block_end DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		feasible BOOLEAN NOT NULL,
		backbone_score DOUBLE PRECISION,
		intern_score DOUBLE PRECISION,
		golden_weekends JSONB,
		carry_totals JSONB,
		intern_summary JSONB,
		gaps JSONB,
		generated_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_days (
		id UUID PRIMARY KEY,
		schedule_id UUID NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		call TEXT NOT NULL,
		backup TEXT NOT NULL,
		intern TEXT NOT NULL DEFAULT '',
		supervisor TEXT NOT NULL DEFAULT '',
		UNIQUE (schedule_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS residents (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		pgy INT NOT NULL CHECK (pgy BETWEEN 1 AND 5),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema 幂等建表, 服务启动时调用
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("初始化排班库表结构失败: %w", err)
		}
	}
	logger.Info().Msg("排班库表结构就绪")
	return nil
}

// Close 关闭连接池
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	logger.Info().Msg("关闭排班库连接")
	return db.DB.Close()
}

// Health 探活
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Stats 连接池统计
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// Transaction 在事务中执行 fn, 出错或 panic 时回滚
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// ExecContext 执行写语句并记录慢查询
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := db.DB.ExecContext(ctx, query, args...)
	logSlow(query, time.Since(start))
	return result, err
}

// QueryContext 执行查询并记录慢查询
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	logSlow(query, time.Since(start))
	return rows, err
}

// QueryRowContext 执行单行查询
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

func logSlow(query string, duration time.Duration) {
	if duration <= slowQueryThreshold {
		return
	}
	if len(query) > 200 {
		query = query[:200] + "..."
	}
	logger.Warn().
		Str("query", query).
		Dur("duration", duration).
		Msg("慢SQL查询")
}
