// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrNotFound возвращается, если запись с указанным идентификатором не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConflict возвращается при нарушении уникальности (имя, email, план).
	ErrConflict = errors.New("already exists")
	// ErrHasDependencies возвращается при удалении записи, на которую ссылаются другие.
	ErrHasDependencies = errors.New("has dependencies")
	// ErrNoAvailableAccount возвращается, если для плана нет свободных аккаунтов.
	ErrNoAvailableAccount = errors.New("no available account")
	// ErrAlreadyAssigned возвращается, если позиции заказа уже назначен аккаунт.
	ErrAlreadyAssigned = errors.New("order item already has an account")
	// ErrAccountUnusable возвращается, если выбранный аккаунт нельзя назначить позиции.
	ErrAccountUnusable = errors.New("account cannot be assigned to this item")
	// ErrNotAssigned возвращается при выдаче данных позиции, которой не назначен аккаунт.
	ErrNotAssigned = errors.New("order item has no account assigned")
)

const (
	connectAttempts = 5
	connectDelay    = 5 * time.Second
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт репозиторий, проверяет соединение и применяет миграции.
// Подключение и миграции повторяются при временных сбоях соединения.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	var r *PostgresRepository

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewConstant(connectDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		repo, err := connect(ctx, cfg)
		if err != nil {
			if isConnectionError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		r = repo
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

func connect(ctx context.Context, cfg *pgxpool.Config) (*PostgresRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// txRetryDelays задаёт паузы между повторами транзакции при конфликте или обрыве соединения.
var txRetryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	next := 0
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if next >= len(txRetryDelays) {
			return 0, true
		}
		d := txRetryDelays[next]
		next++
		return d, false
	})

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if err != nil && isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Ping проверяет доступность БД.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// inTx выполняет fn в транзакции и фиксирует её при отсутствии ошибки.
func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapWriteError приводит ошибки ограничений БД к ошибкам репозитория.
func mapWriteError(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, what)
		case pgerrcode.ForeignKeyViolation:
			// При вставке или обновлении это ссылка на несуществующую запись,
			// при удалении на запись ещё ссылаются.
			if strings.HasPrefix(pgErr.Message, "update or delete") {
				return fmt.Errorf("%w: %s", ErrHasDependencies, what)
			}
			return fmt.Errorf("%w: %s references missing row", ErrNotFound, what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func mapNoRows(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// limitOffset возвращает параметры LIMIT/OFFSET; limit <= 0 означает «без ограничения».
func limitOffset(limit, offset int) (any, int) {
	if limit <= 0 {
		return nil, 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
