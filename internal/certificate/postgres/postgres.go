// Package postgres is the PostgreSQL implementation of certificate.Repository.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/netguru/certdns/internal/certificate"
	"github.com/netguru/certdns/pkg/errors"
)

// ConnectPool opens a PostgreSQL connection pool using the given connection string
// and timeout. It performs a Ping to ensure the pool is usable before returning.
//
// The caller is responsible for calling pool.Close() when done.
func ConnectPool(connString string, timeout time.Duration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// SQLDB exposes pool as a *sql.DB, for schema migrations.
func SQLDB(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

// Repository stores certificates in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository returns a Repository on pool. The schema must already be migrated.
func NewRepository(logger *zap.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, logger: logger}
}

var _ certificate.Repository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, username, domain string) (*certificate.Certificate, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO certificates (username, domain, status) VALUES ($1, $2, $3) RETURNING `+certificate.Columns,
		username, domain, string(certificate.StatusPending))

	c, err := certificate.ScanRow(row)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	r.logger.Debug("Created certificate",
		zap.Int64("id", c.ID),
		zap.String("username", username),
		zap.String("domain", domain))
	return c, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*certificate.Certificate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+certificate.Columns+` FROM certificates WHERE id = $1`, id)
	return scanByID(row, id)
}

func (r *Repository) GetMostRecentIssuedByUsername(ctx context.Context, username string) (*certificate.Certificate, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+certificate.Columns+` FROM certificates
		 WHERE username = $1 AND status = $2
		 ORDER BY valid_from DESC NULLS LAST
		 LIMIT 1`,
		username, string(certificate.StatusIssued))

	c, err := certificate.ScanRow(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("issued certificate for %q: %w", username, errors.ErrCertificateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate by username: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateByID(ctx context.Context, id int64, update certificate.Update) (*certificate.Certificate, error) {
	if update.Empty() {
		return r.GetByID(ctx, id)
	}

	cols, args := update.Columns()
	sets := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	row := r.pool.QueryRow(ctx,
		`UPDATE certificates SET `+strings.Join(sets, ", ")+
			fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args))+certificate.Columns,
		args...)

	c, err := scanByID(row, id)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Updated certificate", zap.Int64("id", id), zap.Strings("columns", cols))
	return c, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificate %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("certificate %d: %w", id, errors.ErrCertificateNotFound)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	return n, nil
}

func scanByID(row pgx.Row, id int64) (*certificate.Certificate, error) {
	c, err := certificate.ScanRow(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("certificate %d: %w", id, errors.ErrCertificateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate %d: %w", id, err)
	}
	return c, nil
}
