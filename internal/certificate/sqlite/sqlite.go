// Package sqlite is the SQLite implementation of certificate.Repository.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/netguru/certdns/internal/certificate"
	"github.com/netguru/certdns/pkg/errors"
)

// Connect opens a SQLite database with foreign keys, WAL and a busy timeout, and
// pings it before returning. The caller closes the returned *sql.DB.
//
// Path can be a file path or ":memory:".
func Connect(path string, timeout time.Duration) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; an in-memory database only exists on its
	// own connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Repository stores certificates in SQLite.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewRepository returns a Repository on db. The schema must already be migrated.
func NewRepository(logger *zap.Logger, db *sql.DB) *Repository {
	return &Repository{db: db, logger: logger, now: time.Now}
}

var _ certificate.Repository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, username, domain string) (*certificate.Certificate, error) {
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO certificates (username, domain, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		username, domain, string(certificate.StatusPending), now, now)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	r.logger.Debug("Created certificate",
		zap.Int64("id", id),
		zap.String("username", username),
		zap.String("domain", domain))
	return r.GetByID(ctx, id)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*certificate.Certificate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+certificate.Columns+` FROM certificates WHERE id = ?`, id)
	return scan(row, id)
}

func (r *Repository) GetMostRecentIssuedByUsername(ctx context.Context, username string) (*certificate.Certificate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+certificate.Columns+` FROM certificates
		 WHERE username = ? AND status = ?
		 ORDER BY valid_from DESC
		 LIMIT 1`,
		username, string(certificate.StatusIssued))

	c, err := certificate.ScanRow(row)
	if stderrors.Is(err, sql.ErrNoRows) {
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
	for _, col := range cols {
		sets = append(sets, col+" = ?")
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now().UTC(), id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE certificates SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update certificate %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("certificate %d: %w", id, errors.ErrCertificateNotFound)
	}

	r.logger.Debug("Updated certificate", zap.Int64("id", id), zap.Strings("columns", cols))
	return r.GetByID(ctx, id)
}

func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM certificates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete certificate %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("certificate %d: %w", id, errors.ErrCertificateNotFound)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	return n, nil
}

func scan(row *sql.Row, id int64) (*certificate.Certificate, error) {
	c, err := certificate.ScanRow(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("certificate %d: %w", id, errors.ErrCertificateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate %d: %w", id, err)
	}
	return c, nil
}
