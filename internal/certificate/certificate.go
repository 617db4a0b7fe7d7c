// Package certificate stores the lifecycle of issued TLS certificates, keyed by
// owning user and domain.
package certificate

import (
	"context"
	"time"
)

// Status is the issuance state of a certificate.
type Status string

const (
	StatusPending Status = "pending"
	StatusIssued  Status = "issued"
	StatusFailed  Status = "failed"
	StatusRevoked Status = "revoked"
)

// Certificate is one issuance request and, once issued, its key material.
type Certificate struct {
	ID          int64
	Username    string
	Domain      string
	OrderURL    string
	Certificate string
	PrivateKey  string
	ValidFrom   *time.Time
	ValidTo     *time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update holds the fields to change; nil fields are left as they are.
type Update struct {
	OrderURL    *string
	Certificate *string
	PrivateKey  *string
	ValidFrom   *time.Time
	ValidTo     *time.Time
	Status      *Status
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	cols, _ := u.Columns()
	return len(cols) == 0
}

// Columns returns the column names and values set in u, in a stable order.
func (u Update) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	if u.OrderURL != nil {
		cols, vals = append(cols, "order_url"), append(vals, *u.OrderURL)
	}
	if u.Certificate != nil {
		cols, vals = append(cols, "certificate"), append(vals, *u.Certificate)
	}
	if u.PrivateKey != nil {
		cols, vals = append(cols, "private_key"), append(vals, *u.PrivateKey)
	}
	if u.ValidFrom != nil {
		cols, vals = append(cols, "valid_from"), append(vals, u.ValidFrom.UTC())
	}
	if u.ValidTo != nil {
		cols, vals = append(cols, "valid_to"), append(vals, u.ValidTo.UTC())
	}
	if u.Status != nil {
		cols, vals = append(cols, "status"), append(vals, string(*u.Status))
	}
	return cols, vals
}

// Repository persists certificates. Lookups of missing rows return
// errors.ErrCertificateNotFound.
type Repository interface {
	Create(ctx context.Context, username, domain string) (*Certificate, error)
	GetByID(ctx context.Context, id int64) (*Certificate, error)
	// GetMostRecentIssuedByUsername returns the issued certificate with the
	// newest ValidFrom; a user may have several.
	GetMostRecentIssuedByUsername(ctx context.Context, username string) (*Certificate, error)
	UpdateByID(ctx context.Context, id int64, update Update) (*Certificate, error)
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// Columns lists the certificate columns in the order repositories scan them.
const Columns = "id, username, domain, order_url, certificate, private_key, valid_from, valid_to, status, created_at, updated_at"

// Row is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type Row interface {
	Scan(dest ...any) error
}

// ScanRow reads a certificate selected with Columns.
func ScanRow(row Row) (*Certificate, error) {
	var c Certificate
	var status string
	err := row.Scan(
		&c.ID,
		&c.Username,
		&c.Domain,
		&c.OrderURL,
		&c.Certificate,
		&c.PrivateKey,
		&c.ValidFrom,
		&c.ValidTo,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}
