package dns

import "context"

// Backend is the capability set an authoritative DNS provider must offer.
//
// Implementations return provider errors as they are; callers normalize them.
// A DELETE of a record that does not exist should wrap errors.ErrRecordNotFound
// and a status lookup of an unknown change should wrap errors.ErrNoSuchChange.
type Backend interface {
	// Name returns the backend name, e.g. "route53"
	Name() string

	// CreateZone creates a hosted zone for domain and returns its identifier
	CreateZone(ctx context.Context, domain, callerReference string) (string, error)

	// SubmitChange submits a single-change batch and returns the change identifier
	SubmitChange(ctx context.Context, change Change) (string, error)

	// GetChangeStatus returns the current propagation status of a change
	GetChangeStatus(ctx context.Context, changeID string) (ChangeStatus, error)
}
