package dnschange

import (
	"time"

	"sigs.k8s.io/external-dns/endpoint"
)

// Config is used to configure the creation of the Manager.
type Config struct {
	// ZoneID is the hosted zone record changes are submitted against
	ZoneID string

	// DomainFilter restricts the record names this instance may touch.
	// An empty filter matches everything.
	DomainFilter endpoint.DomainFilter

	// Now returns the caller reference timestamp for zone creation
	Now func() time.Time

	// DryRun validates and logs record changes without submitting them
	DryRun bool
}

// DryRunChangeID is returned for changes that were not submitted because the
// Manager runs in dry-run mode. Its status is always INSYNC.
const DryRunChangeID = "dry-run"
