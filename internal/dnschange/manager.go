package dnschange

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"sigs.k8s.io/external-dns/endpoint"

	"github.com/netguru/certdns/pkg/dns"
)

// Manager validates record mutations, submits them to the configured backend and
// reads back their propagation status. It holds no mutable state and may be shared
// by any number of goroutines.
type Manager struct {
	backend      dns.Backend
	logger       *zap.Logger
	zoneID       string
	domainFilter endpoint.DomainFilter
	now          func() time.Time
	dryRun       bool
}

// NewManager initializes a new Manager on top of backend.
func NewManager(logger *zap.Logger, backend dns.Backend, cfg Config) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("no DNS backend provided")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger.Debug("DNS change manager initialized",
		zap.String("backend", backend.Name()),
		zap.String("zone_id", cfg.ZoneID),
		zap.Strings("domain_filter", cfg.DomainFilter.Filters),
		zap.Bool("dry_run", cfg.DryRun))

	return &Manager{
		backend:      backend,
		logger:       logger,
		zoneID:       cfg.ZoneID,
		domainFilter: cfg.DomainFilter,
		now:          now,
		dryRun:       cfg.DryRun,
	}, nil
}

// ZoneID returns the hosted zone record changes are submitted against.
func (m *Manager) ZoneID() string {
	return m.zoneID
}

// Backend returns the name of the underlying DNS backend.
func (m *Manager) Backend() string {
	return m.backend.Name()
}
