package dnschange

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/errors"
)

const hostedZonePrefix = "/hostedzone/"

// CreateHostedZone provisions a hosted zone for domain and returns the bare zone ID.
// The current timestamp is sent as caller reference so a retried submission of the
// same request is deduplicated by the provider.
func (m *Manager) CreateHostedZone(ctx context.Context, domain string) (string, error) {
	callerReference := m.now().UTC().Format(time.RFC3339Nano)

	m.logger.Debug("Creating hosted zone",
		zap.String("domain", domain),
		zap.String("caller_reference", callerReference))

	zoneID, err := m.backend.CreateZone(ctx, domain, callerReference)
	if err != nil {
		m.logger.Warn("Failed to create hosted zone",
			zap.String("domain", domain),
			zap.Error(err))
		return "", &ProvisionError{Domain: domain, Err: err}
	}

	zoneID = strings.TrimPrefix(zoneID, hostedZonePrefix)
	if zoneID == "" {
		m.logger.Warn("Hosted zone created without an ID", zap.String("domain", domain))
		return "", &ProvisionError{Domain: domain, Err: errors.ErrMissingZoneID}
	}

	m.logger.Info("Created hosted zone",
		zap.String("domain", domain),
		zap.String("zone_id", zoneID))
	return zoneID, nil
}
