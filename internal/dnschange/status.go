package dnschange

import (
	"context"

	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

// GetChangeStatus asks the provider for the current status of a change. The answer
// is never cached.
func (m *Manager) GetChangeStatus(ctx context.Context, changeID string) (dns.ChangeStatus, error) {
	if changeID == "" {
		return "", &ChangeLookupError{ChangeID: changeID, Err: errors.ErrNoSuchChange}
	}
	if m.dryRun && changeID == DryRunChangeID {
		return dns.StatusInSync, nil
	}

	status, err := m.backend.GetChangeStatus(ctx, changeID)
	if err != nil {
		m.logger.Warn("Failed to get change status",
			zap.String("change_id", changeID),
			zap.Error(err))
		return "", &ChangeLookupError{ChangeID: changeID, Err: err}
	}

	if status == "" {
		m.logger.Warn("Provider returned change without status", zap.String("change_id", changeID))
		return "", &ChangeLookupError{ChangeID: changeID, Err: errors.ErrMissingChangeStatus}
	}

	m.logger.Debug("Change status",
		zap.String("change_id", changeID),
		zap.String("status", string(status)))
	return status, nil
}

// GetChange returns the change together with its current status.
func (m *Manager) GetChange(ctx context.Context, changeID string) (dns.ChangeRecord, error) {
	status, err := m.GetChangeStatus(ctx, changeID)
	if err != nil {
		return dns.ChangeRecord{}, err
	}
	return dns.ChangeRecord{ID: changeID, Status: status}, nil
}
