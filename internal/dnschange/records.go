package dnschange

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

// SubmitChange validates req and submits a single-change batch against zoneID.
// Invalid requests fail with *InvalidRecordError before any call to the backend.
func (m *Manager) SubmitChange(ctx context.Context, action dns.Action, req dns.RecordMutationRequest, zoneID string) (string, error) {
	if err := m.validate(action, req); err != nil {
		m.logger.Debug("Rejected resource record change",
			zap.String("action", string(action)),
			zap.String("name", req.Name),
			zap.String("type", string(req.Type)),
			zap.Error(err))
		return "", err
	}

	if zoneID == "" {
		m.logger.Warn("No hosted zone to submit change against",
			zap.String("action", string(action)),
			zap.String("name", req.Name))
		return "", &MutationSubmitError{Action: action, Name: req.Name, Err: errors.ErrMissingHostedZone}
	}

	if m.dryRun {
		m.logger.Info("Would submit resource record change (dry-run)",
			zap.String("action", string(action)),
			zap.String("name", req.Name),
			zap.String("type", string(req.Type)),
			zap.String("value", req.Value),
			zap.String("zone_id", zoneID))
		return DryRunChangeID, nil
	}

	changeID, err := m.backend.SubmitChange(ctx, dns.Change{
		Action:  action,
		Request: req,
		ZoneID:  zoneID,
	})
	if err != nil {
		m.logger.Warn("Failed to submit resource record change",
			zap.String("action", string(action)),
			zap.String("name", req.Name),
			zap.String("type", string(req.Type)),
			zap.String("zone_id", zoneID),
			zap.Error(err))
		return "", &MutationSubmitError{Action: action, Name: req.Name, Err: err}
	}

	if changeID == "" {
		m.logger.Warn("Provider accepted change without an ID",
			zap.String("action", string(action)),
			zap.String("name", req.Name))
		return "", &MutationSubmitError{Action: action, Name: req.Name, Err: errors.ErrMissingChangeID}
	}

	m.logger.Info("Submitted resource record change",
		zap.String("action", string(action)),
		zap.String("name", req.Name),
		zap.String("type", string(req.Type)),
		zap.String("value", req.Value),
		zap.String("change_id", changeID))
	return changeID, nil
}

// CreateRecord creates a record in the configured zone. Creation is an UPSERT, so
// creating an existing record with the same value is a no-op at the provider.
func (m *Manager) CreateRecord(ctx context.Context, req dns.RecordMutationRequest) (string, error) {
	return m.UpsertRecord(ctx, req)
}

// UpsertRecord creates or replaces a record in the configured zone.
func (m *Manager) UpsertRecord(ctx context.Context, req dns.RecordMutationRequest) (string, error) {
	return m.SubmitChange(ctx, dns.ActionUpsert, req, m.zoneID)
}

// DeleteRecord deletes a record from the configured zone. The value must be the
// exact live value; the current record set is not read first.
func (m *Manager) DeleteRecord(ctx context.Context, req dns.RecordMutationRequest) (string, error) {
	return m.SubmitChange(ctx, dns.ActionDelete, req, m.zoneID)
}

// DeleteRecordIfExists behaves like DeleteRecord, except that a record missing at
// the provider is reported as deleted == false instead of an error.
func (m *Manager) DeleteRecordIfExists(ctx context.Context, req dns.RecordMutationRequest) (string, bool, error) {
	changeID, err := m.DeleteRecord(ctx, req)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			m.logger.Info("Record already absent, nothing to delete",
				zap.String("name", req.Name),
				zap.String("type", string(req.Type)))
			return "", false, nil
		}
		return "", false, err
	}
	return changeID, true, nil
}

func (m *Manager) validate(action dns.Action, req dns.RecordMutationRequest) error {
	if err := dns.ValidateRequest(req); err != nil {
		return &InvalidRecordError{Type: req.Type, Name: req.Name, Value: req.Value, Reason: err}
	}
	if !action.Valid() {
		return &InvalidRecordError{Type: req.Type, Name: req.Name, Value: req.Value, Reason: errors.ErrUnknownAction}
	}
	if len(m.domainFilter.Filters) > 0 && !m.domainFilter.Match(strings.TrimSuffix(req.Name, ".")) {
		return &InvalidRecordError{Type: req.Type, Name: req.Name, Value: req.Value, Reason: errors.ErrOutsideDomainFilter}
	}
	return nil
}
