package myrasecprovider

import (
	"context"
	"fmt"
	"strings"

	myrasec "github.com/Myra-Security-GmbH/myrasec-go/v2"
	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/dns"
)

// SubmitChange applies a single change to the MyraSec domain named by change.ZoneID
// and returns a change token for it.
func (p *MyraSecDNSProvider) SubmitChange(ctx context.Context, change dns.Change) (string, error) {
	domainID, err := parseDomainID(change.ZoneID)
	if err != nil {
		return "", err
	}

	dnsName := stripTrailingDot(change.Request.Name)
	recordType := string(change.Request.Type)

	allRecords, err := p.apiClient.ListDNSRecords(domainID, nil)
	if err != nil {
		p.logger.Error("Failed to list DNS records",
			zap.Int("domain_id", domainID),
			zap.Error(err))
		return "", fmt.Errorf("failed listing records: %w", err)
	}
	existing := findMatchingRecords(allRecords, dnsName, recordType)

	switch change.Action {
	case dns.ActionUpsert:
		err = p.upsert(domainID, existing, dnsName, recordType, change.Request.Value)
	case dns.ActionDelete:
		err = p.delete(domainID, existing, dnsName, recordType, change.Request.Value)
	default:
		err = fmt.Errorf("unknown action: %s", change.Action)
	}
	if err != nil {
		return "", err
	}

	return encodeChangeID(changeToken{
		Action:   change.Action,
		DomainID: domainID,
		Name:     dnsName,
		Type:     recordType,
		Value:    change.Request.Value,
	})
}

// upsert leaves exactly one record with value for dnsName and recordType.
func (p *MyraSecDNSProvider) upsert(domainID int, existing []myrasec.DNSRecord, dnsName, recordType, value string) error {
	if len(existing) == 0 {
		return p.createDNSRecord(domainID, dnsName, recordType, value)
	}

	keep := 0
	for i, rec := range existing {
		if rec.Value == value {
			keep = i
			break
		}
	}

	rec := existing[keep]
	if rec.Value != value || rec.TTL != p.ttl || rec.Active != !p.disableProtection {
		rec.Value = value
		rec.TTL = p.ttl
		rec.Active = !p.disableProtection
		if _, err := p.apiClient.UpdateDNSRecord(&rec, domainID); err != nil {
			p.logger.Error("Failed to update record",
				zap.String("dnsName", dnsName),
				zap.String("value", value),
				zap.Error(err))
			return err
		}
		p.logger.Info("Updated record",
			zap.String("dnsName", dnsName),
			zap.String("value", value),
			zap.Int("ttl", p.ttl))
	} else {
		p.logger.Debug("Record already up to date", zap.String("dnsName", dnsName), zap.String("value", value))
	}

	// An upsert replaces the whole record set, so drop any other values.
	for i := range existing {
		if i == keep {
			continue
		}
		if err := p.deleteDNSRecord(domainID, &existing[i]); err != nil {
			return err
		}
	}
	return nil
}

// delete removes the record holding exactly value. A missing record is an error,
// mirroring providers that reject deletes of record sets that do not exist.
func (p *MyraSecDNSProvider) delete(domainID int, existing []myrasec.DNSRecord, dnsName, recordType, value string) error {
	for i := range existing {
		if existing[i].Value == value {
			return p.deleteDNSRecord(domainID, &existing[i])
		}
	}

	p.logger.Debug("No matching record to delete",
		zap.String("dnsName", dnsName),
		zap.String("type", recordType),
		zap.String("value", value))
	return fmt.Errorf("%s record %q with value %q: %w", recordType, dnsName, value, ErrRecordNotFound)
}

// GetChangeStatus reports INSYNC once the live record set reflects the change and
// PENDING otherwise.
func (p *MyraSecDNSProvider) GetChangeStatus(ctx context.Context, changeID string) (dns.ChangeStatus, error) {
	token, err := decodeChangeID(changeID)
	if err != nil {
		return "", err
	}

	allRecords, err := p.apiClient.ListDNSRecords(token.DomainID, nil)
	if err != nil {
		p.logger.Error("Failed to list DNS records",
			zap.Int("domain_id", token.DomainID),
			zap.Error(err))
		return "", fmt.Errorf("failed listing records: %w", err)
	}

	present := false
	for _, rec := range findMatchingRecords(allRecords, token.Name, token.Type) {
		if rec.Value == token.Value {
			present = true
			break
		}
	}

	if (token.Action == dns.ActionUpsert) == present {
		return dns.StatusInSync, nil
	}
	return dns.StatusPending, nil
}

func (p *MyraSecDNSProvider) createDNSRecord(domainID int, dnsName, recordType, value string) error {
	record := &myrasec.DNSRecord{
		Name:       dnsName,
		Value:      value,
		RecordType: recordType,
		Active:     !p.disableProtection,
		Enabled:    true,
		TTL:        p.ttl,
	}

	_, err := p.apiClient.CreateDNSRecord(record, domainID)
	if err != nil {
		// Duplicate record
		if strings.Contains(err.Error(), "This value is already used") {
			p.logger.Warn("Record already exists, skipping creation",
				zap.String("name", record.Name),
				zap.String("type", record.RecordType),
				zap.String("value", record.Value))
			return nil
		}

		p.logger.Error("Failed to create DNS record",
			zap.Error(err),
			zap.String("name", record.Name),
			zap.String("type", record.RecordType),
			zap.String("value", record.Value))
		return err
	}

	p.logger.Info("Created DNS record",
		zap.String("name", record.Name),
		zap.String("type", record.RecordType),
		zap.String("value", record.Value),
		zap.Int("ttl", record.TTL))
	return nil
}

func (p *MyraSecDNSProvider) deleteDNSRecord(domainID int, record *myrasec.DNSRecord) error {
	_, err := p.apiClient.DeleteDNSRecord(record, domainID)
	if err != nil {
		p.logger.Error("Failed to delete DNS record",
			zap.String("dnsName", record.Name),
			zap.String("type", record.RecordType),
			zap.String("value", record.Value),
			zap.Error(err))
		return err
	}

	p.logger.Info("Deleted DNS record",
		zap.String("dnsName", record.Name),
		zap.String("type", record.RecordType),
		zap.String("value", record.Value))
	return nil
}

// findMatchingRecords returns all records matching the given dnsName + recordType.
func findMatchingRecords(records []myrasec.DNSRecord, dnsName, recordType string) []myrasec.DNSRecord {
	var matching []myrasec.DNSRecord
	for _, rec := range records {
		if stripTrailingDot(rec.Name) == stripTrailingDot(dnsName) && rec.RecordType == recordType {
			matching = append(matching, rec)
		}
	}
	return matching
}

// stripTrailingDot removes any final dot in a DNS name.
func stripTrailingDot(name string) string {
	return strings.TrimSuffix(name, ".")
}
