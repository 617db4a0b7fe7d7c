package dns

import (
	"sigs.k8s.io/external-dns/endpoint"
)

// RecordType is the DNS resource record category governing the syntax of its value.
type RecordType string

const (
	RecordTypeA     RecordType = endpoint.RecordTypeA
	RecordTypeAAAA  RecordType = endpoint.RecordTypeAAAA
	RecordTypeCNAME RecordType = endpoint.RecordTypeCNAME
	RecordTypeTXT   RecordType = endpoint.RecordTypeTXT
)

// Action is the mutation applied by a change batch.
type Action string

const (
	ActionUpsert Action = "UPSERT"
	ActionDelete Action = "DELETE"
)

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	return a == ActionUpsert || a == ActionDelete
}

// ChangeStatus is the propagation state reported by the provider. Values outside
// the constants below are provider vocabulary and are passed through unchanged.
type ChangeStatus string

const (
	StatusPending ChangeStatus = "PENDING"
	StatusInSync  ChangeStatus = "INSYNC"
	StatusFailed  ChangeStatus = "FAILED"
	StatusUnknown ChangeStatus = "UNKNOWN"
)

// IsInSync reports whether the change is durably applied.
func (s ChangeStatus) IsInSync() bool {
	return s == StatusInSync
}

// IsFailed reports whether the provider gave up on the change.
func (s ChangeStatus) IsFailed() bool {
	return s == StatusFailed
}

// RecordMutationRequest describes a single resource record with exactly one value.
type RecordMutationRequest struct {
	Type  RecordType `yaml:"type" json:"type"`
	Name  string     `yaml:"name" json:"name"`
	Value string     `yaml:"value" json:"value"`
}

// Change is one mutation submitted against a hosted zone.
type Change struct {
	Action  Action
	Request RecordMutationRequest
	ZoneID  string
}

// ChangeRecord is a submitted change and its most recently fetched status.
type ChangeRecord struct {
	ID     string       `yaml:"id" json:"id"`
	Status ChangeStatus `yaml:"status" json:"status"`
}

// HostedZone is the provider container for all records of one domain.
type HostedZone struct {
	ID     string
	Domain string
}
