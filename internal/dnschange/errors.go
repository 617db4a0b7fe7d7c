package dnschange

import (
	"fmt"

	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

// InvalidRecordError is returned when a mutation request fails local validation.
// It never reaches the network.
type InvalidRecordError struct {
	Type   dns.RecordType
	Name   string
	Value  string
	Reason error
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s record %q: %v", e.Type, e.Name, e.Reason)
}

// Unwrap exposes both errors.ErrInvalidRecord and the specific reason.
func (e *InvalidRecordError) Unwrap() []error {
	return []error{errors.ErrInvalidRecord, e.Reason}
}

// ProvisionError is returned when a hosted zone could not be created.
type ProvisionError struct {
	Domain string
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("%v for %q: %v", errors.ErrProvision, e.Domain, e.Err)
}

func (e *ProvisionError) Unwrap() []error {
	return []error{errors.ErrProvision, e.Err}
}

// MutationSubmitError is returned when a change batch was rejected by the
// provider, timed out, or came back without a change ID.
type MutationSubmitError struct {
	Action dns.Action
	Name   string
	Err    error
}

func (e *MutationSubmitError) Error() string {
	return fmt.Sprintf("%v (%s %q): %v", errors.ErrMutationSubmit, e.Action, e.Name, e.Err)
}

func (e *MutationSubmitError) Unwrap() []error {
	return []error{errors.ErrMutationSubmit, e.Err}
}

// ChangeLookupError is returned when the status of a change could not be read.
type ChangeLookupError struct {
	ChangeID string
	Err      error
}

func (e *ChangeLookupError) Error() string {
	return fmt.Sprintf("%v for change %q: %v", errors.ErrChangeLookup, e.ChangeID, e.Err)
}

func (e *ChangeLookupError) Unwrap() []error {
	return []error{errors.ErrChangeLookup, e.Err}
}
