package errors

import "errors"

var (
	// ErrInvalidRecord is returned when a record mutation fails local validation
	ErrInvalidRecord = errors.New("invalid resource record")

	// ErrInvalidName is returned when a record name is not a valid hostname
	ErrInvalidName = errors.New("invalid name provided")

	// ErrInvalidValue is returned when a record value does not fit its record type
	ErrInvalidValue = errors.New("invalid value provided")

	// ErrOutsideDomainFilter is returned when a record name is not managed by this instance
	ErrOutsideDomainFilter = errors.New("name is outside the managed domains")

	// ErrUnknownAction is returned for change actions other than UPSERT and DELETE
	ErrUnknownAction = errors.New("unknown change action")

	// ErrProvision is returned when hosted zone creation fails
	ErrProvision = errors.New("error while creating hosted zone")

	// ErrMutationSubmit is returned when a change batch could not be submitted
	ErrMutationSubmit = errors.New("error occurred while submitting resource record change")

	// ErrChangeLookup is returned when the status of a change could not be read
	ErrChangeLookup = errors.New("error occurred while getting change status")

	// ErrMissingHostedZone is returned when no hosted zone ID is configured
	ErrMissingHostedZone = errors.New("hosted zone ID is required")

	// ErrMissingZoneID is returned when the provider response lacks a zone identifier
	ErrMissingZoneID = errors.New("missing hosted zone ID in provider response")

	// ErrMissingChangeID is returned when the provider response lacks a change identifier
	ErrMissingChangeID = errors.New("missing ID in change info")

	// ErrMissingChangeStatus is returned when the provider response lacks a change status
	ErrMissingChangeStatus = errors.New("missing status in change info")

	// ErrNoSuchChange is returned when the provider does not know the change identifier
	ErrNoSuchChange = errors.New("no such change")

	// ErrRecordNotFound is returned when a record to delete does not exist at the provider
	ErrRecordNotFound = errors.New("resource record not found")

	// ErrMissingAPIKey is returned when MyraSec API key is not provided
	ErrMissingAPIKey = errors.New("myrasec API key is required")

	// ErrMissingAPISecret is returned when MyraSec API secret is not provided
	ErrMissingAPISecret = errors.New("myrasec API secret is required")

	// ErrDomainNotFound is returned when the specified domain is not found
	ErrDomainNotFound = errors.New("domain not found")

	// ErrUnknownBackend is returned when the configured DNS backend is not supported
	ErrUnknownBackend = errors.New("unknown DNS backend")

	// ErrCertificateNotFound is returned when no certificate matches the lookup
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrPropagationFailed is returned when a change reached a failed terminal state
	ErrPropagationFailed = errors.New("change propagation failed")

	// ErrPropagationTimeout is returned when a change did not become INSYNC in time
	ErrPropagationTimeout = errors.New("timed out waiting for change propagation")
)
