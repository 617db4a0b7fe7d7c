package myrasecprovider

import (
	"github.com/netguru/certdns/pkg/errors"
)

var (
	// ErrMissingAPIKey is returned when MyraSec API key is not provided
	ErrMissingAPIKey = errors.ErrMissingAPIKey

	// ErrMissingAPISecret is returned when MyraSec API secret is not provided
	ErrMissingAPISecret = errors.ErrMissingAPISecret

	// ErrDomainNotFound is returned when the zone ID does not name a MyraSec domain
	ErrDomainNotFound = errors.ErrDomainNotFound

	// ErrMissingZoneID is returned when a created domain comes back without an ID
	ErrMissingZoneID = errors.ErrMissingZoneID

	// ErrNoSuchChange is returned for change IDs this provider did not issue
	ErrNoSuchChange = errors.ErrNoSuchChange

	// ErrRecordNotFound is returned when a DELETE matches no live record
	ErrRecordNotFound = errors.ErrRecordNotFound
)
