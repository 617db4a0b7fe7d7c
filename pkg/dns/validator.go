package dns

import (
	"net/netip"
	"regexp"

	"github.com/netguru/certdns/pkg/errors"
)

// nameRegexp accepts lowercase hostnames with at least three labels, an alphabetic
// top-level label and an optional trailing dot. Underscores are not allowed in any
// label.
var nameRegexp = regexp.MustCompile(`^[a-z0-9-]+(\.[a-z0-9-]+)+\.[a-z]+\.?$`)

// IsNameValid reports whether name is a syntactically valid record name.
func IsNameValid(name string) bool {
	return nameRegexp.MatchString(name)
}

// IsValueValid reports whether value is valid for the given record type.
// Types other than A and AAAA only need a non-empty value; the provider does
// the rest.
func IsValueValid(recordType RecordType, value string) bool {
	switch recordType {
	case RecordTypeA:
		addr, err := netip.ParseAddr(value)
		return err == nil && addr.Is4()
	case RecordTypeAAAA:
		addr, err := netip.ParseAddr(value)
		return err == nil && addr.Is6() && addr.Zone() == ""
	default:
		return len(value) >= 1
	}
}

// ValidateRequest checks name and value of req, in that order.
func ValidateRequest(req RecordMutationRequest) error {
	if !IsNameValid(req.Name) {
		return errors.ErrInvalidName
	}
	if !IsValueValid(req.Type, req.Value) {
		return errors.ErrInvalidValue
	}
	return nil
}
