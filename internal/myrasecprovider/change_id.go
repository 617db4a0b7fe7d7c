package myrasecprovider

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/netguru/certdns/pkg/dns"
)

const changeIDPrefix = "myra-"

// changeToken is everything needed to re-check a change against the live records.
type changeToken struct {
	Action   dns.Action `json:"a"`
	DomainID int        `json:"d"`
	Name     string     `json:"n"`
	Type     string     `json:"t"`
	Value    string     `json:"v"`
}

func encodeChangeID(token changeToken) (string, error) {
	raw, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("encode change ID: %w", err)
	}
	return changeIDPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeChangeID(changeID string) (changeToken, error) {
	var token changeToken

	encoded, ok := strings.CutPrefix(changeID, changeIDPrefix)
	if !ok {
		return token, fmt.Errorf("change %q: %w", changeID, ErrNoSuchChange)
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return token, fmt.Errorf("change %q: %w", changeID, ErrNoSuchChange)
	}
	if err := json.Unmarshal(raw, &token); err != nil || !token.Action.Valid() || token.DomainID <= 0 {
		return token, fmt.Errorf("change %q: %w", changeID, ErrNoSuchChange)
	}
	return token, nil
}
