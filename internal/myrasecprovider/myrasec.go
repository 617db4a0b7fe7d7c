package myrasecprovider

import (
	"context"
	"fmt"
	"strconv"

	myrasec "github.com/Myra-Security-GmbH/myrasec-go/v2"
	"go.uber.org/zap"
)

// MyraSecAPIClient defines the interface for interacting with the MyraSec API
type MyraSecAPIClient interface {
	ListDomains(params map[string]string) ([]myrasec.Domain, error)
	CreateDomain(domain *myrasec.Domain) (*myrasec.Domain, error)
	ListDNSRecords(domainId int, params map[string]string) ([]myrasec.DNSRecord, error)
	CreateDNSRecord(record *myrasec.DNSRecord, domainId int) (*myrasec.DNSRecord, error)
	UpdateDNSRecord(record *myrasec.DNSRecord, domainId int) (*myrasec.DNSRecord, error)
	DeleteDNSRecord(record *myrasec.DNSRecord, domainId int) (*myrasec.DNSRecord, error)
}

// MyraSecDNSProvider is the MyraSec implementation of dns.Backend.
//
// MyraSec applies record changes synchronously and has no notion of a change
// batch, so change IDs are self-describing tokens and status is derived from the
// live record set on every lookup.
type MyraSecDNSProvider struct {
	apiClient         MyraSecAPIClient
	logger            *zap.Logger
	ttl               int
	disableProtection bool
}

// NewMyraSecDNSProvider initializes a new MyraSec DNS provider.
func NewMyraSecDNSProvider(logger *zap.Logger, providerConfig Config) (*MyraSecDNSProvider, error) {
	if providerConfig.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if providerConfig.APISecret == "" {
		return nil, ErrMissingAPISecret
	}

	// Initialize the MyraSec API client
	api, err := myrasec.New(
		providerConfig.APIKey,
		providerConfig.APISecret,
	)
	if err != nil {
		logger.Error("Failed to create MyraSec API client", zap.Error(err))
		return nil, fmt.Errorf("failed to create MyraSec API client: %w", err)
	}

	// Set the API language to English to ensure consistent responses
	api.Language = "en"

	return newProvider(logger, api, providerConfig), nil
}

func newProvider(logger *zap.Logger, client MyraSecAPIClient, providerConfig Config) *MyraSecDNSProvider {
	ttl := providerConfig.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MyraSecDNSProvider{
		apiClient:         client,
		logger:            logger,
		ttl:               ttl,
		disableProtection: providerConfig.DisableProtection,
	}
}

// Name returns "myrasec"
func (p *MyraSecDNSProvider) Name() string {
	return "myrasec"
}

// CreateZone creates a MyraSec domain and returns its numeric ID. An existing
// domain with the same name is returned as is, which keeps retried calls
// idempotent without a caller reference.
func (p *MyraSecDNSProvider) CreateZone(ctx context.Context, domain, callerReference string) (string, error) {
	p.logger.Debug("Retrieving domains from MyraSec API")
	domains, err := p.apiClient.ListDomains(map[string]string{"search": domain})
	if err != nil {
		p.logger.Error("Failed to list domains", zap.Error(err))
		return "", fmt.Errorf("failed to list domains: %w", err)
	}

	for _, d := range domains {
		if d.Name == stripTrailingDot(domain) {
			p.logger.Info("Domain already exists, reusing it",
				zap.String("domain", d.Name),
				zap.Int("domain_id", d.ID),
				zap.String("caller_reference", callerReference))
			return strconv.Itoa(d.ID), nil
		}
	}

	created, err := p.apiClient.CreateDomain(&myrasec.Domain{
		Name: stripTrailingDot(domain),
	})
	if err != nil {
		p.logger.Error("Failed to create domain", zap.String("domain", domain), zap.Error(err))
		return "", fmt.Errorf("failed to create domain: %w", err)
	}
	if created == nil || created.ID == 0 {
		p.logger.Warn("MyraSec created domain without an ID", zap.String("domain", domain))
		return "", ErrMissingZoneID
	}

	p.logger.Info("Created domain",
		zap.String("domain", created.Name),
		zap.Int("domain_id", created.ID))
	return strconv.Itoa(created.ID), nil
}

func parseDomainID(zoneID string) (int, error) {
	domainID, err := strconv.Atoi(zoneID)
	if err != nil || domainID <= 0 {
		return 0, fmt.Errorf("invalid domain ID %q: %w", zoneID, ErrDomainNotFound)
	}
	return domainID, nil
}
