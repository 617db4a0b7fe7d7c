package route53provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

const changePrefix = "/change/"

// Route53API defines the subset of the Route 53 API the provider uses
type Route53API interface {
	CreateHostedZone(ctx context.Context, params *route53.CreateHostedZoneInput, optFns ...func(*route53.Options)) (*route53.CreateHostedZoneOutput, error)
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
	GetChange(ctx context.Context, params *route53.GetChangeInput, optFns ...func(*route53.Options)) (*route53.GetChangeOutput, error)
}

// Route53Provider is the Route 53 implementation of dns.Backend
type Route53Provider struct {
	apiClient Route53API
	logger    *zap.Logger
	ttl       int64
}

// NewRoute53Provider initializes a new Route 53 provider. Static credentials are
// used when an access key is configured, otherwise the default AWS credential
// chain applies.
func NewRoute53Provider(ctx context.Context, logger *zap.Logger, providerConfig Config) (*Route53Provider, error) {
	region := providerConfig.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if providerConfig.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			providerConfig.AccessKeyID,
			providerConfig.SecretAccessKey,
			providerConfig.SessionToken,
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.Error("Failed to load AWS config", zap.Error(err))
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := route53.NewFromConfig(awsCfg, func(o *route53.Options) {
		if providerConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(providerConfig.Endpoint)
		}
	})

	logger.Debug("Route 53 client initialized",
		zap.String("region", region),
		zap.String("endpoint", providerConfig.Endpoint))

	return newProvider(logger, client, providerConfig.TTL), nil
}

func newProvider(logger *zap.Logger, client Route53API, ttl int64) *Route53Provider {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Route53Provider{
		apiClient: client,
		logger:    logger,
		ttl:       ttl,
	}
}

// Name returns "route53"
func (p *Route53Provider) Name() string {
	return "route53"
}

// CreateZone creates a public hosted zone for domain and returns its ID as reported
// by Route 53, including the /hostedzone/ prefix.
func (p *Route53Provider) CreateZone(ctx context.Context, domain, callerReference string) (string, error) {
	out, err := p.apiClient.CreateHostedZone(ctx, &route53.CreateHostedZoneInput{
		Name:            aws.String(domain),
		CallerReference: aws.String(callerReference),
	})
	if err != nil {
		return "", classifyError(err, "CreateHostedZone")
	}

	if out == nil || out.HostedZone == nil || out.HostedZone.Id == nil {
		return "", errors.ErrMissingZoneID
	}

	p.logger.Debug("Route 53 hosted zone created",
		zap.String("domain", domain),
		zap.String("zone_id", aws.ToString(out.HostedZone.Id)))
	return aws.ToString(out.HostedZone.Id), nil
}

// SubmitChange submits a batch holding exactly one change with one record value.
func (p *Route53Provider) SubmitChange(ctx context.Context, change dns.Change) (string, error) {
	input := &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(change.ZoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{
				{
					Action: types.ChangeAction(change.Action),
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(change.Request.Name),
						Type: types.RRType(change.Request.Type),
						TTL:  aws.Int64(p.ttl),
						ResourceRecords: []types.ResourceRecord{
							{Value: aws.String(change.Request.Value)},
						},
					},
				},
			},
		},
	}

	out, err := p.apiClient.ChangeResourceRecordSets(ctx, input)
	if err != nil {
		return "", classifyError(err, "ChangeResourceRecordSets")
	}

	if out == nil || out.ChangeInfo == nil || out.ChangeInfo.Id == nil {
		return "", errors.ErrMissingChangeID
	}

	return strings.TrimPrefix(aws.ToString(out.ChangeInfo.Id), changePrefix), nil
}

// GetChangeStatus returns the status Route 53 reports for changeID.
func (p *Route53Provider) GetChangeStatus(ctx context.Context, changeID string) (dns.ChangeStatus, error) {
	out, err := p.apiClient.GetChange(ctx, &route53.GetChangeInput{
		Id: aws.String(changeID),
	})
	if err != nil {
		return "", classifyError(err, "GetChange")
	}

	if out == nil || out.ChangeInfo == nil || out.ChangeInfo.Status == "" {
		return "", errors.ErrMissingChangeStatus
	}

	switch out.ChangeInfo.Status {
	case types.ChangeStatusPending:
		return dns.StatusPending, nil
	case types.ChangeStatusInsync:
		return dns.StatusInSync, nil
	default:
		return dns.ChangeStatus(out.ChangeInfo.Status), nil
	}
}
