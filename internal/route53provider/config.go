package route53provider

// Config is used to configure the creation of the Route53Provider.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	TTL             int64
}

const (
	defaultRegion = "us-east-1"
	defaultTTL    = 300
)
