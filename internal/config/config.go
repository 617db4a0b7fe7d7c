// Package config loads the process configuration of certdns.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/errors"
)

// Supported values of DNS_BACKEND and DATABASE_DRIVER.
const (
	BackendRoute53 = "route53"
	BackendMyraSec = "myrasec"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// AWSConfig groups the Route 53 client settings.
type AWSConfig struct {
	EndpointURL     string `mapstructure:"aws_endpoint_url"`
	Region          string `mapstructure:"aws_region"`
	AccessKeyID     string `mapstructure:"aws_access_key_id"`
	SecretAccessKey string `mapstructure:"aws_secret_access_key"`
	SessionToken    string `mapstructure:"aws_session_token"`
}

// MyraSecConfig groups the MyraSec API credentials.
type MyraSecConfig struct {
	APIKey    string `mapstructure:"myrasec_api_key"`
	APISecret string `mapstructure:"myrasec_api_secret"`
}

// DatabaseConfig selects the certificate store.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"database_driver"`
	URL            string        `mapstructure:"database_url"`
	ConnectTimeout time.Duration `mapstructure:"database_connect_timeout"`
}

// PollConfig is the propagation polling policy.
type PollConfig struct {
	Interval        time.Duration `mapstructure:"poll_interval"`
	Timeout         time.Duration `mapstructure:"poll_timeout"`
	MaxLookupErrors int           `mapstructure:"poll_max_lookup_errors"`
	Workers         int           `mapstructure:"poll_workers"`
}

// Config is the merged configuration of one certdns process.
type Config struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`

	DNSBackend string `mapstructure:"dns_backend"`
	// ZoneID is the hosted zone (Route 53) or domain ID (MyraSec) records are written to
	ZoneID       string   `mapstructure:"aws_route53_hosted_zone_id"`
	TTL          int      `mapstructure:"ttl"`
	DomainFilter []string `mapstructure:"domain_filter"`
	// DryRun logs record changes instead of submitting them
	DryRun bool `mapstructure:"dry_run"`

	AWS      AWSConfig      `mapstructure:",squash"`
	MyraSec  MyraSecConfig  `mapstructure:",squash"`
	Database DatabaseConfig `mapstructure:",squash"`
	Poll     PollConfig     `mapstructure:",squash"`
}

func allKeys() []string {
	return []string{
		"env", "log_level", "config_file",
		"dns_backend", "aws_route53_hosted_zone_id", "ttl", "domain_filter", "dry_run",
		"aws_endpoint_url", "aws_region", "aws_access_key_id", "aws_secret_access_key", "aws_session_token",
		"myrasec_api_key", "myrasec_api_secret",
		"database_driver", "database_url", "database_connect_timeout",
		"poll_interval", "poll_timeout", "poll_max_lookup_errors", "poll_workers",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("dns_backend", BackendRoute53)
	v.SetDefault("ttl", 300)
	v.SetDefault("domain_filter", []string{})
	v.SetDefault("dry_run", false)
	v.SetDefault("aws_endpoint_url", "http://localhost:5053")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_url", "certdns.db")
	v.SetDefault("database_connect_timeout", "10s")
	v.SetDefault("poll_interval", "5s")
	v.SetDefault("poll_timeout", "5m")
	v.SetDefault("poll_max_lookup_errors", 3)
	v.SetDefault("poll_workers", 4)
}

// BindFlags defines the command line flags Load understands on fs. Flag names use
// dashes; the matching environment variable is the upper-cased name with underscores.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config-file", "", "Optional configuration file (yaml, json or toml)")
	fs.String("env", "development", `Runtime environment, "production" enables strict checks`)
	fs.String("log-level", "info", "The log level to use (debug, info, warn, error)")
	fs.String("dns-backend", BackendRoute53, "DNS backend to use (route53, myrasec)")
	fs.String("aws-route53-hosted-zone-id", "", "Hosted zone (or MyraSec domain ID) records are written to")
	fs.Int("ttl", 300, "TTL of written records, in seconds")
	fs.StringSlice("domain-filter", []string{}, "Restrict record names to these domains")
	fs.Bool("dry-run", false, "If true, only log the record changes that would be made")
	fs.String("aws-endpoint-url", "http://localhost:5053", "Route 53 endpoint")
	fs.String("aws-region", "us-east-1", "AWS region")
	fs.String("database-driver", DriverSQLite, "Certificate store driver (postgres, sqlite)")
	fs.String("database-url", "certdns.db", "Certificate store connection string or file")
	fs.Duration("poll-interval", 5*time.Second, "Interval between change status lookups")
	fs.Duration("poll-timeout", 5*time.Minute, "How long to wait for a change to propagate")
	fs.Int("poll-max-lookup-errors", 3, "Consecutive failed status lookups tolerated (negative tolerates none)")
}

// Load merges defaults, an optional config file, environment variables (after
// loading .env if present) and explicitly set flags, in increasing precedence.
// fs may be nil.
func Load(logger *zap.Logger, fs *pflag.FlagSet) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Real environment variables win over .env
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded configuration from .env file")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}
	setDefaults(v)

	if fs != nil {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
			}
		})
	}

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
		logger.Info("Loaded config file", zap.String("file", file))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.DNSBackend = strings.ToLower(strings.TrimSpace(cfg.DNSBackend))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.DomainFilter = splitList(cfg.DomainFilter)

	return &cfg, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate fails fast on configurations that cannot work.
func (c *Config) Validate() error {
	switch c.DNSBackend {
	case BackendRoute53:
	case BackendMyraSec:
		if c.MyraSec.APIKey == "" {
			return errors.ErrMissingAPIKey
		}
		if c.MyraSec.APISecret == "" {
			return errors.ErrMissingAPISecret
		}
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownBackend, c.DNSBackend)
	}

	if c.IsProduction() && c.ZoneID == "" {
		return fmt.Errorf("AWS_ROUTE53_HOSTED_ZONE_ID: %w", errors.ErrMissingHostedZone)
	}

	if c.TTL <= 0 {
		return fmt.Errorf("TTL must be positive, got %d", c.TTL)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Poll.Interval <= 0 || c.Poll.Timeout <= 0 {
		return fmt.Errorf("poll interval and timeout must be positive")
	}
	return nil
}

// splitList accepts both list values and single comma separated strings.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
