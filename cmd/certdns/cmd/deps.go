package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"sigs.k8s.io/external-dns/endpoint"

	"github.com/netguru/certdns/internal/certflow"
	"github.com/netguru/certdns/internal/certificate"
	"github.com/netguru/certdns/internal/certificate/postgres"
	"github.com/netguru/certdns/internal/certificate/sqlite"
	"github.com/netguru/certdns/internal/config"
	"github.com/netguru/certdns/internal/dnschange"
	"github.com/netguru/certdns/internal/myrasecprovider"
	"github.com/netguru/certdns/internal/propagation"
	"github.com/netguru/certdns/internal/route53provider"
	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

// Process-wide dependencies, built on first use so that commands only touch the
// services they need.
var (
	manager *dnschange.Manager
	repo    certificate.Repository

	pool *pgxpool.Pool
	db   *sql.DB
)

// newBackend builds the DNS backend selected by DNS_BACKEND.
func newBackend(ctx context.Context, c *config.Config) (dns.Backend, error) {
	switch c.DNSBackend {
	case config.BackendRoute53:
		return route53provider.NewRoute53Provider(ctx,
			logger.With(zap.String("component", "route53provider")),
			route53provider.Config{
				Endpoint:        c.AWS.EndpointURL,
				Region:          c.AWS.Region,
				AccessKeyID:     c.AWS.AccessKeyID,
				SecretAccessKey: c.AWS.SecretAccessKey,
				SessionToken:    c.AWS.SessionToken,
				TTL:             int64(c.TTL),
			})
	case config.BackendMyraSec:
		return myrasecprovider.NewMyraSecDNSProvider(
			logger.With(zap.String("component", "myrasecprovider")),
			myrasecprovider.Config{
				APIKey:    c.MyraSec.APIKey,
				APISecret: c.MyraSec.APISecret,
				TTL:       c.TTL,
			})
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownBackend, c.DNSBackend)
	}
}

func dnsManager(ctx context.Context) (*dnschange.Manager, error) {
	if manager != nil {
		return manager, nil
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize DNS backend", zap.String("backend", cfg.DNSBackend), zap.Error(err))
		return nil, err
	}

	m, err := dnschange.NewManager(
		logger.With(zap.String("component", "dnschange")),
		backend,
		dnschange.Config{
			ZoneID:       cfg.ZoneID,
			DomainFilter: endpoint.DomainFilter{Filters: cfg.DomainFilter},
			DryRun:       cfg.DryRun,
		},
	)
	if err != nil {
		return nil, err
	}
	manager = m
	return manager, nil
}

func newWaiter(source propagation.StatusSource) *propagation.Waiter {
	return propagation.NewWaiter(
		logger.With(zap.String("component", "propagation")),
		source,
		propagation.Policy{
			Interval:        cfg.Poll.Interval,
			Timeout:         cfg.Poll.Timeout,
			MaxLookupErrors: cfg.Poll.MaxLookupErrors,
			Workers:         cfg.Poll.Workers,
		},
	)
}

// certificateRepository opens the certificate store and brings its schema up to date.
func certificateRepository(ctx context.Context) (certificate.Repository, error) {
	if repo != nil {
		return repo, nil
	}

	storeLogger := logger.With(zap.String("component", "certificate"))

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		p, err := postgres.ConnectPool(cfg.Database.URL, cfg.Database.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		pool, db = p, postgres.SQLDB(p)
		if err := certificate.Migrate(ctx, storeLogger, db, "postgres"); err != nil {
			return nil, err
		}
		repo = postgres.NewRepository(storeLogger, pool)
	case config.DriverSQLite:
		d, err := sqlite.Connect(cfg.Database.URL, cfg.Database.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		db = d
		if err := certificate.Migrate(ctx, storeLogger, db, "sqlite"); err != nil {
			return nil, err
		}
		repo = sqlite.NewRepository(storeLogger, db)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return repo, nil
}

func certService(ctx context.Context) (*certflow.Service, error) {
	r, err := certificateRepository(ctx)
	if err != nil {
		return nil, err
	}
	m, err := dnsManager(ctx)
	if err != nil {
		return nil, err
	}
	return certflow.NewService(logger.With(zap.String("component", "certflow")), r, m, newWaiter(m)), nil
}

func closeDeps() {
	if db != nil {
		_ = db.Close()
	}
	if pool != nil {
		pool.Close()
	}
}
