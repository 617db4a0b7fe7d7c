// Package certflow drives the DNS side of certificate issuance. It publishes
// domain validation records for a certificate, waits for them to propagate and
// keeps the certificate row in step with the outcome.
//
// Records go through the same name validation as every other mutation, so
// labels with underscores (the ACME DNS-01 "_acme-challenge" owner name) are
// rejected before anything reaches the provider.
package certflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/netguru/certdns/internal/certificate"
	"github.com/netguru/certdns/internal/propagation"
	"github.com/netguru/certdns/pkg/dns"
)

// RecordClient submits record mutations. *dnschange.Manager implements it.
type RecordClient interface {
	UpsertRecord(ctx context.Context, req dns.RecordMutationRequest) (string, error)
	DeleteRecordIfExists(ctx context.Context, req dns.RecordMutationRequest) (string, bool, error)
}

// ChangeWaiter blocks until a change is propagated. *propagation.Waiter implements it.
type ChangeWaiter interface {
	Wait(ctx context.Context, changeID string) (propagation.Result, error)
}

// Issued is the key material of an issued certificate.
type Issued struct {
	OrderURL    string
	Certificate string
	PrivateKey  string
	ValidFrom   time.Time
	ValidTo     time.Time
}

// Service ties certificate rows to the DNS records that prove their domain.
type Service struct {
	repo    certificate.Repository
	records RecordClient
	waiter  ChangeWaiter
	logger  *zap.Logger
}

// NewService creates a Service.
func NewService(logger *zap.Logger, repo certificate.Repository, records RecordClient, waiter ChangeWaiter) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		records: records,
		waiter:  waiter,
		logger:  logger,
	}
}

// Request records a new pending certificate for username and domain.
func (s *Service) Request(ctx context.Context, username, domain string) (*certificate.Certificate, error) {
	c, err := s.repo.Create(ctx, username, domain)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Certificate requested",
		zap.Int64("certificate_id", c.ID),
		zap.String("username", username),
		zap.String("domain", domain))
	return c, nil
}

// PublishRecord upserts req for the certificate and waits until it is in sync.
// When the record cannot be published the certificate is marked failed.
func (s *Service) PublishRecord(ctx context.Context, certID int64, req dns.RecordMutationRequest) (propagation.Result, error) {
	if _, err := s.repo.GetByID(ctx, certID); err != nil {
		return propagation.Result{}, err
	}

	changeID, err := s.records.UpsertRecord(ctx, req)
	if err != nil {
		return propagation.Result{}, s.fail(ctx, certID, err)
	}

	res, err := s.waiter.Wait(ctx, changeID)
	if err != nil {
		return res, s.fail(ctx, certID, err)
	}

	s.logger.Info("Validation record published",
		zap.Int64("certificate_id", certID),
		zap.String("name", req.Name),
		zap.String("change_id", changeID),
		zap.Int("polls", res.Polls))
	return res, nil
}

// RetractRecord deletes req if it is still present and waits for the deletion to
// propagate. A record that is already gone is not an error.
func (s *Service) RetractRecord(ctx context.Context, certID int64, req dns.RecordMutationRequest) error {
	changeID, deleted, err := s.records.DeleteRecordIfExists(ctx, req)
	if err != nil {
		return fmt.Errorf("retract record for certificate %d: %w", certID, err)
	}
	if !deleted {
		return nil
	}

	if _, err := s.waiter.Wait(ctx, changeID); err != nil {
		return fmt.Errorf("retract record for certificate %d: %w", certID, err)
	}

	s.logger.Info("Validation record retracted",
		zap.Int64("certificate_id", certID),
		zap.String("name", req.Name),
		zap.String("change_id", changeID))
	return nil
}

// MarkIssued stores the issued key material and moves the certificate to issued.
func (s *Service) MarkIssued(ctx context.Context, certID int64, issued Issued) (*certificate.Certificate, error) {
	if !issued.ValidTo.After(issued.ValidFrom) {
		return nil, fmt.Errorf("certificate %d: validity ends before it starts", certID)
	}

	status := certificate.StatusIssued
	update := certificate.Update{
		Certificate: &issued.Certificate,
		PrivateKey:  &issued.PrivateKey,
		ValidFrom:   &issued.ValidFrom,
		ValidTo:     &issued.ValidTo,
		Status:      &status,
	}
	if issued.OrderURL != "" {
		update.OrderURL = &issued.OrderURL
	}

	c, err := s.repo.UpdateByID(ctx, certID, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Certificate issued",
		zap.Int64("certificate_id", certID),
		zap.Time("valid_to", issued.ValidTo))
	return c, nil
}

// Latest returns the most recently issued certificate of username.
func (s *Service) Latest(ctx context.Context, username string) (*certificate.Certificate, error) {
	return s.repo.GetMostRecentIssuedByUsername(ctx, username)
}

// fail marks the certificate failed and returns cause.
func (s *Service) fail(ctx context.Context, certID int64, cause error) error {
	status := certificate.StatusFailed
	if _, err := s.repo.UpdateByID(context.WithoutCancel(ctx), certID, certificate.Update{Status: &status}); err != nil {
		s.logger.Error("Failed to mark certificate failed",
			zap.Int64("certificate_id", certID),
			zap.Error(err))
	}
	s.logger.Warn("Validation record not published",
		zap.Int64("certificate_id", certID),
		zap.Error(cause))
	return fmt.Errorf("publish record for certificate %d: %w", certID, cause)
}
