package mock

import (
	"context"
	"sync/atomic"

	"github.com/netguru/certdns/pkg/dns"
)

// MockBackend is a mock implementation of the dns.Backend interface for testing.
// Every call is counted, whether or not a function is set.
type MockBackend struct {
	CreateZoneFn      func(ctx context.Context, domain, callerReference string) (string, error)
	SubmitChangeFn    func(ctx context.Context, change dns.Change) (string, error)
	GetChangeStatusFn func(ctx context.Context, changeID string) (dns.ChangeStatus, error)

	createZoneCalls   atomic.Int64
	submitChangeCalls atomic.Int64
	statusCalls       atomic.Int64
}

// Name returns "mock"
func (m *MockBackend) Name() string {
	return "mock"
}

// CreateZone calls the CreateZoneFn or returns an empty zone ID if not set
func (m *MockBackend) CreateZone(ctx context.Context, domain, callerReference string) (string, error) {
	m.createZoneCalls.Add(1)
	if m.CreateZoneFn != nil {
		return m.CreateZoneFn(ctx, domain, callerReference)
	}
	return "", nil
}

// SubmitChange calls the SubmitChangeFn or returns an empty change ID if not set
func (m *MockBackend) SubmitChange(ctx context.Context, change dns.Change) (string, error) {
	m.submitChangeCalls.Add(1)
	if m.SubmitChangeFn != nil {
		return m.SubmitChangeFn(ctx, change)
	}
	return "", nil
}

// GetChangeStatus calls the GetChangeStatusFn or returns StatusUnknown if not set
func (m *MockBackend) GetChangeStatus(ctx context.Context, changeID string) (dns.ChangeStatus, error) {
	m.statusCalls.Add(1)
	if m.GetChangeStatusFn != nil {
		return m.GetChangeStatusFn(ctx, changeID)
	}
	return dns.StatusUnknown, nil
}

// Calls returns the total number of calls that reached the backend
func (m *MockBackend) Calls() int64 {
	return m.createZoneCalls.Load() + m.submitChangeCalls.Load() + m.statusCalls.Load()
}

// SubmitChangeCalls returns the number of SubmitChange calls
func (m *MockBackend) SubmitChangeCalls() int64 {
	return m.submitChangeCalls.Load()
}

// GetChangeStatusCalls returns the number of GetChangeStatus calls
func (m *MockBackend) GetChangeStatusCalls() int64 {
	return m.statusCalls.Load()
}

// CreateZoneCalls returns the number of CreateZone calls
func (m *MockBackend) CreateZoneCalls() int64 {
	return m.createZoneCalls.Load()
}
