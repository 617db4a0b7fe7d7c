package myrasecprovider

import (
	"context"
	"errors"
	"testing"

	myrasec "github.com/Myra-Security-GmbH/myrasec-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/dns"
)

// MockMyraSecClient is a mock implementation of the MyraSecAPIClient interface
type MockMyraSecClient struct {
	mock.Mock
}

// ListDomains mocks the ListDomains method
func (m *MockMyraSecClient) ListDomains(params map[string]string) ([]myrasec.Domain, error) {
	args := m.Called(params)
	return args.Get(0).([]myrasec.Domain), args.Error(1)
}

// CreateDomain mocks the CreateDomain method
func (m *MockMyraSecClient) CreateDomain(domain *myrasec.Domain) (*myrasec.Domain, error) {
	args := m.Called(domain)
	return args.Get(0).(*myrasec.Domain), args.Error(1)
}

// ListDNSRecords mocks the ListDNSRecords method
func (m *MockMyraSecClient) ListDNSRecords(domainId int, params map[string]string) ([]myrasec.DNSRecord, error) {
	args := m.Called(domainId, params)
	return args.Get(0).([]myrasec.DNSRecord), args.Error(1)
}

// CreateDNSRecord mocks the CreateDNSRecord method
func (m *MockMyraSecClient) CreateDNSRecord(record *myrasec.DNSRecord, domainId int) (*myrasec.DNSRecord, error) {
	args := m.Called(record, domainId)
	return args.Get(0).(*myrasec.DNSRecord), args.Error(1)
}

// UpdateDNSRecord mocks the UpdateDNSRecord method
func (m *MockMyraSecClient) UpdateDNSRecord(record *myrasec.DNSRecord, domainId int) (*myrasec.DNSRecord, error) {
	args := m.Called(record, domainId)
	return args.Get(0).(*myrasec.DNSRecord), args.Error(1)
}

// DeleteDNSRecord mocks the DeleteDNSRecord method
func (m *MockMyraSecClient) DeleteDNSRecord(record *myrasec.DNSRecord, domainId int) (*myrasec.DNSRecord, error) {
	args := m.Called(record, domainId)
	return args.Get(0).(*myrasec.DNSRecord), args.Error(1)
}

func newTestProvider(client MyraSecAPIClient) *MyraSecDNSProvider {
	return newProvider(zap.NewNop(), client, Config{TTL: 300})
}

func TestNewMyraSecDNSProviderRequiresCredentials(t *testing.T) {
	_, err := NewMyraSecDNSProvider(zap.NewNop(), Config{APISecret: "secret"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewMyraSecDNSProvider(zap.NewNop(), Config{APIKey: "key"})
	assert.ErrorIs(t, err, ErrMissingAPISecret)
}

func TestCreateZone(t *testing.T) {
	t.Run("creates domain", func(t *testing.T) {
		mockClient := new(MockMyraSecClient)
		mockClient.On("ListDomains", mock.Anything).Return([]myrasec.Domain{}, nil)
		mockClient.On("CreateDomain", mock.MatchedBy(func(d *myrasec.Domain) bool {
			return d.Name == "example.com"
		})).Return(&myrasec.Domain{ID: 123, Name: "example.com"}, nil)

		id, err := newTestProvider(mockClient).CreateZone(context.Background(), "example.com.", "ref")
		require.NoError(t, err)
		assert.Equal(t, "123", id)
		mockClient.AssertExpectations(t)
	})

	t.Run("reuses existing domain", func(t *testing.T) {
		mockClient := new(MockMyraSecClient)
		mockClient.On("ListDomains", mock.Anything).Return([]myrasec.Domain{{ID: 7, Name: "example.com"}}, nil)

		id, err := newTestProvider(mockClient).CreateZone(context.Background(), "example.com", "ref")
		require.NoError(t, err)
		assert.Equal(t, "7", id)
		mockClient.AssertNotCalled(t, "CreateDomain", mock.Anything)
	})

	t.Run("created domain without id", func(t *testing.T) {
		mockClient := new(MockMyraSecClient)
		mockClient.On("ListDomains", mock.Anything).Return([]myrasec.Domain{}, nil)
		mockClient.On("CreateDomain", mock.Anything).Return(&myrasec.Domain{Name: "example.com"}, nil)

		id, err := newTestProvider(mockClient).CreateZone(context.Background(), "example.com", "ref")
		assert.ErrorIs(t, err, ErrMissingZoneID)
		assert.Empty(t, id)
	})

	t.Run("api error", func(t *testing.T) {
		mockClient := new(MockMyraSecClient)
		mockClient.On("ListDomains", mock.Anything).Return([]myrasec.Domain{}, errors.New("API error"))

		_, err := newTestProvider(mockClient).CreateZone(context.Background(), "example.com", "ref")
		assert.Error(t, err)
	})
}

func TestSubmitChangeUpsertCreatesRecord(t *testing.T) {
	mockClient := new(MockMyraSecClient)
	mockClient.On("ListDNSRecords", 123, mock.Anything).Return([]myrasec.DNSRecord{}, nil)
	mockClient.On("CreateDNSRecord", mock.MatchedBy(func(r *myrasec.DNSRecord) bool {
		return r.Name == "api.example.com" && r.RecordType == "A" && r.Value == "203.0.113.5" && r.TTL == 300
	}), 123).Return(&myrasec.DNSRecord{ID: 1}, nil)

	id, err := newTestProvider(mockClient).SubmitChange(context.Background(), dns.Change{
		Action:  dns.ActionUpsert,
		Request: dns.RecordMutationRequest{Type: dns.RecordTypeA, Name: "api.example.com.", Value: "203.0.113.5"},
		ZoneID:  "123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	mockClient.AssertExpectations(t)
}

func TestSubmitChangeUpsertReplacesRecordSet(t *testing.T) {
	mockClient := new(MockMyraSecClient)
	mockClient.On("ListDNSRecords", 123, mock.Anything).Return([]myrasec.DNSRecord{
		{ID: 1, Name: "api.example.com", RecordType: "A", Value: "198.51.100.1", TTL: 300, Active: true},
		{ID: 2, Name: "api.example.com", RecordType: "A", Value: "198.51.100.2", TTL: 300, Active: true},
		{ID: 3, Name: "api.example.com", RecordType: "TXT", Value: "keep me", TTL: 300, Active: true},
	}, nil)
	mockClient.On("UpdateDNSRecord", mock.MatchedBy(func(r *myrasec.DNSRecord) bool {
		return r.ID == 1 && r.Value == "203.0.113.5"
	}), 123).Return(&myrasec.DNSRecord{ID: 1}, nil)
	mockClient.On("DeleteDNSRecord", mock.MatchedBy(func(r *myrasec.DNSRecord) bool {
		return r.ID == 2
	}), 123).Return(&myrasec.DNSRecord{ID: 2}, nil)

	_, err := newTestProvider(mockClient).SubmitChange(context.Background(), dns.Change{
		Action:  dns.ActionUpsert,
		Request: dns.RecordMutationRequest{Type: dns.RecordTypeA, Name: "api.example.com", Value: "203.0.113.5"},
		ZoneID:  "123",
	})
	require.NoError(t, err)
	mockClient.AssertExpectations(t)
	mockClient.AssertNumberOfCalls(t, "DeleteDNSRecord", 1)
}

func TestSubmitChangeUpsertUnchanged(t *testing.T) {
	mockClient := new(MockMyraSecClient)
	mockClient.On("ListDNSRecords", 123, mock.Anything).Return([]myrasec.DNSRecord{
		{ID: 1, Name: "api.example.com", RecordType: "A", Value: "203.0.113.5", TTL: 300, Active: true},
	}, nil)
	p := newTestProvider(mockClient)
	change := dns.Change{
		Action:  dns.ActionUpsert,
		Request: dns.RecordMutationRequest{Type: dns.RecordTypeA, Name: "api.example.com", Value: "203.0.113.5"},
		ZoneID:  "123",
	}

	first, err := p.SubmitChange(context.Background(), change)
	require.NoError(t, err)
	second, err := p.SubmitChange(context.Background(), change)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	mockClient.AssertNotCalled(t, "UpdateDNSRecord", mock.Anything, mock.Anything)
	mockClient.AssertNotCalled(t, "CreateDNSRecord", mock.Anything, mock.Anything)
}

func TestSubmitChangeDelete(t *testing.T) {
	records := []myrasec.DNSRecord{
		{ID: 9, Name: "api.example.com", RecordType: "A", Value: "203.0.113.5"},
	}

	t.Run("exact value", func(t *testing.T) {
		mockClient := new(MockMyraSecClient)
		mockClient.On("ListDNSRecords", 123, mock.Anything).Return(records, nil)
		mockClient.On("DeleteDNSRecord", mock.MatchedBy(func(r *myrasec.DNSRecord) bool {
			return r.ID == 9
		}), 123).Return(&myrasec.DNSRecord{ID: 9}, nil)

		_, err := newTestProvider(mockClient).SubmitChange(context.Background(), dns.Change{
			Action:  dns.ActionDelete,
			Request: dns.RecordMutationRequest{Type: dns.RecordTypeA, Name: "api.example.com", Value: "203.0.113.5"},
			ZoneID:  "123",
		})
		require.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("drifted value", func(t *testing.T) {
		mockClient := new(MockMyraSecClient)
		mockClient.On("ListDNSRecords", 123, mock.Anything).Return(records, nil)

		_, err := newTestProvider(mockClient).SubmitChange(context.Background(), dns.Change{
			Action:  dns.ActionDelete,
			Request: dns.RecordMutationRequest{Type: dns.RecordTypeA, Name: "api.example.com", Value: "203.0.113.6"},
			ZoneID:  "123",
		})
		assert.ErrorIs(t, err, ErrRecordNotFound)
		mockClient.AssertNotCalled(t, "DeleteDNSRecord", mock.Anything, mock.Anything)
	})
}

func TestSubmitChangeInvalidZone(t *testing.T) {
	mockClient := new(MockMyraSecClient)

	_, err := newTestProvider(mockClient).SubmitChange(context.Background(), dns.Change{
		Action:  dns.ActionUpsert,
		Request: dns.RecordMutationRequest{Type: dns.RecordTypeA, Name: "api.example.com", Value: "203.0.113.5"},
		ZoneID:  "Z123",
	})
	assert.ErrorIs(t, err, ErrDomainNotFound)
	mockClient.AssertNotCalled(t, "ListDNSRecords", mock.Anything, mock.Anything)
}

func TestGetChangeStatus(t *testing.T) {
	live := []myrasec.DNSRecord{
		{ID: 9, Name: "api.example.com", RecordType: "A", Value: "203.0.113.5"},
	}

	upsertLive, err := encodeChangeID(changeToken{Action: dns.ActionUpsert, DomainID: 123, Name: "api.example.com", Type: "A", Value: "203.0.113.5"})
	require.NoError(t, err)
	upsertMissing, err := encodeChangeID(changeToken{Action: dns.ActionUpsert, DomainID: 123, Name: "api.example.com", Type: "A", Value: "203.0.113.9"})
	require.NoError(t, err)
	deleteLive, err := encodeChangeID(changeToken{Action: dns.ActionDelete, DomainID: 123, Name: "api.example.com", Type: "A", Value: "203.0.113.5"})
	require.NoError(t, err)
	deleteGone, err := encodeChangeID(changeToken{Action: dns.ActionDelete, DomainID: 123, Name: "old.example.com", Type: "A", Value: "203.0.113.5"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		changeID string
		want     dns.ChangeStatus
	}{
		{"upsert applied", upsertLive, dns.StatusInSync},
		{"upsert not visible", upsertMissing, dns.StatusPending},
		{"delete not applied", deleteLive, dns.StatusPending},
		{"delete applied", deleteGone, dns.StatusInSync},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockMyraSecClient)
			mockClient.On("ListDNSRecords", 123, mock.Anything).Return(live, nil)

			got, err := newTestProvider(mockClient).GetChangeStatus(context.Background(), tt.changeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetChangeStatusUnknownChange(t *testing.T) {
	mockClient := new(MockMyraSecClient)
	p := newTestProvider(mockClient)

	for _, id := range []string{"C2682N5HXP0BZ4", "myra-!!!", "myra-" + "e30"} {
		_, err := p.GetChangeStatus(context.Background(), id)
		assert.ErrorIs(t, err, ErrNoSuchChange, id)
	}
	mockClient.AssertNotCalled(t, "ListDNSRecords", mock.Anything, mock.Anything)
}
