package propagation

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

// scriptedSource returns a fixed sequence of answers per change ID and repeats the last one
type scriptedSource struct {
	mu      sync.Mutex
	answers map[string][]answer
	calls   map[string]int
}

type answer struct {
	status dns.ChangeStatus
	err    error
}

func newScriptedSource(answers map[string][]answer) *scriptedSource {
	return &scriptedSource{answers: answers, calls: map[string]int{}}
}

func (s *scriptedSource) GetChangeStatus(ctx context.Context, changeID string) (dns.ChangeStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	script, ok := s.answers[changeID]
	if !ok {
		return "", errors.ErrNoSuchChange
	}
	n := s.calls[changeID]
	s.calls[changeID] = n + 1
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n].status, script[n].err
}

func fastPolicy() Policy {
	return Policy{Interval: time.Millisecond, Timeout: time.Second, MaxLookupErrors: 2, Workers: 2}
}

func TestWait(t *testing.T) {
	lookupErr := stderrors.New("throttled")

	tests := []struct {
		name      string
		script    []answer
		wantState State
		wantPolls int
		wantErr   error
	}{
		{
			name:      "pending then insync",
			script:    []answer{{status: dns.StatusPending}, {status: dns.StatusPending}, {status: dns.StatusInSync}},
			wantState: StateComplete,
			wantPolls: 3,
		},
		{
			name:      "failed status",
			script:    []answer{{status: dns.StatusPending}, {status: dns.StatusFailed}},
			wantState: StateFailed,
			wantPolls: 2,
			wantErr:   errors.ErrPropagationFailed,
		},
		{
			name:      "transient lookup errors are tolerated",
			script:    []answer{{err: lookupErr}, {err: lookupErr}, {status: dns.StatusPending}, {err: lookupErr}, {status: dns.StatusInSync}},
			wantState: StateComplete,
			wantPolls: 5,
		},
		{
			name:      "lookup error budget exceeded",
			script:    []answer{{status: dns.StatusPending}, {err: lookupErr}},
			wantState: StateFailed,
			wantPolls: 4,
			wantErr:   lookupErr,
		},
		{
			name:      "unknown provider status keeps polling",
			script:    []answer{{status: "PROPAGATING"}, {status: dns.StatusInSync}},
			wantState: StateComplete,
			wantPolls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newScriptedSource(map[string][]answer{"C1": tt.script})
			w := NewWaiter(zap.NewNop(), source, fastPolicy())

			res, err := w.Wait(context.Background(), "C1")
			assert.Equal(t, tt.wantState, res.State)
			assert.Equal(t, tt.wantPolls, res.Polls)
			assert.Equal(t, "C1", res.ChangeID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, dns.StatusInSync, res.Status)
		})
	}
}

func TestWaitTimeout(t *testing.T) {
	source := newScriptedSource(map[string][]answer{"C1": {{status: dns.StatusPending}}})
	w := NewWaiter(zap.NewNop(), source, Policy{Interval: time.Millisecond, Timeout: 30 * time.Millisecond, MaxLookupErrors: 1})

	res, err := w.Wait(context.Background(), "C1")
	assert.ErrorIs(t, err, errors.ErrPropagationTimeout)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, dns.StatusPending, res.Status)
	assert.Greater(t, res.Polls, 1)
}

func TestWaitCallerCancel(t *testing.T) {
	source := newScriptedSource(map[string][]answer{"C1": {{status: dns.StatusPending}}})
	w := NewWaiter(zap.NewNop(), source, Policy{Interval: time.Millisecond, Timeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := w.Wait(ctx, "C1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, res.State)
}

func TestWaitAll(t *testing.T) {
	source := newScriptedSource(map[string][]answer{
		"C1": {{status: dns.StatusPending}, {status: dns.StatusInSync}},
		"C2": {{status: dns.StatusInSync}},
		"C3": {{status: dns.StatusPending}, {status: dns.StatusPending}, {status: dns.StatusInSync}},
	})
	w := NewWaiter(zap.NewNop(), source, fastPolicy())

	results, err := w.WaitAll(context.Background(), []string{"C1", "C2", "C3"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, id := range []string{"C1", "C2", "C3"} {
		assert.Equal(t, id, results[i].ChangeID)
		assert.Equal(t, StateComplete, results[i].State)
	}
}

func TestWaitAllFirstFailure(t *testing.T) {
	source := newScriptedSource(map[string][]answer{
		"C1": {{status: dns.StatusFailed}},
		"C2": {{status: dns.StatusPending}},
	})
	w := NewWaiter(zap.NewNop(), source, Policy{Interval: time.Millisecond, Timeout: 5 * time.Second, Workers: 2})

	results, err := w.WaitAll(context.Background(), []string{"C1", "C2"})
	assert.ErrorIs(t, err, errors.ErrPropagationFailed)
	require.Len(t, results, 2)
	assert.Equal(t, StateFailed, results[0].State)
	assert.NotEqual(t, StateComplete, results[1].State)
}

func TestWaitAllEmpty(t *testing.T) {
	w := NewWaiter(zap.NewNop(), newScriptedSource(nil), fastPolicy())

	results, err := w.WaitAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
