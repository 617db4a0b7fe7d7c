package propagation

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/netguru/certdns/pkg/dns"
	"github.com/netguru/certdns/pkg/errors"
)

// State is where a submitted change stands from the caller's point of view.
type State string

const (
	StateSubmitted State = "SUBMITTED"
	StateComplete  State = "COMPLETE"
	StateFailed    State = "FAILED"
)

// StatusSource reads the current provider status of a change.
type StatusSource interface {
	GetChangeStatus(ctx context.Context, changeID string) (dns.ChangeStatus, error)
}

// Result is the outcome of waiting on one change.
type Result struct {
	ChangeID string           `yaml:"change_id"`
	State    State            `yaml:"state"`
	Status   dns.ChangeStatus `yaml:"status,omitempty"`
	Polls    int              `yaml:"polls"`
}

// Waiter polls changes until they reach a terminal state.
type Waiter struct {
	source StatusSource
	logger *zap.Logger
	policy Policy
}

// NewWaiter creates a Waiter polling source according to policy.
func NewWaiter(logger *zap.Logger, source StatusSource, policy Policy) *Waiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Waiter{
		source: source,
		logger: logger,
		policy: policy.withDefaults(),
	}
}

// Wait polls changeID until it is INSYNC, FAILED, the lookup error budget is
// spent, or the policy timeout elapses. Only a COMPLETE result has a nil error.
func (w *Waiter) Wait(ctx context.Context, changeID string) (Result, error) {
	res := Result{ChangeID: changeID, State: StateSubmitted}

	waitCtx, cancel := context.WithTimeout(ctx, w.policy.Timeout)
	defer cancel()

	ticker := time.NewTicker(w.policy.Interval)
	defer ticker.Stop()

	lookupErrors := 0
	for {
		res.Polls++
		status, err := w.source.GetChangeStatus(waitCtx, changeID)
		if err != nil {
			lookupErrors++
			w.logger.Warn("Change status lookup failed",
				zap.String("change_id", changeID),
				zap.Int("consecutive_errors", lookupErrors),
				zap.Error(err))
			if lookupErrors > w.policy.MaxLookupErrors {
				res.State = StateFailed
				return res, fmt.Errorf("%w: change %s: %w", errors.ErrPropagationFailed, changeID, err)
			}
		} else {
			lookupErrors = 0
			res.Status = status

			switch {
			case status.IsInSync():
				res.State = StateComplete
				w.logger.Info("Change propagated",
					zap.String("change_id", changeID),
					zap.Int("polls", res.Polls))
				return res, nil
			case status.IsFailed():
				res.State = StateFailed
				return res, fmt.Errorf("%w: change %s reported %s", errors.ErrPropagationFailed, changeID, status)
			}

			w.logger.Debug("Change still propagating",
				zap.String("change_id", changeID),
				zap.String("status", string(status)))
		}

		select {
		case <-waitCtx.Done():
			res.State = StateFailed
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if stderrors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				return res, fmt.Errorf("%w: change %s after %s", errors.ErrPropagationTimeout, changeID, w.policy.Timeout)
			}
			return res, waitCtx.Err()
		case <-ticker.C:
		}
	}
}
