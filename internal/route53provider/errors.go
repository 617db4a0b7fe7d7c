package route53provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"

	"github.com/netguru/certdns/pkg/errors"
)

// classifyError maps Route 53 API errors onto the sentinels callers branch on.
// The original error stays in the chain.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	var noSuchChange *types.NoSuchChange
	if stderrors.As(err, &noSuchChange) {
		return fmt.Errorf("%s: %w: %w", operation, errors.ErrNoSuchChange, err)
	}

	var invalidBatch *types.InvalidChangeBatch
	if stderrors.As(err, &invalidBatch) && mentionsMissingRecord(invalidBatch.ErrorMessage(), invalidBatch.Messages) {
		return fmt.Errorf("%s: %w: %w", operation, errors.ErrRecordNotFound, err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchChange":
			return fmt.Errorf("%s: %w: %w", operation, errors.ErrNoSuchChange, err)
		case "InvalidChangeBatch":
			if mentionsMissingRecord(apiErr.ErrorMessage(), nil) {
				return fmt.Errorf("%s: %w: %w", operation, errors.ErrRecordNotFound, err)
			}
		}
		return fmt.Errorf("%s failed (code: %s): %w", operation, apiErr.ErrorCode(), err)
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}

// mentionsMissingRecord reports whether Route 53 rejected a DELETE because the
// record set does not exist.
func mentionsMissingRecord(message string, messages []string) bool {
	for _, m := range append([]string{message}, messages...) {
		if strings.Contains(m, "but it was not found") {
			return true
		}
	}
	return false
}
