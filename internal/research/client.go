// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research generates structured research-link collections for
// investment due diligence. The completion client issues one
// schema-constrained request per sub-objective with bounded retry; the
// pipeline fans the sub-objectives out and aggregates the outcomes into
// a batch with a success/failure manifest.
package research

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/FarbodDadkhah/investment-analyst-tool/internal/schema"
	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// CompletionBackend performs one schema-constrained completion request
// and returns the raw (unvalidated) result. Each implementation (OpenAI,
// Gemini) handles a single sub-objective; tests supply a deterministic
// stub. Per Strategy pattern.
type CompletionBackend interface {
	GenerateLinks(ctx context.Context, req types.ResearchRequest) (schema.RawResult, error)
}

// Retry policy defaults. Zero-valued config fields fall back to these.
const (
	defaultMaxRetries        = 3
	defaultBaseDelay         = time.Second
	defaultBackoffMultiplier = 2.0
	defaultAttemptTimeout    = 60 * time.Second
)

// sleep is the backoff wait function. Tests override it to record the
// requested delays instead of sleeping.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Client wraps a CompletionBackend with validation and retry. A Client
// holds no mutable state; Fetch calls are independent and safe to
// re-issue.
type Client struct {
	Backend CompletionBackend
	Config  types.ResearchConfig
}

// Fetch performs one completion call for req, masking transient failure
// behind bounded retry. Structural validation failures and transient
// service errors are retried with exponential backoff: attempt k
// (0-indexed) waits BaseDelay * BackoffMultiplier^k before the next
// attempt, and no wait follows the final attempt. Fatal service errors
// abort immediately without consuming the retry budget.
//
// On success Fetch returns a ResearchResult with exactly the configured
// number of validated links. On exhaustion or fatal error it returns a
// *GenerationError carrying the sub-objective and last cause.
func (c *Client) Fetch(ctx context.Context, req types.ResearchRequest) (types.ResearchResult, error) {
	maxRetries := c.Config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := c.Config.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	multiplier := c.Config.BackoffMultiplier
	if multiplier <= 1 {
		multiplier = defaultBackoffMultiplier
	}
	timeout := c.Config.Timeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := c.attempt(ctx, req, timeout)
		attempts++
		if err == nil {
			return result, nil
		}
		lastErr = err

		var fatal *FatalError
		if errors.As(err, &fatal) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		// No wait after the final attempt.
		if attempt < maxRetries {
			backoff := time.Duration(float64(baseDelay) * math.Pow(multiplier, float64(attempt)))
			if err := sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	return types.ResearchResult{}, &GenerationError{
		SubObjective: req.SubObjective,
		Attempts:     attempts,
		Err:          lastErr,
	}
}

// attempt runs one backend call bounded by the per-attempt timeout and
// validates the response shape.
func (c *Client) attempt(ctx context.Context, req types.ResearchRequest, timeout time.Duration) (types.ResearchResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.Backend.GenerateLinks(attemptCtx, req)
	if err != nil {
		return types.ResearchResult{}, err
	}

	return schema.ValidateResult(raw, c.Config.LinksPerObjective)
}
