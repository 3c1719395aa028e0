// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// DefaultSubObjectiveCount is the fixed number of sub-objectives a
// batch must contain.
const DefaultSubObjectiveCount = 4

// Summary holds counts from one pipeline run.
type Summary struct {
	Succeeded int
	Failed    int
}

// Total returns the number of sub-objectives processed.
func (s Summary) Total() int {
	return s.Succeeded + s.Failed
}

// Run fans out one completion call per sub-objective and aggregates the
// outcomes into a ResearchBatch. One sub-objective's failure never
// halts the others: a *GenerationError is recorded in the batch's
// Failures and processing continues. Both ResearchResults and Failures
// preserve the submission order of their sub-objectives regardless of
// execution order.
//
// Run validates its input before any completion call: the company name
// must be non-empty, the objective recognized, and subObjectives must
// hold exactly the configured count (default 4) of non-empty entries.
// A violation returns an *InputError and an empty batch.
//
// Progress lines are written to w as sub-objectives complete.
func Run(ctx context.Context, companyName string, objective types.GeneralObjective, subObjectives []string, backend CompletionBackend, cfg types.ResearchConfig, w io.Writer) (types.ResearchBatch, Summary, error) {
	if err := validateInput(companyName, objective, subObjectives, cfg); err != nil {
		return types.ResearchBatch{}, Summary{}, err
	}

	fmt.Fprintf(w, "Generating research links for %s\n", companyName)
	fmt.Fprintf(w, "General objective: %s\n", objective)

	client := &Client{Backend: backend, Config: cfg}

	outcomes := runAll(ctx, client, companyName, objective, subObjectives, cfg, w)

	batch := types.ResearchBatch{
		CompanyName:      companyName,
		GeneralObjective: string(objective),
		ResearchResults:  []types.ResearchResult{},
		Failures:         []types.Failure{},
	}

	var summary Summary
	for i, sub := range subObjectives {
		out := outcomes[i]
		if out.err != nil {
			batch.Failures = append(batch.Failures, types.Failure{
				SubObjective: sub,
				Error:        out.err.Error(),
			})
			summary.Failed++
			continue
		}
		batch.ResearchResults = append(batch.ResearchResults, out.result)
		summary.Succeeded++
	}

	fmt.Fprintf(w, "Done: %d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	return batch, summary, nil
}

// outcome is the terminal state for one sub-objective.
type outcome struct {
	result types.ResearchResult
	err    error
}

// runAll executes the per-sub-objective calls, sequentially or through a
// worker pool, and returns outcomes indexed by submission position.
func runAll(ctx context.Context, client *Client, companyName string, objective types.GeneralObjective, subObjectives []string, cfg types.ResearchConfig, w io.Writer) []outcome {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(subObjectives) {
		workers = len(subObjectives)
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	outcomes := make([]outcome, len(subObjectives))

	type job struct {
		idx int
		sub string
	}
	jobs := make(chan job)

	var mu sync.Mutex // guards w
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for j := range jobs {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					outcomes[j.idx] = outcome{err: &GenerationError{SubObjective: j.sub, Err: err}}
					continue
				}
			}

			req := types.ResearchRequest{
				CompanyName:      companyName,
				GeneralObjective: objective,
				SubObjective:     j.sub,
			}
			result, err := client.Fetch(ctx, req)

			mu.Lock()
			if err != nil {
				fmt.Fprintf(w, "[%d/%d] failed  %s: %v\n", j.idx+1, len(subObjectives), j.sub, err)
			} else {
				fmt.Fprintf(w, "[%d/%d] done    %s (%d links)\n", j.idx+1, len(subObjectives), j.sub, len(result.Links))
			}
			mu.Unlock()

			outcomes[j.idx] = outcome{result: result, err: err}
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

	for i, sub := range subObjectives {
		jobs <- job{idx: i, sub: sub}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// validateInput enforces the batch input contract before any network
// call is made.
func validateInput(companyName string, objective types.GeneralObjective, subObjectives []string, cfg types.ResearchConfig) error {
	if strings.TrimSpace(companyName) == "" {
		return inputErrorf("company name is empty")
	}
	if !objective.Valid() {
		return inputErrorf("unrecognized general objective %q", objective)
	}

	want := cfg.SubObjectiveCount
	if want <= 0 {
		want = DefaultSubObjectiveCount
	}
	if len(subObjectives) != want {
		return inputErrorf("expected %d sub-objectives, got %d", want, len(subObjectives))
	}
	for i, sub := range subObjectives {
		if strings.TrimSpace(sub) == "" {
			return inputErrorf("sub-objective %d is empty", i+1)
		}
	}
	return nil
}
