package research

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/FarbodDadkhah/investment-analyst-tool/internal/schema"
	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// --- stub backends ---

// stubBackend returns a fixed raw result for every request.
type stubBackend struct {
	mu    sync.Mutex
	raw   schema.RawResult
	err   error
	calls int
}

func (s *stubBackend) GenerateLinks(_ context.Context, _ types.ResearchRequest) (schema.RawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return schema.RawResult{}, s.err
	}
	return s.raw, nil
}

func (s *stubBackend) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	failures  int
	failWith  error
	raw       schema.RawResult
	callCount int
}

func (f *failNTimesBackend) GenerateLinks(_ context.Context, _ types.ResearchRequest) (schema.RawResult, error) {
	f.callCount++
	if f.callCount <= f.failures {
		if f.failWith != nil {
			return schema.RawResult{}, f.failWith
		}
		return schema.RawResult{}, &TransientError{Err: fmt.Errorf("transient error (call %d)", f.callCount)}
	}
	return f.raw, nil
}

// recordSleeps replaces the backoff wait with a recorder and returns a
// restore func plus the recorded delays.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var mu sync.Mutex
	var delays []time.Duration
	orig := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func rawLinks(sub string, n int) schema.RawResult {
	links := make([]string, n)
	for i := range links {
		links[i] = fmt.Sprintf("https://example.com/%s/%d", "src", i)
	}
	return schema.RawResult{
		GeneralObjective: "Market & Competition",
		SubObjective:     sub,
		Links:            links,
	}
}

func testRequest(sub string) types.ResearchRequest {
	return types.ResearchRequest{
		CompanyName:      "Harvey AI",
		GeneralObjective: types.ObjectiveMarketCompetition,
		SubObjective:     sub,
	}
}

func testConfig() types.ResearchConfig {
	return types.ResearchConfig{
		GenerationConfig: types.GenerationConfig{
			Model:             "test-model",
			MaxRetries:        3,
			BaseDelay:         time.Second,
			BackoffMultiplier: 2.0,
			Timeout:           time.Second,
		},
		LinksPerObjective: 5,
	}
}

// --- Fetch ---

func TestFetchSuccess(t *testing.T) {
	recordSleeps(t)

	backend := &stubBackend{raw: rawLinks("TAM sizing", 5)}
	client := &Client{Backend: backend, Config: testConfig()}

	result, err := client.Fetch(context.Background(), testRequest("TAM sizing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Links) != 5 {
		t.Fatalf("got %d links, want 5", len(result.Links))
	}
	if backend.callCount() != 1 {
		t.Errorf("backend called %d times, want 1", backend.callCount())
	}
}

func TestFetchRetriesTransientThenSucceeds(t *testing.T) {
	delays := recordSleeps(t)

	backend := &failNTimesBackend{failures: 2, raw: rawLinks("TAM sizing", 5)}
	client := &Client{Backend: backend, Config: testConfig()}

	result, err := client.Fetch(context.Background(), testRequest("TAM sizing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Links) != 5 {
		t.Fatalf("got %d links, want 5", len(result.Links))
	}
	if backend.callCount != 3 {
		t.Errorf("backend called %d times, want 3", backend.callCount)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if !reflect.DeepEqual(*delays, want) {
		t.Errorf("backoff delays %v, want %v", *delays, want)
	}
}

func TestFetchRetryBound(t *testing.T) {
	delays := recordSleeps(t)

	backend := &stubBackend{err: &TransientError{Err: fmt.Errorf("rate limited")}}
	client := &Client{Backend: backend, Config: testConfig()}

	_, err := client.Fetch(context.Background(), testRequest("Growth drivers"))

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %T: %v", err, err)
	}
	if genErr.SubObjective != "Growth drivers" {
		t.Errorf("sub objective %q, want %q", genErr.SubObjective, "Growth drivers")
	}
	if genErr.Attempts != 4 {
		t.Errorf("attempts %d, want 4", genErr.Attempts)
	}
	if backend.callCount() != 4 {
		t.Errorf("backend called %d times, want 4", backend.callCount())
	}
	// Exactly three waits: 1s, 2s, 4s. No wait after the final attempt.
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if !reflect.DeepEqual(*delays, want) {
		t.Errorf("backoff delays %v, want %v", *delays, want)
	}
}

func TestFetchFatalShortCircuits(t *testing.T) {
	delays := recordSleeps(t)

	backend := &stubBackend{err: &FatalError{Err: fmt.Errorf("invalid api key")}}
	client := &Client{Backend: backend, Config: testConfig()}

	_, err := client.Fetch(context.Background(), testRequest("TAM sizing"))

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %T: %v", err, err)
	}
	if genErr.Attempts != 1 {
		t.Errorf("attempts %d, want 1", genErr.Attempts)
	}
	if backend.callCount() != 1 {
		t.Errorf("backend called %d times, want 1", backend.callCount())
	}
	if len(*delays) != 0 {
		t.Errorf("expected zero waits, got %v", *delays)
	}

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Errorf("cause should unwrap to *FatalError, got %v", err)
	}
}

func TestFetchRetriesSchemaError(t *testing.T) {
	recordSleeps(t)

	// First response has the wrong link count; the model self-corrects
	// on retry.
	calls := 0
	seq := backendFunc(func(ctx context.Context, req types.ResearchRequest) (schema.RawResult, error) {
		calls++
		if calls == 1 {
			return rawLinks("TAM sizing", 4), nil
		}
		return rawLinks("TAM sizing", 5), nil
	})

	client := &Client{Backend: seq, Config: testConfig()}
	result, err := client.Fetch(context.Background(), testRequest("TAM sizing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("backend called %d times, want 2", calls)
	}
	if len(result.Links) != 5 {
		t.Errorf("got %d links, want 5", len(result.Links))
	}
}

func TestFetchSchemaErrorExhaustsIntoGenerationError(t *testing.T) {
	recordSleeps(t)

	backend := &stubBackend{raw: rawLinks("TAM sizing", 3)} // wrong count, every time
	client := &Client{Backend: backend, Config: testConfig()}

	_, err := client.Fetch(context.Background(), testRequest("TAM sizing"))

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %T: %v", err, err)
	}
	var schemaErr *schema.Error
	if !errors.As(err, &schemaErr) {
		t.Errorf("cause should unwrap to *schema.Error, got %v", genErr.Err)
	}
	if backend.callCount() != 4 {
		t.Errorf("backend called %d times, want 4", backend.callCount())
	}
}

func TestFetchIdempotent(t *testing.T) {
	recordSleeps(t)

	backend := &stubBackend{raw: rawLinks("TAM sizing", 5)}
	client := &Client{Backend: backend, Config: testConfig()}
	req := testRequest("TAM sizing")

	first, err := client.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := client.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated fetches differ:\n%+v\n%+v", first, second)
	}
}

func TestFetchContextCancelled(t *testing.T) {
	recordSleeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &stubBackend{err: &TransientError{Err: fmt.Errorf("rate limited")}}
	client := &Client{Backend: backend, Config: testConfig()}

	_, err := client.Fetch(ctx, testRequest("TAM sizing"))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if backend.callCount() > 1 {
		t.Errorf("backend called %d times after cancellation, want at most 1", backend.callCount())
	}
}

// backendFunc adapts a function to the CompletionBackend interface.
type backendFunc func(context.Context, types.ResearchRequest) (schema.RawResult, error)

func (f backendFunc) GenerateLinks(ctx context.Context, req types.ResearchRequest) (schema.RawResult, error) {
	return f(ctx, req)
}
