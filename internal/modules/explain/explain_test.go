package explain_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eduflash/core/internal/modules/explain"
)

// fakeSource is a scriptable provider for resolver tests.
type fakeSource struct {
	name  string
	text  string
	err   error
	calls atomic.Int32
	// block makes Generate wait for ctx cancellation before failing,
	// simulating a provider that never responds.
	block bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Generate(ctx context.Context, _ explain.Request) (string, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func TestCacheHitBypassesProviders(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{name: "primary", text: "because photosynthesis"}
	svc := explain.New([]explain.Source{src}, time.Second, nil)

	first := svc.Resolve(ctx, "q1", explain.Request{}, "F1")
	if first != "because photosynthesis" {
		t.Fatalf("expected generated text, got %q", first)
	}

	second := svc.Resolve(ctx, "q1", explain.Request{}, "F2")
	if second != first {
		t.Fatalf("cache hit returned different text: %q vs %q", second, first)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", got)
	}
}

func TestFallbackWhenAllProvidersFail(t *testing.T) {
	svc := explain.New([]explain.Source{
		&fakeSource{name: "a", err: errors.New("boom")},
		&fakeSource{name: "b", err: errors.New("also boom")},
	}, time.Second, nil)

	got := svc.Resolve(context.Background(), "q1", explain.Request{}, "X")
	if got != "X" {
		t.Fatalf("expected fallback %q, got %q", "X", got)
	}
}

func TestFallbackIsCached(t *testing.T) {
	failing := &fakeSource{name: "a", err: errors.New("outage")}
	svc := explain.New([]explain.Source{failing}, time.Second, nil)

	ctx := context.Background()
	if got := svc.Resolve(ctx, "q1", explain.Request{}, "canned"); got != "canned" {
		t.Fatalf("expected canned fallback, got %q", got)
	}

	// Provider recovers, but the fallback is pinned for this question.
	failing.err = nil
	failing.text = "fresh AI text"
	if got := svc.Resolve(ctx, "q1", explain.Request{}, "canned"); got != "canned" {
		t.Fatalf("expected pinned fallback after outage, got %q", got)
	}
	if got := failing.calls.Load(); got != 1 {
		t.Fatalf("expected no second provider call, got %d calls", got)
	}
}

func TestPriorityOrder(t *testing.T) {
	primary := &fakeSource{name: "primary", text: "primary text"}
	secondary := &fakeSource{name: "secondary", text: "secondary text"}
	svc := explain.New([]explain.Source{primary, secondary}, time.Second, nil)

	got := svc.Resolve(context.Background(), "q1", explain.Request{}, "F")
	if got != "primary text" {
		t.Fatalf("expected primary provider to win, got %q", got)
	}
	if n := secondary.calls.Load(); n != 0 {
		t.Fatalf("secondary provider should not be called, got %d calls", n)
	}
}

func TestSecondaryWinsWhenPrimaryFails(t *testing.T) {
	svc := explain.New([]explain.Source{
		&fakeSource{name: "primary", err: errors.New("down")},
		&fakeSource{name: "secondary", text: "secondary text"},
	}, time.Second, nil)

	got := svc.Resolve(context.Background(), "q1", explain.Request{}, "F")
	if got != "secondary text" {
		t.Fatalf("expected secondary text, got %q", got)
	}
}

func TestEmptyProviderTextIsFailure(t *testing.T) {
	svc := explain.New([]explain.Source{
		&fakeSource{name: "primary", text: "   "},
		&fakeSource{name: "secondary", text: "real text"},
	}, time.Second, nil)

	got := svc.Resolve(context.Background(), "q1", explain.Request{}, "F")
	if got != "real text" {
		t.Fatalf("expected blank text to be skipped, got %q", got)
	}
}

func TestTimeoutBound(t *testing.T) {
	timeout := 50 * time.Millisecond
	svc := explain.New([]explain.Source{
		&fakeSource{name: "hung-a", block: true},
		&fakeSource{name: "hung-b", block: true},
	}, timeout, nil)

	start := time.Now()
	got := svc.Resolve(context.Background(), "q1", explain.Request{}, "fallback")
	elapsed := time.Since(start)

	if got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if elapsed > 2*timeout+200*time.Millisecond {
		t.Fatalf("resolution took %v, expected roughly 2x%v", elapsed, timeout)
	}
}

func TestEmptyQuestionIDSkipsCache(t *testing.T) {
	src := &fakeSource{name: "primary", text: "generated"}
	svc := explain.New([]explain.Source{src}, time.Second, nil)

	if got := svc.Resolve(context.Background(), "", explain.Request{}, "F"); got != "F" {
		t.Fatalf("expected fallback for empty id, got %q", got)
	}
	if size, _ := svc.CacheStats(); size != 0 {
		t.Fatalf("empty id must not be cached, cache size = %d", size)
	}
}

func TestCacheStatsAndFlush(t *testing.T) {
	svc := explain.New(nil, time.Second, nil)
	ctx := context.Background()

	svc.Resolve(ctx, "q2", explain.Request{}, "two")
	svc.Resolve(ctx, "q1", explain.Request{}, "one")

	size, keys := svc.CacheStats()
	if size != 2 {
		t.Fatalf("expected 2 cached entries, got %d", size)
	}
	if keys[0] != "q1" || keys[1] != "q2" {
		t.Fatalf("expected sorted keys [q1 q2], got %v", keys)
	}

	svc.FlushCache()
	if size, _ := svc.CacheStats(); size != 0 {
		t.Fatalf("expected empty cache after flush, got %d", size)
	}
}
