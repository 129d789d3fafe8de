package ops

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jsonops/pkg/cache"
	"github.com/matzehuels/jsonops/pkg/codec"
	jerrors "github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/observability"
)

// memCache is an in-memory cache that counts calls.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	gets    int
	sets    int
	failGet bool
	failSet bool
	ctxSet  bool // Set fails once its context is done
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("get failed")
	}
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.failSet {
		return errors.New("set failed")
	}
	if c.ctxSet && ctx.Err() != nil {
		return ctx.Err()
	}
	c.data[key] = data
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner(nil, nil, nil) left nil fields: %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestRunnerExecute(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, quietLogger())
	ctx := context.Background()
	req := Request{Body: []byte(`{"array":[[1],[2,[3]]]}`)}

	first, err := r.Execute(ctx, FlattenArray, req, nil)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if string(first.Body) != `{"value":[1,2,3]}` {
		t.Errorf("Body = %s", first.Body)
	}
	if first.Cached {
		t.Error("first call should not be cached")
	}
	if first.ContentType != "application/json" {
		t.Errorf("ContentType = %q", first.ContentType)
	}

	second, err := r.Execute(ctx, FlattenArray, req, nil)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !second.Cached {
		t.Error("second call should be served from the cache")
	}
	if string(second.Body) != string(first.Body) {
		t.Errorf("cached Body = %s, want %s", second.Body, first.Body)
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}
	for _, ttl := range c.ttls {
		if ttl != DefaultTTL {
			t.Errorf("ttl = %v, want %v", ttl, DefaultTTL)
		}
	}
}

func TestRunnerKeysByFormat(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, quietLogger())
	ctx := context.Background()
	req := Request{Body: []byte(`{"array":[2,1]}`)}
	yaml, _ := codec.ByName("yaml")

	if _, err := r.Execute(ctx, SortArray, req, nil); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, SortArray, req, yaml)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Error("a different output format must not hit the JSON entry")
	}
	if res.ContentType != yaml.ContentType() {
		t.Errorf("ContentType = %q, want %q", res.ContentType, yaml.ContentType())
	}
	if len(c.data) != 2 {
		t.Errorf("cache entries = %d, want 2", len(c.data))
	}

	if _, err := r.Execute(ctx, FlattenArray, req, nil); err != nil {
		t.Fatal(err)
	}
	if len(c.data) != 3 {
		t.Errorf("operations must not share keys: entries = %d, want 3", len(c.data))
	}
}

func TestRunnerErrorsAreNotCached(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, quietLogger())

	_, err := r.Execute(context.Background(), CompareObjects, Request{Body: []byte(`{}`)}, nil)
	if jerrors.UserMessage(err) != MsgNeedObjects {
		t.Fatalf("Execute() error = %v", err)
	}
	if c.sets != 0 {
		t.Errorf("failed operations must not be cached, sets = %d", c.sets)
	}
}

func TestRunnerCacheFailuresAreIgnored(t *testing.T) {
	c := newMemCache()
	c.failGet, c.failSet = true, true
	r := NewRunner(c, nil, quietLogger())

	res, err := r.Execute(context.Background(), DiffArrays,
		Request{Body: []byte(`{"array1":[1],"array2":[]}`)}, nil)
	if err != nil {
		t.Fatalf("cache failures should not fail the request: %v", err)
	}
	if string(res.Body) != `{"value":{"onlyInFirst":[1],"onlyInSecond":[]}}` {
		t.Errorf("Body = %s", res.Body)
	}
}

func TestRunnerCachesAfterCallerCancels(t *testing.T) {
	c := newMemCache()
	c.ctxSet = true
	r := NewRunner(c, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := Request{Body: []byte(`{"array":[[1],[2]]}`)}
	if _, err := r.Execute(ctx, FlattenArray, req, nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(c.data) != 1 {
		t.Fatalf("result should be cached although the caller went away, got %d entries", len(c.data))
	}

	res, err := r.Execute(context.Background(), FlattenArray, req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cached {
		t.Error("second request should be served from the cache")
	}
}

func TestRunnerTTL(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{0, DefaultTTL},
		{time.Minute, time.Minute},
		{-1, 0},
	}
	for _, tt := range tests {
		r := &Runner{TTL: tt.ttl}
		if got := r.ttl(); got != tt.want {
			t.Errorf("ttl() with TTL %v = %v, want %v", tt.ttl, got, tt.want)
		}
	}
}

type recordingHooks struct {
	observability.NoopOperationHooks
	mu        sync.Mutex
	started   []string
	completed []bool
}

func (h *recordingHooks) OnOperationStart(_ context.Context, op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, op)
}

func (h *recordingHooks) OnOperationComplete(_ context.Context, _ string, cached bool, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed = append(h.completed, cached)
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	mu                sync.Mutex
	hits, misses, set int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func (h *countingCacheHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses++
}

func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set++
}

func TestRunnerHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()

	opHooks := &recordingHooks{}
	cacheHooks := &countingCacheHooks{}
	observability.SetOperationHooks(opHooks)
	observability.SetCacheHooks(cacheHooks)

	r := NewRunner(newMemCache(), nil, quietLogger())
	req := Request{Body: []byte(`{"array":[1]}`)}
	for range 2 {
		if _, err := r.Execute(context.Background(), FlattenArray, req, nil); err != nil {
			t.Fatal(err)
		}
	}

	if len(opHooks.started) != 2 || opHooks.started[0] != "flattenArray" {
		t.Errorf("started = %v", opHooks.started)
	}
	if len(opHooks.completed) != 2 || opHooks.completed[0] || !opHooks.completed[1] {
		t.Errorf("completed cached flags = %v, want [false true]", opHooks.completed)
	}
	if cacheHooks.misses != 1 || cacheHooks.hits != 1 || cacheHooks.set != 1 {
		t.Errorf("cache hooks hits=%d misses=%d set=%d", cacheHooks.hits, cacheHooks.misses, cacheHooks.set)
	}
}

func TestRunnerConcurrent(t *testing.T) {
	r := NewRunner(newMemCache(), nil, quietLogger())
	req := Request{Body: []byte(`{"array1":[1,2,3],"array2":[2]}`)}
	want := `{"value":{"onlyInFirst":[1,3],"onlyInSecond":[]}}`

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Execute(context.Background(), DiffArrays, req, nil)
			if err != nil {
				errs <- err
				return
			}
			if string(res.Body) != want {
				errs <- errors.New("unexpected body " + string(res.Body))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
