package ops

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/jsonops/pkg/cache"
	"github.com/matzehuels/jsonops/pkg/codec"
	"github.com/matzehuels/jsonops/pkg/errors"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
	"github.com/matzehuels/jsonops/pkg/observability"
)

// DefaultTTL is how long results are cached when the runner has no TTL set.
const DefaultTTL = 24 * time.Hour

// Runner executes operations with result caching.
// Both CLI and API use it so caching and encoding live in one place.
//
// The Runner holds no per-request state. Multiple goroutines can safely share
// one Runner; concurrent identical requests are computed once.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached results. Zero means DefaultTTL and a
	// negative value disables expiry.
	TTL time.Duration

	group singleflight.Group
}

// Result is an encoded operation result.
type Result struct {
	Body        []byte        // {"value": ...} encoded with the output codec
	ContentType string        // media type of Body
	Cached      bool          // served from the cache
	Duration    time.Duration // time spent in Execute
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs op on req and encodes the result envelope with out (JSON when
// nil). Cache failures are logged and never fail the request.
func (r *Runner) Execute(ctx context.Context, op Operation, req Request, out codec.Codec) (*Result, error) {
	if out == nil {
		out = codec.Default
	}
	start := time.Now()
	hooks := observability.Operation()
	hooks.OnOperationStart(ctx, op.Name)

	res, err := r.execute(ctx, op, req, out)
	elapsed := time.Since(start)
	if res != nil {
		res.Duration = elapsed
	}
	hooks.OnOperationComplete(ctx, op.Name, res != nil && res.Cached, elapsed, err)

	if err != nil {
		r.Logger.Debug("operation failed", "op", op.Name, "code", errors.GetCode(err), "duration", elapsed)
		return nil, err
	}
	r.Logger.Debug("operation complete",
		"op", op.Name,
		"cached", res.Cached,
		"bytes", len(res.Body),
		"duration", elapsed)
	return res, nil
}

func (r *Runner) execute(ctx context.Context, op Operation, req Request, out codec.Codec) (*Result, error) {
	key := r.Keyer.OperationKey(op.Name, cache.OperationKeyOpts{
		InputFormat:  req.decoder().Name(),
		OutputFormat: out.Name(),
		BodyHash:     cache.Hash(req.Body),
	})
	cacheHooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "op", op.Name, "err", err)
	}
	if err == nil && hit {
		cacheHooks.OnCacheHit(ctx, op.Name)
		return &Result{Body: data, ContentType: out.ContentType(), Cached: true}, nil
	}
	cacheHooks.OnCacheMiss(ctx, op.Name)

	v, err, _ := r.group.Do(key, func() (any, error) {
		body, err := r.compute(op, req, out)
		if err != nil {
			return nil, err
		}
		// Other callers share this result, so the write outlives the
		// caller that started it.
		if err := r.Cache.Set(context.WithoutCancel(ctx), key, body, r.ttl()); err != nil {
			r.Logger.Warn("cache write failed", "op", op.Name, "err", err)
		} else {
			cacheHooks.OnCacheSet(ctx, op.Name, len(body))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Body: v.([]byte), ContentType: out.ContentType()}, nil
}

// compute runs the operation and encodes its envelope.
func (r *Runner) compute(op Operation, req Request, out codec.Codec) ([]byte, error) {
	value, err := op.Run(req)
	if err != nil {
		return nil, err
	}
	body, err := out.Encode(Envelope(value))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s result: %v", out.Name(), err)
	}
	return body, nil
}

func (r *Runner) ttl() time.Duration {
	switch {
	case r.TTL == 0:
		return DefaultTTL
	case r.TTL < 0:
		return 0
	}
	return r.TTL
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Envelope wraps a result as {"value": v}.
func Envelope(v jsonvalue.Value) jsonvalue.Value {
	return jsonvalue.ObjectValue(jsonvalue.NewObject().Set("value", v))
}

// ErrorEnvelope wraps a message as {"error": msg}.
func ErrorEnvelope(msg string) jsonvalue.Value {
	return jsonvalue.ObjectValue(jsonvalue.NewObject().Set("error", jsonvalue.String(msg)))
}
