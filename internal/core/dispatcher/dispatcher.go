// Package dispatcher implements the Dispatcher: the single entry point that
// resolves a (module_id, capability_id) pair via the ModuleRegistry, rejects
// parameters outside the capability's declared schema, enforces a timeout
// policy, bounds concurrency, and normalizes
// every outcome into the Result/Failure envelope.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/core/registry"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// DefaultTimeout is the dispatch-wide timeout applied when a request omits
// one.
const DefaultTimeout = 60 * time.Second

// idemTTL bounds how long a client_request_id's cached Result is replayed
// before it's treated as a fresh request again, so the cache doesn't grow
// unbounded over a long-running process.
const idemTTL = 10 * time.Minute

type idemEntry struct {
	result types.Result
	storedAt time.Time
}

// Dispatcher routes capability invocations against a Registry under a
// bounded worker pool, with per-request idempotence keyed on
// client_request_id.
type Dispatcher struct {
	registry *registry.Registry
	pool *poolGate
	log zerolog.Logger

	idemMu sync.Mutex
	idemCache map[string]idemEntry
}

type poolGate struct {
	sem interface {
		Acquire(ctx context.Context, n int64) error
		Release(n int64)
	}
}

// New builds a Dispatcher. poolSize <= 0 sizes the pool at 2x logical CPUs.
func New(reg *registry.Registry, poolSize int64, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		pool: &poolGate{sem: newPool(poolSize)},
		log: log.With().Str("component", "dispatcher").Logger(),
		idemCache: make(map[string]idemEntry),
	}
}

// Request is one dispatch invocation.
type Request struct {
	ModuleID string
	CapabilityID string
	Params map[string]any
	Timeout time.Duration // 0 uses DefaultTimeout
	ClientRequestID string // empty disables idempotence caching
}

// Dispatch resolves and runs one capability call, returning the normalized
// Result/Failure envelope. It never panics outward: a handler panic is
// recovered and mapped to an Internal Failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) types.Result {
	start := time.Now()

	if req.ClientRequestID != "" {
		if cached, ok := d.idempotentResult(req.ClientRequestID); ok {
			return cached
		}
	}

	cap, err := d.registry.Lookup(req.ModuleID, req.CapabilityID)
	if err != nil {
		return types.Err(types.NewFailure(types.KindNotFound, err.Error(), map[string]any{
			"module_id": req.ModuleID,
			"capability_id": req.CapabilityID,
		}))
	}

	if unknown := unknownParams(req.Params, cap.ParamSchema); len(unknown) > 0 {
		return types.Err(types.NewFailure(types.KindInvalidArgument, "unrecognized parameters", map[string]any{
			"unknown_params": unknown,
		}))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.pool.sem.Acquire(execCtx, 1); err != nil {
		return types.Err(types.NewFailure(types.KindTimeout, "worker pool saturated", nil))
	}
	defer d.pool.sem.Release(1)

	result := d.invoke(execCtx, cap.Handler, req.Params)
	if result.Meta != nil {
		result.Meta.DurationMS = time.Since(start).Milliseconds()
	}

	if req.ClientRequestID != "" {
		d.storeIdempotentResult(req.ClientRequestID, result)
	}
	return result
}

// invoke runs handler, recovering a panic into an Internal Failure and
// mapping a parent-context cancellation/deadline into the corresponding
// Cancelled/Timeout Failure kinds.
func (d *Dispatcher) invoke(ctx context.Context, h registry.Handler, params map[string]any) (result types.Result) {
	done := make(chan types.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error().Interface("panic", r).Msg("handler panicked")
				done <- types.Err(types.NewFailure(types.KindInternal, "handler panicked", map[string]any{"recovered": r}))
			}
		}()
		done <- h(ctx, params)
	}()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return types.Err(types.NewFailure(types.KindTimeout, "capability execution timed out", nil))
		}
		return types.Err(types.NewFailure(types.KindCancelled, "request cancelled", nil))
	}
}

func unknownParams(params map[string]any, schema []string) []string {
	if len(schema) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(schema))
	for _, s := range schema {
		allowed[s] = struct{}{}
	}
	var unknown []string
	for k := range params {
		if _, ok := allowed[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

func (d *Dispatcher) idempotentResult(key string) (types.Result, bool) {
	d.idemMu.Lock()
	defer d.idemMu.Unlock()
	e, ok := d.idemCache[key]
	if !ok {
		return types.Result{}, false
	}
	if time.Since(e.storedAt) > idemTTL {
		delete(d.idemCache, key)
		return types.Result{}, false
	}
	return e.result, true
}

func (d *Dispatcher) storeIdempotentResult(key string, result types.Result) {
	d.idemMu.Lock()
	defer d.idemMu.Unlock()
	now := time.Now()
	d.idemCache[key] = idemEntry{result: result, storedAt: now}
	for k, e := range d.idemCache {
		if now.Sub(e.storedAt) > idemTTL {
			delete(d.idemCache, k)
		}
	}
}
