package dispatcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/registry"
	"github.com/quantcore/analytics-core/internal/core/types"
)

func newTestDispatcher() (*dispatcher.Dispatcher, *registry.Registry) {
	log := zerolog.Nop()
	reg := registry.New(log)
	return dispatcher.New(reg, 4, log), reg
}

func TestDispatch_UnknownModule(t *testing.T) {
	d, _ := newTestDispatcher()
	result := d.Dispatch(context.Background(), dispatcher.Request{ModuleID: "nope", CapabilityID: "x"})
	require.False(t, result.OK)
	assert.Equal(t, types.KindNotFound, result.Error.Kind)
}

func TestDispatch_UnknownParameter(t *testing.T) {
	d, reg := newTestDispatcher()
	reg.RegisterModule("echo", registry.Capability{
		ID:          "ping",
		ParamSchema: []string{"value"},
		Handler: func(ctx context.Context, params map[string]any) types.Result {
			return types.Ok(params["value"], &types.Meta{})
		},
	})

	result := d.Dispatch(context.Background(), dispatcher.Request{
		ModuleID: "echo", CapabilityID: "ping",
		Params: map[string]any{"value": 1, "extra": 2},
	})
	require.False(t, result.OK)
	assert.Equal(t, types.KindInvalidArgument, result.Error.Kind)
}

func TestDispatch_Success(t *testing.T) {
	d, reg := newTestDispatcher()
	reg.RegisterModule("echo", registry.Capability{
		ID:          "ping",
		ParamSchema: []string{"value"},
		Handler: func(ctx context.Context, params map[string]any) types.Result {
			return types.Ok(params["value"], &types.Meta{})
		},
	})

	result := d.Dispatch(context.Background(), dispatcher.Request{
		ModuleID: "echo", CapabilityID: "ping",
		Params: map[string]any{"value": 42},
	})
	require.True(t, result.OK)
	assert.Equal(t, 42, result.Data)
	assert.GreaterOrEqual(t, result.Meta.DurationMS, int64(0))
}

func TestDispatch_Timeout(t *testing.T) {
	d, reg := newTestDispatcher()
	reg.RegisterModule("slow", registry.Capability{
		ID: "crawl",
		Handler: func(ctx context.Context, params map[string]any) types.Result {
			select {
			case <-time.After(500 * time.Millisecond):
				return types.Ok(nil, &types.Meta{})
			case <-ctx.Done():
				return types.Err(types.NewFailure(types.KindTimeout, "timed out", nil))
			}
		},
	})

	result := d.Dispatch(context.Background(), dispatcher.Request{
		ModuleID: "slow", CapabilityID: "crawl",
		Timeout: 10 * time.Millisecond,
	})
	require.False(t, result.OK)
	assert.Equal(t, types.KindTimeout, result.Error.Kind)
}

func TestDispatch_PanicRecovered(t *testing.T) {
	d, reg := newTestDispatcher()
	reg.RegisterModule("boom", registry.Capability{
		ID: "explode",
		Handler: func(ctx context.Context, params map[string]any) types.Result {
			panic("kaboom")
		},
	})

	result := d.Dispatch(context.Background(), dispatcher.Request{ModuleID: "boom", CapabilityID: "explode"})
	require.False(t, result.OK)
	assert.Equal(t, types.KindInternal, result.Error.Kind)
}

func TestDispatch_IdempotentRequestReturnsCachedResult(t *testing.T) {
	d, reg := newTestDispatcher()
	calls := 0
	reg.RegisterModule("counter", registry.Capability{
		ID: "incr",
		Handler: func(ctx context.Context, params map[string]any) types.Result {
			calls++
			return types.Ok(calls, &types.Meta{})
		},
	})

	req := dispatcher.Request{ModuleID: "counter", CapabilityID: "incr", ClientRequestID: "abc-123"}
	first := d.Dispatch(context.Background(), req)
	second := d.Dispatch(context.Background(), req)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, 1, calls)
}
