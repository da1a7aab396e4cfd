package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/registry"
	"github.com/quantcore/analytics-core/internal/core/types"
	"github.com/quantcore/analytics-core/internal/scheduler"
)

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	log := zerolog.Nop()
	reg := registry.New(log)
	var calls int32
	reg.RegisterModule("cache", registry.Capability{
		ID: "refresh",
		Handler: func(ctx context.Context, params map[string]any) types.Result {
			atomic.AddInt32(&calls, 1)
			return types.Ok(nil, &types.Meta{})
		},
	})
	d := dispatcher.New(reg, 2, log)
	s := scheduler.New(d, log)

	require.NoError(t, s.Register(scheduler.Job{
		Name: "cache_refresh", Schedule: "* * * * * *", ModuleID: "cache", CapabilityID: "refresh",
	}))

	s.Start()
	defer s.Stop(context.Background())
	time.Sleep(1100 * time.Millisecond)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestScheduler_RejectsInvalidCronExpression(t *testing.T) {
	log := zerolog.Nop()
	d := dispatcher.New(registry.New(log), 2, log)
	s := scheduler.New(d, log)

	err := s.Register(scheduler.Job{Name: "bad", Schedule: "not a cron expr"})
	assert.Error(t, err)
}
