package wiring_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/backtest"
	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/types"
	"github.com/quantcore/analytics-core/internal/wiring"
)

func newTestRegistry() *dispatcher.Dispatcher {
	deps := wiring.Deps{
		BacktestReg: backtest.NewRegistry(),
		Log:         zerolog.Nop(),
	}
	reg := wiring.Build(deps)
	return dispatcher.New(reg, 4, zerolog.Nop())
}

func TestBuild_RegistersEveryModule(t *testing.T) {
	reg := wiring.Build(wiring.Deps{BacktestReg: backtest.NewRegistry(), Log: zerolog.Nop()})

	want := []string{
		"numerickit",
		"composite_rating",
		"correlation_anomaly",
		"cointegration_pairs",
		"signal_fusion",
		"monte_carlo",
		"backtest_run",
		"backtest_optimize",
		"backtest_walkforward",
		"paper_trader",
	}
	got := reg.ModuleIDs()
	for _, id := range want {
		assert.Contains(t, got, id)
	}
}

func TestDispatch_NumericKitRSI(t *testing.T) {
	d := newTestRegistry()

	series := make([]any, 0, 30)
	price := 100.0
	for i := 0; i < 30; i++ {
		if i%2 == 0 {
			price += 1
		} else {
			price -= 0.5
		}
		series = append(series, price)
	}

	result := d.Dispatch(context.Background(), dispatcher.Request{
		ModuleID:     "numerickit",
		CapabilityID: "rsi",
		Params:       map[string]any{"series": series, "period": 14},
	})
	require.True(t, result.OK)
	assert.NotEmpty(t, result.Data)
}

func TestDispatch_NumericKitRSI_MissingSeries(t *testing.T) {
	d := newTestRegistry()

	result := d.Dispatch(context.Background(), dispatcher.Request{
		ModuleID:     "numerickit",
		CapabilityID: "rsi",
		Params:       map[string]any{"period": 14},
	})
	require.False(t, result.OK)
	assert.Equal(t, types.KindInvalidArgument, result.Error.Kind)
}

func TestDispatch_UnregisteredCapabilityIsNotFound(t *testing.T) {
	d := newTestRegistry()

	result := d.Dispatch(context.Background(), dispatcher.Request{
		ModuleID:     "paper_trader",
		CapabilityID: "nonexistent",
	})
	require.False(t, result.OK)
	assert.Equal(t, types.KindNotFound, result.Error.Kind)
}
