package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/archive"
)

func TestNilStore_MethodsAreNoOps(t *testing.T) {
	var store *archive.Store

	err := store.ArchiveBacktestRun(context.Background(), "sma_crossover", "run-1", map[string]any{"ok": true})
	require.NoError(t, err)

	err = store.ArchiveEquitySnapshot(context.Background(), "portfolio-1", time.Now(), map[string]any{"equity": 1000})
	require.NoError(t, err)

	runs, err := store.ListBacktestRuns(context.Background(), "sma_crossover")
	require.NoError(t, err)
	assert.Nil(t, runs)
}
