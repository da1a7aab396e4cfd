// Package registry implements the ModuleRegistry: the write-once mapping of
// module_id -> capability_id -> handler that the Dispatcher consults for
// every dispatch.
package registry

import (
	"context"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// Handler executes one capability of one analysis module. Before Handler is
// invoked the Dispatcher rejects any params key outside the capability's
// declared parameter schema; values are passed through as decoded, without
// type coercion, and the handler converts them itself.
type Handler func(ctx context.Context, params map[string]any) types.Result

// Capability describes one operation a module exposes: its id, the handler
// that implements it, and the declared parameter names it accepts.
type Capability struct {
	ID string
	Handler Handler
	ParamSchema []string
	DefaultCache *types.CacheTier // cache tier label; the Dispatcher does not read it or cache responses
}

// Module groups related capabilities under a module_id (e.g. "risk",
// "backtest"). A module is immutable once registered.
type Module struct {
	ID string
	Capabilities map[string]Capability
}
