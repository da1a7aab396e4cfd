package dispatcher

import (
	"fmt"
	"time"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// Params wraps a capability's raw parameter map with coercing accessors
// so handlers don't repeat type-switch boilerplate.
// JSON-decoded params arrive as float64/string/bool/[]any/map[string]any;
// these accessors tolerate that without requiring callers to pre-convert.
type Params map[string]any

func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing required parameter %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("parameter %q: expected number, got %T", key, v)
	}
}

func (p Params) FloatOr(key string, def float64) float64 {
	v, err := p.Float(key)
	if err != nil {
		return def
	}
	return v
}

func (p Params) Int(key string) (int, error) {
	f, err := p.Float(key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func (p Params) IntOr(key string, def int) int {
	v, err := p.Int(key)
	if err != nil {
		return def
	}
	return v
}

func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q: expected string, got %T", key, v)
	}
	return s, nil
}

func (p Params) StringOr(key, def string) string {
	s, err := p.String(key)
	if err != nil {
		return def
	}
	return s
}

func (p Params) Ticker(key string) (types.Ticker, error) {
	s, err := p.String(key)
	if err != nil {
		return "", err
	}
	return types.Ticker(s), nil
}

func (p Params) StringSlice(key string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("missing required parameter %q", key)
	}
	raw, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss, nil
		}
		return nil, fmt.Errorf("parameter %q: expected array, got %T", key, v)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q: array element is not a string (%T)", key, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p Params) TickerSlice(key string) ([]types.Ticker, error) {
	ss, err := p.StringSlice(key)
	if err != nil {
		return nil, err
	}
	out := make([]types.Ticker, len(ss))
	for i, s := range ss {
		out[i] = types.Ticker(s)
	}
	return out, nil
}

func (p Params) Time(key string) (time.Time, error) {
	s, err := p.String(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parameter %q: not a recognized date/time (%v)", key, err)
		}
	}
	return t, nil
}

func (p Params) TimeOrNil(key string) *time.Time {
	t, err := p.Time(key)
	if err != nil {
		return nil
	}
	return &t
}

func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, fmt.Errorf("missing required parameter %q", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: expected bool, got %T", key, v)
	}
	return b, nil
}

func (p Params) BoolOr(key string, def bool) bool {
	b, err := p.Bool(key)
	if err != nil {
		return def
	}
	return b
}
