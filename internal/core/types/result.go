// Package types holds the data model and the Result/Failure envelope shared by
// every component boundary in the analytics core.
package types

import "fmt"

// Kind enumerates the normalized failure categories every surface sees.
type Kind string

const (
	KindNotFound Kind = "NotFound"
	KindInvalidArgument Kind = "InvalidArgument"
	KindUpstream Kind = "Upstream"
	KindDegenerate Kind = "Degenerate"
	KindTimeout Kind = "Timeout"
	KindCancelled Kind = "Cancelled"
	KindInternal Kind = "Internal"
)

// Failure is the normalized error envelope crossing every component boundary.
type Failure struct {
	Kind Kind `json:"kind"`
	Message string `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewFailure builds a Failure, optionally attaching context fields.
func NewFailure(kind Kind, message string, context map[string]any) *Failure {
	return &Failure{Kind: kind, Message: message, Context: context}
}

// AsFailure recovers a *Failure from err, wrapping unknown errors as Internal.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	if f, ok := err.(*Failure); ok {
		return f
	}
	return &Failure{Kind: KindInternal, Message: err.Error()}
}

// Meta carries invocation bookkeeping returned alongside successful results.
type Meta struct {
	FetchedAt string `json:"fetched_at,omitempty"`
	Cached bool `json:"cached"`
	DurationMS int64 `json:"duration_ms"`
}

// Result is the uniform envelope every dispatcher invocation returns.
type Result struct {
	OK bool `json:"ok"`
	Data any `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

// Ok wraps a successful payload.
func Ok(data any, meta *Meta) Result {
	return Result{OK: true, Data: data, Meta: meta}
}

// Err wraps a failure.
func Err(f *Failure) Result {
	return Result{OK: false, Error: f}
}
