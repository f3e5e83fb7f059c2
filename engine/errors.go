package engine

import (
	"fmt"

	"github.com/tsflow/engine/enginetime"
)

// ErrorKind identifies which row of spec.md §7's error taxonomy a failure
// belongs to.
type ErrorKind string

const (
	KindWiring     ErrorKind = "WiringError"
	KindNodeEval   ErrorKind = "NodeEvalError"
	KindScheduling ErrorKind = "SchedulingError"
	KindBinding    ErrorKind = "BindingError"
	KindResource   ErrorKind = "ResourceError"
)

// NodePath is the sequence of nested-node indices plus the leaf node's
// name, identifying exactly where inside an arbitrarily nested graph a
// failure occurred (spec.md §7's "user-visible failure behavior").
type NodePath []string

func (p NodePath) String() string {
	s := ""
	for i, seg := range p {
		if i > 0 {
			s += "/"
		}
		s += seg
	}
	return s
}

// EngineError is the structured failure every error kind in the taxonomy
// is rendered as: kind, offending node path, engine time, and the
// original message/cause.
type EngineError struct {
	Kind ErrorKind
	Path NodePath
	Time enginetime.Time
	Msg  string
	Err  error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s (%s): %s: %v", e.Kind, e.Path, e.Time, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s at %s (%s): %s", e.Kind, e.Path, e.Time, e.Msg)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewWiringError reports a type mismatch, unresolved generic, or cycle
// found while wiring (Builder.AddEdge, CheckResolved,
// ValidateMultiplexedArgs) — raised before the engine ever starts.
func NewWiringError(path NodePath, msg string, cause error) *EngineError {
	return &EngineError{Kind: KindWiring, Path: path, Time: enginetime.MinTime, Msg: msg, Err: cause}
}

// NewNodeEvalError reports an uncaptured failure inside a node's Eval.
func NewNodeEvalError(path NodePath, at enginetime.Time, cause error) *EngineError {
	return &EngineError{Kind: KindNodeEval, Path: path, Time: at, Msg: "node evaluation failed", Err: cause}
}

// NewSchedulingError reports an attempt to schedule a time before the
// scheduler's low-water mark — always an engine bug, never user error.
func NewSchedulingError(path NodePath, at enginetime.Time, cause error) *EngineError {
	return &EngineError{Kind: KindScheduling, Path: path, Time: at, Msg: "attempted to schedule a past time", Err: cause}
}

// NewBindingError reports a runtime rebind (switch/map) to an
// incompatible output — fatal within the enclosing nested node only.
func NewBindingError(path NodePath, at enginetime.Time, msg string) *EngineError {
	return &EngineError{Kind: KindBinding, Path: path, Time: at, Msg: msg}
}

// NewResourceError reports an adaptor-side failure (push-queue overflow,
// thread-pool exhaustion) that the core surfaces but does not interpret.
func NewResourceError(path NodePath, at enginetime.Time, cause error) *EngineError {
	return &EngineError{Kind: KindResource, Path: path, Time: at, Msg: "adaptor resource failure", Err: cause}
}
