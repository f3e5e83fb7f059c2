package engine

import (
	"fmt"

	"github.com/tsflow/engine/enginetime"
	"github.com/tsflow/engine/graph"
	"github.com/tsflow/engine/timeseries"
)

// PushSource is a thread-safe ingress for external producers (spec.md
// §6): any goroutine may call Send; the engine alone drains the queue
// and applies values to output on the engine thread, preserving the
// single-writer invariant from spec.md §5.
type PushSource[T any] struct {
	queue  chan T
	output *timeseries.Output[T]
	eng    *Engine
}

// RegisterPushSource attaches a push source to output, buffered to
// capacity queueCapacity. Registering is only valid before the engine
// starts running; simulation mode rejects any Send (spec.md §4.3: "in
// simulation they are disallowed").
func RegisterPushSource[T any](eng *Engine, output *timeseries.Output[T], queueCapacity int) *PushSource[T] {
	p := &PushSource[T]{queue: make(chan T, queueCapacity), output: output, eng: eng}
	eng.pushSources = append(eng.pushSources, p)
	return p
}

// Send enqueues value for the engine to apply on its next drain pass.
// Returns ResourceError if the queue is full.
func (p *PushSource[T]) Send(value T) error {
	if p.eng.mode == ModeSimulation {
		return fmt.Errorf("engine: push sources are disallowed in simulation mode")
	}
	select {
	case p.queue <- value:
		p.eng.clk.SignalPush()
		return nil
	default:
		return NewResourceError(nil, p.eng.clk.EvaluationTime(), fmt.Errorf("push source queue full"))
	}
}

// drain applies every currently-queued value to output at now, returning
// whether anything was applied.
func (p *PushSource[T]) drain(now enginetime.Time) bool {
	drained := false
	for {
		select {
		case v := <-p.queue:
			p.output.Set(v, now)
			drained = true
		default:
			return drained
		}
	}
}

// pushDrainer lets Engine hold a heterogeneous list of push sources.
type pushDrainer interface {
	drain(now enginetime.Time) bool
}

// PullSource yields (time, value) pairs for a generator-style source
// (spec.md §4.3 / §9's "coroutine generators" note): the engine calls
// Next to advance it and schedules the node for the time it advertises.
// Next returns ok=false once the source is exhausted.
type PullSource[T any] interface {
	Next() (at enginetime.Time, value T, ok bool)
}

// RegisterPullSource wires gen as a source node in g: priming the first
// value at Start, and after every emission immediately scheduling the
// node for whatever time gen.Next advertises next.
func RegisterPullSource[T any](g *graph.Graph, output *timeseries.Output[T], gen PullSource[T]) graph.Node {
	state := &pullState[T]{gen: gen, output: output, g: g}
	return g.AddNode(func(index int) graph.Node {
		state.index = index
		return graph.NewFuncNode(index, "pull-source", state.eval, state.start, nil)
	})
}

type pullState[T any] struct {
	gen     PullSource[T]
	output  *timeseries.Output[T]
	g       *graph.Graph
	index   int
	nextAt  enginetime.Time
	nextVal T
	hasNext bool
}

func (p *pullState[T]) start() error {
	return p.advance()
}

func (p *pullState[T]) advance() error {
	at, v, ok := p.gen.Next()
	if !ok {
		p.hasNext = false
		return nil
	}
	p.nextAt, p.nextVal, p.hasNext = at, v, true
	return p.g.Schedule(p.index, at)
}

func (p *pullState[T]) eval(now enginetime.Time) error {
	if !p.hasNext {
		return nil
	}
	p.output.Set(p.nextVal, now)
	return p.advance()
}
