package flowgraph

import (
	"context"

	"github.com/randalmurphal/cognigen/pkg/flowgraph/state"
)

// Counter is a single overwrite field.
type Counter struct {
	Value state.Overwrite[int]
}

func (c Counter) Merge(u Counter) Counter {
	return Counter{Value: c.Value.Merge(u.Value)}
}

// Trace mixes accumulate and overwrite fields.
type Trace struct {
	Steps  state.Accumulate[string]
	Queue  state.Overwrite[[]string]
	Cursor state.Overwrite[int]
	Label  state.Overwrite[string]
}

func (t Trace) Merge(u Trace) Trace {
	return Trace{
		Steps:  t.Steps.Merge(u.Steps),
		Queue:  t.Queue.Merge(u.Queue),
		Cursor: t.Cursor.Merge(u.Cursor),
		Label:  t.Label.Merge(u.Label),
	}
}

func increment(_ Context, s Counter) (Counter, error) {
	return Counter{Value: state.Set(s.Value.Get() + 1)}, nil
}

func passthrough[S any](_ Context, _ S) (S, error) {
	var zero S
	return zero, nil
}

// step records its name in the Steps accumulator.
func step(name string) NodeFunc[Trace] {
	return func(_ Context, _ Trace) (Trace, error) {
		return Trace{Steps: state.Append(name)}, nil
	}
}

func failing(err error) NodeFunc[Trace] {
	return func(_ Context, _ Trace) (Trace, error) {
		return Trace{Steps: state.Append("partial")}, err
	}
}

func panicking(value any) NodeFunc[Trace] {
	return func(_ Context, _ Trace) (Trace, error) {
		panic(value)
	}
}

func testCtx() Context {
	return NewContext(context.Background())
}
