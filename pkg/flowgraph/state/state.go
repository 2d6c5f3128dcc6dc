// Package state provides the field types that make up workflow state.
//
// A workflow state is a plain struct whose fields are Overwrite or
// Accumulate values. Nodes return a partial update containing only the
// fields they touched; the state's Merge method folds that update into the
// running state field by field using the merge functions defined here.
package state

// Overwrite holds a value where the newest set value wins.
// The zero Overwrite is unset and leaves the prior value alone on merge.
type Overwrite[T any] struct {
	value T
	set   bool
}

// Set returns an Overwrite holding v.
func Set[T any](v T) Overwrite[T] {
	return Overwrite[T]{value: v, set: true}
}

// Get returns the held value, or the zero value when unset.
func (o Overwrite[T]) Get() T {
	return o.value
}

// IsSet reports whether a value has been assigned.
func (o Overwrite[T]) IsSet() bool {
	return o.set
}

// Or returns the held value, or fallback when unset.
func (o Overwrite[T]) Or(fallback T) T {
	if !o.set {
		return fallback
	}
	return o.value
}

// Merge returns update if it is set, otherwise o.
func (o Overwrite[T]) Merge(update Overwrite[T]) Overwrite[T] {
	if update.set {
		return update
	}
	return o
}

// Accumulate holds an ordered sequence that grows by appending updates.
type Accumulate[T any] struct {
	items []T
}

// Append returns an Accumulate holding items, for use as a partial update.
func Append[T any](items ...T) Accumulate[T] {
	if len(items) == 0 {
		return Accumulate[T]{}
	}
	cp := make([]T, len(items))
	copy(cp, items)
	return Accumulate[T]{items: cp}
}

// Items returns a copy of the accumulated sequence.
func (a Accumulate[T]) Items() []T {
	if len(a.items) == 0 {
		return nil
	}
	cp := make([]T, len(a.items))
	copy(cp, a.items)
	return cp
}

// Len returns the number of accumulated items.
func (a Accumulate[T]) Len() int {
	return len(a.items)
}

// Merge returns a new Accumulate with update's items appended after a's.
// Neither operand's backing array is shared with the result.
func (a Accumulate[T]) Merge(update Accumulate[T]) Accumulate[T] {
	if len(update.items) == 0 {
		return a
	}
	merged := make([]T, 0, len(a.items)+len(update.items))
	merged = append(merged, a.items...)
	merged = append(merged, update.items...)
	return Accumulate[T]{items: merged}
}
