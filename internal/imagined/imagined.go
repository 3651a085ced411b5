// Package imagined models a collection's post-mutation state: the engine's
// projection of what the device will look like once all prior actions in
// this run have taken effect.
package imagined

import (
	"fmt"

	"github.com/edirooss/mtsync/internal/idcodec"
	"github.com/edirooss/mtsync/internal/model"
)

// List is a mutable ordered sequence of items. It is always well-formed:
// every item carries model.IDKey, and at any moment the set of ids is a
// compact range [1, n] reflecting what the device's id layout will be
// after every action applied so far actually lands.
type List struct {
	codec *idcodec.Codec
	state []model.Item
}

// New builds a List seeded from the device's current items for one
// collection. The snapshot is copied; New does not mutate initial.
func New(codec *idcodec.Codec, initial []model.Item) *List {
	state := make([]model.Item, len(initial))
	for i, it := range initial {
		state[i] = it.Clone()
	}
	return &List{codec: codec, state: state}
}

// State returns the current projected items, in order. Callers must not
// mutate the returned items.
func (l *List) State() []model.Item {
	return l.state
}

func (l *List) maxID() int {
	max := 0
	for _, it := range l.state {
		id := l.codec.MustToInt(it[model.IDKey])
		if id > max {
			max = id
		}
	}
	return max
}

func (l *List) indexOf(id string) int {
	for i, it := range l.state {
		if it[model.IDKey] == id {
			return i
		}
	}
	return -1
}

// Update replaces the item carrying id with newState, preserving the
// original id. No reordering happens.
func (l *List) Update(id string, newState model.Item) {
	i := l.indexOf(id)
	if i < 0 {
		return
	}
	l.state[i] = newState.WithID(l.state[i][model.IDKey])
}

// Append adds item to the end of the list, assigning it the next compact
// id (current max + 1, or 1 if the list is empty).
func (l *List) Append(item model.Item) {
	id := l.codec.ToString(l.maxID() + 1)
	l.state = append(l.state, item.WithID(id))
}

// Delete removes the item carrying id, then slides every item whose
// numeric id was strictly greater down by one, keeping the id space
// compact.
func (l *List) Delete(id string) {
	i := l.indexOf(id)
	if i < 0 {
		return
	}
	removedNum := l.codec.MustToInt(id)
	l.state = append(l.state[:i], l.state[i+1:]...)
	for j, it := range l.state {
		n := l.codec.MustToInt(it[model.IDKey])
		if n > removedNum {
			l.state[j] = it.WithID(l.codec.ToString(n - 1))
		}
	}
}

// InvariantViolationError reports that Move could not locate its source or
// destination id. It is fatal: it indicates a bug in the caller's
// bookkeeping of the imagined state, not a transient condition.
type InvariantViolationError struct {
	Source, Destination string
	SourceFound, DestFound bool
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf(
		"imagined: unable to find source id %q (found=%v) or destination id %q (found=%v)",
		e.Source, e.SourceFound, e.Destination, e.DestFound,
	)
}

// Move relocates the item carrying source to just before the item
// currently carrying destination (source must have a strictly greater
// numeric id than destination — "moving up" in position, "down" in
// number). Every item whose numeric id lies in [destination, source)
// is incremented by one; the moved item is reinserted at destination's
// former position and assigned id destination.
func (l *List) Move(source, destination string) error {
	srcIdx := l.indexOf(source)
	dstIdx := l.indexOf(destination)
	if srcIdx < 0 || dstIdx < 0 {
		return &InvariantViolationError{
			Source: source, Destination: destination,
			SourceFound: srcIdx >= 0, DestFound: dstIdx >= 0,
		}
	}

	srcNum := l.codec.MustToInt(source)
	dstNum := l.codec.MustToInt(destination)

	for i, it := range l.state {
		n := l.codec.MustToInt(it[model.IDKey])
		if n >= dstNum && n < srcNum {
			l.state[i] = it.WithID(l.codec.ToString(n + 1))
		}
	}

	// Re-resolve indices: the renumbering above does not move any item in
	// the slice, only its id label, so srcIdx/dstIdx are still valid.
	moved := l.state[srcIdx].WithID(l.codec.ToString(dstNum))

	rest := make([]model.Item, 0, len(l.state)-1)
	rest = append(rest, l.state[:srcIdx]...)
	rest = append(rest, l.state[srcIdx+1:]...)

	// dstIdx was computed before removal; if srcIdx < dstIdx that index
	// shifts down by one once the source element is removed.
	insertAt := dstIdx
	if srcIdx < dstIdx {
		insertAt--
	}

	out := make([]model.Item, 0, len(rest)+1)
	out = append(out, rest[:insertAt]...)
	out = append(out, moved)
	out = append(out, rest[insertAt:]...)
	l.state = out

	return nil
}
