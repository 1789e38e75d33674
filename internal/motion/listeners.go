package motion

// Listeners is an ordered callback set that tolerates subscribe and
// unsubscribe from inside a notification.
type Listeners[T any] struct {
	entries []*listener[T]
	source  string
}

type listener[T any] struct {
	fn     func(T)
	active bool
}

// NewListeners creates a set whose recovered panics are logged under source.
func NewListeners[T any](source string) *Listeners[T] {
	return &Listeners[T]{source: source}
}

// Add appends fn and returns an idempotent unsubscribe func.
func (l *Listeners[T]) Add(fn func(T)) func() {
	e := &listener[T]{fn: fn, active: true}
	l.entries = append(l.entries, e)
	return func() {
		if !e.active {
			return
		}
		e.active = false
		for i, other := range l.entries {
			if other == e {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				break
			}
		}
	}
}

// Emit calls every listener registered before the call, in order. A
// listener removed by an earlier one in the same Emit is skipped.
func (l *Listeners[T]) Emit(v T) {
	if len(l.entries) == 0 {
		return
	}
	snapshot := make([]*listener[T], len(l.entries))
	copy(snapshot, l.entries)
	for _, e := range snapshot {
		if !e.active {
			continue
		}
		Safe(l.source, func() { e.fn(v) })
	}
}

func (l *Listeners[T]) Len() int {
	return len(l.entries)
}

// Clear deactivates every listener, including ones in a snapshot currently
// being emitted.
func (l *Listeners[T]) Clear() {
	for _, e := range l.entries {
		e.active = false
	}
	l.entries = nil
}
