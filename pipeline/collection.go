package pipeline

// Collection is a lazy, single-pass sequence of pipeline items.
// Values are produced on demand, so a Collection can represent a streaming
// source without materializing it. Once drained it yields nothing more;
// use Materialize to force it into a concrete slice.
type Collection struct {
	next func() (any, bool)
}

// FromSlice creates a Collection over the given items.
func FromSlice[T any](items []T) *Collection {
	index := 0
	return &Collection{
		next: func() (any, bool) {
			if index >= len(items) {
				return nil, false
			}
			val := items[index]
			index++
			return val, true
		},
	}
}

// FromFunc creates a Collection from a pull function. The function must
// return (nil, false) once exhausted and keep returning that afterwards.
func FromFunc(next func() (any, bool)) *Collection {
	return &Collection{next: next}
}

// Next pulls the next item. Returns false when the collection is exhausted.
func (c *Collection) Next() (any, bool) {
	return c.next()
}

// Materialize drains the collection into a concrete slice.
// The returned slice is never nil, so an empty collection stays
// distinguishable from an absent one.
func (c *Collection) Materialize() []any {
	items := make([]any, 0)
	for {
		val, ok := c.next()
		if !ok {
			return items
		}
		items = append(items, val)
	}
}
