package question

import "context"

// Store is the durable home of the question collection.
// Implementations serialize writers; List returns records in insertion order.
type Store interface {
	List(ctx context.Context) ([]Question, error)
	Get(ctx context.Context, id string) (Question, error)
	// Insert appends q as-is; the caller has already assigned ID and CreatedAt.
	Insert(ctx context.Context, q Question) (Question, error)
	// Replace swaps the record with q.ID for q, keeping the stored CreatedAt.
	Replace(ctx context.Context, q Question) (Question, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// collection is an insertion-ordered slice with an id index.
// Mutators return a new collection and never touch the receiver,
// so a failed durable write leaves the current state intact.
type collection struct {
	items []Question
	index map[string]int
}

func newCollection(items []Question) (collection, error) {
	c := collection{items: items, index: make(map[string]int, len(items))}
	for i, q := range items {
		if _, dup := c.index[q.ID]; dup {
			return collection{}, ErrDuplicateID
		}
		c.index[q.ID] = i
	}
	return c, nil
}

func (c collection) list() []Question {
	out := make([]Question, len(c.items))
	for i, q := range c.items {
		out[i] = q.clone()
	}
	return out
}

func (c collection) get(id string) (Question, bool) {
	i, ok := c.index[id]
	if !ok {
		return Question{}, false
	}
	return c.items[i].clone(), true
}

func (c collection) insert(q Question) (collection, error) {
	if _, dup := c.index[q.ID]; dup {
		return collection{}, ErrDuplicateID
	}
	items := make([]Question, len(c.items), len(c.items)+1)
	copy(items, c.items)
	items = append(items, q.clone())

	index := make(map[string]int, len(items))
	for k, v := range c.index {
		index[k] = v
	}
	index[q.ID] = len(items) - 1
	return collection{items: items, index: index}, nil
}

func (c collection) replace(q Question) (collection, Question, error) {
	i, ok := c.index[q.ID]
	if !ok {
		return collection{}, Question{}, ErrNotFound
	}
	q.CreatedAt = c.items[i].CreatedAt

	items := make([]Question, len(c.items))
	copy(items, c.items)
	items[i] = q.clone()
	return collection{items: items, index: c.index}, q, nil
}

func (c collection) remove(id string) (collection, error) {
	i, ok := c.index[id]
	if !ok {
		return collection{}, ErrNotFound
	}
	items := make([]Question, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)

	next, err := newCollection(items)
	if err != nil {
		return collection{}, err
	}
	return next, nil
}
