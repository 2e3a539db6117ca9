package review

import "context"

// Serialized lets only one caller at a time use the wrapped channel. Waiters
// are admitted roughly in arrival order and give up when their ctx ends.
type Serialized struct {
	inner Channel
	slot  chan struct{}
}

// NewSerialized wraps inner.
func NewSerialized(inner Channel) *Serialized {
	return &Serialized{inner: inner, slot: make(chan struct{}, 1)}
}

// Review waits for exclusive use of the inner channel.
func (s *Serialized) Review(ctx context.Context, req Request) (Decision, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slot }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inner.Review(ctx, req)
}
