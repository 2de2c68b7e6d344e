package tx

import "context"

// Manager wraps transactional boundaries for multi-adapter operations.
// Adapters join the transaction carried by the context passed to fn.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
