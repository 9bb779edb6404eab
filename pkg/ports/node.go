package ports

import "context"

//go:generate mockgen -source=node.go -destination=mocks/mock_node.go -package=mocks

// Node is evaluated by the host once per cycle.
type Node interface {
	Evaluate(ctx context.Context) error
}

// NodeFunc adapts a function to the Node interface.
type NodeFunc func(ctx context.Context) error

// Evaluate calls f(ctx).
func (f NodeFunc) Evaluate(ctx context.Context) error {
	return f(ctx)
}
