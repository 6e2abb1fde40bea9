package bus

import "context"

// EntityChanged is the invalidation signal lifecycle operations emit after a
// successful mutation. The presentation layer subscribes to it however it
// likes; this core only publishes.
type EntityChanged struct {
	Type   string `json:"type"`   // "chatbot" | "persona" | "chat" | "user"
	ID     string `json:"id"`
	Action string `json:"action"` // "created" | "updated" | "deleted"
}

type Bus interface {
	Publish(ctx context.Context, event EntityChanged) error
	Close() error
}

// NoopBus is wired when no Redis address is configured. Mutations still
// succeed; there is just nobody listening.
type NoopBus struct{}

func (NoopBus) Publish(ctx context.Context, event EntityChanged) error { return nil }
func (NoopBus) Close() error                                           { return nil }
