package shared

import "context"

// EventHandler reacts to domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants; empty means all
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers event handlers
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is a publisher and subscriber with a lifecycle
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver writes events into the outbox inside the caller's transaction.
// txProvider is the transaction handle of the persistence layer (*gorm.DB).
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, txProvider any, events ...DomainEvent) error
}
