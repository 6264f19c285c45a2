package event

import "github.com/egp/construction-control/internal/domain/construction"

// RegisterConstructionEvents registers every event the contract and batch
// aggregates record. The outbox relay cannot deserialize an unregistered type.
func RegisterConstructionEvents(serializer *EventSerializer) {
	serializer.Register(construction.EventTypeContractCreated, &construction.ContractCreatedEvent{})
	serializer.Register(construction.EventTypeContractStateChanged, &construction.ContractStateChangedEvent{})
	serializer.Register(construction.EventTypeContractDeleted, &construction.ContractDeletedEvent{})

	serializer.Register(construction.EventTypeBatchCreated, &construction.BatchCreatedEvent{})
	serializer.Register(construction.EventTypeBatchLineInspected, &construction.BatchLineInspectedEvent{})
	serializer.Register(construction.EventTypeBatchCompleted, &construction.BatchCompletedEvent{})
}
