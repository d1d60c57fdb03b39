package electionengine

import (
	"log/slog"
	"time"

	httpadapter "ballot/contexts/governance/election-engine/adapters/http"
	"ballot/contexts/governance/election-engine/adapters/memory"
	"ballot/contexts/governance/election-engine/application/commands"
	"ballot/contexts/governance/election-engine/application/queries"
	"ballot/contexts/governance/election-engine/application/workers"
	"ballot/contexts/governance/election-engine/domain/entities"
	"ballot/contexts/governance/election-engine/ports"
)

type Module struct {
	Handler       httpadapter.Handler
	OutboxRelay   workers.OutboxRelay
	AuditConsumer workers.ElectionAuditConsumer
	Store         *memory.Store
}

// EventBus is the transport the relay publishes to and the audit consumer
// reads from.
type EventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

type Dependencies struct {
	Elections      ports.ElectionRepository
	OutboxReader   ports.OutboxRepository
	Publisher      ports.EventPublisher
	Subscriber     ports.EventSubscriber
	Dedup          ports.EventDedupStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	electionUseCase := commands.ElectionUseCase{
		Elections:      deps.Elections,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	electionQueries := queries.ElectionQueries{
		Elections: deps.Elections,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: electionUseCase,
			Queries:  electionQueries,
			Logger:   deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxReader,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		AuditConsumer: workers.ElectionAuditConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Elections:  deps.Elections,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires every storage port to one memory store. bus may be
// nil when neither the relay nor the audit consumer is run.
func NewInMemoryModule(seed []entities.Election, bus EventBus, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	var (
		publisher  ports.EventPublisher
		subscriber ports.EventSubscriber
	)
	if bus != nil {
		publisher = bus
		subscriber = bus
	}
	module := NewModule(Dependencies{
		Elections:      store,
		OutboxReader:   store,
		Publisher:      publisher,
		Subscriber:     subscriber,
		Dedup:          store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
