package ports

import (
	"context"
	"time"

	"ballot/contexts/governance/election-engine/domain/entities"
	contractsv1 "ballot/contracts/gen/events/v1"
)

// ElectionRepository persists election aggregates together with the outbox
// rows and idempotency record each command produces. CreateElection and
// UpdateElection run their callback once inside a single transaction (or
// critical section): the live record for claim.Key is read there, and the
// election, the commit's outbox rows and its record are stored together only
// when the callback returns nil. A second caller holding the same key waits and
// then observes the first caller's record.
type ElectionRepository interface {
	CreateElection(
		ctx context.Context,
		claim IdempotencyClaim,
		build func(replay *IdempotencyRecord) (*entities.Election, ElectionCommit, error),
	) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context, limit int, offset int) ([]entities.Election, error)
	UpdateElection(
		ctx context.Context,
		electionID string,
		claim IdempotencyClaim,
		mutate func(election *entities.Election, replay *IdempotencyRecord) (ElectionCommit, error),
	) (entities.Election, error)
}

// IdempotencyClaim names the key whose record is loaded for the callback. An
// empty Key skips the lookup; records that expired before Now are dropped.
type IdempotencyClaim struct {
	Key string
	Now time.Time
}

// ElectionCommit is written atomically with the election. Replayed leaves the
// stored election, outbox and records exactly as they were.
type ElectionCommit struct {
	Replayed    bool
	Outbox      []EventEnvelope
	Idempotency *IdempotencyRecord
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventDedupStore reserves consumed event IDs. ReserveEvent reports true when
// the event was already processed with the same payload hash.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
