package commands

import (
	"context"
	"encoding/json"
	"time"

	"ballot/contexts/governance/election-engine/domain/entities"
	"ballot/contexts/governance/election-engine/ports"
	contractsv1 "ballot/contracts/gen/events/v1"
)

const sourceService = "election-engine"

func newElectionEnvelope(
	eventID string,
	electionID string,
	event entities.Event,
) (ports.EventEnvelope, error) {
	// Partitioned by election so consumers observe each election's log in order.
	data := event.Data()
	data["election_id"] = electionID
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        string(event.Type),
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: "election_id",
		PartitionKey:     electionID,
		Data:             payload,
	}
	if err := envelope.Validate(); err != nil {
		return ports.EventEnvelope{}, err
	}
	return envelope, nil
}

// newCommit turns the recorded events into outbox envelopes and, when a key is
// present, the response record, so both are stored with the election.
func (uc ElectionUseCase) newCommit(
	ctx context.Context,
	electionID string,
	events []entities.Event,
	key string,
	requestHash string,
	now time.Time,
	response any,
) (ports.ElectionCommit, error) {
	envelopes := make([]ports.EventEnvelope, 0, len(events))
	for _, event := range events {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ports.ElectionCommit{}, err
		}
		envelope, err := newElectionEnvelope(eventID, electionID, event)
		if err != nil {
			return ports.ElectionCommit{}, err
		}
		envelopes = append(envelopes, envelope)
	}
	record, err := uc.newRecord(key, requestHash, now, response)
	if err != nil {
		return ports.ElectionCommit{}, err
	}
	return ports.ElectionCommit{Outbox: envelopes, Idempotency: record}, nil
}
