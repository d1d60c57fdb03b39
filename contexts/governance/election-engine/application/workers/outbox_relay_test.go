package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"ballot/contexts/governance/election-engine/adapters/memory"
	"ballot/contexts/governance/election-engine/domain/entities"
	"ballot/contexts/governance/election-engine/ports"

	"github.com/ethereum/go-ethereum/common"
)

type recordingPublisher struct {
	topics []string
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if event.EventID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	return nil
}

// appendEvents stores a fresh election whose commit carries one vote_cast row
// per id.
func appendEvents(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	authority := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	election, err := entities.NewElection("election-1", authority, "Board Election", entities.Description{}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new election failed: %v", err)
	}
	envelopes := make([]ports.EventEnvelope, 0, len(ids))
	for i, id := range ids {
		envelopes = append(envelopes, ports.EventEnvelope{
			EventID:      id,
			EventType:    "election.vote_cast",
			OccurredAt:   time.Date(2026, 2, 1, 0, 0, i, 0, time.UTC),
			PartitionKey: "election-1",
		})
	}
	if err := store.CreateElection(context.Background(), ports.IdempotencyClaim{},
		func(*ports.IdempotencyRecord) (*entities.Election, ports.ElectionCommit, error) {
			return election, ports.ElectionCommit{Outbox: envelopes}, nil
		},
	); err != nil {
		t.Fatalf("append events failed: %v", err)
	}
}

func TestOutboxRelayPublishesEachRowOnce(t *testing.T) {
	store := memory.NewStore(nil)
	appendEvents(t, store, "evt-1", "evt-2")
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	published, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if published != 2 || len(publisher.topics) != 2 {
		t.Fatalf("expected two published events, got %d (%v)", published, publisher.topics)
	}
	if publisher.topics[0] != "election.vote_cast" {
		t.Fatalf("expected topic from event type, got %s", publisher.topics[0])
	}

	published, err = relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second relay failed: %v", err)
	}
	if published != 0 || len(publisher.topics) != 2 {
		t.Fatalf("expected nothing republished, got %d", published)
	}
}

func TestOutboxRelayStopsAtFirstFailure(t *testing.T) {
	store := memory.NewStore(nil)
	appendEvents(t, store, "evt-1", "evt-2", "evt-3")
	publisher := &recordingPublisher{failOn: "evt-2"}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}

	published, err := relay.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected publish failure")
	}
	if published != 1 {
		t.Fatalf("expected one published before failure, got %d", published)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("expected evt-2 and evt-3 to stay pending, got %+v", pending)
	}

	publisher.failOn = ""
	published, err = relay.RunOnce(context.Background())
	if err != nil || published != 2 {
		t.Fatalf("expected retry to publish the remaining rows, got %d err=%v", published, err)
	}
}

func TestOutboxRelayRunStopsOnCancel(t *testing.T) {
	store := memory.NewStore(nil)
	appendEvents(t, store, "evt-1")
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- relay.Run(ctx, 10*time.Millisecond)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("relay did not stop after cancel")
	}
	if len(publisher.topics) != 1 {
		t.Fatalf("expected exactly one publish, got %d", len(publisher.topics))
	}
}
