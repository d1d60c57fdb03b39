package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ballot/contexts/governance/election-engine/domain/entities"
	domainerrors "ballot/contexts/governance/election-engine/domain/errors"
	"ballot/contexts/governance/election-engine/ports"

	"github.com/ethereum/go-ethereum/common"
)

var authority = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func seedElection(t *testing.T, id string) entities.Election {
	t.Helper()
	election, err := entities.NewElection(id, authority, "Board Election", entities.Description{}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("new election failed: %v", err)
	}
	return *election
}

func registerCandidateX(candidate common.Address) func(*entities.Election, *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
	return func(election *entities.Election, _ *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
		_, err := election.RegisterCandidate(authority, "Candidate X", candidate, 0, time.Now())
		return ports.ElectionCommit{}, err
	}
}

func voteEnvelope(id string, at time.Time) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:      id,
		EventType:    "election.vote_cast",
		OccurredAt:   at,
		PartitionKey: "e-1",
	}
}

func TestUpdateElectionRollsBackOnError(t *testing.T) {
	store := NewStore([]entities.Election{seedElection(t, "election-1")})
	ctx := context.Background()
	candidate := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	_, err := store.UpdateElection(ctx, "election-1", ports.IdempotencyClaim{},
		func(election *entities.Election, _ *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			if _, err := election.RegisterCandidate(authority, "Candidate X", candidate, 0, time.Now()); err != nil {
				return ports.ElectionCommit{}, err
			}
			return ports.ElectionCommit{}, domainerrors.ErrConflict
		},
	)
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected mutate error to surface, got %v", err)
	}
	stored, err := store.GetElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if len(stored.Candidates) != 0 || len(stored.Events) != 1 {
		t.Fatalf("expected rollback, got %d candidates and %d events", len(stored.Candidates), len(stored.Events))
	}

	updated, err := store.UpdateElection(ctx, "election-1", ports.IdempotencyClaim{}, registerCandidateX(candidate))
	if err != nil {
		t.Fatalf("update election failed: %v", err)
	}
	if len(updated.Candidates) != 1 {
		t.Fatalf("expected committed candidate, got %d", len(updated.Candidates))
	}

	// Returned snapshots are detached from the stored aggregate.
	updated.Candidates[0].Name = "mutated"
	again, _ := store.GetElection(ctx, "election-1")
	if again.Candidates[0].Name != "Candidate X" {
		t.Fatalf("expected stored candidate to be unaffected, got %q", again.Candidates[0].Name)
	}
}

func TestUpdateElectionRejectedOutboxRowLeavesStoreUntouched(t *testing.T) {
	store := NewStore([]entities.Election{seedElection(t, "election-1")})
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	candidate := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	if _, err := store.UpdateElection(ctx, "election-1", ports.IdempotencyClaim{},
		func(*entities.Election, *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			return ports.ElectionCommit{Outbox: []ports.EventEnvelope{voteEnvelope("evt-1", base)}}, nil
		},
	); err != nil {
		t.Fatalf("seed outbox failed: %v", err)
	}

	claim := ports.IdempotencyClaim{Key: "idem-1", Now: base}
	_, err := store.UpdateElection(ctx, "election-1", claim,
		func(election *entities.Election, _ *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			if _, err := election.RegisterCandidate(authority, "Candidate X", candidate, 0, base); err != nil {
				return ports.ElectionCommit{}, err
			}
			clashing := voteEnvelope("evt-1", base)
			clashing.EventType = "election.voting_ended"
			return ports.ElectionCommit{
				Outbox: []ports.EventEnvelope{voteEnvelope("evt-2", base), clashing},
				Idempotency: &ports.IdempotencyRecord{
					Key:         "idem-1",
					RequestHash: "hash-a",
					ExpiresAt:   base.Add(time.Hour),
				},
			}, nil
		},
	)
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected outbox conflict, got %v", err)
	}

	stored, err := store.GetElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if len(stored.Candidates) != 0 {
		t.Fatalf("expected election unchanged, got %d candidates", len(stored.Candidates))
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected only the seeded row, got %+v", pending)
	}
	var sawRecord bool
	if _, err := store.UpdateElection(ctx, "election-1", claim,
		func(_ *entities.Election, record *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			sawRecord = record != nil
			return ports.ElectionCommit{Replayed: true}, nil
		},
	); err != nil {
		t.Fatalf("claim lookup failed: %v", err)
	}
	if sawRecord {
		t.Fatalf("expected no idempotency record from the rejected commit")
	}
}

func TestUpdateElectionHandsLiveRecordToMutate(t *testing.T) {
	store := NewStore([]entities.Election{seedElection(t, "election-1")})
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	candidate := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	claim := ports.IdempotencyClaim{Key: "idem-1", Now: now}

	if _, err := store.UpdateElection(ctx, "election-1", claim,
		func(election *entities.Election, record *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			if record != nil {
				t.Fatalf("expected no record before the first commit")
			}
			if _, err := election.RegisterCandidate(authority, "Candidate X", candidate, 0, now); err != nil {
				return ports.ElectionCommit{}, err
			}
			return ports.ElectionCommit{Idempotency: &ports.IdempotencyRecord{
				Key:             "idem-1",
				RequestHash:     "hash-a",
				ResponsePayload: []byte(`{"index":0}`),
				ExpiresAt:       now.Add(time.Hour),
			}}, nil
		},
	); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	var seen *ports.IdempotencyRecord
	replayed, err := store.UpdateElection(ctx, "election-1", claim,
		func(election *entities.Election, record *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			seen = record
			// A replay must not store this change.
			_, _ = election.RegisterCandidate(authority, "Candidate X", candidate, 0, now)
			return ports.ElectionCommit{Replayed: true}, nil
		},
	)
	if err != nil {
		t.Fatalf("replay update failed: %v", err)
	}
	if seen == nil || seen.RequestHash != "hash-a" || string(seen.ResponsePayload) != `{"index":0}` {
		t.Fatalf("expected stored record to reach mutate, got %+v", seen)
	}
	if len(replayed.Candidates) != 1 {
		t.Fatalf("expected replay to keep the stored election, got %d candidates", len(replayed.Candidates))
	}

	expired := ports.IdempotencyClaim{Key: "idem-1", Now: now.Add(2 * time.Hour)}
	if _, err := store.UpdateElection(ctx, "election-1", expired,
		func(_ *entities.Election, record *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			seen = record
			return ports.ElectionCommit{Replayed: true}, nil
		},
	); err != nil {
		t.Fatalf("expired claim failed: %v", err)
	}
	if seen != nil {
		t.Fatalf("expected expired record to be dropped, got %+v", seen)
	}
}

func createSeed(t *testing.T, store *Store, id string) error {
	t.Helper()
	election := seedElection(t, id)
	return store.CreateElection(context.Background(), ports.IdempotencyClaim{},
		func(*ports.IdempotencyRecord) (*entities.Election, ports.ElectionCommit, error) {
			return &election, ports.ElectionCommit{}, nil
		},
	)
}

func TestCreateAndListElections(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	for _, id := range []string{"e-1", "e-2", "e-3"} {
		if err := createSeed(t, store, id); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}
	if err := createSeed(t, store, "e-2"); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict on duplicate id, got %v", err)
	}
	if _, err := store.GetElection(ctx, "missing"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	page, err := store.ListElections(ctx, 2, 1)
	if err != nil {
		t.Fatalf("list elections failed: %v", err)
	}
	if len(page) != 2 || page[0].ElectionID != "e-2" || page[1].ElectionID != "e-3" {
		t.Fatalf("unexpected page %+v", page)
	}
	empty, err := store.ListElections(ctx, 10, 5)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty page, got %d items err=%v", len(empty), err)
	}
}

func TestCreateElectionRecordConflictStoresNothing(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	claim := ports.IdempotencyClaim{Key: "idem-create", Now: now}
	build := func(id string, hash string) func(*ports.IdempotencyRecord) (*entities.Election, ports.ElectionCommit, error) {
		return func(*ports.IdempotencyRecord) (*entities.Election, ports.ElectionCommit, error) {
			election := seedElection(t, id)
			return &election, ports.ElectionCommit{
				Outbox: []ports.EventEnvelope{voteEnvelope("evt-"+id, now)},
				Idempotency: &ports.IdempotencyRecord{
					Key:         "idem-create",
					RequestHash: hash,
					ExpiresAt:   now.Add(time.Hour),
				},
			}, nil
		}
	}

	if err := store.CreateElection(ctx, claim, build("e-1", "hash-a")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.CreateElection(ctx, claim, build("e-2", "hash-b")); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected record conflict, got %v", err)
	}
	if _, err := store.GetElection(ctx, "e-2"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected conflicting create to store no election, got %v", err)
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-e-1" {
		t.Fatalf("expected only the first create's row, got %+v", pending)
	}
}

func TestOutboxPendingOrderAndPublish(t *testing.T) {
	store := NewStore([]entities.Election{seedElection(t, "e-1")})
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	commit := func(envelopes ...ports.EventEnvelope) error {
		_, err := store.UpdateElection(ctx, "e-1", ports.IdempotencyClaim{},
			func(*entities.Election, *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
				return ports.ElectionCommit{Outbox: envelopes}, nil
			},
		)
		return err
	}
	if err := commit(
		voteEnvelope("evt-3", base),
		voteEnvelope("evt-1", base.Add(time.Second)),
		voteEnvelope("evt-2", base.Add(2*time.Second)),
	); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := commit(voteEnvelope("evt-1", base.Add(time.Second))); err != nil {
		t.Fatalf("expected identical re-append to be a no-op, got %v", err)
	}
	if err := commit(ports.EventEnvelope{EventID: "evt-1", EventType: "election.voting_ended"}); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected conflict for a different payload, got %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 3 || pending[0].OutboxID != "evt-3" || pending[2].OutboxID != "evt-2" {
		t.Fatalf("expected append order, got %+v", pending)
	}

	if err := store.MarkOutboxPublished(ctx, "evt-3", base.Add(time.Minute)); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	if err := store.MarkOutboxPublished(ctx, "evt-404", base); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for unknown row, got %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 1)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected evt-1 at head after publish, got %+v", pending)
	}
}

func TestReserveEventDetectsReplayAndConflict(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	processed, err := store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil || processed {
		t.Fatalf("expected first reservation, processed=%v err=%v", processed, err)
	}
	processed, err = store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil || !processed {
		t.Fatalf("expected redelivery to be reported, processed=%v err=%v", processed, err)
	}
	if _, err := store.ReserveEvent(ctx, "evt-1", "hash-b", expires); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for a different payload, got %v", err)
	}
	processed, err = store.ReserveEvent(ctx, "evt-2", "hash-a", time.Now().Add(-time.Minute))
	if err != nil || processed {
		t.Fatalf("expected fresh reservation, processed=%v err=%v", processed, err)
	}
	processed, err = store.ReserveEvent(ctx, "evt-2", "hash-a", expires)
	if err != nil || processed {
		t.Fatalf("expected expired reservation to be replaced, processed=%v err=%v", processed, err)
	}
}
