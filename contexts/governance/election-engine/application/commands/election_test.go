package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ballot/contexts/governance/election-engine/adapters/memory"
	"ballot/contexts/governance/election-engine/domain/entities"
	domainerrors "ballot/contexts/governance/election-engine/domain/errors"
	"ballot/contexts/governance/election-engine/ports"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ownerHex = "0x00000000000000000000000000000000000000a1"
	candXHex = "0x00000000000000000000000000000000000000b1"
	candYHex = "0x00000000000000000000000000000000000000b2"
	voterHex = "0x00000000000000000000000000000000000000c1"

	rightsPrice = "4000000000000000000"
	tenthEther  = "100000000000000000"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestUseCase() (ElectionUseCase, *memory.Store, *fixedClock) {
	store := memory.NewStore(nil)
	clock := &fixedClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	return ElectionUseCase{
		Elections: store,
		Clock:     clock,
		IDGen:     store,
		Logger:    slog.Default(),
	}, store, clock
}

func createTestElection(t *testing.T, uc ElectionUseCase) string {
	t.Helper()
	created, err := uc.CreateElection(context.Background(), CreateElectionCommand{
		Caller:      ownerHex,
		Title:       "Presidential Election",
		Description: "Election for the next president",
	})
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	return created.Election.ElectionID
}

func TestCreateElectionReplayAndConflict(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()
	cmd := CreateElectionCommand{
		Caller:         ownerHex,
		IdempotencyKey: "idem-create-1",
		Title:          "Presidential Election",
		Description:    "Election for the next president",
	}

	first, err := uc.CreateElection(ctx, cmd)
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if first.Replayed {
		t.Fatalf("first create must not be a replay")
	}
	if first.Election.Authority != common.HexToAddress(ownerHex) {
		t.Fatalf("expected creator to become authority, got %s", first.Election.Authority.Hex())
	}

	second, err := uc.CreateElection(ctx, cmd)
	if err != nil {
		t.Fatalf("replay create failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed create")
	}
	if second.Election.ElectionID != first.Election.ElectionID {
		t.Fatalf("expected same election id, got %s and %s", first.Election.ElectionID, second.Election.ElectionID)
	}

	cmd.Title = "Another Election"
	if _, err := uc.CreateElection(ctx, cmd); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestCreateElectionValidation(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()

	if _, err := uc.CreateElection(ctx, CreateElectionCommand{Caller: "not-an-address", Title: "x"}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for malformed caller, got %v", err)
	}
	if _, err := uc.CreateElection(ctx, CreateElectionCommand{Caller: entities.ZeroAddress.Hex(), Title: "x"}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero caller, got %v", err)
	}
	longDescription := "this description is far too long to fit in thirty two bytes"
	if _, err := uc.CreateElection(ctx, CreateElectionCommand{Caller: ownerHex, Title: "x", Description: longDescription}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for long description, got %v", err)
	}
}

func TestElectionFlowWritesOutboxInOrder(t *testing.T) {
	uc, store, clock := newTestUseCase()
	ctx := context.Background()
	electionID := createTestElection(t, uc)

	for _, candidate := range []struct{ name, address string }{
		{"Candidate X", candXHex},
		{"Candidate Y", candYHex},
	} {
		if _, err := uc.RegisterCandidate(ctx, RegisterCandidateCommand{
			ElectionID: electionID,
			Caller:     ownerHex,
			Name:       candidate.name,
			Address:    candidate.address,
		}); err != nil {
			t.Fatalf("register %s failed: %v", candidate.name, err)
		}
	}
	bought, err := uc.BuyVotingRight(ctx, BuyVotingRightCommand{
		ElectionID: electionID,
		Caller:     voterHex,
		Value:      rightsPrice,
	})
	if err != nil {
		t.Fatalf("buy voting right failed: %v", err)
	}
	if bought.Voter != common.HexToAddress(voterHex) || !bought.HasRights {
		t.Fatalf("expected caller to hold rights, got %+v", bought)
	}
	if _, err := uc.StartVoting(ctx, StartVotingCommand{ElectionID: electionID, Caller: ownerHex}); err != nil {
		t.Fatalf("start voting failed: %v", err)
	}
	vote, err := uc.CastVote(ctx, CastVoteCommand{
		ElectionID: electionID,
		Caller:     voterHex,
		Candidate:  candYHex,
		Value:      tenthEther,
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if vote.VoterTotalVotes != 1 {
		t.Fatalf("expected voter total 1, got %d", vote.VoterTotalVotes)
	}

	clock.Advance(entities.MinimumVotingDuration)
	ended, err := uc.EndVoting(ctx, EndVotingCommand{ElectionID: electionID, Caller: ownerHex})
	if err != nil {
		t.Fatalf("end voting failed: %v", err)
	}
	if ended.Winner.Address != common.HexToAddress(candYHex) || ended.Winner.Votes != 1 {
		t.Fatalf("unexpected winner %+v", ended.Winner)
	}

	pending, err := store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	want := []entities.EventType{
		entities.EventElectionCreated,
		entities.EventCandidateRegistered,
		entities.EventCandidateRegistered,
		entities.EventRightsGranted,
		entities.EventVotingStarted,
		entities.EventVoteCast,
		entities.EventVotingEnded,
		entities.EventWinnerDeclared,
	}
	if len(pending) != len(want) {
		t.Fatalf("expected %d outbox rows, got %d", len(want), len(pending))
	}
	for i, row := range pending {
		if row.EventType != string(want[i]) {
			t.Fatalf("outbox row %d: expected %s, got %s", i, want[i], row.EventType)
		}
		if row.PartitionKey != electionID {
			t.Fatalf("outbox row %d: expected partition key %s, got %s", i, electionID, row.PartitionKey)
		}
	}

	var envelope ports.EventEnvelope
	if err := json.Unmarshal(pending[5].Payload, &envelope); err != nil {
		t.Fatalf("decode vote envelope failed: %v", err)
	}
	if envelope.SourceService != sourceService || envelope.PartitionKeyPath != "election_id" {
		t.Fatalf("unexpected envelope metadata %+v", envelope)
	}
	var data map[string]any
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode vote data failed: %v", err)
	}
	if data["election_id"] != electionID || data["candidate"] != common.HexToAddress(candYHex).Hex() {
		t.Fatalf("unexpected vote data %v", data)
	}
}

func TestReplayedVoteIsNotChargedTwice(t *testing.T) {
	uc, store, _ := newTestUseCase()
	ctx := context.Background()
	electionID := createTestElection(t, uc)

	if _, err := uc.RegisterCandidate(ctx, RegisterCandidateCommand{
		ElectionID: electionID, Caller: ownerHex, Name: "Candidate X", Address: candXHex,
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := uc.BuyVotingRight(ctx, BuyVotingRightCommand{
		ElectionID: electionID, Caller: voterHex, Value: rightsPrice, IdempotencyKey: "idem-buy-1",
	}); err != nil {
		t.Fatalf("buy voting right failed: %v", err)
	}
	replayedBuy, err := uc.BuyVotingRight(ctx, BuyVotingRightCommand{
		ElectionID: electionID, Caller: voterHex, Value: rightsPrice, IdempotencyKey: "idem-buy-1",
	})
	if err != nil {
		t.Fatalf("replay buy failed: %v", err)
	}
	if !replayedBuy.Replayed || !replayedBuy.HasRights {
		t.Fatalf("expected replayed buy with rights, got %+v", replayedBuy)
	}
	if _, err := uc.StartVoting(ctx, StartVotingCommand{ElectionID: electionID, Caller: ownerHex}); err != nil {
		t.Fatalf("start voting failed: %v", err)
	}

	cmd := CastVoteCommand{
		ElectionID:     electionID,
		Caller:         voterHex,
		IdempotencyKey: "idem-vote-1",
		Candidate:      candXHex,
		Value:          tenthEther,
	}
	if _, err := uc.CastVote(ctx, cmd); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	replayed, err := uc.CastVote(ctx, cmd)
	if err != nil {
		t.Fatalf("replay vote failed: %v", err)
	}
	if !replayed.Replayed || replayed.VoterTotalVotes != 1 {
		t.Fatalf("expected replayed vote with total 1, got %+v", replayed)
	}

	election, err := store.GetElection(ctx, electionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if election.TotalVotes != 1 {
		t.Fatalf("expected a single counted vote, got %d", election.TotalVotes)
	}
	if election.Balance.String() != "4100000000000000000" {
		t.Fatalf("expected balance of one right and one fee, got %s", election.Balance)
	}
	if len(election.Voters) != 1 {
		t.Fatalf("expected replayed buy to leave one holder entry, got %d", len(election.Voters))
	}

	cmd.Candidate = candYHex
	if _, err := uc.CastVote(ctx, cmd); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict for changed vote, got %v", err)
	}
}

func TestRejectedCommandLeavesNoTrace(t *testing.T) {
	uc, store, _ := newTestUseCase()
	ctx := context.Background()
	electionID := createTestElection(t, uc)

	if _, err := uc.RegisterCandidate(ctx, RegisterCandidateCommand{
		ElectionID: electionID, Caller: ownerHex, Name: "Candidate X", Address: candXHex,
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	before, err := store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}

	_, err = uc.CastVote(ctx, CastVoteCommand{
		ElectionID:     electionID,
		Caller:         voterHex,
		IdempotencyKey: "idem-early-vote",
		Candidate:      candXHex,
		Value:          tenthEther,
	})
	if !errors.Is(err, domainerrors.ErrPhaseViolation) {
		t.Fatalf("expected phase violation, got %v", err)
	}
	if _, err := uc.RegisterCandidate(ctx, RegisterCandidateCommand{
		ElectionID: electionID, Caller: voterHex, Name: "Intruder", Address: candYHex,
	}); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := uc.BuyVotingRight(ctx, BuyVotingRightCommand{
		ElectionID: electionID, Caller: voterHex, Value: tenthEther,
	}); !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	after, err := store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected rejected commands to append nothing, got %d new rows", len(after)-len(before))
	}
	election, err := store.GetElection(ctx, electionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if len(election.Candidates) != 1 || election.Balance.Sign() != 0 {
		t.Fatalf("expected untouched election, got %d candidates and balance %s", len(election.Candidates), election.Balance)
	}

	// The rejected vote stored no record, so its key is still free.
	reused, err := uc.RegisterCandidate(ctx, RegisterCandidateCommand{
		ElectionID: electionID, Caller: ownerHex, IdempotencyKey: "idem-early-vote", Name: "Candidate Y", Address: candYHex,
	})
	if err != nil {
		t.Fatalf("expected unclaimed key to be usable, got %v", err)
	}
	if reused.Replayed {
		t.Fatalf("expected a fresh registration, got a replay")
	}
}

var errOutboxUnavailable = errors.New("outbox unavailable")

// failingOutboxRepository rejects the next commit that carries outbox rows, the
// way a failed outbox insert aborts the surrounding transaction.
type failingOutboxRepository struct {
	ports.ElectionRepository
	failNext bool
}

func (r *failingOutboxRepository) UpdateElection(
	ctx context.Context,
	electionID string,
	claim ports.IdempotencyClaim,
	mutate func(*entities.Election, *ports.IdempotencyRecord) (ports.ElectionCommit, error),
) (entities.Election, error) {
	return r.ElectionRepository.UpdateElection(ctx, electionID, claim,
		func(election *entities.Election, record *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			commit, err := mutate(election, record)
			if err == nil && r.failNext && len(commit.Outbox) > 0 {
				r.failNext = false
				return ports.ElectionCommit{}, errOutboxUnavailable
			}
			return commit, err
		},
	)
}

// openElectionWithVoter returns an open election with one candidate (X) and
// voterHex holding rights.
func openElectionWithVoter(t *testing.T, uc ElectionUseCase) string {
	t.Helper()
	ctx := context.Background()
	electionID := createTestElection(t, uc)
	if _, err := uc.RegisterCandidate(ctx, RegisterCandidateCommand{
		ElectionID: electionID, Caller: ownerHex, Name: "Candidate X", Address: candXHex,
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := uc.BuyVotingRight(ctx, BuyVotingRightCommand{
		ElectionID: electionID, Caller: voterHex, Value: rightsPrice,
	}); err != nil {
		t.Fatalf("buy voting right failed: %v", err)
	}
	if _, err := uc.StartVoting(ctx, StartVotingCommand{ElectionID: electionID, Caller: ownerHex}); err != nil {
		t.Fatalf("start voting failed: %v", err)
	}
	return electionID
}

func TestFailedOutboxWriteLeavesNoTraceAndRetryCountsOnce(t *testing.T) {
	uc, store, _ := newTestUseCase()
	ctx := context.Background()
	electionID := openElectionWithVoter(t, uc)
	repo := &failingOutboxRepository{ElectionRepository: store}
	uc.Elections = repo

	outboxBefore, err := store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	cmd := CastVoteCommand{
		ElectionID:     electionID,
		Caller:         voterHex,
		IdempotencyKey: "k1",
		Candidate:      candXHex,
		Value:          tenthEther,
	}

	repo.failNext = true
	if _, err := uc.CastVote(ctx, cmd); !errors.Is(err, errOutboxUnavailable) {
		t.Fatalf("expected outbox failure to surface, got %v", err)
	}
	stored, err := store.GetElection(ctx, electionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if stored.TotalVotes != 0 || stored.VotesCastBy(common.HexToAddress(voterHex)) != 0 {
		t.Fatalf("expected no counted vote after failed commit, got total %d", stored.TotalVotes)
	}
	if stored.Balance.String() != rightsPrice {
		t.Fatalf("expected balance to stay at the rights payment, got %s", stored.Balance)
	}
	outboxAfterFailure, err := store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(outboxAfterFailure) != len(outboxBefore) {
		t.Fatalf("expected no outbox rows from the failed commit, got %d new", len(outboxAfterFailure)-len(outboxBefore))
	}

	retry, err := uc.CastVote(ctx, cmd)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retry.Replayed || retry.VoterTotalVotes != 1 {
		t.Fatalf("expected retry to apply the vote once, got %+v", retry)
	}
	again, err := uc.CastVote(ctx, cmd)
	if err != nil {
		t.Fatalf("second retry failed: %v", err)
	}
	if !again.Replayed || again.VoterTotalVotes != 1 {
		t.Fatalf("expected stored response on second retry, got %+v", again)
	}

	stored, err = store.GetElection(ctx, electionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if stored.TotalVotes != 1 || stored.Balance.String() != "4100000000000000000" {
		t.Fatalf("expected one vote and one fee, got total %d balance %s", stored.TotalVotes, stored.Balance)
	}
	outboxAfter, err := store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(outboxAfter) != len(outboxBefore)+1 {
		t.Fatalf("expected exactly one vote_cast row, got %d new", len(outboxAfter)-len(outboxBefore))
	}
}

func TestConcurrentSameKeyVoteIsAppliedOnce(t *testing.T) {
	uc, store, _ := newTestUseCase()
	ctx := context.Background()
	electionID := openElectionWithVoter(t, uc)
	cmd := CastVoteCommand{
		ElectionID:     electionID,
		Caller:         voterHex,
		IdempotencyKey: "same-key",
		Candidate:      candXHex,
		Value:          tenthEther,
	}

	const callers = 8
	results := make([]CastVoteResult, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = uc.CastVote(ctx, cmd)
		}(i)
	}
	close(start)
	wg.Wait()

	applied := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i].VoterTotalVotes != 1 {
			t.Fatalf("caller %d: expected voter total 1, got %d", i, results[i].VoterTotalVotes)
		}
		if !results[i].Replayed {
			applied++
		}
	}
	if applied != 1 {
		t.Fatalf("expected exactly one applied request, got %d", applied)
	}
	election, err := store.GetElection(ctx, electionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if election.TotalVotes != 1 || election.Balance.String() != "4100000000000000000" {
		t.Fatalf("expected one vote and one fee, got total %d balance %s", election.TotalVotes, election.Balance)
	}
}

func TestCommandsOnUnknownElection(t *testing.T) {
	uc, _, _ := newTestUseCase()
	_, err := uc.StartVoting(context.Background(), StartVotingCommand{ElectionID: "missing", Caller: ownerHex})
	if !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected election not found, got %v", err)
	}
	_, err = uc.StartVoting(context.Background(), StartVotingCommand{ElectionID: "  ", Caller: ownerHex})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank id, got %v", err)
	}
}

func TestHashRequestIsOrderIndependent(t *testing.T) {
	a := hashRequest(map[string]any{"operation": "vote_cast", "candidate": candXHex, "value": "1"})
	b := hashRequest(map[string]any{"value": "1", "candidate": candXHex, "operation": "vote_cast"})
	if a != b {
		t.Fatalf("expected equal hashes, got %s and %s", a, b)
	}
	if a == hashRequest(map[string]any{"operation": "vote_cast", "candidate": candYHex, "value": "1"}) {
		t.Fatalf("expected different hashes for different candidates")
	}
}
