package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "ballot/contexts/governance/election-engine/application"
	"ballot/contexts/governance/election-engine/domain/entities"
	domainerrors "ballot/contexts/governance/election-engine/domain/errors"
	"ballot/contexts/governance/election-engine/ports"

	"github.com/ethereum/go-ethereum/common"
)

type CreateElectionCommand struct {
	Caller         string
	IdempotencyKey string
	Title          string
	Description    string
}

type CreateElectionResult struct {
	Election entities.Election
	Replayed bool
}

type RegisterCandidateCommand struct {
	ElectionID     string
	Caller         string
	IdempotencyKey string
	Name           string
	Address        string
	Extra          uint64
}

type RegisterCandidateResult struct {
	ElectionID string
	Candidate  entities.Candidate
	Replayed   bool
}

// BuyVotingRightCommand carries the attached payment in wei as a decimal or
// 0x-prefixed string.
type BuyVotingRightCommand struct {
	ElectionID     string
	Caller         string
	IdempotencyKey string
	Voter          string
	Value          string
}

type BuyVotingRightResult struct {
	ElectionID string
	Voter      common.Address
	HasRights  bool
	Replayed   bool
}

type StartVotingCommand struct {
	ElectionID     string
	Caller         string
	IdempotencyKey string
}

type StartVotingResult struct {
	ElectionID string
	Phase      entities.Phase
	StartedAt  time.Time
	Replayed   bool
}

type CastVoteCommand struct {
	ElectionID     string
	Caller         string
	IdempotencyKey string
	Candidate      string
	Value          string
}

type CastVoteResult struct {
	ElectionID      string
	Voter           common.Address
	Candidate       common.Address
	VoterTotalVotes uint64
	Replayed        bool
}

type EndVotingCommand struct {
	ElectionID     string
	Caller         string
	IdempotencyKey string
}

type EndVotingResult struct {
	ElectionID string
	Winner     entities.Winner
	Replayed   bool
}

// ElectionUseCase runs every state-changing election operation. Each command
// is applied through ElectionRepository.UpdateElection so concurrent callers
// are serialized per election. The outbox rows for the recorded events and the
// idempotency record are committed in the same unit as the state change, and
// the key is checked inside that unit, so a retried or concurrent request with
// the same key is applied at most once.
type ElectionUseCase struct {
	Elections      ports.ElectionRepository
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type createElectionReplay struct {
	ElectionID string `json:"election_id"`
}

func (uc ElectionUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (CreateElectionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("election create processing started",
		"event", "election_create_started",
		"module", application.ModuleName,
		"layer", "application",
		"caller", strings.TrimSpace(cmd.Caller),
	)
	creator, err := entities.ParseAddress(cmd.Caller)
	if err == nil && creator == entities.ZeroAddress {
		err = domainerrors.ErrInvalidInput
	}
	if err != nil {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"caller", strings.TrimSpace(cmd.Caller),
			"error", err.Error(),
		)
		return CreateElectionResult{}, err
	}
	description, err := entities.ParseDescription(cmd.Description)
	if err != nil {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"caller", creator.Hex(),
			"error", err.Error(),
		)
		return CreateElectionResult{}, err
	}

	now := uc.now()
	key := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashRequest(map[string]any{
		"operation":   "create_election",
		"caller":      creator.Hex(),
		"title":       cmd.Title,
		"description": description.Hex(),
	})
	var (
		created  *entities.Election
		replay   createElectionReplay
		replayed bool
	)
	err = uc.Elections.CreateElection(ctx, ports.IdempotencyClaim{Key: key, Now: now},
		func(record *ports.IdempotencyRecord) (*entities.Election, ports.ElectionCommit, error) {
			if record != nil {
				if err := decodeReplay(*record, requestHash, &replay); err != nil {
					return nil, ports.ElectionCommit{}, err
				}
				replayed = true
				return nil, ports.ElectionCommit{Replayed: true}, nil
			}
			electionID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return nil, ports.ElectionCommit{}, err
			}
			election, err := entities.NewElection(electionID, creator, cmd.Title, description, now)
			if err != nil {
				return nil, ports.ElectionCommit{}, err
			}
			commit, err := uc.newCommit(ctx, election.ElectionID, election.Events, key, requestHash, now,
				createElectionReplay{ElectionID: election.ElectionID},
			)
			if err != nil {
				return nil, ports.ElectionCommit{}, err
			}
			created = election
			return election, commit, nil
		},
	)
	if err != nil {
		event := "election_create_persist_failed"
		if errors.Is(err, domainerrors.ErrIdempotencyConflict) {
			event = "election_create_idempotency_failed"
		}
		logger.Error("election create failed",
			"event", event,
			"module", application.ModuleName,
			"layer", "application",
			"caller", creator.Hex(),
			"error", err.Error(),
		)
		return CreateElectionResult{}, err
	}
	if replayed {
		election, err := uc.Elections.GetElection(ctx, replay.ElectionID)
		if err != nil {
			return CreateElectionResult{}, err
		}
		logger.Info("election create replayed",
			"event", "election_create_replayed",
			"module", application.ModuleName,
			"layer", "application",
			"election_id", election.ElectionID,
		)
		return CreateElectionResult{Election: election, Replayed: true}, nil
	}

	logger.Info("election created",
		"event", "election_created",
		"module", application.ModuleName,
		"layer", "application",
		"election_id", created.ElectionID,
		"authority", creator.Hex(),
		"title", created.Title,
	)
	return CreateElectionResult{Election: *created}, nil
}

func (uc ElectionUseCase) RegisterCandidate(ctx context.Context, cmd RegisterCandidateCommand) (RegisterCandidateResult, error) {
	caller, err := entities.ParseAddress(cmd.Caller)
	if err != nil {
		return RegisterCandidateResult{}, err
	}
	address, err := entities.ParseAddress(cmd.Address)
	if err != nil {
		return RegisterCandidateResult{}, err
	}
	result, replayed, err := execute(ctx, uc, mutation[RegisterCandidateResult]{
		operation:  "candidate_register",
		electionID: cmd.ElectionID,
		caller:     caller,
		key:        cmd.IdempotencyKey,
		request: map[string]any{
			"name":    cmd.Name,
			"address": address.Hex(),
			"extra":   cmd.Extra,
		},
		apply: func(election *entities.Election, now time.Time) (RegisterCandidateResult, error) {
			candidate, err := election.RegisterCandidate(caller, cmd.Name, address, cmd.Extra, now)
			if err != nil {
				return RegisterCandidateResult{}, err
			}
			return RegisterCandidateResult{ElectionID: election.ElectionID, Candidate: candidate}, nil
		},
	})
	result.Replayed = replayed
	return result, err
}

func (uc ElectionUseCase) BuyVotingRight(ctx context.Context, cmd BuyVotingRightCommand) (BuyVotingRightResult, error) {
	caller, err := entities.ParseAddress(cmd.Caller)
	if err != nil {
		return BuyVotingRightResult{}, err
	}
	voter := caller
	if strings.TrimSpace(cmd.Voter) != "" {
		if voter, err = entities.ParseAddress(cmd.Voter); err != nil {
			return BuyVotingRightResult{}, err
		}
	}
	payment, err := entities.ParseAmount(cmd.Value)
	if err != nil {
		return BuyVotingRightResult{}, err
	}
	result, replayed, err := execute(ctx, uc, mutation[BuyVotingRightResult]{
		operation:  "rights_buy",
		electionID: cmd.ElectionID,
		caller:     caller,
		key:        cmd.IdempotencyKey,
		request: map[string]any{
			"voter": voter.Hex(),
			"value": payment.String(),
		},
		apply: func(election *entities.Election, now time.Time) (BuyVotingRightResult, error) {
			if err := election.BuyVotingRight(caller, payment, voter, now); err != nil {
				return BuyVotingRightResult{}, err
			}
			return BuyVotingRightResult{
				ElectionID: election.ElectionID,
				Voter:      voter,
				HasRights:  election.HasRights(voter),
			}, nil
		},
	})
	result.Replayed = replayed
	return result, err
}

func (uc ElectionUseCase) StartVoting(ctx context.Context, cmd StartVotingCommand) (StartVotingResult, error) {
	caller, err := entities.ParseAddress(cmd.Caller)
	if err != nil {
		return StartVotingResult{}, err
	}
	result, replayed, err := execute(ctx, uc, mutation[StartVotingResult]{
		operation:  "voting_start",
		electionID: cmd.ElectionID,
		caller:     caller,
		key:        cmd.IdempotencyKey,
		request:    map[string]any{},
		apply: func(election *entities.Election, now time.Time) (StartVotingResult, error) {
			if err := election.StartVoting(caller, now); err != nil {
				return StartVotingResult{}, err
			}
			return StartVotingResult{
				ElectionID: election.ElectionID,
				Phase:      election.Phase,
				StartedAt:  *election.VotingStartedAt,
			}, nil
		},
	})
	result.Replayed = replayed
	return result, err
}

func (uc ElectionUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	caller, err := entities.ParseAddress(cmd.Caller)
	if err != nil {
		return CastVoteResult{}, err
	}
	candidate, err := entities.ParseAddress(cmd.Candidate)
	if err != nil {
		return CastVoteResult{}, err
	}
	payment, err := entities.ParseAmount(cmd.Value)
	if err != nil {
		return CastVoteResult{}, err
	}
	result, replayed, err := execute(ctx, uc, mutation[CastVoteResult]{
		operation:  "vote_cast",
		electionID: cmd.ElectionID,
		caller:     caller,
		key:        cmd.IdempotencyKey,
		request: map[string]any{
			"candidate": candidate.Hex(),
			"value":     payment.String(),
		},
		apply: func(election *entities.Election, now time.Time) (CastVoteResult, error) {
			count, err := election.CastVote(caller, payment, candidate, now)
			if err != nil {
				return CastVoteResult{}, err
			}
			return CastVoteResult{
				ElectionID:      election.ElectionID,
				Voter:           caller,
				Candidate:       candidate,
				VoterTotalVotes: count,
			}, nil
		},
	})
	result.Replayed = replayed
	return result, err
}

func (uc ElectionUseCase) EndVoting(ctx context.Context, cmd EndVotingCommand) (EndVotingResult, error) {
	caller, err := entities.ParseAddress(cmd.Caller)
	if err != nil {
		return EndVotingResult{}, err
	}
	result, replayed, err := execute(ctx, uc, mutation[EndVotingResult]{
		operation:  "voting_end",
		electionID: cmd.ElectionID,
		caller:     caller,
		key:        cmd.IdempotencyKey,
		request:    map[string]any{},
		apply: func(election *entities.Election, now time.Time) (EndVotingResult, error) {
			winner, err := election.EndVoting(caller, now)
			if err != nil {
				return EndVotingResult{}, err
			}
			return EndVotingResult{ElectionID: election.ElectionID, Winner: winner}, nil
		},
	})
	result.Replayed = replayed
	return result, err
}

// mutation describes one state change against a stored election.
type mutation[T any] struct {
	operation  string
	electionID string
	caller     common.Address
	key        string
	request    map[string]any
	apply      func(election *entities.Election, now time.Time) (T, error)
}

func execute[T any](ctx context.Context, uc ElectionUseCase, m mutation[T]) (T, bool, error) {
	var zero T
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(m.electionID)
	logger.Info("election command processing started",
		"event", "election_"+m.operation+"_started",
		"module", application.ModuleName,
		"layer", "application",
		"election_id", electionID,
		"caller", m.caller.Hex(),
	)
	if electionID == "" {
		return zero, false, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	key := strings.TrimSpace(m.key)
	m.request["operation"] = m.operation
	m.request["election_id"] = electionID
	m.request["caller"] = m.caller.Hex()
	requestHash := hashRequest(m.request)

	var (
		value    T
		replayed bool
		emitted  int
	)
	_, err := uc.Elections.UpdateElection(ctx, electionID, ports.IdempotencyClaim{Key: key, Now: now},
		func(election *entities.Election, record *ports.IdempotencyRecord) (ports.ElectionCommit, error) {
			if record != nil {
				if err := decodeReplay(*record, requestHash, &value); err != nil {
					return ports.ElectionCommit{}, err
				}
				replayed = true
				return ports.ElectionCommit{Replayed: true}, nil
			}
			before := uint64(len(election.Events))
			result, err := m.apply(election, now)
			if err != nil {
				return ports.ElectionCommit{}, err
			}
			events := election.EventsAfter(before)
			commit, err := uc.newCommit(ctx, electionID, events, key, requestHash, now, result)
			if err != nil {
				return ports.ElectionCommit{}, err
			}
			value = result
			emitted = len(events)
			return commit, nil
		},
	)
	if err != nil {
		event := "election_" + m.operation + "_rejected"
		if errors.Is(err, domainerrors.ErrIdempotencyConflict) {
			event = "election_" + m.operation + "_idempotency_failed"
		}
		logger.Warn("election command rejected",
			"event", event,
			"module", application.ModuleName,
			"layer", "application",
			"election_id", electionID,
			"caller", m.caller.Hex(),
			"error", err.Error(),
		)
		return zero, false, err
	}
	if replayed {
		logger.Info("election command replayed",
			"event", "election_"+m.operation+"_replayed",
			"module", application.ModuleName,
			"layer", "application",
			"election_id", electionID,
		)
		return value, true, nil
	}

	logger.Info("election command applied",
		"event", "election_"+m.operation+"_applied",
		"module", application.ModuleName,
		"layer", "application",
		"election_id", electionID,
		"caller", m.caller.Hex(),
		"event_count", emitted,
	)
	return value, false, nil
}

// decodeReplay returns the stored response for an identical request and
// ErrIdempotencyConflict when the key was used for a different one.
func decodeReplay(record ports.IdempotencyRecord, requestHash string, out any) error {
	if record.RequestHash != requestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return json.Unmarshal(record.ResponsePayload, out)
}

func (uc ElectionUseCase) newRecord(
	key string,
	requestHash string,
	now time.Time,
	response any,
) (*ports.IdempotencyRecord, error) {
	if key == "" {
		return nil, nil
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return &ports.IdempotencyRecord{
		Key:             key,
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(uc.resolveIdempotencyTTL()),
	}, nil
}

func (uc ElectionUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc ElectionUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

// hashRequest relies on encoding/json sorting map keys.
func hashRequest(request map[string]any) string {
	raw, _ := json.Marshal(request)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
