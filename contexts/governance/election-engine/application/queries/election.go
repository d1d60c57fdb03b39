package queries

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"ballot/contexts/governance/election-engine/domain/entities"
	domainerrors "ballot/contexts/governance/election-engine/domain/errors"
	"ballot/contexts/governance/election-engine/ports"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/near/borsh-go"
)

// ElectionQueries serves the read accessors. None of them require
// authorization or change state.
type ElectionQueries struct {
	Elections ports.ElectionRepository
}

type VoterStatus struct {
	ElectionID string
	Address    common.Address
	HasRights  bool
	VotesCast  uint64
}

type CandidateTally struct {
	ElectionID string
	Address    common.Address
	Registered bool
	Votes      uint64
}

type RankedCandidate struct {
	Rank      int
	Candidate entities.Candidate
	Votes     uint64
}

// Results is a point-in-time standings snapshot. InputsHash commits to the
// ranked tally so two snapshots with the same standings share a digest.
type Results struct {
	ElectionID string
	Phase      entities.Phase
	Ranking    []RankedCandidate
	Winner     *entities.Winner
	TotalVotes uint64
	Balance    *big.Int
	InputsHash string
}

func (q ElectionQueries) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	return q.Elections.GetElection(ctx, strings.TrimSpace(electionID))
}

func (q ElectionQueries) ListElections(ctx context.Context, limit int, offset int) ([]entities.Election, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return q.Elections.ListElections(ctx, limit, offset)
}

func (q ElectionQueries) Candidates(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return append([]entities.Candidate{}, election.Candidates...), nil
}

func (q ElectionQueries) CandidateAt(ctx context.Context, electionID string, index int) (entities.Candidate, error) {
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return entities.Candidate{}, err
	}
	candidate, ok := election.CandidateAt(index)
	if !ok {
		return entities.Candidate{}, fmt.Errorf("%w: candidate %d", domainerrors.ErrIndexOutOfRange, index)
	}
	return candidate, nil
}

func (q ElectionQueries) VoterAt(ctx context.Context, electionID string, index int) (common.Address, error) {
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return common.Address{}, err
	}
	voter, ok := election.VoterAt(index)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: voter %d", domainerrors.ErrIndexOutOfRange, index)
	}
	return voter, nil
}

func (q ElectionQueries) VoterStatus(ctx context.Context, electionID string, voter string) (VoterStatus, error) {
	address, err := entities.ParseAddress(voter)
	if err != nil {
		return VoterStatus{}, err
	}
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return VoterStatus{}, err
	}
	return VoterStatus{
		ElectionID: election.ElectionID,
		Address:    address,
		HasRights:  election.HasRights(address),
		VotesCast:  election.VotesCastBy(address),
	}, nil
}

func (q ElectionQueries) Tally(ctx context.Context, electionID string, candidate string) (CandidateTally, error) {
	address, err := entities.ParseAddress(candidate)
	if err != nil {
		return CandidateTally{}, err
	}
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return CandidateTally{}, err
	}
	return CandidateTally{
		ElectionID: election.ElectionID,
		Address:    address,
		Registered: election.IsCandidate(address),
		Votes:      election.VotesFor(address),
	}, nil
}

func (q ElectionQueries) Winner(ctx context.Context, electionID string) (entities.Winner, error) {
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return entities.Winner{}, err
	}
	return election.DeclaredWinner()
}

func (q ElectionQueries) Events(ctx context.Context, electionID string, after uint64) ([]entities.Event, error) {
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return election.EventsAfter(after), nil
}

func (q ElectionQueries) Results(ctx context.Context, electionID string) (Results, error) {
	election, err := q.GetElection(ctx, electionID)
	if err != nil {
		return Results{}, err
	}
	ranking := rankCandidates(election)
	digest, err := inputsHash(election, ranking)
	if err != nil {
		return Results{}, err
	}
	results := Results{
		ElectionID: election.ElectionID,
		Phase:      election.Phase,
		Ranking:    ranking,
		TotalVotes: election.TotalVotes,
		Balance:    new(big.Int).Set(election.Balance),
		InputsHash: digest,
	}
	if winner, err := election.DeclaredWinner(); err == nil {
		results.Winner = &winner
	}
	return results, nil
}

// rankCandidates orders by tally, highest first, breaking ties by
// registration order.
func rankCandidates(election entities.Election) []RankedCandidate {
	ranking := make([]RankedCandidate, 0, len(election.Candidates))
	for _, candidate := range election.Candidates {
		ranking = append(ranking, RankedCandidate{
			Candidate: candidate,
			Votes:     election.VotesFor(candidate.Address),
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Votes == ranking[j].Votes {
			return ranking[i].Candidate.Index < ranking[j].Candidate.Index
		}
		return ranking[i].Votes > ranking[j].Votes
	})
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking
}

type tallyRow struct {
	Index   uint32
	Address string
	Name    string
	Votes   uint64
}

type tallySnapshot struct {
	ElectionID string
	Phase      string
	TotalVotes uint64
	Rows       []tallyRow
}

func inputsHash(election entities.Election, ranking []RankedCandidate) (string, error) {
	snapshot := tallySnapshot{
		ElectionID: election.ElectionID,
		Phase:      string(election.Phase),
		TotalVotes: election.TotalVotes,
		Rows:       make([]tallyRow, 0, len(ranking)),
	}
	for _, item := range ranking {
		snapshot.Rows = append(snapshot.Rows, tallyRow{
			Index:   uint32(item.Candidate.Index),
			Address: item.Candidate.Address.Hex(),
			Name:    item.Candidate.Name,
			Votes:   item.Votes,
		})
	}
	encoded, err := borsh.Serialize(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode tally snapshot: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hexutil.Encode(sum[:]), nil
}
