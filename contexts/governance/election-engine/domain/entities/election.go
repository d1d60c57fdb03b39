package entities

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	domainerrors "ballot/contexts/governance/election-engine/domain/errors"

	"github.com/ethereum/go-ethereum/common"
)

type Phase string

const (
	PhaseCreated Phase = "created"
	PhaseOpen    Phase = "open"
	PhaseEnded   Phase = "ended"
)

const (
	MaxVotesPerVoter      = 2
	MinimumVotingDuration = 24 * time.Hour
)

type Candidate struct {
	Index   int
	Name    string
	Address common.Address
	Extra   uint64
}

type Winner struct {
	Address    common.Address
	Votes      uint64
	DeclaredAt time.Time
}

// Election is the aggregate that owns one ballot: candidates, rights holders,
// tallies, phase and collected funds. Every operation checks all of its
// preconditions before touching state, so a returned error means nothing
// changed.
type Election struct {
	ElectionID      string
	Title           string
	Description     Description
	Authority       common.Address
	Phase           Phase
	Candidates      []Candidate
	Voters          []common.Address
	Rights          map[common.Address]bool
	VotesReceived   map[common.Address]uint64
	VotesCast       map[common.Address]uint64
	TotalVotes      uint64
	Balance         *big.Int
	VotingStartedAt *time.Time
	VotingEndedAt   *time.Time
	Winner          *Winner
	Events          []Event
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewElection creates an election in the created phase. The creator becomes
// the authority.
func NewElection(
	electionID string,
	creator common.Address,
	title string,
	description Description,
	now time.Time,
) (*Election, error) {
	if strings.TrimSpace(electionID) == "" {
		return nil, fmt.Errorf("%w: election id is required", domainerrors.ErrInvalidInput)
	}
	if creator == ZeroAddress {
		return nil, fmt.Errorf("%w: invalid authority address", domainerrors.ErrInvalidInput)
	}
	e := &Election{
		ElectionID:    strings.TrimSpace(electionID),
		Title:         title,
		Description:   description,
		Authority:     creator,
		Phase:         PhaseCreated,
		Rights:        make(map[common.Address]bool),
		VotesReceived: make(map[common.Address]uint64),
		VotesCast:     make(map[common.Address]uint64),
		Balance:       new(big.Int),
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	e.emit(Event{Type: EventElectionCreated, Actor: creator, Account: creator, Name: title}, now)
	return e, nil
}

func (e *Election) VotingOpen() bool {
	return e.Phase == PhaseOpen
}

func (e *Election) VotingClosed() bool {
	return !e.VotingOpen()
}

// RegisterCandidate appends a candidate. Only the open phase rejects
// registration; an ended election still accepts it.
func (e *Election) RegisterCandidate(
	caller common.Address,
	name string,
	address common.Address,
	extra uint64,
	now time.Time,
) (Candidate, error) {
	if caller != e.Authority {
		return Candidate{}, domainerrors.ErrUnauthorized
	}
	if name == "" {
		return Candidate{}, fmt.Errorf("%w: candidate name cannot be empty", domainerrors.ErrInvalidInput)
	}
	if address == ZeroAddress {
		return Candidate{}, fmt.Errorf("%w: invalid candidate address", domainerrors.ErrInvalidInput)
	}
	if e.VotingOpen() {
		return Candidate{}, fmt.Errorf("%w: voting must be closed to register candidates", domainerrors.ErrPhaseViolation)
	}

	candidate := Candidate{
		Index:   len(e.Candidates),
		Name:    name,
		Address: address,
		Extra:   extra,
	}
	e.Candidates = append(e.Candidates, candidate)
	e.emit(Event{
		Type:    EventCandidateRegistered,
		Actor:   caller,
		Account: address,
		Name:    name,
		Index:   candidate.Index,
	}, now)
	return candidate, nil
}

// BuyVotingRight grants voting rights to voter, paid for by caller. The whole
// payment is kept, and buying again appends voter to the holders sequence
// a second time.
func (e *Election) BuyVotingRight(
	caller common.Address,
	payment *big.Int,
	voter common.Address,
	now time.Time,
) error {
	paid := amountOf(payment)
	if paid.Cmp(VotingRightPrice) < 0 {
		return fmt.Errorf("%w: insufficient funds to buy voting rights", domainerrors.ErrInsufficientFunds)
	}
	if e.VotingOpen() {
		return fmt.Errorf("%w: voting is already open", domainerrors.ErrPhaseViolation)
	}

	e.Rights[voter] = true
	e.Voters = append(e.Voters, voter)
	e.Balance.Add(e.Balance, paid)
	e.emit(Event{
		Type:      EventRightsGranted,
		Actor:     caller,
		Account:   voter,
		HasRights: true,
	}, now)
	return nil
}

// StartVoting opens the voting window. It only leaves the created phase;
// there is no way back from ended.
func (e *Election) StartVoting(caller common.Address, now time.Time) error {
	if caller != e.Authority {
		return domainerrors.ErrUnauthorized
	}
	if e.Phase != PhaseCreated {
		return fmt.Errorf("%w: voting has already been started", domainerrors.ErrPhaseViolation)
	}

	startedAt := now.UTC()
	e.Phase = PhaseOpen
	e.VotingStartedAt = &startedAt
	e.emit(Event{Type: EventVotingStarted, Actor: caller}, now)
	return nil
}

// CastVote records one vote from caller for candidate and returns the caller's
// new vote count. The candidate check runs first so an unknown candidate is
// reported the same way in every phase.
func (e *Election) CastVote(
	caller common.Address,
	payment *big.Int,
	candidate common.Address,
	now time.Time,
) (uint64, error) {
	if !e.IsCandidate(candidate) {
		return 0, domainerrors.ErrUnknownCandidate
	}
	if !e.VotingOpen() {
		return 0, fmt.Errorf("%w: voting is not open", domainerrors.ErrPhaseViolation)
	}
	paid := amountOf(payment)
	if paid.Cmp(VoteFee) < 0 {
		return 0, fmt.Errorf("%w: insufficient funds to cast a vote", domainerrors.ErrInsufficientFunds)
	}
	if !e.Rights[caller] {
		return 0, domainerrors.ErrNotEligible
	}
	if e.VotesCast[caller] >= MaxVotesPerVoter {
		return 0, domainerrors.ErrVoteLimitExceeded
	}

	e.VotesReceived[candidate]++
	e.VotesCast[caller]++
	e.TotalVotes++
	e.Balance.Add(e.Balance, paid)
	cast := e.VotesCast[caller]
	e.emit(Event{
		Type:      EventVoteCast,
		Actor:     caller,
		Account:   caller,
		Candidate: candidate,
		Count:     cast,
	}, now)
	return cast, nil
}

// EndVoting closes the election once MinimumVotingDuration has elapsed since
// voting started and declares the plurality winner. Candidates are scanned
// in registration order and a later one only wins with a strictly higher
// tally, so ties go to the earliest registration. If nobody received a vote
// the winner is the zero address.
func (e *Election) EndVoting(caller common.Address, now time.Time) (Winner, error) {
	if caller != e.Authority {
		return Winner{}, domainerrors.ErrUnauthorized
	}
	if !e.VotingOpen() || e.VotingStartedAt == nil {
		return Winner{}, fmt.Errorf("%w: voting is not open", domainerrors.ErrPhaseViolation)
	}
	if now.Before(e.VotingStartedAt.Add(MinimumVotingDuration)) {
		return Winner{}, fmt.Errorf("%w: voting must stay open for at least %s", domainerrors.ErrTooEarly, MinimumVotingDuration)
	}

	endedAt := now.UTC()
	winner := Winner{DeclaredAt: endedAt}
	for _, candidate := range e.Candidates {
		if votes := e.VotesReceived[candidate.Address]; votes > winner.Votes {
			winner.Address = candidate.Address
			winner.Votes = votes
		}
	}

	e.Phase = PhaseEnded
	e.VotingEndedAt = &endedAt
	e.Winner = &winner
	e.emit(Event{Type: EventVotingEnded, Actor: caller}, now)
	e.emit(Event{
		Type:    EventWinnerDeclared,
		Actor:   caller,
		Account: winner.Address,
		Count:   winner.Votes,
	}, now)
	return winner, nil
}

func (e *Election) IsCandidate(address common.Address) bool {
	for _, candidate := range e.Candidates {
		if candidate.Address == address {
			return true
		}
	}
	return false
}

func (e *Election) CandidateAt(index int) (Candidate, bool) {
	if index < 0 || index >= len(e.Candidates) {
		return Candidate{}, false
	}
	return e.Candidates[index], true
}

func (e *Election) VoterAt(index int) (common.Address, bool) {
	if index < 0 || index >= len(e.Voters) {
		return common.Address{}, false
	}
	return e.Voters[index], true
}

func (e *Election) VotesFor(candidate common.Address) uint64 {
	return e.VotesReceived[candidate]
}

func (e *Election) VotesCastBy(voter common.Address) uint64 {
	return e.VotesCast[voter]
}

func (e *Election) HasRights(voter common.Address) bool {
	return e.Rights[voter]
}

// DeclaredWinner is only available after voting ended.
func (e *Election) DeclaredWinner() (Winner, error) {
	if e.Phase != PhaseEnded || e.Winner == nil {
		return Winner{}, domainerrors.ErrWinnerNotDeclared
	}
	return *e.Winner, nil
}

// EventsAfter returns log entries with a sequence greater than after.
func (e *Election) EventsAfter(after uint64) []Event {
	if after >= uint64(len(e.Events)) {
		return []Event{}
	}
	return append([]Event(nil), e.Events[after:]...)
}

// Clone returns a deep copy that shares no mutable state with e.
func (e *Election) Clone() *Election {
	out := *e
	out.Candidates = append([]Candidate(nil), e.Candidates...)
	out.Voters = append([]common.Address(nil), e.Voters...)
	out.Events = append([]Event(nil), e.Events...)
	out.Rights = make(map[common.Address]bool, len(e.Rights))
	for key, value := range e.Rights {
		out.Rights[key] = value
	}
	out.VotesReceived = make(map[common.Address]uint64, len(e.VotesReceived))
	for key, value := range e.VotesReceived {
		out.VotesReceived[key] = value
	}
	out.VotesCast = make(map[common.Address]uint64, len(e.VotesCast))
	for key, value := range e.VotesCast {
		out.VotesCast[key] = value
	}
	out.Balance = amountOf(e.Balance)
	if e.VotingStartedAt != nil {
		startedAt := *e.VotingStartedAt
		out.VotingStartedAt = &startedAt
	}
	if e.VotingEndedAt != nil {
		endedAt := *e.VotingEndedAt
		out.VotingEndedAt = &endedAt
	}
	if e.Winner != nil {
		winner := *e.Winner
		out.Winner = &winner
	}
	return &out
}

func (e *Election) emit(ev Event, now time.Time) {
	ev.Sequence = uint64(len(e.Events)) + 1
	ev.OccurredAt = now.UTC()
	e.Events = append(e.Events, ev)
	e.UpdatedAt = now.UTC()
}
