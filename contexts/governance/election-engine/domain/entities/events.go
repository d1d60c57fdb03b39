package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventElectionCreated     EventType = "election.created"
	EventCandidateRegistered EventType = "election.candidate_registered"
	EventRightsGranted       EventType = "election.rights_granted"
	EventVotingStarted       EventType = "election.voting_started"
	EventVoteCast            EventType = "election.vote_cast"
	EventVotingEnded         EventType = "election.voting_ended"
	EventWinnerDeclared      EventType = "election.winner_declared"
)

// Event is one entry of the election's append-only log. Type selects which of
// the payload fields are meaningful; see Data.
type Event struct {
	Sequence   uint64
	Type       EventType
	Actor      common.Address
	Account    common.Address
	Candidate  common.Address
	Name       string
	Index      int
	Count      uint64
	HasRights  bool
	OccurredAt time.Time
}

// Data flattens the variant into the fields its type carries.
func (ev Event) Data() map[string]any {
	data := map[string]any{
		"sequence": ev.Sequence,
		"actor":    ev.Actor.Hex(),
	}
	switch ev.Type {
	case EventElectionCreated:
		data["authority"] = ev.Account.Hex()
		data["title"] = ev.Name
	case EventCandidateRegistered:
		data["candidate"] = ev.Account.Hex()
		data["name"] = ev.Name
		data["index"] = ev.Index
	case EventRightsGranted:
		data["voter"] = ev.Account.Hex()
		data["has_rights"] = ev.HasRights
	case EventVoteCast:
		data["voter"] = ev.Account.Hex()
		data["candidate"] = ev.Candidate.Hex()
		data["voter_total_votes"] = ev.Count
	case EventWinnerDeclared:
		data["winner"] = ev.Account.Hex()
		data["votes"] = ev.Count
	}
	return data
}
