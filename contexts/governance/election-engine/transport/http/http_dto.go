package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateElectionRequest carries the description either as a short string or
// as a 0x-prefixed 32 byte hex payload.
type CreateElectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ElectionResponse struct {
	ElectionID      string     `json:"election_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DescriptionText string     `json:"description_text"`
	Authority       string     `json:"authority"`
	Phase           string     `json:"phase"`
	VotingOpen      bool       `json:"voting_open"`
	VotingClosed    bool       `json:"voting_closed"`
	CandidateCount  int        `json:"candidate_count"`
	VoterCount      int        `json:"voter_count"`
	TotalVotes      uint64     `json:"total_votes"`
	BalanceWei      string     `json:"balance_wei"`
	VotingStartedAt *time.Time `json:"voting_started_at,omitempty"`
	VotingEndedAt   *time.Time `json:"voting_ended_at,omitempty"`
	Winner          string     `json:"winner,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Replayed        bool       `json:"replayed,omitempty"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
}

type RegisterCandidateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Extra   uint64 `json:"extra"`
}

type CandidateResponse struct {
	ElectionID string `json:"election_id"`
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Extra      uint64 `json:"extra"`
	Replayed   bool   `json:"replayed,omitempty"`
}

type CandidateListResponse struct {
	Items []CandidateResponse `json:"items"`
}

// BuyVotingRightRequest takes value in wei. Voter defaults to the caller.
type BuyVotingRightRequest struct {
	Voter string `json:"voter"`
	Value string `json:"value"`
}

type VotingRightResponse struct {
	ElectionID string `json:"election_id"`
	Voter      string `json:"voter"`
	HasRights  bool   `json:"has_rights"`
	Replayed   bool   `json:"replayed,omitempty"`
}

type PhaseResponse struct {
	ElectionID string     `json:"election_id"`
	Phase      string     `json:"phase"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	Replayed   bool       `json:"replayed,omitempty"`
}

type CastVoteRequest struct {
	Candidate string `json:"candidate"`
	Value     string `json:"value"`
}

type VoteResponse struct {
	ElectionID      string `json:"election_id"`
	Voter           string `json:"voter"`
	Candidate       string `json:"candidate"`
	VoterTotalVotes uint64 `json:"voter_total_votes"`
	Replayed        bool   `json:"replayed,omitempty"`
}

type VoterResponse struct {
	ElectionID string `json:"election_id"`
	Index      int    `json:"index"`
	Address    string `json:"address"`
}

type VoterStatusResponse struct {
	ElectionID string `json:"election_id"`
	Address    string `json:"address"`
	HasRights  bool   `json:"has_rights"`
	VotesCast  uint64 `json:"votes_cast"`
}

type TallyResponse struct {
	ElectionID string `json:"election_id"`
	Candidate  string `json:"candidate"`
	Registered bool   `json:"registered"`
	Votes      uint64 `json:"votes"`
}

type WinnerResponse struct {
	ElectionID string    `json:"election_id"`
	Winner     string    `json:"winner"`
	Votes      uint64    `json:"votes"`
	DeclaredAt time.Time `json:"declared_at"`
	Replayed   bool      `json:"replayed,omitempty"`
}

type RankedCandidateResponse struct {
	Rank    int    `json:"rank"`
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Votes   uint64 `json:"votes"`
}

type ResultsResponse struct {
	ElectionID string                    `json:"election_id"`
	Phase      string                    `json:"phase"`
	Items      []RankedCandidateResponse `json:"items"`
	Winner     *WinnerResponse           `json:"winner,omitempty"`
	TotalVotes uint64                    `json:"total_votes"`
	BalanceWei string                    `json:"balance_wei"`
	InputsHash string                    `json:"inputs_hash"`
}

type EventResponse struct {
	Sequence   uint64         `json:"sequence"`
	EventType  string         `json:"event_type"`
	Data       map[string]any `json:"data"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type EventListResponse struct {
	ElectionID string          `json:"election_id"`
	Items      []EventResponse `json:"items"`
}
