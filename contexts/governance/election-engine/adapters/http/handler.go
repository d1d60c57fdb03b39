package httpadapter

import (
	"context"
	"log/slog"

	"ballot/contexts/governance/election-engine/application/commands"
	"ballot/contexts/governance/election-engine/application/queries"
	"ballot/contexts/governance/election-engine/domain/entities"
	httptransport "ballot/contexts/governance/election-engine/transport/http"
)

type Handler struct {
	Commands commands.ElectionUseCase
	Queries  queries.ElectionQueries
	Logger   *slog.Logger
}

// CreateElectionHandler godoc
// @Summary Create an election
// @Description The caller becomes the election authority.
// @Tags election-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account address"
// @Param Idempotency-Key header string false "Replay key"
// @Param request body httptransport.CreateElectionRequest true "Election metadata"
// @Success 201 {object} httptransport.ElectionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/elections [post]
func (h Handler) CreateElectionHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	result, err := h.Commands.CreateElection(ctx, commands.CreateElectionCommand{
		Caller:         userID,
		IdempotencyKey: idempotencyKey,
		Title:          req.Title,
		Description:    req.Description,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	response := mapElection(result.Election)
	response.Replayed = result.Replayed
	return response, nil
}

func (h Handler) ListElectionsHandler(ctx context.Context, limit int, offset int) (httptransport.ElectionListResponse, error) {
	items, err := h.Queries.ListElections(ctx, limit, offset)
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	response := httptransport.ElectionListResponse{
		Items: make([]httptransport.ElectionResponse, 0, len(items)),
	}
	for _, item := range items {
		response.Items = append(response.Items, mapElection(item))
	}
	return response, nil
}

func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.Queries.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

// RegisterCandidateHandler godoc
// @Summary Register a candidate
// @Tags election-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Authority account address"
// @Param Idempotency-Key header string false "Replay key"
// @Param election_id path string true "Election id"
// @Param request body httptransport.RegisterCandidateRequest true "Candidate"
// @Success 201 {object} httptransport.CandidateResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id}/candidates [post]
func (h Handler) RegisterCandidateHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	electionID string,
	req httptransport.RegisterCandidateRequest,
) (httptransport.CandidateResponse, error) {
	result, err := h.Commands.RegisterCandidate(ctx, commands.RegisterCandidateCommand{
		ElectionID:     electionID,
		Caller:         userID,
		IdempotencyKey: idempotencyKey,
		Name:           req.Name,
		Address:        req.Address,
		Extra:          req.Extra,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	response := mapCandidate(result.ElectionID, result.Candidate)
	response.Replayed = result.Replayed
	return response, nil
}

func (h Handler) ListCandidatesHandler(ctx context.Context, electionID string) (httptransport.CandidateListResponse, error) {
	candidates, err := h.Queries.Candidates(ctx, electionID)
	if err != nil {
		return httptransport.CandidateListResponse{}, err
	}
	response := httptransport.CandidateListResponse{
		Items: make([]httptransport.CandidateResponse, 0, len(candidates)),
	}
	for _, candidate := range candidates {
		response.Items = append(response.Items, mapCandidate(electionID, candidate))
	}
	return response, nil
}

func (h Handler) GetCandidateHandler(ctx context.Context, electionID string, index int) (httptransport.CandidateResponse, error) {
	candidate, err := h.Queries.CandidateAt(ctx, electionID, index)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(electionID, candidate), nil
}

// BuyVotingRightHandler godoc
// @Summary Buy voting rights for an account
// @Description value is the attached payment in wei and must cover the rights price.
// @Tags election-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Paying account address"
// @Param Idempotency-Key header string false "Replay key"
// @Param election_id path string true "Election id"
// @Param request body httptransport.BuyVotingRightRequest true "Voter and payment"
// @Success 200 {object} httptransport.VotingRightResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id}/rights [post]
func (h Handler) BuyVotingRightHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	electionID string,
	req httptransport.BuyVotingRightRequest,
) (httptransport.VotingRightResponse, error) {
	result, err := h.Commands.BuyVotingRight(ctx, commands.BuyVotingRightCommand{
		ElectionID:     electionID,
		Caller:         userID,
		IdempotencyKey: idempotencyKey,
		Voter:          req.Voter,
		Value:          req.Value,
	})
	if err != nil {
		return httptransport.VotingRightResponse{}, err
	}
	return httptransport.VotingRightResponse{
		ElectionID: result.ElectionID,
		Voter:      result.Voter.Hex(),
		HasRights:  result.HasRights,
		Replayed:   result.Replayed,
	}, nil
}

func (h Handler) GetVoterHandler(ctx context.Context, electionID string, index int) (httptransport.VoterResponse, error) {
	voter, err := h.Queries.VoterAt(ctx, electionID, index)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return httptransport.VoterResponse{
		ElectionID: electionID,
		Index:      index,
		Address:    voter.Hex(),
	}, nil
}

func (h Handler) VoterStatusHandler(ctx context.Context, electionID string, address string) (httptransport.VoterStatusResponse, error) {
	status, err := h.Queries.VoterStatus(ctx, electionID, address)
	if err != nil {
		return httptransport.VoterStatusResponse{}, err
	}
	return httptransport.VoterStatusResponse{
		ElectionID: status.ElectionID,
		Address:    status.Address.Hex(),
		HasRights:  status.HasRights,
		VotesCast:  status.VotesCast,
	}, nil
}

func (h Handler) StartVotingHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	electionID string,
) (httptransport.PhaseResponse, error) {
	result, err := h.Commands.StartVoting(ctx, commands.StartVotingCommand{
		ElectionID:     electionID,
		Caller:         userID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.PhaseResponse{}, err
	}
	startedAt := result.StartedAt
	return httptransport.PhaseResponse{
		ElectionID: result.ElectionID,
		Phase:      string(result.Phase),
		StartedAt:  &startedAt,
		Replayed:   result.Replayed,
	}, nil
}

// CastVoteHandler godoc
// @Summary Cast a vote
// @Tags election-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Voter account address"
// @Param Idempotency-Key header string false "Replay key"
// @Param election_id path string true "Election id"
// @Param request body httptransport.CastVoteRequest true "Candidate and payment"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id}/votes [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	electionID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Commands.CastVote(ctx, commands.CastVoteCommand{
		ElectionID:     electionID,
		Caller:         userID,
		IdempotencyKey: idempotencyKey,
		Candidate:      req.Candidate,
		Value:          req.Value,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ElectionID:      result.ElectionID,
		Voter:           result.Voter.Hex(),
		Candidate:       result.Candidate.Hex(),
		VoterTotalVotes: result.VoterTotalVotes,
		Replayed:        result.Replayed,
	}, nil
}

// EndVotingHandler godoc
// @Summary End voting and declare the winner
// @Tags election-engine
// @Produce json
// @Param X-User-Id header string true "Authority account address"
// @Param election_id path string true "Election id"
// @Success 200 {object} httptransport.WinnerResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 425 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id}/end [post]
func (h Handler) EndVotingHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	electionID string,
) (httptransport.WinnerResponse, error) {
	result, err := h.Commands.EndVoting(ctx, commands.EndVotingCommand{
		ElectionID:     electionID,
		Caller:         userID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.WinnerResponse{}, err
	}
	response := mapWinner(result.ElectionID, result.Winner)
	response.Replayed = result.Replayed
	return response, nil
}

func (h Handler) TallyHandler(ctx context.Context, electionID string, candidate string) (httptransport.TallyResponse, error) {
	tally, err := h.Queries.Tally(ctx, electionID, candidate)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return httptransport.TallyResponse{
		ElectionID: tally.ElectionID,
		Candidate:  tally.Address.Hex(),
		Registered: tally.Registered,
		Votes:      tally.Votes,
	}, nil
}

func (h Handler) WinnerHandler(ctx context.Context, electionID string) (httptransport.WinnerResponse, error) {
	winner, err := h.Queries.Winner(ctx, electionID)
	if err != nil {
		return httptransport.WinnerResponse{}, err
	}
	return mapWinner(electionID, winner), nil
}

// ResultsHandler godoc
// @Summary Ranked standings snapshot
// @Tags election-engine
// @Produce json
// @Param election_id path string true "Election id"
// @Success 200 {object} httptransport.ResultsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id}/results [get]
func (h Handler) ResultsHandler(ctx context.Context, electionID string) (httptransport.ResultsResponse, error) {
	results, err := h.Queries.Results(ctx, electionID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	response := httptransport.ResultsResponse{
		ElectionID: results.ElectionID,
		Phase:      string(results.Phase),
		Items:      make([]httptransport.RankedCandidateResponse, 0, len(results.Ranking)),
		TotalVotes: results.TotalVotes,
		BalanceWei: results.Balance.String(),
		InputsHash: results.InputsHash,
	}
	for _, item := range results.Ranking {
		response.Items = append(response.Items, httptransport.RankedCandidateResponse{
			Rank:    item.Rank,
			Index:   item.Candidate.Index,
			Name:    item.Candidate.Name,
			Address: item.Candidate.Address.Hex(),
			Votes:   item.Votes,
		})
	}
	if results.Winner != nil {
		winner := mapWinner(results.ElectionID, *results.Winner)
		response.Winner = &winner
	}
	return response, nil
}

func (h Handler) EventsHandler(ctx context.Context, electionID string, after uint64) (httptransport.EventListResponse, error) {
	events, err := h.Queries.Events(ctx, electionID, after)
	if err != nil {
		return httptransport.EventListResponse{}, err
	}
	response := httptransport.EventListResponse{
		ElectionID: electionID,
		Items:      make([]httptransport.EventResponse, 0, len(events)),
	}
	for _, event := range events {
		response.Items = append(response.Items, httptransport.EventResponse{
			Sequence:   event.Sequence,
			EventType:  string(event.Type),
			Data:       event.Data(),
			OccurredAt: event.OccurredAt,
		})
	}
	return response, nil
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	response := httptransport.ElectionResponse{
		ElectionID:      election.ElectionID,
		Title:           election.Title,
		Description:     election.Description.Hex(),
		DescriptionText: election.Description.Text(),
		Authority:       election.Authority.Hex(),
		Phase:           string(election.Phase),
		VotingOpen:      election.VotingOpen(),
		VotingClosed:    election.VotingClosed(),
		CandidateCount:  len(election.Candidates),
		VoterCount:      len(election.Voters),
		TotalVotes:      election.TotalVotes,
		BalanceWei:      "0",
		VotingStartedAt: election.VotingStartedAt,
		VotingEndedAt:   election.VotingEndedAt,
		CreatedAt:       election.CreatedAt,
	}
	if election.Balance != nil {
		response.BalanceWei = election.Balance.String()
	}
	if winner, err := election.DeclaredWinner(); err == nil {
		response.Winner = winner.Address.Hex()
	}
	return response
}

func mapCandidate(electionID string, candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		ElectionID: electionID,
		Index:      candidate.Index,
		Name:       candidate.Name,
		Address:    candidate.Address.Hex(),
		Extra:      candidate.Extra,
	}
}

func mapWinner(electionID string, winner entities.Winner) httptransport.WinnerResponse {
	return httptransport.WinnerResponse{
		ElectionID: electionID,
		Winner:     winner.Address.Hex(),
		Votes:      winner.Votes,
		DeclaredAt: winner.DeclaredAt,
	}
}
