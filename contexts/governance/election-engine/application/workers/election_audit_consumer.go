package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "ballot/contexts/governance/election-engine/application"
	"ballot/contexts/governance/election-engine/domain/entities"
	domainerrors "ballot/contexts/governance/election-engine/domain/errors"
	"ballot/contexts/governance/election-engine/ports"

	"github.com/ethereum/go-ethereum/common"
)

const (
	electionEventsTopic    = "election.*"
	defaultElectionAuditCG = "election-engine-audit-cg"
)

// ElectionAuditConsumer follows the published election stream. It rejects
// malformed envelopes, skips redeliveries and checks every declared winner
// against the stored election.
type ElectionAuditConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Elections     ports.ElectionRepository
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c ElectionAuditConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultElectionAuditCG
	}
	if err := c.Subscriber.Subscribe(ctx, electionEventsTopic, group, c.Handle); err != nil {
		logger.Error("election audit subscribe failed",
			"event", "election_audit_consumer_subscribe_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"topic", electionEventsTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("election audit subscription active",
		"event", "election_audit_consumer_started",
		"module", application.ModuleName,
		"layer", "worker",
		"topic", electionEventsTopic,
		"consumer_group", group,
	)
	return nil
}

// Handle processes one delivered envelope.
func (c ElectionAuditConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if err := event.Validate(); err != nil {
		logger.Error("election event envelope invalid",
			"event", "election_audit_envelope_invalid",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("election event dedupe failed",
			"event", "election_audit_dedupe_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("election event replay skipped",
			"event", "election_audit_replayed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	if event.EventType == string(entities.EventWinnerDeclared) {
		if err := c.verifyWinner(ctx, event); err != nil {
			return err
		}
	}
	logger.Info("election event audited",
		"event", "election_audit_consumed",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"election_id", event.PartitionKey,
	)
	return nil
}

func (c ElectionAuditConsumer) verifyWinner(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload struct {
		ElectionID string `json:"election_id"`
		Winner     string `json:"winner"`
		Votes      uint64 `json:"votes"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("winner payload decode failed",
			"event", "election_audit_winner_decode_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	election, err := c.Elections.GetElection(ctx, payload.ElectionID)
	if err != nil {
		logger.Error("winner audit load failed",
			"event", "election_audit_winner_load_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"election_id", payload.ElectionID,
			"error", err.Error(),
		)
		return err
	}
	announced := common.HexToAddress(payload.Winner)
	if election.Winner == nil ||
		election.Winner.Address != announced ||
		election.Winner.Votes != payload.Votes {
		logger.Error("declared winner does not match stored election",
			"event", "election_audit_winner_mismatch",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"election_id", payload.ElectionID,
			"announced_winner", announced.Hex(),
			"announced_votes", payload.Votes,
		)
		return domainerrors.ErrConflict
	}
	logger.Info("declared winner verified",
		"event", "election_audit_winner_verified",
		"module", application.ModuleName,
		"layer", "worker",
		"election_id", payload.ElectionID,
		"winner", announced.Hex(),
		"votes", payload.Votes,
	)
	return nil
}

func (c ElectionAuditConsumer) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now().UTC()
}

func (c ElectionAuditConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
