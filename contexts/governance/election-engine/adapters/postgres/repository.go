package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"ballot/contexts/governance/election-engine/domain/entities"
	domainerrors "ballot/contexts/governance/election-engine/domain/errors"
	"ballot/contexts/governance/election-engine/ports"
	"ballot/internal/shared/outbox"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores elections in normalized tables. Commands lock the
// election row for the duration of the transaction, which serializes
// concurrent commands against the same election.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates or updates every table the repository uses.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&electionModel{},
		&candidateModel{},
		&voterModel{},
		&accountModel{},
		&eventModel{},
		&idempotencyModel{},
		&outboxModel{},
		&eventDedupModel{},
	); err != nil {
		return r.logError("election_repo_migrate_failed", err)
	}
	return nil
}

// CreateElection inserts the election built by build together with its outbox
// rows and idempotency record in one transaction. A nil election is a replay
// and writes nothing.
func (r *Repository) CreateElection(
	ctx context.Context,
	claim ports.IdempotencyClaim,
	build func(replay *ports.IdempotencyRecord) (*entities.Election, ports.ElectionCommit, error),
) error {
	var (
		id       string
		buildErr error
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replay, err := claimRecord(tx, claim)
		if err != nil {
			return err
		}
		election, commit, err := build(replay)
		if err != nil {
			buildErr = err
			return err
		}
		if commit.Replayed || election == nil {
			return nil
		}
		id = strings.TrimSpace(election.ElectionID)
		if id == "" {
			buildErr = domainerrors.ErrInvalidInput
			return buildErr
		}
		row := electionModelFromEntity(*election)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := persistChanges(tx, nil, election); err != nil {
			return err
		}
		return writeCommit(tx, commit)
	})
	if err != nil {
		if buildErr != nil || errors.Is(err, domainerrors.ErrIdempotencyConflict) {
			return err
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_failed", err, "election_id", id)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	id := strings.TrimSpace(electionID)
	election, err := loadElection(r.db.WithContext(ctx), id, false)
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) {
			return entities.Election{}, err
		}
		return entities.Election{}, r.logError("election_repo_get_failed", err, "election_id", id)
	}
	return *election, nil
}

func (r *Repository) ListElections(ctx context.Context, limit int, offset int) ([]entities.Election, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&electionModel{}).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Pluck("id", &ids).Error; err != nil {
		return nil, r.logError("election_repo_list_failed", err, "limit", limit, "offset", offset)
	}
	items := make([]entities.Election, 0, len(ids))
	for _, id := range ids {
		election, err := loadElection(r.db.WithContext(ctx), id, false)
		if err != nil {
			return nil, r.logError("election_repo_list_load_failed", err, "election_id", id)
		}
		items = append(items, *election)
	}
	return items, nil
}

// UpdateElection locks the election row and the idempotency key, applies mutate
// and writes back only the rows mutate changed, followed by the commit's outbox
// rows and record. Any error rolls the whole transaction back.
func (r *Repository) UpdateElection(
	ctx context.Context,
	electionID string,
	claim ports.IdempotencyClaim,
	mutate func(*entities.Election, *ports.IdempotencyRecord) (ports.ElectionCommit, error),
) (entities.Election, error) {
	id := strings.TrimSpace(electionID)
	var updated *entities.Election
	var mutateErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadElection(tx, id, true)
		if err != nil {
			return err
		}
		replay, err := claimRecord(tx, claim)
		if err != nil {
			return err
		}
		working := current.Clone()
		commit, err := mutate(working, replay)
		if err != nil {
			mutateErr = err
			return err
		}
		if commit.Replayed {
			updated = current
			return nil
		}
		row := electionModelFromEntity(*working)
		if err := tx.Model(&electionModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"phase":              row.Phase,
				"total_votes":        row.TotalVotes,
				"balance_wei":        row.BalanceWei,
				"voting_started_at":  row.VotingStartedAt,
				"voting_ended_at":    row.VotingEndedAt,
				"winner_address":     row.WinnerAddress,
				"winner_votes":       row.WinnerVotes,
				"winner_declared_at": row.WinnerDeclaredAt,
				"updated_at":         row.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		if err := persistChanges(tx, current, working); err != nil {
			return err
		}
		if err := writeCommit(tx, commit); err != nil {
			return err
		}
		updated = working
		return nil
	})
	if err != nil {
		if mutateErr != nil ||
			errors.Is(err, domainerrors.ErrElectionNotFound) ||
			errors.Is(err, domainerrors.ErrIdempotencyConflict) {
			return entities.Election{}, err
		}
		return entities.Election{}, r.logError("election_repo_update_failed", err, "election_id", id)
	}
	return *updated, nil
}

// claimRecord takes a transaction-scoped advisory lock on the key, so a second
// request with the same key waits for the first to commit, then returns the
// live record if one exists.
func claimRecord(tx *gorm.DB, claim ports.IdempotencyClaim) (*ports.IdempotencyRecord, error) {
	key := strings.TrimSpace(claim.Key)
	if key == "" {
		return nil, nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return nil, err
	}
	var row idempotencyModel
	if err := tx.Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !row.ExpiresAt.IsZero() && claim.Now.UTC().After(row.ExpiresAt.UTC()) {
		if err := tx.Where("key = ?", key).Delete(&idempotencyModel{}).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, nil
}

func writeCommit(tx *gorm.DB, commit ports.ElectionCommit) error {
	for _, envelope := range commit.Outbox {
		if err := appendOutbox(tx, envelope); err != nil {
			return err
		}
	}
	record := commit.Idempotency
	if record == nil {
		return nil
	}
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     strings.TrimSpace(record.RequestHash),
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// appendOutbox inserts one pending row. Re-inserting an identical envelope is a
// no-op; a different payload under the same ID is a conflict.
func appendOutbox(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return create.Error
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := tx.Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	message := outbox.Message{ID: strings.TrimSpace(outboxID)}
	message.MarkPublished(publishedAt)
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", message.ID).
		Where("status = ?", outbox.StatusPending).
		Updates(map[string]any{
			"status":       message.Status,
			"published_at": *message.PublishedAt,
		})
	if result.Error != nil {
		return r.logError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", message.ID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("election_repo_reserve_event_failed", create.Error,
			"event_id", row.EventID,
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("election_repo_reserve_event_load_existing_failed", err,
			"event_id", row.EventID,
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/election-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

func loadElection(db *gorm.DB, electionID string, forUpdate bool) (*entities.Election, error) {
	query := db.Where("id = ?", electionID)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row electionModel
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isUndefinedTable(err) {
			return nil, domainerrors.ErrElectionNotFound
		}
		return nil, err
	}
	election, err := row.toEntity()
	if err != nil {
		return nil, err
	}

	var candidates []candidateModel
	if err := db.Where("election_id = ?", electionID).Order("candidate_index ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		election.Candidates = append(election.Candidates, entities.Candidate{
			Index:   candidate.CandidateIndex,
			Name:    candidate.Name,
			Address: common.HexToAddress(candidate.Address),
			Extra:   uint64(candidate.Extra),
		})
	}

	var voters []voterModel
	if err := db.Where("election_id = ?", electionID).Order("position ASC").Find(&voters).Error; err != nil {
		return nil, err
	}
	for _, voter := range voters {
		election.Voters = append(election.Voters, common.HexToAddress(voter.Address))
	}

	var accounts []accountModel
	if err := db.Where("election_id = ?", electionID).Find(&accounts).Error; err != nil {
		return nil, err
	}
	for _, account := range accounts {
		address := common.HexToAddress(account.Address)
		if account.HasRights {
			election.Rights[address] = true
		}
		if account.VotesCast > 0 {
			election.VotesCast[address] = uint64(account.VotesCast)
		}
		if account.VotesReceived > 0 {
			election.VotesReceived[address] = uint64(account.VotesReceived)
		}
	}

	var events []eventModel
	if err := db.Where("election_id = ?", electionID).Order("sequence ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	for _, event := range events {
		election.Events = append(election.Events, event.toEntity())
	}
	return election, nil
}

// persistChanges inserts the appended candidates, voters and events and
// upserts every account whose counters moved. before is nil for a new
// election.
func persistChanges(tx *gorm.DB, before *entities.Election, after *entities.Election) error {
	var (
		candidatesBefore int
		votersBefore     int
		eventsBefore     int
	)
	if before != nil {
		candidatesBefore = len(before.Candidates)
		votersBefore = len(before.Voters)
		eventsBefore = len(before.Events)
	}

	for _, candidate := range after.Candidates[candidatesBefore:] {
		row := candidateModel{
			ElectionID:     after.ElectionID,
			CandidateIndex: candidate.Index,
			Name:           candidate.Name,
			Address:        candidate.Address.Hex(),
			Extra:          int64(candidate.Extra),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	for position, voter := range after.Voters[votersBefore:] {
		row := voterModel{
			ElectionID: after.ElectionID,
			Position:   votersBefore + position,
			Address:    voter.Hex(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	for _, account := range changedAccounts(before, after) {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "election_id"}, {Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"has_rights", "votes_cast", "votes_received"}),
		}).Create(&account).Error; err != nil {
			return err
		}
	}
	for _, event := range after.Events[eventsBefore:] {
		row := eventModelFromEntity(after.ElectionID, event)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func changedAccounts(before *entities.Election, after *entities.Election) []accountModel {
	seen := make(map[common.Address]struct{})
	addresses := make([]common.Address, 0)
	collect := func(address common.Address) {
		if _, ok := seen[address]; ok {
			return
		}
		seen[address] = struct{}{}
		addresses = append(addresses, address)
	}
	for address := range after.Rights {
		collect(address)
	}
	for address := range after.VotesCast {
		collect(address)
	}
	for address := range after.VotesReceived {
		collect(address)
	}

	rows := make([]accountModel, 0)
	for _, address := range addresses {
		row := accountModel{
			ElectionID:    after.ElectionID,
			Address:       address.Hex(),
			HasRights:     after.HasRights(address),
			VotesCast:     int64(after.VotesCastBy(address)),
			VotesReceived: int64(after.VotesFor(address)),
		}
		if before != nil &&
			before.HasRights(address) == row.HasRights &&
			before.VotesCastBy(address) == after.VotesCastBy(address) &&
			before.VotesFor(address) == after.VotesFor(address) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

type electionModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	Title            string     `gorm:"column:title"`
	Description      []byte     `gorm:"column:description"`
	Authority        string     `gorm:"column:authority"`
	Phase            string     `gorm:"column:phase"`
	TotalVotes       int64      `gorm:"column:total_votes"`
	BalanceWei       string     `gorm:"column:balance_wei;type:numeric(78,0)"`
	VotingStartedAt  *time.Time `gorm:"column:voting_started_at"`
	VotingEndedAt    *time.Time `gorm:"column:voting_ended_at"`
	WinnerAddress    *string    `gorm:"column:winner_address"`
	WinnerVotes      int64      `gorm:"column:winner_votes"`
	WinnerDeclaredAt *time.Time `gorm:"column:winner_declared_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	balance := "0"
	if election.Balance != nil {
		balance = election.Balance.String()
	}
	row := electionModel{
		ID:              strings.TrimSpace(election.ElectionID),
		Title:           election.Title,
		Description:     append([]byte(nil), election.Description[:]...),
		Authority:       election.Authority.Hex(),
		Phase:           string(election.Phase),
		TotalVotes:      int64(election.TotalVotes),
		BalanceWei:      balance,
		VotingStartedAt: normalizeOptionalTime(election.VotingStartedAt),
		VotingEndedAt:   normalizeOptionalTime(election.VotingEndedAt),
		CreatedAt:       election.CreatedAt.UTC(),
		UpdatedAt:       election.UpdatedAt.UTC(),
	}
	if election.Winner != nil {
		address := election.Winner.Address.Hex()
		declaredAt := election.Winner.DeclaredAt.UTC()
		row.WinnerAddress = &address
		row.WinnerVotes = int64(election.Winner.Votes)
		row.WinnerDeclaredAt = &declaredAt
	}
	return row
}

func (m electionModel) toEntity() (*entities.Election, error) {
	balance, ok := new(big.Int).SetString(strings.TrimSpace(m.BalanceWei), 10)
	if !ok {
		return nil, fmt.Errorf("decode balance %q for election %s", m.BalanceWei, m.ID)
	}
	election := &entities.Election{
		ElectionID:      m.ID,
		Title:           m.Title,
		Authority:       common.HexToAddress(m.Authority),
		Phase:           entities.Phase(m.Phase),
		Rights:          make(map[common.Address]bool),
		VotesReceived:   make(map[common.Address]uint64),
		VotesCast:       make(map[common.Address]uint64),
		TotalVotes:      uint64(m.TotalVotes),
		Balance:         balance,
		VotingStartedAt: normalizeOptionalTime(m.VotingStartedAt),
		VotingEndedAt:   normalizeOptionalTime(m.VotingEndedAt),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	copy(election.Description[:], m.Description)
	if m.WinnerAddress != nil {
		winner := entities.Winner{
			Address: common.HexToAddress(*m.WinnerAddress),
			Votes:   uint64(m.WinnerVotes),
		}
		if m.WinnerDeclaredAt != nil {
			winner.DeclaredAt = m.WinnerDeclaredAt.UTC()
		}
		election.Winner = &winner
	}
	return election, nil
}

type candidateModel struct {
	ElectionID     string `gorm:"column:election_id;primaryKey"`
	CandidateIndex int    `gorm:"column:candidate_index;primaryKey"`
	Name           string `gorm:"column:name"`
	Address        string `gorm:"column:address"`
	Extra          int64  `gorm:"column:extra"`
}

func (candidateModel) TableName() string {
	return "election_candidates"
}

type voterModel struct {
	ElectionID string `gorm:"column:election_id;primaryKey"`
	Position   int    `gorm:"column:position;primaryKey"`
	Address    string `gorm:"column:address"`
}

func (voterModel) TableName() string {
	return "election_voters"
}

type accountModel struct {
	ElectionID    string `gorm:"column:election_id;primaryKey"`
	Address       string `gorm:"column:address;primaryKey"`
	HasRights     bool   `gorm:"column:has_rights"`
	VotesCast     int64  `gorm:"column:votes_cast"`
	VotesReceived int64  `gorm:"column:votes_received"`
}

func (accountModel) TableName() string {
	return "election_accounts"
}

type eventModel struct {
	ElectionID string    `gorm:"column:election_id;primaryKey"`
	Sequence   int64     `gorm:"column:sequence;primaryKey"`
	EventType  string    `gorm:"column:event_type"`
	Actor      string    `gorm:"column:actor"`
	Account    string    `gorm:"column:account"`
	Candidate  string    `gorm:"column:candidate"`
	Name       string    `gorm:"column:name"`
	ItemIndex  int       `gorm:"column:item_index"`
	Count      int64     `gorm:"column:count"`
	HasRights  bool      `gorm:"column:has_rights"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (eventModel) TableName() string {
	return "election_events"
}

func eventModelFromEntity(electionID string, event entities.Event) eventModel {
	return eventModel{
		ElectionID: electionID,
		Sequence:   int64(event.Sequence),
		EventType:  string(event.Type),
		Actor:      event.Actor.Hex(),
		Account:    event.Account.Hex(),
		Candidate:  event.Candidate.Hex(),
		Name:       event.Name,
		ItemIndex:  event.Index,
		Count:      int64(event.Count),
		HasRights:  event.HasRights,
		OccurredAt: event.OccurredAt.UTC(),
	}
}

func (m eventModel) toEntity() entities.Event {
	return entities.Event{
		Sequence:   uint64(m.Sequence),
		Type:       entities.EventType(m.EventType),
		Actor:      common.HexToAddress(m.Actor),
		Account:    common.HexToAddress(m.Account),
		Candidate:  common.HexToAddress(m.Candidate),
		Name:       m.Name,
		Index:      m.ItemIndex,
		Count:      uint64(m.Count),
		HasRights:  m.HasRights,
		OccurredAt: m.OccurredAt.UTC(),
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "election_idempotency"
}

type outboxModel struct {
	Seq          int64      `gorm:"column:seq;autoIncrement;uniqueIndex"`
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "election_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "election_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
