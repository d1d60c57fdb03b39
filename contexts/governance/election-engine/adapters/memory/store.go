package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"ballot/contexts/governance/election-engine/domain/entities"
	domainerrors "ballot/contexts/governance/election-engine/domain/errors"
	"ballot/contexts/governance/election-engine/ports"
	"ballot/internal/shared/outbox"

	"github.com/google/uuid"
)

// Store keeps elections, idempotency records, the outbox and consumer dedup
// entries in process. A single mutex serializes writers, which gives every
// election the one-at-a-time command ordering the aggregate expects.
type Store struct {
	mu sync.RWMutex

	elections     map[string]*entities.Election
	electionOrder []string
	idempotency   map[string]ports.IdempotencyRecord
	outbox        map[string]outbox.Message
	outboxOrder   []string
	eventDedup    map[string]dedupRecord
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

func NewStore(seed []entities.Election) *Store {
	s := &Store{
		elections:   make(map[string]*entities.Election, len(seed)),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outbox.Message),
		eventDedup:  make(map[string]dedupRecord),
	}
	for _, election := range seed {
		id := strings.TrimSpace(election.ElectionID)
		if id == "" {
			continue
		}
		if _, exists := s.elections[id]; !exists {
			s.electionOrder = append(s.electionOrder, id)
		}
		s.elections[id] = election.Clone()
	}
	return s
}

// CreateElection builds and stores a new election in one critical section with
// its outbox rows and idempotency record. A nil election from build is a replay.
func (s *Store) CreateElection(
	_ context.Context,
	claim ports.IdempotencyClaim,
	build func(replay *ports.IdempotencyRecord) (*entities.Election, ports.ElectionCommit, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	election, commit, err := build(s.liveRecordLocked(claim))
	if err != nil {
		return err
	}
	if commit.Replayed || election == nil {
		return nil
	}
	id := strings.TrimSpace(election.ElectionID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.elections[id]; exists {
		return domainerrors.ErrConflict
	}
	messages, err := s.prepareCommitLocked(commit)
	if err != nil {
		return err
	}
	s.elections[id] = election.Clone()
	s.electionOrder = append(s.electionOrder, id)
	s.applyCommitLocked(messages, commit.Idempotency)
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return *election.Clone(), nil
}

func (s *Store) ListElections(_ context.Context, limit int, offset int) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.electionOrder) {
		return []entities.Election{}, nil
	}
	end := offset + limit
	if end > len(s.electionOrder) {
		end = len(s.electionOrder)
	}
	items := make([]entities.Election, 0, end-offset)
	for _, id := range s.electionOrder[offset:end] {
		items = append(items, *s.elections[id].Clone())
	}
	return items, nil
}

// UpdateElection runs mutate against a private copy and swaps it in, together
// with the commit's outbox rows and record, only when every part is accepted.
// A rejected command or a rejected outbox row leaves the store untouched.
func (s *Store) UpdateElection(
	_ context.Context,
	electionID string,
	claim ports.IdempotencyClaim,
	mutate func(*entities.Election, *ports.IdempotencyRecord) (ports.ElectionCommit, error),
) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(electionID)
	current, ok := s.elections[id]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	working := current.Clone()
	commit, err := mutate(working, s.liveRecordLocked(claim))
	if err != nil {
		return entities.Election{}, err
	}
	if commit.Replayed {
		return *current.Clone(), nil
	}
	messages, err := s.prepareCommitLocked(commit)
	if err != nil {
		return entities.Election{}, err
	}
	s.elections[id] = working
	s.applyCommitLocked(messages, commit.Idempotency)
	return *working.Clone(), nil
}

func (s *Store) liveRecordLocked(claim ports.IdempotencyClaim) *ports.IdempotencyRecord {
	key := strings.TrimSpace(claim.Key)
	if key == "" {
		return nil
	}
	record, ok := s.idempotency[key]
	if !ok {
		return nil
	}
	if !record.ExpiresAt.IsZero() && claim.Now.UTC().After(record.ExpiresAt) {
		delete(s.idempotency, key)
		return nil
	}
	record.ResponsePayload = append([]byte(nil), record.ResponsePayload...)
	return &record
}

// prepareCommitLocked validates every outbox row and the record before anything
// is written. Re-appending an identical row is accepted and skipped.
func (s *Store) prepareCommitLocked(commit ports.ElectionCommit) ([]outbox.Message, error) {
	if record := commit.Idempotency; record != nil {
		key := strings.TrimSpace(record.Key)
		if key == "" {
			return nil, domainerrors.ErrInvalidInput
		}
		if existing, ok := s.idempotency[key]; ok && existing.RequestHash != record.RequestHash {
			return nil, domainerrors.ErrIdempotencyConflict
		}
	}
	messages := make([]outbox.Message, 0, len(commit.Outbox))
	seen := make(map[string]struct{}, len(commit.Outbox))
	for _, envelope := range commit.Outbox {
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			return nil, domainerrors.ErrInvalidInput
		}
		payload, err := json.Marshal(envelope)
		if err != nil {
			return nil, err
		}
		if existing, ok := s.outbox[outboxID]; ok {
			if !bytes.Equal(existing.Payload, payload) {
				return nil, domainerrors.ErrIdempotencyConflict
			}
			continue
		}
		if _, dup := seen[outboxID]; dup {
			return nil, domainerrors.ErrIdempotencyConflict
		}
		seen[outboxID] = struct{}{}
		messages = append(messages, outbox.Message{
			ID:           outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			Status:       outbox.StatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		})
	}
	return messages, nil
}

func (s *Store) applyCommitLocked(messages []outbox.Message, record *ports.IdempotencyRecord) {
	for _, message := range messages {
		s.outbox[message.ID] = message
		s.outboxOrder = append(s.outboxOrder, message.ID)
	}
	if record != nil {
		stored := *record
		stored.Key = strings.TrimSpace(stored.Key)
		stored.ResponsePayload = append([]byte(nil), record.ResponsePayload...)
		s.idempotency[stored.Key] = stored
	}
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, id := range s.outboxOrder {
		row := s.outbox[id]
		if !row.Pending() {
			continue
		}
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt,
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(outboxID)
	row, ok := s.outbox[id]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.MarkPublished(publishedAt)
	s.outbox[id] = row
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if key == "" {
		return false, domainerrors.ErrInvalidInput
	}
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}
	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
