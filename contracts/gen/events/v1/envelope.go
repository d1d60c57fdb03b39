package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CurrentSchemaVersion is the envelope layout producers emit today.
const CurrentSchemaVersion = 1

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Envelope is the versioned wrapper every election event travels in on the
// bus. Data holds the event body; PartitionKeyPath names the top-level Data
// field whose value is PartitionKey.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Validate checks the fields consumers route on and that PartitionKey agrees
// with the value found in Data.
func (e Envelope) Validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEnvelope)
	case strings.TrimSpace(e.EventType) == "":
		return fmt.Errorf("%w: event_type is required", ErrInvalidEnvelope)
	case e.OccurredAt.IsZero():
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEnvelope)
	case e.SchemaVersion < 1 || e.SchemaVersion > CurrentSchemaVersion:
		return fmt.Errorf("%w: unsupported schema_version %d", ErrInvalidEnvelope, e.SchemaVersion)
	}
	if e.PartitionKeyPath == "" {
		return nil
	}
	key, err := e.PartitionKeyFromData()
	if err != nil {
		return err
	}
	if key != e.PartitionKey {
		return fmt.Errorf("%w: partition_key %q does not match data.%s %q", ErrInvalidEnvelope, e.PartitionKey, e.PartitionKeyPath, key)
	}
	return nil
}

// PartitionKeyFromData reads the string field named by PartitionKeyPath.
func (e Envelope) PartitionKeyFromData() (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &fields); err != nil {
		return "", fmt.Errorf("%w: data must be a JSON object: %v", ErrInvalidEnvelope, err)
	}
	raw, ok := fields[e.PartitionKeyPath]
	if !ok {
		return "", fmt.Errorf("%w: data has no %s field", ErrInvalidEnvelope, e.PartitionKeyPath)
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return "", fmt.Errorf("%w: data.%s must be a string", ErrInvalidEnvelope, e.PartitionKeyPath)
	}
	return key, nil
}
