package outbox

import "time"

const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Message is an outbox row written next to the state change that produced it.
// The relay reads pending rows and publishes them to the message bus.
type Message struct {
	ID           string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

func (m Message) Pending() bool {
	return m.Status == StatusPending
}

// MarkPublished records the publish time once; later calls keep the first one.
func (m *Message) MarkPublished(at time.Time) {
	if m.PublishedAt != nil {
		return
	}
	ts := at.UTC()
	m.Status = StatusPublished
	m.PublishedAt = &ts
}
