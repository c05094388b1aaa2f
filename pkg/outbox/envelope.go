package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses the stored payload of an outbox row.
func DecodeEnvelope(event models.OutboxEvent) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if !event.EventType.IsValid() {
		return envelope, fmt.Errorf("unknown event type %q", event.EventType)
	}
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return envelope, fmt.Errorf("decode envelope %s: %w", event.ID, err)
	}
	if envelope.EventID == "" {
		return envelope, fmt.Errorf("envelope %s missing event id", event.ID)
	}
	return envelope, nil
}
