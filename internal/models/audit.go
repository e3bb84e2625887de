package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is one journal line for a wallet or transfer operation.
// EntityID is the operation ID shown in the state snapshot.
type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	Actor      string     `json:"actor,omitempty"` // wallet address, empty before connect
	ActorType  string     `json:"actor_type"`      // wallet/system
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"` // connect/transfer_contract/transfer_direct
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Meta       any        `json:"meta,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
