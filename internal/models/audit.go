package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded for purchase lifecycle transitions.
const (
	AuditPurchaseCreated   = "purchase_created"
	AuditPurchaseCompleted = "purchase_completed"
	AuditPurchaseRefunded  = "purchase_refunded"
	AuditRefundFailed      = "refund_failed"
)

type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	UserID     *uuid.UUID     `json:"user_id,omitempty"`
	ActorType  string         `json:"actor_type"` // user/system
	Action     string         `json:"action"`
	PurchaseID *uuid.UUID     `json:"purchase_id,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
