package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreateWallet AuditAction = "CREATE_WALLET"
	AuditActionFund         AuditAction = "FUND"
	AuditActionTransfer     AuditAction = "TRANSFER"
	AuditActionUpdatePin    AuditAction = "UPDATE_PIN"
	AuditActionResetPin     AuditAction = "RESET_PIN"
)

// AuditLog records a single audited write request.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	WalletID     *uuid.UUID  `json:"wallet_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
