package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord stores the exact envelope returned for a token.
type IdempotencyRecord struct {
	Key       string    `json:"key"`
	Response  []byte    `json:"response"` // Serialized envelope, replayed verbatim
	CreatedAt time.Time `json:"created_at"`
}

// BuildFundToken scopes a client key to a fund on one wallet. An empty key
// yields an empty token, which disables deduplication.
func BuildFundToken(walletID uuid.UUID, key string) string {
	if key == "" {
		return ""
	}
	return "fund:" + walletID.String() + ":" + key
}

// BuildTransferToken scopes a client key to the ordered (from, to) pair.
func BuildTransferToken(fromID, toID uuid.UUID, key string) string {
	if key == "" {
		return ""
	}
	return "transfer:" + fromID.String() + ":" + toID.String() + ":" + key
}
