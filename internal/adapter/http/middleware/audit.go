package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// Routes are matched by their registered pattern, not the raw path.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		if c.Request.Method != http.MethodPost {
			return
		}

		action := mapRouteToAction(c.FullPath())
		if action == "" {
			return
		}

		walletID := auditedWallet(c)
		var resourceID string
		if walletID != nil {
			resourceID = walletID.String()
		}

		details, _ := json.Marshal(map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			WalletID:     walletID,
			Action:       action,
			ResourceType: "wallet",
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func auditedWallet(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(CtxWalletID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	if id, err := uuid.Parse(c.Param("id")); err == nil {
		return &id
	}
	return nil
}

func mapRouteToAction(route string) domain.AuditAction {
	switch route {
	case "/api/v1/wallet/create":
		return domain.AuditActionCreateWallet
	case "/api/v1/wallet/:id/fund":
		return domain.AuditActionFund
	case "/api/v1/wallet/transfer":
		return domain.AuditActionTransfer
	case "/api/v1/wallet/:id/pin/update":
		return domain.AuditActionUpdatePin
	case "/api/v1/wallet/:id/pin/reset":
		return domain.AuditActionResetPin
	}
	return ""
}
