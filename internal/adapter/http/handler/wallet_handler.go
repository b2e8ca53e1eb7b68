package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles the wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallet/create.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if !bind(c, &req) {
		return
	}

	env, err := h.walletSvc.CreateWallet(c.Request.Context(), req.Command())
	if err != nil {
		response.Error(c, err)
		return
	}
	if snap, ok := env.Data.(domain.WalletSnapshot); ok {
		c.Set(middleware.CtxWalletID, snap.ID)
	}
	response.Write(c, env)
}

// Fund handles POST /api/v1/wallet/:id/fund.
func (h *WalletHandler) Fund(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	var req dto.FundRequest
	if !bind(c, &req) {
		return
	}

	h.respond(c, func() (*response.Envelope, error) {
		return h.walletSvc.Fund(c.Request.Context(), req.Command(walletID))
	})
}

// Transfer handles POST /api/v1/wallet/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !bind(c, &req) {
		return
	}
	cmd := req.Command()
	c.Set(middleware.CtxWalletID, cmd.FromWalletID)

	h.respond(c, func() (*response.Envelope, error) {
		return h.walletSvc.Transfer(c.Request.Context(), cmd)
	})
}

// GetWallet handles GET /api/v1/wallet/:id/get-wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	h.respond(c, func() (*response.Envelope, error) {
		return h.walletSvc.GetSnapshot(c.Request.Context(), walletID)
	})
}

// GetTransactions handles GET /api/v1/wallet/:id/transactions.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	h.respond(c, func() (*response.Envelope, error) {
		return h.walletSvc.GetHistory(c.Request.Context(), walletID)
	})
}

// UpdatePin handles POST /api/v1/wallet/:id/pin/update.
func (h *WalletHandler) UpdatePin(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdatePinRequest
	if !bind(c, &req) {
		return
	}
	h.respond(c, func() (*response.Envelope, error) {
		return h.walletSvc.UpdatePin(c.Request.Context(), req.Command(walletID))
	})
}

// ResetPin handles POST /api/v1/wallet/:id/pin/reset.
func (h *WalletHandler) ResetPin(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	var req dto.ResetPinRequest
	if !bind(c, &req) {
		return
	}
	h.respond(c, func() (*response.Envelope, error) {
		return h.walletSvc.ResetPin(c.Request.Context(), req.Command(walletID))
	})
}

func (h *WalletHandler) respond(c *gin.Context, call func() (*response.Envelope, error)) {
	env, err := call()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Write(c, env)
}

// bind decodes and validates the body, answering 400 on failure.
func bind(c *gin.Context, req dto.Validator) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		errs := dto.DecodeErrors(err)
		response.Invalid(c, errs[0].Message, errs)
		return false
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.Invalid(c, errs[0].Message, errs)
		return false
	}
	return true
}

func walletIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, errs := dto.WalletIDParam(c.Param("id"))
	if len(errs) > 0 {
		response.Invalid(c, errs[0].Message, errs)
		return uuid.Nil, false
	}
	return id, true
}
