package http

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/padimaster/spots/adapters/catalog"
	"github.com/padimaster/spots/config"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/internal/eth"
	"github.com/padimaster/spots/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handlers contains the HTTP handlers for all endpoints
type Handlers struct {
	auth     *service.AuthService
	payments *service.PaymentService
	catalog  *catalog.Client
	balances *eth.ERC20Reader
	tokens   map[string]config.Token
	maxStake decimal.Decimal
	log      *zap.Logger
}

// NewHandlers creates the handler set
func NewHandlers(
	auth *service.AuthService,
	payments *service.PaymentService,
	catalogClient *catalog.Client,
	balances *eth.ERC20Reader,
	tokens map[string]config.Token,
	maxStake decimal.Decimal,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		auth:     auth,
		payments: payments,
		catalog:  catalogClient,
		balances: balances,
		tokens:   tokens,
		maxStake: maxStake,
		log:      log,
	}
}

// Challenge issues a fresh nonce-signing challenge
func (h *Handlers) Challenge(c *gin.Context) {
	challenge, err := h.auth.CreateChallenge()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":        challenge.Nonce,
		"signed_nonce": challenge.SignedNonce,
		"expires_at":   challenge.ExpiresAt,
	})
}

// Complete verifies the signed challenge and creates a wallet session
func (h *Handlers) Complete(c *gin.Context) {
	var req struct {
		Nonce            string `json:"nonce" binding:"required"`
		SignedNonce      string `json:"signed_nonce" binding:"required"`
		FinalPayloadJSON string `json:"final_payload_json" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, token, err := h.auth.Authorize(c.Request.Context(), req.Nonce, req.SignedNonce, req.FinalPayloadJSON)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Authentication failed"

		switch {
		case errors.Is(err, core.ErrInvalidSignature):
			statusCode = http.StatusUnauthorized
			errorMsg = "Invalid signature"
		case errors.Is(err, core.ErrInvalidChallenge):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid challenge"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"user":       user,
	})
}

// Logout invalidates the bridged session for the authenticated wallet
func (h *Handlers) Logout(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && auth[:7] == "Bearer " {
		if session, err := h.auth.ValidateSessionToken(auth[7:]); err == nil {
			h.auth.LogoutAddress(c.Request.Context(), session.Address)
		}
	}

	// Logout never fails from the client's point of view
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns information about the authenticated user
func (h *Handlers) Me(c *gin.Context) {
	address, exists := c.Get("userAddress")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":  address,
		"username": c.GetString("userName"),
	})
}

// InitiatePayment creates a payment intent and returns its id
func (h *Handlers) InitiatePayment(c *gin.Context) {
	var req struct {
		Amount    decimal.Decimal `json:"amount" binding:"required"`
		Recipient string          `json:"recipient"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	intent, err := h.payments.CreateIntent(c.Request.Context(), req.Amount, h.maxStake, req.Recipient)
	if err != nil {
		if errors.Is(err, core.ErrAmountInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment intent"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": intent.ID})
}

// ConfirmPayment checks the on-chain reference against the stored intent
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	var req struct {
		ID        string `json:"id" binding:"required"`
		Reference string `json:"reference" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	intent, err := h.payments.ConfirmIntent(c.Request.Context(), req.ID, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrIntentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment intent not found"})
		case errors.Is(err, core.ErrReferenceMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Transaction reference does not match"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "state": intent.State})
}

// GetBalance returns the ERC-20 balance of an address
func (h *Handlers) GetBalance(c *gin.Context) {
	address := c.Query("address")
	symbol := c.DefaultQuery("token", "USDC")

	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Address parameter is required"})
		return
	}

	token, ok := h.tokens[symbol]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported token: " + symbol})
		return
	}

	raw, err := h.balances.BalanceOf(c.Request.Context(), common.HexToAddress(token.Address), common.HexToAddress(address))
	if err != nil {
		h.log.Warn("balance query failed", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to connect to blockchain network"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":          address,
		"token":            symbol,
		"tokenAddress":     token.Address,
		"balance":          raw.String(),
		"formattedBalance": eth.FormatUnits(raw, token.Decimals),
	})
}

// FeaturedEvents proxies the events-catalog listing
func (h *Handlers) FeaturedEvents(c *gin.Context) {
	filter := &catalog.Filter{
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}

	events, err := h.catalog.FeaturedEvents(c.Request.Context(), filter)
	if err != nil {
		h.log.Warn("events fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, events)
}
