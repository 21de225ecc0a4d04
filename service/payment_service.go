package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/internal/eth"
	"github.com/padimaster/spots/ports"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentConfig carries the token and contract parameters of the payment
// flow.
type PaymentConfig struct {
	TokenSymbol      string // e.g. "USDCE"
	TokenDecimals    int32  // native decimals of the token
	PoolAddress      string // pool contract receiving the secondary deposit
	OffRampWallet    string // default payment recipient
	FallbackUsername string // directory lookup when no recipient is known
	Description      string // wallet prompt description
	IntentTTL        time.Duration
}

// PaymentService drives the two-leg bet payment: intent creation, the
// wallet transfer, then a best-effort pool deposit. The primary
// transfer's success is the user-visible contract; the pool bookkeeping
// is reconciled out-of-band when it fails.
type PaymentService struct {
	host      ports.WalletHost
	auth      *AuthService
	intents   ports.IntentStore
	directory ports.UserDirectory
	eventPub  ports.EventPublisher
	log       *zap.Logger
	cfg       PaymentConfig

	cell *phaseCell
}

// PaymentOption configures the payment service
type PaymentOption func(*PaymentService)

// WithPaymentDisplayWindow overrides the terminal-phase display window.
func WithPaymentDisplayWindow(d time.Duration) PaymentOption {
	return func(s *PaymentService) { s.cell = newPhaseCell(d) }
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	host ports.WalletHost,
	auth *AuthService,
	intents ports.IntentStore,
	directory ports.UserDirectory,
	eventPub ports.EventPublisher,
	log *zap.Logger,
	cfg PaymentConfig,
	opts ...PaymentOption,
) *PaymentService {
	if cfg.IntentTTL <= 0 {
		cfg.IntentTTL = time.Hour
	}
	if cfg.Description == "" {
		cfg.Description = "Sports bet"
	}

	s := &PaymentService{
		host:      host,
		auth:      auth,
		intents:   intents,
		directory: directory,
		eventPub:  eventPub,
		log:       log,
		cfg:       cfg,
		cell:      newPhaseCell(DefaultDisplayWindow),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Phase returns the visible payment phase.
func (s *PaymentService) Phase() core.Phase {
	return s.cell.current()
}

// CreateIntent validates the amount against the stake floor and the
// balance-derived ceiling and persists a new payment intent. The id is
// the on-chain correlation reference.
func (s *PaymentService) CreateIntent(ctx context.Context, amount, ceiling decimal.Decimal, recipient string) (*core.PaymentIntent, error) {
	intent, err := core.NewPaymentIntent(uuid.New().String(), amount, ceiling, recipient)
	if err != nil {
		return nil, err
	}

	if err := s.intents.Put(ctx, intent, s.cfg.IntentTTL); err != nil {
		return nil, fmt.Errorf("failed to persist intent: %w", core.ErrIntentCreation)
	}

	return intent, nil
}

// GetIntent fetches a stored payment intent by id.
func (s *PaymentService) GetIntent(ctx context.Context, id string) (*core.PaymentIntent, error) {
	return s.intents.Get(ctx, id)
}

// ConfirmIntent checks an on-chain transaction reference against the
// stored intent and marks it confirmed. A reference mismatch is rejected;
// this is the caller-side settlement check the pay flow itself does not
// perform.
func (s *PaymentService) ConfirmIntent(ctx context.Context, id, reference string) (*core.PaymentIntent, error) {
	intent, err := s.intents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if reference != intent.ID {
		return nil, core.ErrReferenceMismatch
	}

	if err := intent.Advance(core.IntentConfirmed); err != nil {
		return nil, err
	}

	if err := s.intents.Put(ctx, intent, s.cfg.IntentTTL); err != nil {
		return nil, fmt.Errorf("failed to persist confirmed intent: %w", err)
	}

	return intent, nil
}

// Pay runs the payment sequence for a stake. The ceiling is the
// balance-derived upper bound at submission time. onComplete, when
// non-nil, intercepts the success reversion: it is invoked once and the
// phase is then the caller's responsibility.
//
// The orchestrator does not verify on-chain settlement; callers must
// match the intent id against the transaction reference via
// ConfirmIntent.
func (s *PaymentService) Pay(ctx context.Context, amount, ceiling decimal.Decimal, recipient string, onComplete func()) error {
	// Non-positive amounts fail before any network call. An in-flight
	// payment keeps its pending phase; the invalid call is rejected
	// without touching it.
	if amount.LessThanOrEqual(decimal.Zero) {
		if !s.cell.failDirect(true) {
			return core.ErrOperationInFlight
		}
		return core.ErrAmountInvalid
	}

	if !s.host.Installed() {
		return core.ErrHostUnavailable
	}

	if !s.auth.Authenticated() {
		if !s.cell.failDirect(true) {
			return core.ErrOperationInFlight
		}
		return core.ErrNotAuthenticated
	}

	epoch, ok := s.cell.begin()
	if !ok {
		return core.ErrOperationInFlight
	}

	resolved, err := s.resolveRecipient(ctx, recipient)
	if err != nil {
		s.cell.settle(epoch, core.PhaseFailed, true)
		return fmt.Errorf("%w: %v", core.ErrRecipientUnresolved, err)
	}

	intent, err := s.CreateIntent(ctx, amount, ceiling, resolved)
	if err != nil {
		s.cell.settle(epoch, core.PhaseFailed, true)
		if err == core.ErrAmountInvalid {
			return err
		}
		return fmt.Errorf("%w: %v", core.ErrIntentCreation, err)
	}

	units := eth.ToUnits(amount, s.cfg.TokenDecimals)

	s.advance(ctx, intent, core.IntentWalletSigning)

	res, err := s.host.Pay(ctx, &ports.PayCommand{
		Reference: intent.ID,
		To:        resolved,
		Tokens: []ports.TokenAmount{
			{Symbol: s.cfg.TokenSymbol, Amount: units.String()},
		},
		Description: s.cfg.Description,
	})
	if err != nil || res.Status != ports.PayStatusSuccess {
		s.advance(ctx, intent, core.IntentFailed)
		s.cell.settle(epoch, core.PhaseFailed, true)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrWalletSigning, err)
		}
		return fmt.Errorf("%w: wallet reported status %q", core.ErrWalletSigning, res.Status)
	}

	s.advance(ctx, intent, core.IntentTokenTransferred)

	// Second leg: the pool deposit is best-effort. The user-facing
	// payment already completed, so a failure here is logged for
	// out-of-band reconciliation and the operation still succeeds.
	if err := s.poolDeposit(ctx, units); err != nil {
		s.log.Error("pool deposit failed, operator reconciliation required",
			zap.String("reference", intent.ID),
			zap.String("amount", amount.String()),
			zap.Error(err))
	} else {
		s.advance(ctx, intent, core.IntentPoolDeposited)
	}

	if err := s.eventPub.PublishPaymentSettled(ctx, intent.ID, resolved, amount.String()); err != nil {
		s.log.Warn("failed to publish payment event", zap.Error(err))
	}

	if onComplete != nil {
		s.cell.settle(epoch, core.PhaseSuccess, false)
		onComplete()
	} else {
		s.cell.settle(epoch, core.PhaseSuccess, true)
	}

	return nil
}

// Teardown stops the service from applying further state transitions
// from any in-flight operation. Called when the initiating UI surface
// goes away.
func (s *PaymentService) Teardown() {
	s.cell.invalidate()
}

func (s *PaymentService) resolveRecipient(ctx context.Context, recipient string) (string, error) {
	if recipient != "" {
		return recipient, nil
	}
	if s.cfg.OffRampWallet != "" {
		return s.cfg.OffRampWallet, nil
	}

	user, err := s.directory.GetUserByUsername(ctx, s.cfg.FallbackUsername)
	if err != nil {
		return "", err
	}
	if user.Address == "" {
		return "", fmt.Errorf("directory returned no address for %q", s.cfg.FallbackUsername)
	}

	return user.Address, nil
}

func (s *PaymentService) poolDeposit(ctx context.Context, units *big.Int) error {
	res, err := s.host.SendTransaction(ctx, &ports.Transaction{
		Address:      s.cfg.PoolAddress,
		FunctionName: "pay",
		Args:         []string{units.String()},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPoolDeposit, err)
	}
	if res.Status != ports.PayStatusSuccess {
		return fmt.Errorf("%w: host reported status %q", core.ErrPoolDeposit, res.Status)
	}
	return nil
}

// advance moves the stored intent forward; persistence problems after the
// transfer has happened are logged, never surfaced.
func (s *PaymentService) advance(ctx context.Context, intent *core.PaymentIntent, state core.IntentState) {
	if err := intent.Advance(state); err != nil {
		s.log.Warn("intent state transition rejected",
			zap.String("reference", intent.ID), zap.String("state", string(state)), zap.Error(err))
		return
	}
	if err := s.intents.Put(ctx, intent, s.cfg.IntentTTL); err != nil {
		s.log.Warn("failed to persist intent state",
			zap.String("reference", intent.ID), zap.Error(err))
	}
}
