package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padimaster/spots/adapters/store"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/ports"
)

const (
	testPool    = "0x163142D00354B52F8f4F0431069AbE3119E1BC4a"
	testOffRamp = "0x1fb249bfa4ffB9fa98529692889d38359a57294D"
)

type paymentHarness struct {
	payments *PaymentService
	auth     *authHarness
	host     *fakePayHost
	intents  *countingIntentStore
	dir      *fakeDirectory
	pub      *fakePublisher
}

func newPaymentHarness(t *testing.T, signIn bool, cfg PaymentConfig) *paymentHarness {
	t.Helper()

	auth := newAuthHarness(t, nil)
	if signIn {
		require.NoError(t, auth.auth.SignIn(context.Background()))
	}

	if cfg.TokenSymbol == "" {
		cfg.TokenSymbol = "USDCE"
		cfg.TokenDecimals = 6
	}
	if cfg.IntentTTL == 0 {
		cfg.IntentTTL = time.Hour
	}

	host := newFakePayHost()
	intents := &countingIntentStore{IntentStore: store.NewMemoryIntentStore()}
	dir := &fakeDirectory{byUsername: map[string]*core.User{}}
	pub := &fakePublisher{}

	payments := NewPaymentService(
		host,
		auth.auth,
		intents,
		dir,
		pub,
		zap.NewNop(),
		cfg,
		WithPaymentDisplayWindow(testWindow),
	)

	return &paymentHarness{payments: payments, auth: auth, host: host, intents: intents, dir: dir, pub: pub}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPayRejectsNonPositiveAmountWithoutNetwork(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})

	for _, amount := range []string{"0", "-5"} {
		err := h.payments.Pay(context.Background(), dec(amount), dec("100"), "", nil)
		assert.ErrorIs(t, err, core.ErrAmountInvalid, "amount %s", amount)
		assert.Equal(t, core.PhaseFailed, h.payments.Phase())
	}

	// No intent was written and the wallet was never prompted
	assert.Equal(t, 0, h.intents.putCount())
	assert.Equal(t, 0, h.host.payCount())

	require.Eventually(t, func() bool {
		return h.payments.Phase() == core.PhaseIdle
	}, time.Second, 5*time.Millisecond)
}

func TestPayBelowFloorRejected(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})

	err := h.payments.Pay(context.Background(), dec("0.50"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrAmountInvalid)
	assert.Equal(t, 0, h.host.payCount())
}

func TestPayAboveCeilingRejected(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})

	err := h.payments.Pay(context.Background(), dec("101"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrAmountInvalid)
	assert.Equal(t, 0, h.host.payCount())
}

func TestPayHappyPath(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp, PoolAddress: testPool})
	ctx := context.Background()

	require.NoError(t, h.payments.Pay(ctx, dec("25.50"), dec("100"), "", nil))
	assert.Equal(t, core.PhaseSuccess, h.payments.Phase())

	require.Equal(t, 1, h.host.payCount())
	cmd := h.host.payCalls[0]
	assert.Equal(t, testOffRamp, cmd.To)
	require.Len(t, cmd.Tokens, 1)
	assert.Equal(t, "USDCE", cmd.Tokens[0].Symbol)
	assert.Equal(t, "25500000", cmd.Tokens[0].Amount)

	// Pool deposit ran with the same native units
	require.Equal(t, 1, h.host.txCount())
	tx := h.host.txCalls[0]
	assert.Equal(t, testPool, tx.Address)
	assert.Equal(t, "pay", tx.FunctionName)
	assert.Equal(t, []string{"25500000"}, tx.Args)

	intent, err := h.payments.GetIntent(ctx, cmd.Reference)
	require.NoError(t, err)
	assert.Equal(t, core.IntentPoolDeposited, intent.State)

	assert.Equal(t, 1, h.pub.settledCount())

	require.Eventually(t, func() bool {
		return h.payments.Phase() == core.PhaseIdle
	}, time.Second, 5*time.Millisecond)
}

func TestPayPoolDepositFailureStillSucceeds(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp, PoolAddress: testPool})
	h.host.txErr = errors.New("contract reverted")
	ctx := context.Background()

	var completions int32
	err := h.payments.Pay(ctx, dec("10"), dec("100"), "", func() {
		atomic.AddInt32(&completions, 1)
	})

	// The user-facing transfer completed, so the payment is a success
	require.NoError(t, err)
	assert.Equal(t, core.PhaseSuccess, h.payments.Phase())
	assert.Equal(t, int32(1), atomic.LoadInt32(&completions))
	assert.Equal(t, 1, h.pub.settledCount())

	// The intent records how far settlement actually got
	intent, err := h.payments.GetIntent(ctx, h.host.payCalls[0].Reference)
	require.NoError(t, err)
	assert.Equal(t, core.IntentTokenTransferred, intent.State)
}

func TestPayWalletFailureSkipsPoolDeposit(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp, PoolAddress: testPool})
	h.host.payStatus = "failed"
	ctx := context.Background()

	err := h.payments.Pay(ctx, dec("10"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrWalletSigning)
	assert.Equal(t, core.PhaseFailed, h.payments.Phase())

	// The pool leg never runs when the primary transfer failed
	assert.Equal(t, 0, h.host.txCount())
	assert.Equal(t, 0, h.pub.settledCount())

	intent, err := h.payments.GetIntent(ctx, h.host.payCalls[0].Reference)
	require.NoError(t, err)
	assert.Equal(t, core.IntentFailed, intent.State)

	require.Eventually(t, func() bool {
		return h.payments.Phase() == core.PhaseIdle
	}, time.Second, 5*time.Millisecond)
}

func TestPayWalletErrorSkipsPoolDeposit(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp, PoolAddress: testPool})
	h.host.payErr = errors.New("host crashed")

	err := h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrWalletSigning)
	assert.Equal(t, 0, h.host.txCount())
}

func TestPayRequiresAuthentication(t *testing.T) {
	h := newPaymentHarness(t, false, PaymentConfig{OffRampWallet: testOffRamp})

	err := h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)
	assert.Equal(t, core.PhaseFailed, h.payments.Phase())
	assert.Equal(t, 0, h.host.payCount())
	assert.Equal(t, 0, h.intents.putCount())
}

func TestPayHostNotInstalled(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})
	h.host.installed = false

	err := h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrHostUnavailable)

	// No-op, not a failure
	assert.Equal(t, core.PhaseIdle, h.payments.Phase())
}

func TestPayRejectedWhilePending(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})
	h.host.payBlock = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil) }()

	require.Eventually(t, func() bool {
		return h.payments.Phase() == core.PhasePending
	}, time.Second, 5*time.Millisecond)

	err := h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrOperationInFlight)

	close(h.host.payBlock)
	require.NoError(t, <-done)
}

func TestInvalidResubmissionKeepsInFlightPayment(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})
	h.host.payBlock = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil) }()

	require.Eventually(t, func() bool {
		return h.payments.Phase() == core.PhasePending
	}, time.Second, 5*time.Millisecond)

	// A bad amount while a payment is in flight must not disturb it
	err := h.payments.Pay(context.Background(), dec("0"), dec("100"), "", nil)
	assert.ErrorIs(t, err, core.ErrOperationInFlight)
	assert.Equal(t, core.PhasePending, h.payments.Phase())

	// The in-flight payment still settles as its own success
	close(h.host.payBlock)
	require.NoError(t, <-done)
	assert.Equal(t, core.PhaseSuccess, h.payments.Phase())
}

func TestPayCompletionCallbackHoldsSuccess(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})

	require.NoError(t, h.payments.Pay(context.Background(), dec("10"), dec("100"), "", func() {}))

	// With a completion hook the success phase does not auto-revert
	time.Sleep(3 * testWindow)
	assert.Equal(t, core.PhaseSuccess, h.payments.Phase())

	h.payments.Teardown()
	assert.Equal(t, core.PhaseIdle, h.payments.Phase())
}

func TestPayRecipientFallbacks(t *testing.T) {
	t.Run("explicit recipient wins", func(t *testing.T) {
		h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})
		require.NoError(t, h.payments.Pay(context.Background(), dec("10"), dec("100"), "0xCAFE", nil))
		assert.Equal(t, "0xCAFE", h.host.payCalls[0].To)
	})

	t.Run("directory fallback", func(t *testing.T) {
		h := newPaymentHarness(t, true, PaymentConfig{FallbackUsername: "padimaster"})
		h.dir.byUsername["padimaster"] = &core.User{Address: testOffRamp, Username: "padimaster"}

		require.NoError(t, h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil))
		assert.Equal(t, testOffRamp, h.host.payCalls[0].To)
	})

	t.Run("unresolvable recipient fails", func(t *testing.T) {
		h := newPaymentHarness(t, true, PaymentConfig{FallbackUsername: "padimaster"})
		h.dir.lookupErr = errors.New("directory down")

		err := h.payments.Pay(context.Background(), dec("10"), dec("100"), "", nil)
		assert.ErrorIs(t, err, core.ErrRecipientUnresolved)
		assert.Equal(t, core.PhaseFailed, h.payments.Phase())
		assert.Equal(t, 0, h.host.payCount())
	})
}

func TestConfirmIntent(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp, PoolAddress: testPool})
	ctx := context.Background()

	require.NoError(t, h.payments.Pay(ctx, dec("10"), dec("100"), "", nil))
	id := h.host.payCalls[0].Reference

	t.Run("reference mismatch rejected", func(t *testing.T) {
		_, err := h.payments.ConfirmIntent(ctx, id, "someone-elses-reference")
		assert.ErrorIs(t, err, core.ErrReferenceMismatch)
	})

	t.Run("unknown intent", func(t *testing.T) {
		_, err := h.payments.ConfirmIntent(ctx, "missing", "missing")
		assert.ErrorIs(t, err, core.ErrIntentNotFound)
	})

	t.Run("confirm", func(t *testing.T) {
		intent, err := h.payments.ConfirmIntent(ctx, id, id)
		require.NoError(t, err)
		assert.Equal(t, core.IntentConfirmed, intent.State)
	})

	t.Run("confirm twice rejected", func(t *testing.T) {
		_, err := h.payments.ConfirmIntent(ctx, id, id)
		assert.ErrorIs(t, err, core.ErrIntentFinal)
	})
}

func TestCreateIntentPersists(t *testing.T) {
	h := newPaymentHarness(t, true, PaymentConfig{OffRampWallet: testOffRamp})
	ctx := context.Background()

	intent, err := h.payments.CreateIntent(ctx, dec("5"), dec("100"), testOffRamp)
	require.NoError(t, err)

	got, err := h.payments.GetIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, core.IntentCreated, got.State)
	assert.True(t, got.Amount.Equal(dec("5")))
}

var _ ports.WalletHost = (*fakePayHost)(nil)
