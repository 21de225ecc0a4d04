package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padimaster/spots/adapters/store"
	"github.com/padimaster/spots/adapters/tokenizer"
	"github.com/padimaster/spots/adapters/verifier"
	"github.com/padimaster/spots/adapters/wallethost"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/ports"
)

// testWindow keeps terminal phases visible just long enough to observe
// before they auto-revert.
const testWindow = 40 * time.Millisecond

type fakeBridge struct {
	mu              sync.Mutex
	loginErr        error
	logoutErr       error
	loginCount      int
	logoutCount     int
	lastLogoutToken string
}

func (b *fakeBridge) Login(_ context.Context, address string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginCount++
	if b.loginErr != nil {
		return "", b.loginErr
	}
	return "bridge-session-" + address, nil
}

func (b *fakeBridge) Logout(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCount++
	b.lastLogoutToken = token
	return b.logoutErr
}

func (b *fakeBridge) logins() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCount
}

func (b *fakeBridge) logouts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logoutCount
}

func (b *fakeBridge) setLoginErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginErr = err
}

type fakePublisher struct {
	mu      sync.Mutex
	logins  int
	logouts int
	settled int
}

func (p *fakePublisher) PublishLogin(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins++
	return nil
}

func (p *fakePublisher) PublishLogout(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts++
	return nil
}

func (p *fakePublisher) PublishPaymentSettled(context.Context, string, string, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settled++
	return nil
}

func (p *fakePublisher) settledCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settled
}

type fakeDirectory struct {
	byUsername map[string]*core.User
	lookupErr  error
}

func (d *fakeDirectory) GetUserByUsername(_ context.Context, username string) (*core.User, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	if u, ok := d.byUsername[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, errors.New("user not found")
}

func (d *fakeDirectory) GetUserInfo(_ context.Context, address string) (*core.User, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	return &core.User{Address: address, Username: "tester"}, nil
}

// fakePayHost answers pay and send-transaction commands with configurable
// outcomes and records every command it receives. It does not implement
// wallet auth; sign-in tests use the local host.
type fakePayHost struct {
	mu        sync.Mutex
	installed bool
	payStatus string
	payErr    error
	txStatus  string
	txErr     error
	payBlock  chan struct{}
	payCalls  []*ports.PayCommand
	txCalls   []*ports.Transaction
}

func newFakePayHost() *fakePayHost {
	return &fakePayHost{installed: true, payStatus: ports.PayStatusSuccess, txStatus: ports.PayStatusSuccess}
}

func (h *fakePayHost) Installed() bool { return h.installed }

func (h *fakePayHost) WalletAuth(context.Context, *core.Challenge) (*core.SignInPayload, error) {
	return nil, errors.New("not supported")
}

func (h *fakePayHost) Pay(_ context.Context, cmd *ports.PayCommand) (*ports.PayResult, error) {
	if h.payBlock != nil {
		<-h.payBlock
	}
	h.mu.Lock()
	h.payCalls = append(h.payCalls, cmd)
	status, err := h.payStatus, h.payErr
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &ports.PayResult{Status: status, Reference: cmd.Reference, TransactionID: "0xabc"}, nil
}

func (h *fakePayHost) SendTransaction(_ context.Context, tx *ports.Transaction) (*ports.TxResult, error) {
	h.mu.Lock()
	h.txCalls = append(h.txCalls, tx)
	status, err := h.txStatus, h.txErr
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &ports.TxResult{Status: status, TransactionID: "0xdef"}, nil
}

func (h *fakePayHost) payCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payCalls)
}

func (h *fakePayHost) txCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.txCalls)
}

// countingIntentStore wraps a store and counts writes so tests can prove
// that rejected payments never create intents.
type countingIntentStore struct {
	ports.IntentStore
	mu   sync.Mutex
	puts int
}

func (s *countingIntentStore) Put(ctx context.Context, intent *core.PaymentIntent, ttl time.Duration) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return s.IntentStore.Put(ctx, intent, ttl)
}

func (s *countingIntentStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

type authHarness struct {
	auth   *AuthService
	host   *wallethost.LocalHost
	bridge *fakeBridge
	tokens ports.TokenStore
	pub    *fakePublisher
}

func newAuthHarness(t *testing.T, host ports.WalletHost) *authHarness {
	t.Helper()

	local, err := wallethost.NewLocalHost(nil, "spots.example.com", "https://spots.example.com", 480)
	require.NoError(t, err)
	if host == nil {
		host = local
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	bridge := &fakeBridge{}
	tokens := store.NewMemoryTokenStore()
	pub := &fakePublisher{}

	auth := NewAuthService(
		host,
		verifier.NewHMACVerifier("test-secret"),
		tokenizer.NewJWTTokenizer(key),
		bridge,
		tokens,
		&fakeDirectory{},
		pub,
		zap.NewNop(),
		WithAuthDisplayWindow(testWindow),
	)

	return &authHarness{auth: auth, host: local, bridge: bridge, tokens: tokens, pub: pub}
}
