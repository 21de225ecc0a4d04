package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/ports"
	"go.uber.org/zap"
)

// AuthService coordinates wallet-level sign-in with the external session
// bridge. The wallet session and the bridged API token are independent
// state cells: either can exist without the other, and Sync reconciles
// them one attempt per auth-state change.
type AuthService struct {
	host      ports.WalletHost
	verifier  ports.Verifier
	tokenizer ports.Tokenizer
	bridge    ports.SessionBridge
	tokens    ports.TokenStore
	directory ports.UserDirectory
	eventPub  ports.EventPublisher
	log       *zap.Logger

	challengeTTL time.Duration
	bridgeTTL    time.Duration

	cell *phaseCell

	mu          sync.RWMutex
	session     *core.WalletSession
	user        *core.User
	lastAddress string
}

// AuthOption configures the auth service
type AuthOption func(*AuthService)

// WithAuthDisplayWindow overrides the success display window. Tests use
// short windows instead of sleeping through the 3s default.
func WithAuthDisplayWindow(d time.Duration) AuthOption {
	return func(s *AuthService) { s.cell = newPhaseCell(d) }
}

// NewAuthService creates a new authentication service
func NewAuthService(
	host ports.WalletHost,
	verifier ports.Verifier,
	tokenizer ports.Tokenizer,
	bridge ports.SessionBridge,
	tokens ports.TokenStore,
	directory ports.UserDirectory,
	eventPub ports.EventPublisher,
	log *zap.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		host:         host,
		verifier:     verifier,
		tokenizer:    tokenizer,
		bridge:       bridge,
		tokens:       tokens,
		directory:    directory,
		eventPub:     eventPub,
		log:          log,
		challengeTTL: 5 * time.Minute,
		bridgeTTL:    24 * time.Hour,
		cell:         newPhaseCell(DefaultDisplayWindow),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Auto-revert back to idle is itself an auth-state change, so the
	// reconciliation rule gets one attempt there too.
	s.cell.onIdle = func() { s.Sync(context.Background()) }

	return s
}

// Phase returns the visible sign-in phase.
func (s *AuthService) Phase() core.Phase {
	return s.cell.current()
}

// Session returns a copy of the current wallet session, or nil.
func (s *AuthService) Session() *core.WalletSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// User returns a copy of the signed-in user, or nil.
func (s *AuthService) User() *core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// Authenticated reports whether a wallet session exists. The bridged
// token may still be absent; payment gating only needs the wallet level.
func (s *AuthService) Authenticated() bool {
	return s.Session() != nil
}

// CreateChallenge generates a fresh nonce-signing challenge.
func (s *AuthService) CreateChallenge() (*core.Challenge, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := time.Now()
	return &core.Challenge{
		ID:          uuid.New().String(),
		Nonce:       nonce,
		SignedNonce: s.verifier.HashNonce(nonce),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.challengeTTL),
	}, nil
}

// Authorize is the server-side credential check: both the nonce equality
// check and the signature verification must pass before trust is granted.
// It returns the signed-in user and a wallet-session bearer token. Bridge
// login failure is non-fatal; the user is returned without an external
// token and Sync retries later.
func (s *AuthService) Authorize(ctx context.Context, nonce, signedNonce, finalPayloadJSON string) (*core.User, string, error) {
	if err := s.verifier.VerifyNonce(nonce, signedNonce); err != nil {
		return nil, "", err
	}

	var payload core.SignInPayload
	if err := json.Unmarshal([]byte(finalPayloadJSON), &payload); err != nil {
		return nil, "", fmt.Errorf("failed to parse final payload: %w", core.ErrInvalidSignature)
	}

	address, err := s.verifier.VerifySignIn(&payload, nonce)
	if err != nil {
		return nil, "", err
	}

	user := &core.User{Address: address}
	if s.directory != nil {
		if info, err := s.directory.GetUserInfo(ctx, address); err != nil {
			s.log.Warn("user info lookup failed", zap.String("address", address), zap.Error(err))
		} else {
			info.Address = address
			user = info
		}
	}

	// Session bridge login. Failure here leaves the wallet session
	// locally authenticated with the bridged token absent.
	if token, err := s.bridge.Login(ctx, address); err != nil {
		s.log.Warn("bridge login failed, will retry on next auth state change",
			zap.String("address", address), zap.Error(err))
	} else {
		user.ExternalAPIToken = token
		if err := s.tokens.Set(ctx, address, token, s.bridgeTTL); err != nil {
			s.log.Warn("failed to persist bridged token", zap.Error(err))
		}
	}

	session := &core.WalletSession{
		Address:         address,
		Username:        user.Username,
		AuthenticatedAt: time.Now(),
	}

	sessionToken, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, address); err != nil {
		s.log.Warn("failed to publish login event", zap.Error(err))
	}

	return user, sessionToken, nil
}

// SignIn drives the full wallet sign-in: challenge, wallet prompt, then
// Authorize. When the wallet host is not installed the operation is a
// no-op so the UI can show "not installed" instead of a failure.
func (s *AuthService) SignIn(ctx context.Context) error {
	if !s.host.Installed() {
		return core.ErrHostUnavailable
	}

	epoch, ok := s.cell.begin()
	if !ok {
		return core.ErrOperationInFlight
	}

	challenge, err := s.CreateChallenge()
	if err != nil {
		s.cell.settle(epoch, core.PhaseFailed, false)
		return err
	}

	payload, err := s.host.WalletAuth(ctx, challenge)
	if err != nil {
		s.cell.settle(epoch, core.PhaseFailed, false)
		return fmt.Errorf("wallet auth prompt failed: %w", core.ErrWalletSigning)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.cell.settle(epoch, core.PhaseFailed, false)
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	user, _, err := s.Authorize(ctx, challenge.Nonce, challenge.SignedNonce, string(raw))
	if err != nil {
		s.cell.settle(epoch, core.PhaseFailed, false)
		return err
	}

	s.mu.Lock()
	s.session = &core.WalletSession{
		Address:         user.Address,
		Username:        user.Username,
		AuthenticatedAt: time.Now(),
	}
	s.user = user
	s.lastAddress = user.Address
	s.mu.Unlock()

	s.cell.settle(epoch, core.PhaseSuccess, true)
	return nil
}

// SignOut invalidates the bridged session first, while its token is
// still valid, then always tears down the local wallet session. The
// operation is idempotent and never leaves the UI apparently
// authenticated, even when the bridge call fails.
func (s *AuthService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	address := s.lastAddress
	s.mu.Unlock()

	if sess != nil {
		address = sess.Address
	}

	s.LogoutAddress(ctx, address)

	s.mu.Lock()
	s.session = nil
	s.user = nil
	s.mu.Unlock()

	s.cell.invalidate()

	if sess != nil {
		if err := s.eventPub.PublishLogout(ctx, address); err != nil {
			s.log.Warn("failed to publish logout event", zap.Error(err))
		}
	}

	return nil
}

// LogoutAddress invalidates the bridged session for an address: bridge
// logout first, while the token is still valid, then the stored token.
// Both steps are best-effort.
func (s *AuthService) LogoutAddress(ctx context.Context, address string) {
	if address == "" {
		return
	}

	if token, err := s.tokens.Get(ctx, address); err == nil {
		if err := s.bridge.Logout(ctx, token); err != nil {
			s.log.Warn("bridge logout failed, tearing down local session anyway",
				zap.String("address", address), zap.Error(err))
		}
	}
	if err := s.tokens.Delete(ctx, address); err != nil {
		s.log.Warn("failed to delete bridged token", zap.Error(err))
	}
}

// Sync reconciles the two authentication cells: a wallet session without
// a bridged token gets exactly one login attempt, and a bridged token
// without a wallet session is invalidated. Callers invoke it on auth
// state changes, never in a tight loop.
func (s *AuthService) Sync(ctx context.Context) {
	s.mu.RLock()
	sess := s.session
	address := s.lastAddress
	s.mu.RUnlock()

	if sess != nil {
		if _, err := s.tokens.Get(ctx, sess.Address); err == nil {
			return
		}

		token, err := s.bridge.Login(ctx, sess.Address)
		if err != nil {
			s.log.Warn("bridge login retry failed", zap.String("address", sess.Address), zap.Error(err))
			return
		}

		if err := s.tokens.Set(ctx, sess.Address, token, s.bridgeTTL); err != nil {
			s.log.Warn("failed to persist bridged token", zap.Error(err))
			return
		}

		s.mu.Lock()
		if s.user != nil {
			s.user.ExternalAPIToken = token
		}
		s.mu.Unlock()
		return
	}

	if address == "" {
		return
	}

	token, err := s.tokens.Get(ctx, address)
	if err != nil {
		return
	}

	if err := s.bridge.Logout(ctx, token); err != nil {
		s.log.Warn("bridge logout during reconcile failed", zap.Error(err))
	}
	if err := s.tokens.Delete(ctx, address); err != nil {
		s.log.Warn("failed to delete bridged token", zap.Error(err))
	}
}

// BridgeToken returns the bridged API token for the current session.
func (s *AuthService) BridgeToken(ctx context.Context) (string, error) {
	sess := s.Session()
	if sess == nil {
		return "", core.ErrNotAuthenticated
	}
	return s.tokens.Get(ctx, sess.Address)
}

// ValidateSessionToken parses and validates a wallet-session bearer token.
func (s *AuthService) ValidateSessionToken(token string) (*core.WalletSession, error) {
	sess, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		return nil, core.ErrTokenExpired
	}

	return sess, nil
}
