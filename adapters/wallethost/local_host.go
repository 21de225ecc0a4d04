// Package wallethost provides a development implementation of the wallet
// host capability. Production deployments embed the real host app; this
// one answers commands locally with an ECDSA key so the full sign-in and
// payment flows can run end to end without a device.
package wallethost

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/internal/eth"
	"github.com/padimaster/spots/ports"
)

// LocalHost is a wallet host backed by a local private key.
type LocalHost struct {
	key     *ecdsa.PrivateKey
	domain  string
	uri     string
	chainID int64
}

// NewLocalHost creates a local wallet host. A nil key generates a fresh
// one, which is convenient for tests.
func NewLocalHost(key *ecdsa.PrivateKey, domain, uri string, chainID int64) (*LocalHost, error) {
	if key == nil {
		generated, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		key = generated
	}

	return &LocalHost{key: key, domain: domain, uri: uri, chainID: chainID}, nil
}

// Address returns the host wallet's address.
func (h *LocalHost) Address() string {
	return crypto.PubkeyToAddress(h.key.PublicKey).Hex()
}

// Installed always reports true for the local host.
func (h *LocalHost) Installed() bool {
	return true
}

// WalletAuth builds a SIWE message carrying the challenge nonce and
// personal-signs it.
func (h *LocalHost) WalletAuth(ctx context.Context, challenge *core.Challenge) (*core.SignInPayload, error) {
	addr := crypto.PubkeyToAddress(h.key.PublicKey)

	msg := &eth.SIWEMessage{
		Domain:    h.domain,
		Address:   addr,
		Statement: "Sign in to place bets",
		URI:       h.uri,
		Version:   "1",
		ChainID:   h.chainID,
		Nonce:     challenge.Nonce,
		IssuedAt:  time.Now(),
	}

	raw := msg.String()
	sig, err := eth.SignPersonal(raw, h.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	return &core.SignInPayload{
		Status:    "success",
		Message:   raw,
		Signature: sig,
		Address:   addr.Hex(),
	}, nil
}

// Pay approves any transfer immediately and fabricates a transaction id.
func (h *LocalHost) Pay(ctx context.Context, cmd *ports.PayCommand) (*ports.PayResult, error) {
	return &ports.PayResult{
		Status:        ports.PayStatusSuccess,
		Reference:     cmd.Reference,
		TransactionID: "0x" + uuid.New().String(),
	}, nil
}

// SendTransaction accepts any contract call immediately.
func (h *LocalHost) SendTransaction(ctx context.Context, tx *ports.Transaction) (*ports.TxResult, error) {
	return &ports.TxResult{
		Status:        ports.PayStatusSuccess,
		TransactionID: "0x" + uuid.New().String(),
	}, nil
}
