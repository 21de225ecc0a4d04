package verifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/internal/eth"
	"github.com/padimaster/spots/ports"
)

// HMACVerifier implements the Verifier interface with an HMAC-SHA256
// nonce check and EIP-191 signature recovery.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier creates a verifier with the server-side nonce secret.
func NewHMACVerifier(secret string) ports.Verifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// HashNonce computes the HMAC-SHA256 of a nonce with the server secret.
func (v *HMACVerifier) HashNonce(nonce string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyNonce accepts iff signedNonce equals the recomputed hash. This
// fails closed: a mismatch is always core.ErrInvalidSignature, never an
// ambiguous error an upstream caller could swallow.
func (v *HMACVerifier) VerifyNonce(nonce, signedNonce string) error {
	expected := v.HashNonce(nonce)
	if !hmac.Equal([]byte(signedNonce), []byte(expected)) {
		return core.ErrInvalidSignature
	}
	return nil
}

// VerifySignIn validates the wallet-signed SIWE message against the
// claimed address and the issued nonce, returning the verified address.
func (v *HMACVerifier) VerifySignIn(payload *core.SignInPayload, nonce string) (string, error) {
	if payload == nil || payload.Status != "success" {
		return "", fmt.Errorf("wallet auth payload not successful: %w", core.ErrInvalidSignature)
	}

	msg, err := eth.ParseSIWEMessage(payload.Message)
	if err != nil {
		return "", fmt.Errorf("failed to parse sign-in message: %w", err)
	}

	if msg.Nonce != nonce {
		return "", fmt.Errorf("message nonce does not match challenge: %w", core.ErrInvalidChallenge)
	}

	claimed := common.HexToAddress(payload.Address)
	if msg.Address != claimed {
		return "", fmt.Errorf("message address does not match claim: %w", core.ErrInvalidSignature)
	}

	verified, err := eth.VerifyPersonal(payload.Message, payload.Signature, claimed)
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", core.ErrInvalidSignature)
	}
	if !verified {
		return "", core.ErrInvalidSignature
	}

	return claimed.Hex(), nil
}
