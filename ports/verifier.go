package ports

import "github.com/padimaster/spots/core"

// Verifier performs the two mandatory sign-in checks: the signed nonce
// must equal the server-computed value, and the wallet payload must be
// cryptographically verified against the claimed address. Both are
// required before trust is granted; neither failure is recoverable.
type Verifier interface {
	// HashNonce computes the server-side HMAC for a nonce.
	HashNonce(nonce string) string

	// VerifyNonce fails closed with core.ErrInvalidSignature unless
	// signedNonce equals the recomputed hash of nonce.
	VerifyNonce(nonce, signedNonce string) error

	// VerifySignIn checks the wallet-signed message against the claimed
	// address and the issued nonce, returning the verified address.
	VerifySignIn(payload *core.SignInPayload, nonce string) (string, error)
}
