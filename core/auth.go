package core

import "time"

// Challenge represents a wallet sign-in challenge
type Challenge struct {
	ID          string    // Unique identifier for the challenge
	Nonce       string    // Random nonce to be signed
	SignedNonce string    // Server HMAC over the nonce
	IssuedAt    time.Time // When the challenge was created
	ExpiresAt   time.Time // When the challenge expires
}

// SignInPayload is the wallet host's answer to a challenge
type SignInPayload struct {
	Status    string `json:"status"`    // "success" or an error status
	Message   string `json:"message"`   // The SIWE message that was signed
	Signature string `json:"signature"` // 65-byte hex signature over the message
	Address   string `json:"address"`   // Claimed wallet address
}

// User is the identity returned by a successful sign-in
type User struct {
	Address           string `json:"address"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
	ExternalAPIToken  string `json:"external_api_token,omitempty"`
}

// WalletSession represents a locally authenticated wallet.
// The bridged API token is tracked separately: a wallet session may exist
// without a bridged token (bridge login failed) and is reconciled later.
type WalletSession struct {
	Address         string    // Ethereum address of the user
	Username        string    // Host-app username, if known
	AuthenticatedAt time.Time // When signature verification succeeded
	ExpiresAt       time.Time // When the session token expires
}
