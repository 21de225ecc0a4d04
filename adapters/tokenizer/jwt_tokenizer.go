package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/ports"
)

const AudienceSession = "wallet:session"

// DefaultSessionTTL is how long a wallet-session token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// JWTTokenizer implements the Tokenizer interface using JWT
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	ttl     time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey, ttl: DefaultSessionTTL}
}

// SessionToToken converts a WalletSession to a signed JWT
func (j *JWTTokenizer) SessionToToken(session *core.WalletSession) (string, error) {
	expiry := session.ExpiresAt
	if expiry.IsZero() {
		expiry = session.AuthenticatedAt.Add(j.ttl)
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Address,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(session.AuthenticatedAt),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
		Username: session.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// TokenToSession parses and validates a session token
func (j *JWTTokenizer) TokenToSession(tokenStr string) (*core.WalletSession, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSession))

	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	session := &core.WalletSession{
		Address:  claims.Subject,
		Username: claims.Username,
	}
	// iat/exp are optional claims; a foreign token may omit them
	if claims.IssuedAt != nil {
		session.AuthenticatedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}
