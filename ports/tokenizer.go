package ports

import "github.com/padimaster/spots/core"

// Tokenizer converts between wallet sessions and bearer tokens
type Tokenizer interface {
	SessionToToken(session *core.WalletSession) (string, error)
	TokenToSession(token string) (*core.WalletSession, error)
}
