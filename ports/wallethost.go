package ports

import (
	"context"

	"github.com/padimaster/spots/core"
)

// PayStatusSuccess is the status a wallet host reports for a completed
// transfer. Anything else, including user cancellation, is a failure.
const PayStatusSuccess = "success"

// TokenAmount is one token leg of a pay command. Amount is the token's
// native integer representation as a decimal string.
type TokenAmount struct {
	Symbol string `json:"symbol"`
	Amount string `json:"token_amount"`
}

// PayCommand asks the wallet host to perform an ERC-20 transfer. The
// reference is the payment-intent id and is searchable on-chain.
type PayCommand struct {
	Reference   string        `json:"reference"`
	To          string        `json:"to"`
	Tokens      []TokenAmount `json:"tokens"`
	Description string        `json:"description"`
}

// PayResult is the wallet host's final payload for a pay command.
type PayResult struct {
	Status        string `json:"status"`
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
}

// Transaction is a contract call submitted through the wallet host's
// send-transaction command.
type Transaction struct {
	Address      string   `json:"address"`
	FunctionName string   `json:"functionName"`
	Args         []string `json:"args"`
}

// TxResult is the wallet host's final payload for a send-transaction
// command.
type TxResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// WalletHost is the capability surface of the embedding wallet app.
// Prompts suspend until the user or host responds; callers map a
// cancellation to a signing failure rather than an indefinite pending
// state.
type WalletHost interface {
	// Installed reports whether the host capability is available. When it
	// is not, sign-in and payment are no-ops at the orchestrator level.
	Installed() bool

	// WalletAuth prompts the user to sign the challenge and returns the
	// structured sign-in payload.
	WalletAuth(ctx context.Context, challenge *core.Challenge) (*core.SignInPayload, error)

	// Pay prompts the user to approve a token transfer.
	Pay(ctx context.Context, cmd *PayCommand) (*PayResult, error)

	// SendTransaction submits a contract call.
	SendTransaction(ctx context.Context, tx *Transaction) (*TxResult, error)
}
