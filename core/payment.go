package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntentState is a stage in the bet-payment sequence. States only move
// forward, never back.
type IntentState string

const (
	IntentCreated          IntentState = "created"
	IntentWalletSigning    IntentState = "wallet-signing"
	IntentTokenTransferred IntentState = "token-transferred"
	IntentPoolDeposited    IntentState = "pool-deposited"
	IntentConfirmed        IntentState = "confirmed"
	IntentFailed           IntentState = "failed"
)

// intentOrder encodes the forward-only ordering of intent states.
var intentOrder = map[IntentState]int{
	IntentCreated:          0,
	IntentWalletSigning:    1,
	IntentTokenTransferred: 2,
	IntentPoolDeposited:    3,
	IntentConfirmed:        4,
	IntentFailed:           5,
}

// MinStake is the minimum stake floor enforced at submission time.
var MinStake = decimal.RequireFromString("1.00")

// PaymentIntent is a server-tracked correlation record for a pending
// payment. The id is referenced on-chain so the caller can verify
// settlement after the fact.
type PaymentIntent struct {
	ID        string
	Amount    decimal.Decimal
	Recipient string
	State     IntentState
	CreatedAt time.Time
}

// NewPaymentIntent validates the amount against the stake floor and the
// caller-supplied balance-derived ceiling.
func NewPaymentIntent(id string, amount, ceiling decimal.Decimal, recipient string) (*PaymentIntent, error) {
	if amount.LessThan(MinStake) || amount.GreaterThan(ceiling) {
		return nil, ErrAmountInvalid
	}

	return &PaymentIntent{
		ID:        id,
		Amount:    amount,
		Recipient: recipient,
		State:     IntentCreated,
		CreatedAt: time.Now(),
	}, nil
}

// Advance moves the intent to the given state. Moving backwards,
// revisiting a state, or leaving a terminal state is rejected.
func (p *PaymentIntent) Advance(next IntentState) error {
	if p.State == IntentConfirmed || p.State == IntentFailed {
		return ErrIntentFinal
	}
	if next != IntentFailed && intentOrder[next] <= intentOrder[p.State] {
		return ErrIntentRewind
	}
	p.State = next
	return nil
}
