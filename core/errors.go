package core

import "errors"

var (
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidChallenge    = errors.New("invalid challenge")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token has expired")
	ErrHostUnavailable     = errors.New("wallet host is not installed")
	ErrNotAuthenticated    = errors.New("no authenticated session")
	ErrAmountInvalid       = errors.New("amount must be greater than zero")
	ErrRecipientUnresolved = errors.New("recipient address could not be resolved")
	ErrIntentCreation      = errors.New("payment intent creation failed")
	ErrWalletSigning       = errors.New("wallet signing failed or was cancelled")
	ErrPoolDeposit         = errors.New("pool deposit failed")
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrIntentFinal         = errors.New("payment intent is in a terminal state")
	ErrIntentRewind        = errors.New("payment intent states only move forward")
	ErrReferenceMismatch   = errors.New("transaction reference does not match intent")
	ErrOperationInFlight   = errors.New("another operation is already pending")
)
