package errors

import "errors"

var (
	ErrUnauthorized        = errors.New("only owner can perform this action")
	ErrInvalidInput        = errors.New("invalid election input")
	ErrPhaseViolation      = errors.New("operation not allowed in current voting phase")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNotEligible         = errors.New("you must buy voting rights first")
	ErrVoteLimitExceeded   = errors.New("you have already voted twice")
	ErrUnknownCandidate    = errors.New("candidate is not registered")
	ErrTooEarly            = errors.New("voting period has not elapsed")
	ErrElectionNotFound    = errors.New("election not found")
	ErrWinnerNotDeclared   = errors.New("winner has not been declared")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	ErrConflict            = errors.New("election conflict")
	ErrIndexOutOfRange     = errors.New("index out of range")
)
