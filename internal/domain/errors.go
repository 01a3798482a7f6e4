package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrOrderNotFound distinguishes a missing order from other lookups so the
	// verify-payment endpoint can surface its documented "Order not found" response.
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	// ErrPaymentOracle wraps upstream payment-status failures. These are terminal
	// for the current call but retryable by the caller.
	ErrPaymentOracle = errors.New("payment status oracle failure")
	// ErrOrderPersist signals that the confirmed-state transition could not be
	// stored. No notification or attribution side effects run after it.
	ErrOrderPersist = errors.New("order state persistence failure")
)
