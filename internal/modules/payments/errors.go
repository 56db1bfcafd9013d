package payments

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrNotTransitionable: the requested status change would move the
	// payment backwards (e.g. refunding a pending payment).
	ErrNotTransitionable = errors.New("payment not in a transitionable state")
	// ErrEventExists: this (provider, event_id) pair is already in the
	// webhook dedupe ledger.
	ErrEventExists = errors.New("provider event already recorded")
)
