package ledger

import "errors"

// Business-rule errors. Handlers map these to specific HTTP statuses; anything
// else coming out of the ledger is an infrastructure failure.
var (
	// ErrNotFound means a referenced user, quest, item, completion, or
	// purchase does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means a required field is missing or an amount is not
	// positive.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden means the actor may not perform the action: a non-admin
	// granting respect, a self-targeted grant, or a grant targeting an admin.
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientBalance means a purchase exceeds the buyer's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConflict means a duplicate pending or approved quest submission.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState means the record exists but is not in the state the
	// transition requires, e.g. approving an already-reviewed completion.
	ErrInvalidState = errors.New("invalid state")
)
