package core

import "errors"

// Engine errors. Every one of these leaves the game state untouched: the
// API layer only commits a state after the operation returned nil.
var (
	// ErrAttackNotFound is returned for an unknown attack identifier.
	ErrAttackNotFound = errors.New("attack not found")
	// ErrAttackOnCooldown is returned when the same attack kind is
	// retried before its cooldown expired.
	ErrAttackOnCooldown = errors.New("attack on cooldown")
	// ErrNotificationNotFound is returned for an unknown or already
	// resolved notification id.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrUnknownMeasure is returned for a measure name outside the
	// twelve known controls.
	ErrUnknownMeasure = errors.New("unknown security measure")
	// ErrVaultEntryNotFound is returned when deleting a vault entry
	// that does not exist.
	ErrVaultEntryNotFound = errors.New("vault entry not found")
	// ErrValidation is returned for structurally invalid request data.
	ErrValidation = errors.New("invalid request data")
)
