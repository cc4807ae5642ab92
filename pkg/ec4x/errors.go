package ec4x

import "fmt"

// ErrorCode classifies command validation failures.
type ErrorCode string

const (
	ErrNotFound          ErrorCode = "not_found"
	ErrNotOwner          ErrorCode = "not_owner"
	ErrInsufficientFunds ErrorCode = "insufficient_funds"
	ErrInsufficientPool  ErrorCode = "insufficient_pool"
	ErrSLGated           ErrorCode = "sl_gated"
	ErrNoPath            ErrorCode = "no_path"
	ErrWrongShipKind     ErrorCode = "wrong_ship_kind"
	ErrCapacity          ErrorCode = "capacity_violation"
	ErrInvalidROE        ErrorCode = "invalid_roe"
	ErrOccupied          ErrorCode = "occupied"
	ErrAfterDeadline     ErrorCode = "after_deadline"
	ErrBadCommand        ErrorCode = "bad_command"
)

// ValidationError rejects a submitted command. It is surfaced to the
// submitting house; it never aborts turn resolution.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Refs    []uint32  `json:"entity_refs,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// invariantPanic aborts the turn on an invariant breach, naming the phase
// and offending entity so the pre-phase state can be inspected.
func invariantPanic(phase string, entity uint32, msg string) {
	panic(fmt.Sprintf("invariant breach in %s phase (entity %d): %s", phase, entity, msg))
}
