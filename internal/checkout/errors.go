package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart rejects a submit with nothing to purchase.
	ErrEmptyCart = errors.New("cannot create a purchase without items")
	// ErrAlreadyCompleted rejects further submits after a completed flow.
	ErrAlreadyCompleted = errors.New("checkout already completed")
	// ErrNoPendingPayment rejects a payment retry with no purchase awaiting
	// confirmation.
	ErrNoPendingPayment = errors.New("no payment awaiting confirmation")
)

// ValidationError reports the empty required fields, keyed by field name.
// It is raised before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout form: %d field(s) missing", len(e.Fields))
}

// DataIntegrityError means a cart line item is missing a required linkage.
// This signals a bug upstream of checkout, not a user input error.
type DataIntegrityError struct {
	LocalID string
	Missing string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("cart item %s is missing %s", e.LocalID, e.Missing)
}

// PaymentDeclinedError carries the processor's message after a failed
// confirmation. The purchase stays pending; retry does not re-create it.
type PaymentDeclinedError struct {
	Message string
}

func (e *PaymentDeclinedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "payment failed"
}
