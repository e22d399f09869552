package billing

import (
	"errors"
	"fmt"
)

// Stripe event kinds this service reconciles.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
)

// HandledError marks an expected, non-retryable processing failure.
//
// The event source requires an acknowledgment for successful receipt of an
// event; repeated hard failures eventually get the webhook subscription
// disabled. A HandledError represents a condition we received and understood
// but cannot act on (missing metadata, unresolvable customer), so the caller
// logs it and still acknowledges the delivery. Only unexpected failures
// (database unreachable and the like) propagate as regular errors, letting
// the source redeliver later.
type HandledError struct {
	msg string
}

func (e *HandledError) Error() string {
	return e.msg
}

// Handledf creates a HandledError with a formatted message.
func Handledf(format string, args ...interface{}) error {
	return &HandledError{msg: fmt.Sprintf(format, args...)}
}

// IsHandled reports whether err is (or wraps) a HandledError.
func IsHandled(err error) bool {
	var he *HandledError
	return errors.As(err, &he)
}
