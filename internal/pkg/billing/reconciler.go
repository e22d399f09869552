package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/bragfeed/bragfeed/app/models"
)

const (
	defaultLookupAttempts = 20
	defaultLookupInterval = 250 * time.Millisecond
)

// Reconciler processes billing lifecycle events delivered by the payment
// provider. Processing is effectively-once: duplicate deliveries and
// out-of-order arrival of the checkout and invoice events are tolerated.
//
// Dispatch is a lookup in an immutable event-kind -> handler mapping built
// at construction; exactly one handler runs per delivery and handlers never
// invoke each other.
type Reconciler struct {
	repo Repository

	// LookupAttempts and LookupInterval bound the wait for the checkout
	// handler's customer link to become visible before an invoice event is
	// declared unresolvable. Defaults poll 20 times every 250ms (~5s).
	LookupAttempts uint64
	LookupInterval time.Duration

	handlers map[string]func(ctx context.Context, evt *Event) error
}

// NewReconciler creates a reconciler over the given repository.
func NewReconciler(repo Repository) *Reconciler {
	r := &Reconciler{
		repo:           repo,
		LookupAttempts: defaultLookupAttempts,
		LookupInterval: defaultLookupInterval,
	}
	r.handlers = map[string]func(ctx context.Context, evt *Event) error{
		EventCheckoutSessionCompleted: r.handleCheckoutSessionCompleted,
		EventInvoicePaymentSucceeded:  r.handleInvoicePaymentSucceeded,
	}
	return r
}

// Handle dispatches a verified event to its handler. Events with no
// registered handler are acknowledged as a no-op. A returned HandledError is
// an expected business condition the caller should log and still acknowledge;
// any other error is an infrastructure failure the event source may retry.
func (r *Reconciler) Handle(ctx context.Context, evt *Event) error {
	handler, ok := r.handlers[evt.Type]
	if !ok {
		log.Printf("no handler registered for event type %s, ignoring", evt.Type)
		return nil
	}
	return handler(ctx, evt)
}

// handleCheckoutSessionCompleted links the Stripe customer created during
// checkout to the internal user named in the session metadata. This is the
// binding step between the external payment identity and our account.
func (r *Reconciler) handleCheckoutSessionCompleted(ctx context.Context, evt *Event) error {
	session, err := ParseCheckoutSession(evt.Object)
	if err != nil {
		return Handledf("checkout session payload is malformed: %v", err)
	}

	if session.AppUserID == "" {
		// Orphaned record: a successful checkout we cannot attribute.
		return Handledf("checkout session completed without app_user_id metadata, cannot link to user")
	}
	if session.CustomerID == "" {
		return Handledf("checkout session completed without a valid Stripe customer ID, cannot link to user")
	}

	userID, err := strconv.ParseUint(session.AppUserID, 10, 64)
	if err != nil {
		return Handledf("checkout session metadata app_user_id %q is not a valid user id", session.AppUserID)
	}

	if err := r.repo.LinkStripeCustomer(uint(userID), session.CustomerID); err != nil {
		return fmt.Errorf("failed to link Stripe customer %s to user %d: %w", session.CustomerID, userID, err)
	}
	return nil
}

// handleInvoicePaymentSucceeded records a subscription payment and marks the
// subscription active. The customer lookup is retried because this event may
// arrive before the checkout.session.completed handler has committed its
// write; the two events are ordered by firing, not by handler completion.
func (r *Reconciler) handleInvoicePaymentSucceeded(ctx context.Context, evt *Event) error {
	invoice, err := ParseInvoice(evt.Object)
	if err != nil {
		return Handledf("invoice payload is malformed: %v", err)
	}

	if invoice.CustomerID == "" {
		return Handledf("invoice is missing customer ID, cannot process payment")
	}
	if invoice.ID == "" {
		// Upcoming invoices have no id yet; nothing to record.
		return Handledf("invoice is missing ID and is thus a future invoice, payment not processed")
	}
	if invoice.Period == nil {
		return Handledf("invoice line item is missing subscription period information")
	}

	userID, err := r.resolveUserByCustomer(ctx, invoice.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Handledf("no user found with Stripe customer ID: %s", invoice.CustomerID)
		}
		return fmt.Errorf("customer lookup failed for %s: %w", invoice.CustomerID, err)
	}

	payment := &models.SubscriptionPayment{
		UserID:            userID,
		StripeCustomerID:  invoice.CustomerID,
		InvoiceID:         invoice.ID,
		Amount:            invoice.AmountPaid,
		Currency:          invoice.Currency,
		BillingReason:     invoice.BillingReason,
		SubscriptionStart: time.Unix(invoice.Period.Start, 0).UTC(),
		SubscriptionEnd:   time.Unix(invoice.Period.End, 0).UTC(),
		CreatedAt:         time.Unix(invoice.Created, 0).UTC(),
	}

	created, err := r.repo.CreateSubscriptionPaymentIfNotExists(payment)
	if err != nil {
		return fmt.Errorf("failed to record payment for invoice %s: %w", invoice.ID, err)
	}
	if !created {
		log.Printf("payment for invoice %s already recorded, skipping insert", invoice.ID)
	}

	if err := r.repo.MarkSubscriptionActive(userID); err != nil {
		return fmt.Errorf("failed to mark subscription active for user %d: %w", userID, err)
	}
	return nil
}

// resolveUserByCustomer polls for the user linked to a Stripe customer id,
// waiting for an eventually-visible write with a bounded constant-interval
// retry. Only a missing row is retried; other errors abort immediately.
func (r *Reconciler) resolveUserByCustomer(ctx context.Context, customerID string) (uint, error) {
	var userID uint

	backoff := retry.WithMaxRetries(r.LookupAttempts-1, retry.NewConstant(r.LookupInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := r.repo.FindUserIDByStripeCustomer(customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return retry.RetryableError(err)
			}
			return err
		}
		userID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}
