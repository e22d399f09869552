package billing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/bragfeed/bragfeed/app/models"
)

type fakeRepo struct {
	// customerID -> userID, the link written by the checkout handler
	customers map[string]uint
	active    map[uint]bool
	payments  map[string]*models.SubscriptionPayment

	// providerEventID -> stored event, the dedup log
	events      map[string]*models.WebhookEvent
	nextEventID uint

	lookupCalls int
	// number of lookups that miss before the customer link becomes visible
	visibleAfter int

	linkErr   error
	lookupErr error
	createErr error
	eventErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers: make(map[string]uint),
		active:    make(map[uint]bool),
		payments:  make(map[string]*models.SubscriptionPayment),
		events:    make(map[string]*models.WebhookEvent),
	}
}

func (f *fakeRepo) LinkStripeCustomer(userID uint, customerID string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.customers[customerID] = userID
	f.active[userID] = true
	return nil
}

func (f *fakeRepo) FindUserIDByStripeCustomer(customerID string) (uint, error) {
	f.lookupCalls++
	if f.lookupErr != nil {
		return 0, f.lookupErr
	}
	if f.lookupCalls <= f.visibleAfter {
		return 0, gorm.ErrRecordNotFound
	}
	id, ok := f.customers[customerID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return id, nil
}

func (f *fakeRepo) MarkSubscriptionActive(userID uint) error {
	f.active[userID] = true
	return nil
}

func (f *fakeRepo) CreateSubscriptionPaymentIfNotExists(payment *models.SubscriptionPayment) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	if _, exists := f.payments[payment.InvoiceID]; exists {
		return false, nil
	}
	f.payments[payment.InvoiceID] = payment
	return true, nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if f.eventErr != nil {
		return false, nil, f.eventErr
	}
	if existing, ok := f.events[event.ProviderEventID]; ok {
		return false, existing, nil
	}
	f.nextEventID++
	event.ID = f.nextEventID
	f.events[event.ProviderEventID] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}

func newTestReconciler(repo Repository) *Reconciler {
	r := NewReconciler(repo)
	r.LookupAttempts = 5
	r.LookupInterval = time.Millisecond
	return r
}

func event(t *testing.T, kind, object string) *Event {
	t.Helper()
	return &Event{ID: "evt_test", Type: kind, Object: json.RawMessage(object)}
}

func TestCheckoutCompletedLinksCustomer(t *testing.T) {
	repo := newFakeRepo()
	r := newTestReconciler(repo)

	evt := event(t, EventCheckoutSessionCompleted,
		`{"customer":"cus_1","metadata":{"app_user_id":"7"}}`)
	if err := r.Handle(context.Background(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.customers["cus_1"] != 7 {
		t.Fatalf("expected customer cus_1 linked to user 7, got %v", repo.customers)
	}
	if !repo.active[7] {
		t.Fatalf("expected user 7 subscription active after checkout")
	}
}

func TestCheckoutCompletedExpandedCustomerObject(t *testing.T) {
	repo := newFakeRepo()
	r := newTestReconciler(repo)

	evt := event(t, EventCheckoutSessionCompleted,
		`{"customer":{"id":"cus_9"},"metadata":{"app_user_id":"3"}}`)
	if err := r.Handle(context.Background(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.customers["cus_9"] != 3 {
		t.Fatalf("expected expanded customer object to resolve, got %v", repo.customers)
	}
}

func TestCheckoutCompletedMissingMetadata(t *testing.T) {
	tests := []struct {
		name   string
		object string
	}{
		{name: "missing app_user_id", object: `{"customer":"cus_1","metadata":{}}`},
		{name: "missing customer", object: `{"customer":null,"metadata":{"app_user_id":"7"}}`},
		{name: "non-numeric app_user_id", object: `{"customer":"cus_1","metadata":{"app_user_id":"abc"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			r := newTestReconciler(repo)

			err := r.Handle(context.Background(), event(t, EventCheckoutSessionCompleted, tt.object))
			if !IsHandled(err) {
				t.Fatalf("expected handled failure, got %v", err)
			}
			if len(repo.customers) != 0 || len(repo.active) != 0 {
				t.Fatalf("expected no subscriber mutation on handled failure")
			}
		})
	}
}

func TestInvoicePaymentSucceededRecordsPayment(t *testing.T) {
	repo := newFakeRepo()
	repo.customers["cus_1"] = 7
	r := newTestReconciler(repo)

	evt := event(t, EventInvoicePaymentSucceeded, `{
		"id": "in_1",
		"customer": "cus_1",
		"amount_paid": 999,
		"currency": "usd",
		"billing_reason": "subscription_create",
		"created": 3000,
		"lines": {"data": [{"period": {"start": 1000, "end": 2000}}]}
	}`)
	if err := r.Handle(context.Background(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment, ok := repo.payments["in_1"]
	if !ok {
		t.Fatalf("expected payment for invoice in_1 to be recorded")
	}
	if payment.UserID != 7 || payment.Amount != 999 || payment.Currency != "usd" {
		t.Fatalf("unexpected payment fields: %+v", payment)
	}
	if !payment.SubscriptionStart.Equal(time.Unix(1000, 0).UTC()) {
		t.Fatalf("expected subscription start from line period, got %v", payment.SubscriptionStart)
	}
	if !payment.SubscriptionEnd.Equal(time.Unix(2000, 0).UTC()) {
		t.Fatalf("expected subscription end from line period, got %v", payment.SubscriptionEnd)
	}
	if !repo.active[7] {
		t.Fatalf("expected subscription marked active")
	}
}

func TestInvoicePaymentSucceededMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		object string
	}{
		{name: "missing customer", object: `{"id":"in_1","lines":{"data":[{"period":{"start":1,"end":2}}]}}`},
		{name: "missing invoice id", object: `{"customer":"cus_1","lines":{"data":[{"period":{"start":1,"end":2}}]}}`},
		{name: "missing line period", object: `{"id":"in_1","customer":"cus_1","lines":{"data":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			repo.customers["cus_1"] = 7
			r := newTestReconciler(repo)

			err := r.Handle(context.Background(), event(t, EventInvoicePaymentSucceeded, tt.object))
			if !IsHandled(err) {
				t.Fatalf("expected handled failure, got %v", err)
			}
			if len(repo.payments) != 0 {
				t.Fatalf("expected no payment recorded on handled failure")
			}
		})
	}
}

func TestInvoiceResolvesAfterCheckoutWriteBecomesVisible(t *testing.T) {
	repo := newFakeRepo()
	repo.customers["cus_1"] = 7
	repo.visibleAfter = 3 // first three lookups miss
	r := newTestReconciler(repo)

	evt := event(t, EventInvoicePaymentSucceeded, `{
		"id": "in_1",
		"customer": "cus_1",
		"created": 3000,
		"lines": {"data": [{"period": {"start": 1000, "end": 2000}}]}
	}`)
	if err := r.Handle(context.Background(), evt); err != nil {
		t.Fatalf("expected lookup to succeed within polling window, got %v", err)
	}
	if repo.lookupCalls != 4 {
		t.Fatalf("expected 4 lookup calls, got %d", repo.lookupCalls)
	}
	if _, ok := repo.payments["in_1"]; !ok {
		t.Fatalf("expected payment recorded after delayed resolution")
	}
}

func TestInvoiceUnresolvableAfterPollingWindow(t *testing.T) {
	repo := newFakeRepo()
	r := newTestReconciler(repo)

	evt := event(t, EventInvoicePaymentSucceeded, `{
		"id": "in_1",
		"customer": "cus_unknown",
		"created": 3000,
		"lines": {"data": [{"period": {"start": 1000, "end": 2000}}]}
	}`)
	err := r.Handle(context.Background(), evt)
	if !IsHandled(err) {
		t.Fatalf("expected handled failure after exhausted polling, got %v", err)
	}
	if repo.lookupCalls != int(r.LookupAttempts) {
		t.Fatalf("expected %d lookup attempts, got %d", r.LookupAttempts, repo.lookupCalls)
	}
	if len(repo.payments) != 0 {
		t.Fatalf("expected no payment recorded for unresolvable customer")
	}
}

func TestInvoiceLookupInfrastructureErrorPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.lookupErr = gorm.ErrInvalidDB
	r := newTestReconciler(repo)

	evt := event(t, EventInvoicePaymentSucceeded, `{
		"id": "in_1",
		"customer": "cus_1",
		"created": 3000,
		"lines": {"data": [{"period": {"start": 1000, "end": 2000}}]}
	}`)
	err := r.Handle(context.Background(), evt)
	if err == nil || IsHandled(err) {
		t.Fatalf("expected unexpected failure to propagate, got %v", err)
	}
	if repo.lookupCalls != 1 {
		t.Fatalf("expected infrastructure error to abort polling, got %d calls", repo.lookupCalls)
	}
}

func TestDuplicateInvoiceDeliveryIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.customers["cus_1"] = 7
	r := newTestReconciler(repo)

	object := `{
		"id": "in_1",
		"customer": "cus_1",
		"amount_paid": 999,
		"created": 3000,
		"lines": {"data": [{"period": {"start": 1000, "end": 2000}}]}
	}`
	for i := 0; i < 2; i++ {
		if err := r.Handle(context.Background(), event(t, EventInvoicePaymentSucceeded, object)); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}
	if len(repo.payments) != 1 {
		t.Fatalf("expected exactly one payment after duplicate delivery, got %d", len(repo.payments))
	}
}

func TestUnknownEventKindIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	r := newTestReconciler(repo)

	if err := r.Handle(context.Background(), event(t, "customer.subscription.deleted", `{}`)); err != nil {
		t.Fatalf("expected unknown event to be acknowledged as no-op, got %v", err)
	}
	if repo.lookupCalls != 0 || len(repo.payments) != 0 {
		t.Fatalf("expected no repository activity for unknown event")
	}
}

func TestCheckoutThenInvoiceScenario(t *testing.T) {
	repo := newFakeRepo()
	r := newTestReconciler(repo)

	checkout := event(t, EventCheckoutSessionCompleted,
		`{"customer":"cus_1","metadata":{"app_user_id":"1"}}`)
	if err := r.Handle(context.Background(), checkout); err != nil {
		t.Fatalf("checkout: unexpected error: %v", err)
	}

	invoice := event(t, EventInvoicePaymentSucceeded, `{
		"id": "in_1",
		"customer": "cus_1",
		"created": 3000,
		"lines": {"data": [{"period": {"start": 1000, "end": 2000}}]}
	}`)
	if err := r.Handle(context.Background(), invoice); err != nil {
		t.Fatalf("invoice: unexpected error: %v", err)
	}

	if !repo.active[1] {
		t.Fatalf("expected user 1 subscription active")
	}
	if len(repo.payments) != 1 || repo.payments["in_1"] == nil {
		t.Fatalf("expected one payment row with invoice id in_1, got %v", repo.payments)
	}
}
