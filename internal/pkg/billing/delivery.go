package billing

import (
	"context"
	"fmt"
	"log"

	"github.com/bragfeed/bragfeed/app/models"
)

// DeliveryResult classifies the outcome of one webhook delivery for the
// transport layer's acknowledgement decision.
type DeliveryResult int

const (
	// DeliveryProcessed means the event was applied during this delivery.
	DeliveryProcessed DeliveryResult = iota
	// DeliveryDuplicate means an earlier delivery already settled the event.
	DeliveryDuplicate
	// DeliveryHandledFailure means processing hit an expected business
	// condition that a redelivery cannot repair; acknowledge and move on.
	DeliveryHandledFailure
	// DeliveryDeferred means an infrastructure failure interrupted
	// processing; the provider should redeliver the event.
	DeliveryDeferred
)

// ProcessDelivery persists the delivery for deduplication and dispatches it
// to the event handler. Only an event settled by a prior delivery is treated
// as a duplicate; a redelivery after an interrupted or failed run dispatches
// the event again, so a transient failure cannot permanently swallow its
// effect.
func (r *Reconciler) ProcessDelivery(ctx context.Context, evt *Event, rawBody []byte) (DeliveryResult, error) {
	created, stored, err := r.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: evt.ID,
		EventType:       evt.Type,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		return DeliveryDeferred, fmt.Errorf("failed to persist webhook event %s: %w", evt.ID, err)
	}
	if !created && stored.Settled() {
		return DeliveryDuplicate, nil
	}

	handleErr := r.Handle(ctx, evt)
	if handleErr == nil {
		if err := r.repo.MarkWebhookProcessed(stored.ID, ""); err != nil {
			log.Printf("failed to mark webhook event %s processed: %v", evt.ID, err)
		}
		return DeliveryProcessed, nil
	}

	if err := r.repo.MarkWebhookProcessed(stored.ID, handleErr.Error()); err != nil {
		log.Printf("failed to mark webhook event %s processed: %v", evt.ID, err)
	}
	if IsHandled(handleErr) {
		return DeliveryHandledFailure, handleErr
	}
	return DeliveryDeferred, handleErr
}
