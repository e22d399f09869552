package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bragfeed/bragfeed/internal/pkg/billing"
	"github.com/bragfeed/bragfeed/internal/pkg/database"
	"github.com/bragfeed/bragfeed/internal/pkg/env"
	"github.com/bragfeed/bragfeed/internal/pkg/usercontext"
)

// HandleStripeWebhook receives billing lifecycle events from Stripe.
//
// Status codes follow what Stripe's retry machinery expects: 400 rejects a
// delivery whose signature does not verify, 200 acknowledges everything the
// system has fully dealt with (including expected business failures, which
// must not be redelivered), and 202 acknowledges receipt of an event whose
// processing hit an infrastructure failure so Stripe retries it later.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	if !billing.VerifyStripeWebhookSignature(rawBody, signature, secret, billing.DefaultSignatureTolerance) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	evt, err := billing.ParseEvent(rawBody)
	if err != nil {
		log.Printf("stripe webhook: malformed payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	reconciler := billing.NewReconciler(billing.NewRepository(database.GetDB()))
	result, handleErr := reconciler.ProcessDelivery(ctx, evt, rawBody)
	switch result {
	case billing.DeliveryProcessed:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	case billing.DeliveryDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	case billing.DeliveryHandledFailure:
		// Expected business condition. Acknowledge so Stripe does not
		// redeliver an event that will never succeed.
		log.Printf("stripe webhook: event %s (%s) not applied: %v", evt.ID, evt.Type, handleErr)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	default:
		// Infrastructure failure. Acknowledge receipt but signal Stripe to
		// retry; the stored event stays unsettled and the redelivery is
		// processed again.
		log.Printf("stripe webhook: event %s (%s) processing failed: %v", evt.ID, evt.Type, handleErr)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"received": true})
	}
}

// HandleGetBillingStatus reports the caller's subscription state.
func HandleGetBillingStatus(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	user, err := getRepositories().User.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	return c.JSON(fiber.Map{
		"has_active_subscription": user.HasActiveSubscription,
		"stripe_customer_linked":  user.StripeCustomerID != nil && *user.StripeCustomerID != "",
	})
}
