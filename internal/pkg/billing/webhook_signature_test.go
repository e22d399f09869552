package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signPayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)
	secret := "whsec_test"
	now := time.Now()

	header := signPayload(payload, secret, now.Unix())
	if !verifyStripeSignatureAt(payload, header, secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected valid signature to verify")
	}

	if verifyStripeSignatureAt(payload, header, "whsec_other", DefaultSignatureTolerance, now) {
		t.Fatalf("expected signature with wrong secret to fail")
	}
	if verifyStripeSignatureAt([]byte(`{"tampered":true}`), header, secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected signature over tampered payload to fail")
	}
	if verifyStripeSignatureAt(payload, "", secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected empty header to fail")
	}
	if verifyStripeSignatureAt(payload, "t=notanumber,v1=deadbeef", secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected malformed timestamp to fail")
	}
}

func TestVerifyStripeWebhookSignatureTolerance(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Now()

	stale := signPayload(payload, secret, now.Add(-10*time.Minute).Unix())
	if verifyStripeSignatureAt(payload, stale, secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected stale timestamp outside tolerance to fail")
	}
	if !verifyStripeSignatureAt(payload, stale, secret, 0, now) {
		t.Fatalf("expected zero tolerance to skip the timestamp check")
	}
}

func TestVerifyStripeWebhookSignatureMultipleV1(t *testing.T) {
	payload := []byte(`{"id":"evt_2"}`)
	secret := "whsec_test"
	now := time.Now()

	valid := signPayload(payload, secret, now.Unix())
	// Secret rotation sends an old v1 candidate alongside the current one.
	header := fmt.Sprintf("%s,v1=%s", valid, hex.EncodeToString(make([]byte, 32)))
	if !verifyStripeSignatureAt(payload, header, secret, DefaultSignatureTolerance, now) {
		t.Fatalf("expected header with one matching v1 candidate to verify")
	}
}
