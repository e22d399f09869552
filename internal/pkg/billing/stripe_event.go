package billing

import (
	"encoding/json"
	"strings"
)

// Event is a verified Stripe webhook event, decoded just far enough to
// dispatch. Object holds the raw `data.object` payload for the handler.
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// CheckoutSession is the data.object of a checkout.session.completed event.
type CheckoutSession struct {
	AppUserID  string
	CustomerID string
}

// InvoiceLinePeriod is the billing period of an invoice line item, in epoch
// seconds.
type InvoiceLinePeriod struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Invoice is the data.object of an invoice.payment_succeeded event.
type Invoice struct {
	ID            string
	CustomerID    string
	AmountPaid    int64
	Currency      string
	BillingReason string
	Created       int64
	Period        *InvoiceLinePeriod
}

// ParseEvent decodes the envelope of a Stripe webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	return &Event{
		ID:     strings.TrimSpace(raw.ID),
		Type:   strings.TrimSpace(raw.Type),
		Object: raw.Data.Object,
	}, nil
}

// customerRef is either a plain customer id string or an expanded customer
// object; Stripe sends both forms.
type customerRef struct {
	ID string
}

func (c *customerRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.ID = s
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.ID = obj.ID
	return nil
}

// ParseCheckoutSession decodes a checkout session object.
func ParseCheckoutSession(object json.RawMessage) (*CheckoutSession, error) {
	var raw struct {
		Customer *customerRef `json:"customer"`
		Metadata struct {
			AppUserID string `json:"app_user_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(object, &raw); err != nil {
		return nil, err
	}

	out := &CheckoutSession{
		AppUserID: strings.TrimSpace(raw.Metadata.AppUserID),
	}
	if raw.Customer != nil {
		out.CustomerID = strings.TrimSpace(raw.Customer.ID)
	}
	return out, nil
}

// ParseInvoice decodes an invoice object. The subscription period is taken
// from the first line item, matching how the checkout was created.
func ParseInvoice(object json.RawMessage) (*Invoice, error) {
	var raw struct {
		ID            string       `json:"id"`
		Customer      *customerRef `json:"customer"`
		AmountPaid    int64        `json:"amount_paid"`
		Currency      string       `json:"currency"`
		BillingReason string       `json:"billing_reason"`
		Created       int64        `json:"created"`
		Lines         struct {
			Data []struct {
				Period *InvoiceLinePeriod `json:"period"`
			} `json:"data"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(object, &raw); err != nil {
		return nil, err
	}

	out := &Invoice{
		ID:            strings.TrimSpace(raw.ID),
		AmountPaid:    raw.AmountPaid,
		Currency:      strings.TrimSpace(raw.Currency),
		BillingReason: strings.TrimSpace(raw.BillingReason),
		Created:       raw.Created,
	}
	if raw.Customer != nil {
		out.CustomerID = strings.TrimSpace(raw.Customer.ID)
	}
	if len(raw.Lines.Data) > 0 {
		out.Period = raw.Lines.Data[0].Period
	}
	return out, nil
}
