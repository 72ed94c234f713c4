package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	QuoteCreated         = "quote.created"
	TransactionSubmitted = "transaction.submitted"
	PaymentConfirmed     = "payment.confirmed"
	QuoteExpired         = "quote.expired"
	OrderCreated         = "order.created"
)

const producerName = "cryptocheckout"

// Publisher emits lifecycle events. Delivery is best effort and never fails
// the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, key string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   producerName,
		Key:        key,
		Payload:    raw,
	}, nil
}

type QuotePayload struct {
	QuoteID    string    `json:"quote_id"`
	UserID     int       `json:"user_id"`
	Network    string    `json:"network"`
	AmountUSDT string    `json:"amount_usdt"`
	Status     string    `json:"status"`
	TxHash     *string   `json:"tx_hash,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type PaymentConfirmedPayload struct {
	QuoteID        string `json:"quote_id"`
	Confirmations  int    `json:"confirmations"`
	AmountReceived string `json:"amount_received"`
}

type OrderCreatedPayload struct {
	OrderID   string `json:"order_id"`
	QuoteID   string `json:"quote_id"`
	UserID    int    `json:"user_id"`
	TotalUSDT string `json:"total_usdt"`
}
