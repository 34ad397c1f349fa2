package events

import (
	"context"

	"github.com/google/uuid"
)

// StreamPurchases — pub/sub канал с lifecycle-событиями покупок. Его слушает
// WS-хаб; любой будущий потребитель (например бот-нотификатор) подключается
// к тому же каналу.
const StreamPurchases = "events:purchase"

// Event types
const (
	EventPurchaseCreated   = "purchase_created"
	EventPurchaseCompleted = "purchase_completed"
	EventPurchaseRefunded  = "purchase_refunded"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// PurchaseEvent собирает событие покупки. purchase_id и user_id кладутся в
// payload всегда: user_id — ключ адресной доставки в WS-хабе.
func PurchaseEvent(typ string, purchaseID, userID uuid.UUID, extra map[string]any) Event {
	payload := map[string]any{
		"purchase_id": purchaseID.String(),
		"user_id":     userID.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return Event{Type: typ, Payload: payload}
}

// OwnerID returns the user the event is addressed to, if the payload has one.
func (e Event) OwnerID() (uuid.UUID, bool) {
	raw, ok := e.Payload["user_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, handler func(Event)) error
}
