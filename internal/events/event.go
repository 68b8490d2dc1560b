// Package events announces finalized orders to downstream consumers over
// Kafka or NATS.
package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/google/uuid"
)

// EventType represents the type of order event.
type EventType string

const (
	EventTypeOrderFinalized EventType = "order.finalized"
)

// OrderEvent is the envelope written to the broker.
type OrderEvent struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	OrderID   string            `json:"order_id"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
}

// orderPayload is the event body. Money is fixed to two decimals.
type orderPayload struct {
	ID            int64         `json:"id"`
	ClientNit     string        `json:"clientNit"`
	ClientName    string        `json:"clientName"`
	ProviderName  string        `json:"providerName,omitempty"`
	TotalAmount   string        `json:"totalAmount"`
	TotalTaxes    string        `json:"totalTaxes"`
	InvoicePdfURL string        `json:"invoicePdfUrl"`
	OrderDate     time.Time     `json:"orderDate"`
	CreatedBy     string        `json:"createdByUsername"`
	CreatorRole   string        `json:"creatorRole"`
	Items         []itemPayload `json:"items"`
}

type itemPayload struct {
	Name       string `json:"productNameOrService"`
	Quantity   int32  `json:"quantity"`
	ModuleType string `json:"moduleType"`
	Category   string `json:"category,omitempty"`
	TaxApplied string `json:"taxApplied"`
	ItemTotal  string `json:"itemTotal"`
}

// NewOrderFinalizedEvent builds the envelope for a finalized order.
func NewOrderFinalizedEvent(order *domain.Order, now time.Time) (*OrderEvent, error) {
	p := orderPayload{
		ID:            order.ID,
		ClientNit:     order.ClientTaxID,
		ClientName:    order.ClientName,
		ProviderName:  order.ProviderName,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		TotalTaxes:    order.TotalTaxes.StringFixed(2),
		InvoicePdfURL: order.InvoiceLocator,
		OrderDate:     order.CreatedAt,
		CreatedBy:     order.Creator.Username,
		CreatorRole:   string(order.Creator.Role),
		Items:         make([]itemPayload, len(order.Items)),
	}
	for i, it := range order.Items {
		ip := itemPayload{
			Name:       it.Name,
			Quantity:   it.Quantity,
			ModuleType: string(it.Module),
			Category:   it.Category,
		}
		if it.Amounts != nil {
			ip.TaxApplied = it.Amounts.TaxApplied.StringFixed(2)
			ip.ItemTotal = it.Amounts.Total.StringFixed(2)
		}
		p.Items[i] = ip
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return &OrderEvent{
		ID:      uuid.NewString(),
		Type:    EventTypeOrderFinalized,
		OrderID: strconv.FormatInt(order.ID, 10),
		Data:    data,
		Metadata: map[string]string{
			"creator": order.Creator.Username,
			"role":    string(order.Creator.Role),
		},
		Timestamp: now.UTC(),
	}, nil
}
