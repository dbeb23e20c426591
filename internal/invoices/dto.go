package invoices

import (
	"time"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

// CreateInvoiceItemRequest is one line item in the create payload.
// Amount is never accepted from the client; it is recomputed.
type CreateInvoiceItemRequest struct {
	Description string  `json:"description" validate:"required,min=1,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

// CreateInvoiceRequest carries the POST /invoices payload.
type CreateInvoiceRequest struct {
	ClientID      int64                      `json:"clientId" validate:"required,gt=0"`
	InvoiceNumber string                     `json:"invoiceNumber" validate:"omitempty,max=50"`
	Currency      string                     `json:"currency" validate:"required,len=3,uppercase"`
	DueDate       time.Time                  `json:"dueDate" validate:"required"`
	Items         []CreateInvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RecordPaymentRequest carries the POST /invoices/{id}/payments payload.
// Currency may differ from the invoice currency; the amount is applied
// nominally without conversion.
type RecordPaymentRequest struct {
	// Amount bounds are enforced by the ledger, not the validator, so a
	// zero or negative amount reports the right business-rule error.
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency" validate:"required,len=3,uppercase"`
	PaidAt   time.Time `json:"paidAt"`
}

// ListInvoicesRequest filters the invoice listing. Status filters on the
// derived status; AsOf defaults to now.
type ListInvoicesRequest struct {
	Status   ledger.Status
	ClientID int64
	AsOf     time.Time
	Limit    int
	Offset   int
}
