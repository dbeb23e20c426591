package invoices

import (
	"time"

	"github.com/freelanceflow/freelanceflow/internal/clients"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

// Invoice is the persisted invoice record. Totals are never stored on
// this row; they are recomputed from items and payments on every read.
type Invoice struct {
	ID        int64
	Number    string
	ClientID  int64
	Currency  string
	DueDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceItem is one billable row, immutable once the invoice exists.
// Amount is the cent-rounded quantity*rate, fixed at creation so the
// stored rows always match what was shown when the invoice was issued.
type InvoiceItem struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"-"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
	Position    int     `json:"-"`
}

// Payment is one recorded payment against an invoice, append-only.
type Payment struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"-"`
	Number    string    `json:"number"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paidAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// InvoiceSummary is the listing row: the invoice plus the aggregates the
// list view needs.
type InvoiceSummary struct {
	Invoice
	ClientName string
	Total      float64
	Paid       float64
}

// InvoiceListEntry is the JSON shape of one invoice in the list response.
type InvoiceListEntry struct {
	ID            int64         `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	ClientID      int64         `json:"clientId"`
	ClientName    string        `json:"clientName"`
	Currency      string        `json:"currency"`
	DueDate       time.Time     `json:"dueDate"`
	CreatedAt     time.Time     `json:"createdAt"`
	Total         float64       `json:"total"`
	TotalPaid     float64       `json:"totalPaid"`
	AmountDue     float64       `json:"amountDue"`
	Status        ledger.Status `json:"status"`
}

// InvoiceDetail is the full JSON shape: items, payments and every
// derived figure the SPA and the PDF renderer consume.
type InvoiceDetail struct {
	ID            int64          `json:"id"`
	InvoiceNumber string         `json:"invoiceNumber"`
	Client        clients.Client `json:"client"`
	Currency      string         `json:"currency"`
	DueDate       time.Time      `json:"dueDate"`
	CreatedAt     time.Time      `json:"createdAt"`
	Items         []InvoiceItem  `json:"items"`
	Payments      []Payment      `json:"payments"`
	Total         float64        `json:"total"`
	TotalPaid     float64        `json:"totalPaid"`
	AmountDue     float64        `json:"amountDue"`
	Status        ledger.Status  `json:"status"`
}
