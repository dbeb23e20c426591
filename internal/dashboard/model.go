package dashboard

import (
	"time"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

// StatusCounts breaks down invoices by their derived status.
type StatusCounts struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
}

// Summary is the KPI card block on the dashboard. Revenue is the sum of
// all recorded payments; outstanding sums the amount due of invoices
// that are not fully paid.
type Summary struct {
	TotalClients  int64        `json:"totalClients"`
	TotalInvoices int64        `json:"totalInvoices"`
	TotalRevenue  float64      `json:"totalRevenue"`
	Outstanding   float64      `json:"outstanding"`
	StatusCounts  StatusCounts `json:"statusCounts"`
}

// RecentInvoice is one row in the dashboard's recent-activity list.
type RecentInvoice struct {
	ID            int64         `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	ClientName    string        `json:"clientName"`
	Currency      string        `json:"currency"`
	DueDate       time.Time     `json:"dueDate"`
	CreatedAt     time.Time     `json:"createdAt"`
	Total         float64       `json:"total"`
	TotalPaid     float64       `json:"totalPaid"`
	AmountDue     float64       `json:"amountDue"`
	Status        ledger.Status `json:"status"`
}

// Overview is the full dashboard payload.
type Overview struct {
	Summary        Summary         `json:"summary"`
	RecentInvoices []RecentInvoice `json:"recentInvoices"`
}

// InvoiceAggregate carries the per-invoice figures the summary needs to
// derive status and outstanding amounts.
type InvoiceAggregate struct {
	ID      int64
	DueDate time.Time
	Total   float64
	Paid    float64
}
