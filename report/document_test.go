package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/freelanceflow/internal/clients"
	"github.com/freelanceflow/freelanceflow/internal/invoices"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

func sampleDetail() *invoices.InvoiceDetail {
	phone := "+1 555 0100"
	return &invoices.InvoiceDetail{
		ID:            1,
		InvoiceNumber: "INV-2026-0001",
		Client: clients.Client{
			ID:    1,
			Name:  "Acme Studio",
			Email: "billing@acme.test",
			Phone: &phone,
		},
		Currency:  "USD",
		DueDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		Items: []invoices.InvoiceItem{
			{Description: "Design sprint", Quantity: 3, Rate: 400, Amount: 1200},
		},
		Payments: []invoices.Payment{
			{Number: "INV-2026-0001-P01", Amount: 200, Currency: "USD",
				PaidAt: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)},
		},
		Total:     1200,
		TotalPaid: 200,
		AmountDue: 1000,
		Status:    ledger.StatusPending,
	}
}

func TestRenderInvoiceHTML(t *testing.T) {
	html, err := RenderInvoiceHTML(sampleDetail())
	require.NoError(t, err)

	require.Contains(t, html, "Invoice #INV-2026-0001")
	require.Contains(t, html, "Acme Studio")
	require.Contains(t, html, "+1 555 0100")
	require.Contains(t, html, "Design sprint")
	require.Contains(t, html, "USD 1,200.00")
	require.Contains(t, html, "-USD 200.00")
	require.Contains(t, html, "USD 1,000.00")
	require.Contains(t, html, `badge pending`)
	require.Contains(t, html, "Payment History")
	require.Contains(t, html, "Aug 29, 2026")
}

func TestRenderInvoiceHTMLOmitsPaidRowWhenUnpaid(t *testing.T) {
	detail := sampleDetail()
	detail.Payments = nil
	detail.TotalPaid = 0
	detail.AmountDue = detail.Total

	html, err := RenderInvoiceHTML(detail)
	require.NoError(t, err)
	require.NotContains(t, html, "Paid:")
	require.NotContains(t, html, "Payment History")
}

func TestRenderInvoiceHTMLEscapesClientInput(t *testing.T) {
	detail := sampleDetail()
	detail.Client.Name = `<script>alert("x")</script>`

	html, err := RenderInvoiceHTML(detail)
	require.NoError(t, err)
	require.NotContains(t, html, "<script>alert")
}
