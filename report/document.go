package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/freelanceflow/freelanceflow/internal/invoices"
)

// The invoice document mirrors the layout the SPA prints: header with
// number and dates, status badge, bill-to block, items table, totals
// box and the payment history.
var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #111827; margin: 40px; }
  .header { display: flex; justify-content: space-between; }
  h1 { font-size: 28px; margin: 0 0 8px; }
  .company { color: #6b7280; line-height: 1.5; }
  .meta { text-align: right; line-height: 1.6; }
  .badge { display: inline-block; padding: 3px 10px; border-radius: 4px; font-weight: bold; font-size: 10px; text-transform: uppercase; }
  .badge.paid { background: #d1fae5; color: #065f46; }
  .badge.pending { background: #fef3c7; color: #92400e; }
  .badge.overdue { background: #fee2e2; color: #991b1b; }
  .bill-to { margin-top: 32px; }
  .bill-to h2 { font-size: 13px; margin-bottom: 6px; }
  .bill-to div { line-height: 1.5; }
  table.items { width: 100%; border-collapse: collapse; margin-top: 28px; }
  table.items th { background: #667eea; color: #fff; text-align: left; padding: 8px; font-size: 11px; }
  table.items td { padding: 8px; border-bottom: 1px solid #e5e7eb; }
  table.items tr:nth-child(even) td { background: #f9fafb; }
  .num { text-align: right; }
  .qty { text-align: center; }
  .totals { width: 260px; margin-left: auto; margin-top: 20px; }
  .totals .row { display: flex; justify-content: space-between; padding: 4px 0; }
  .totals .paid-row { color: #10b981; }
  .totals .due { border-top: 1px solid #e5e7eb; margin-top: 6px; padding-top: 8px; font-size: 14px; font-weight: bold; }
  .history { margin-top: 36px; }
  .history h2 { font-size: 13px; }
  table.payments { border-collapse: collapse; }
  table.payments th { color: #6b7280; background: #f9fafb; text-align: left; padding: 6px 18px 6px 6px; font-size: 10px; }
  table.payments td { padding: 6px 18px 6px 6px; font-size: 11px; }
  .footer { margin-top: 60px; text-align: center; color: #6b7280; font-size: 10px; font-style: italic; line-height: 1.6; }
</style>
</head>
<body>
  <div class="header">
    <div>
      <h1>INVOICE</h1>
      <div class="company">FreelanceFlow<br>Your Business Name<br>your@email.com</div>
    </div>
    <div class="meta">
      <strong>Invoice #{{.Number}}</strong><br>
      Date: {{.IssuedOn}}<br>
      Due: {{.DueOn}}<br>
      <span class="badge {{.Status}}">{{.Status}}</span>
    </div>
  </div>

  <div class="bill-to">
    <h2>BILL TO:</h2>
    <div>
      <strong>{{.ClientName}}</strong><br>
      {{.ClientEmail}}{{if .ClientPhone}}<br>{{.ClientPhone}}{{end}}{{if .ClientAddress}}<br>{{.ClientAddress}}{{end}}
    </div>
  </div>

  <table class="items">
    <thead>
      <tr><th>Description</th><th class="qty">Qty</th><th class="num">Rate</th><th class="num">Amount</th></tr>
    </thead>
    <tbody>
      {{range .Items}}<tr>
        <td>{{.Description}}</td>
        <td class="qty">{{.Quantity}}</td>
        <td class="num">{{.Rate}}</td>
        <td class="num">{{.Amount}}</td>
      </tr>{{end}}
    </tbody>
  </table>

  <div class="totals">
    <div class="row"><span>Subtotal:</span><span>{{.Total}}</span></div>
    {{if .ShowPaid}}<div class="row paid-row"><span>Paid:</span><span>-{{.TotalPaid}}</span></div>{{end}}
    <div class="row due"><span>Amount Due:</span><span>{{.AmountDue}}</span></div>
  </div>

  {{if .Payments}}<div class="history">
    <h2>Payment History</h2>
    <table class="payments">
      <thead><tr><th>Date</th><th>Amount</th><th>Status</th></tr></thead>
      <tbody>
        {{range .Payments}}<tr><td>{{.PaidOn}}</td><td>{{.Amount}}</td><td>Paid</td></tr>{{end}}
      </tbody>
    </table>
  </div>{{end}}

  <div class="footer">
    Thank you for your business!<br>
    Generated by FreelanceFlow
  </div>
</body>
</html>`))

type documentItem struct {
	Description string
	Quantity    float64
	Rate        string
	Amount      string
}

type documentPayment struct {
	PaidOn string
	Amount string
}

type documentData struct {
	Number        string
	IssuedOn      string
	DueOn         string
	Status        string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	Items         []documentItem
	Total         string
	TotalPaid     string
	AmountDue     string
	ShowPaid      bool
	Payments      []documentPayment
}

var amountPrinter = message.NewPrinter(language.English)

func formatAmount(code string, v float64) string {
	return amountPrinter.Sprintf("%s %v", code,
		number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// RenderInvoiceHTML builds the printable invoice document.
func RenderInvoiceHTML(detail *invoices.InvoiceDetail) (string, error) {
	data := documentData{
		Number:      detail.InvoiceNumber,
		IssuedOn:    formatDate(detail.CreatedAt),
		DueOn:       formatDate(detail.DueDate),
		Status:      string(detail.Status),
		ClientName:  detail.Client.Name,
		ClientEmail: detail.Client.Email,
		Total:       formatAmount(detail.Currency, detail.Total),
		TotalPaid:   formatAmount(detail.Currency, detail.TotalPaid),
		AmountDue:   formatAmount(detail.Currency, detail.AmountDue),
		ShowPaid:    detail.TotalPaid > 0,
	}
	if detail.Client.Phone != nil {
		data.ClientPhone = strings.TrimSpace(*detail.Client.Phone)
	}
	if detail.Client.Address != nil {
		data.ClientAddress = strings.TrimSpace(*detail.Client.Address)
	}
	for _, item := range detail.Items {
		data.Items = append(data.Items, documentItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        formatAmount(detail.Currency, item.Rate),
			Amount:      formatAmount(detail.Currency, item.Amount),
		})
	}
	for _, payment := range detail.Payments {
		data.Payments = append(data.Payments, documentPayment{
			PaidOn: formatDate(payment.PaidAt),
			Amount: formatAmount(payment.Currency, payment.Amount),
		})
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render invoice document: %w", err)
	}
	return buf.String(), nil
}
