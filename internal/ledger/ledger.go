// Package ledger computes the derived financial figures of an invoice:
// line amounts, totals, amount paid, amount due and display status. All
// functions are pure; persistence of invoices and payments lives in the
// invoices module.
package ledger

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrInvalidLineItem signals a non-positive quantity or negative rate.
	ErrInvalidLineItem = errors.New("invalid line item")
	// ErrInvalidPaymentAmount signals a non-positive payment amount.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	// ErrOverpaymentRejected signals a payment exceeding the amount due.
	ErrOverpaymentRejected = errors.New("payment exceeds amount due")
)

// Status is the derived display state of an invoice. It is never stored;
// it is recomputed from the amount due and the due date.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// LineItem is one billable row: quantity at a unit rate.
type LineItem struct {
	Description string
	Quantity    float64
	Rate        float64
}

// Payment is the slice of a payment relevant to ledger math. Amounts are
// summed nominally; a payment recorded in a different currency than the
// invoice is not converted.
type Payment struct {
	Amount   float64
	Currency string
	PaidAt   time.Time
}

// Round rounds a monetary value to 2 decimal places, half away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineItemAmount returns quantity*rate rounded to cents.
func LineItemAmount(item LineItem) (float64, error) {
	if item.Quantity <= 0 || item.Rate < 0 {
		return 0, ErrInvalidLineItem
	}
	return Round(item.Quantity * item.Rate), nil
}

// InvoiceTotal sums per-item amounts. Items are rounded individually
// before summing so the total always matches the sum of the displayed
// rows; a single rounding at the end would not.
func InvoiceTotal(items []LineItem) (float64, error) {
	var total float64
	for _, item := range items {
		amount, err := LineItemAmount(item)
		if err != nil {
			return 0, err
		}
		total += amount
	}
	return Round(total), nil
}

// TotalPaid sums payment amounts in recording order.
func TotalPaid(payments []Payment) float64 {
	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}
	return Round(paid)
}

// AmountDue is total minus paid. It can go negative on overpayment; the
// caller rejects such payments up front via ValidatePayment.
func AmountDue(total, paid float64) float64 {
	return Round(total - paid)
}

// DeriveStatus resolves the three-state display status. The due date is
// inclusive of its calendar day: an invoice due today is still pending.
func DeriveStatus(total, paid float64, dueDate, asOf time.Time) Status {
	if AmountDue(total, paid) <= 0 {
		return StatusPaid
	}
	if dateOf(asOf).After(dateOf(dueDate)) {
		return StatusOverdue
	}
	return StatusPending
}

// ValidatePayment checks a proposed payment against the current amount
// due. The comparison is nominal; cross-currency amounts are accepted
// without conversion.
func ValidatePayment(amount, amountDue float64) error {
	if amount <= 0 {
		return ErrInvalidPaymentAmount
	}
	if Round(amount) > amountDue {
		return ErrOverpaymentRejected
	}
	return nil
}

// NewPayment builds a payment value for the caller to persist. It does
// not touch storage.
func NewPayment(amount float64, currency string, paidAt time.Time) Payment {
	return Payment{Amount: Round(amount), Currency: currency, PaidAt: paidAt}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
