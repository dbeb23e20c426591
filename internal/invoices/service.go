package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/freelanceflow/freelanceflow/internal/clients"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/shared"
)

// ClientDirectory resolves client records for embedding in invoice views.
// Satisfied by clients.Service.
type ClientDirectory interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// ReceiptNotifier is told about successful payments so a receipt email
// can go out. Satisfied by jobs.Client; nil disables notifications.
type ReceiptNotifier interface {
	PaymentReceived(ctx context.Context, invoiceNumber, clientEmail string, amount float64, currency string) error
}

// CacheBumper invalidates dashboard aggregates after writes. Satisfied
// by cache.Cache; nil disables invalidation.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

type Service struct {
	repo     Repository
	clients  ClientDirectory
	notifier ReceiptNotifier
	bumper   CacheBumper
}

func NewService(repo Repository, directory ClientDirectory, notifier ReceiptNotifier, bumper CacheBumper) *Service {
	return &Service{repo: repo, clients: directory, notifier: notifier, bumper: bumper}
}

// Create persists an invoice with its line items. Item amounts and the
// total come from the ledger; figures sent by the client are ignored.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceDetail, error) {
	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}
	if client.Archived {
		return nil, fmt.Errorf("%w: client is archived", shared.ErrConflict)
	}

	items := make([]InvoiceItem, 0, len(req.Items))
	for _, in := range req.Items {
		amount, err := ledger.LineItemAmount(ledger.LineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			Rate:        in.Rate,
		})
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", in.Description, err)
		}
		items = append(items, InvoiceItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			Rate:        ledger.Round(in.Rate),
			Amount:      amount,
		})
	}

	var created *Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number := req.InvoiceNumber
		if number == "" {
			var err error
			number, err = repo.GenerateNumber(ctx, time.Now().UTC().Year())
			if err != nil {
				return fmt.Errorf("generate invoice number: %w", err)
			}
		}
		var err error
		created, err = repo.Create(ctx, Invoice{
			Number:   number,
			ClientID: req.ClientID,
			Currency: req.Currency,
			DueDate:  req.DueDate,
		}, items)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	if s.bumper != nil {
		// Stale dashboard data expires with the cache TTL either way.
		_ = s.bumper.Bump(ctx)
	}

	return s.Get(ctx, created.ID)
}

// Get assembles the full invoice view with derived figures.
func (s *Service) Get(ctx context.Context, id int64) (*InvoiceDetail, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	client, err := s.clients.Get(ctx, invoice.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}
	return assembleDetail(*invoice, *client, items, payments, time.Now().UTC()), nil
}

// List returns invoices newest first, with the status filter applied to
// the derived status so the filter can never disagree with the badge.
// Pagination runs after filtering; a page window applied in SQL would
// drop matches that fall outside it.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceListEntry, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]InvoiceListEntry, 0, len(summaries))
	for _, sum := range summaries {
		if req.ClientID != 0 && sum.ClientID != req.ClientID {
			continue
		}
		status := ledger.DeriveStatus(sum.Total, sum.Paid, sum.DueDate, asOf)
		if req.Status != "" && status != req.Status {
			continue
		}
		entries = append(entries, InvoiceListEntry{
			ID:            sum.ID,
			InvoiceNumber: sum.Number,
			ClientID:      sum.ClientID,
			ClientName:    sum.ClientName,
			Currency:      sum.Currency,
			DueDate:       sum.DueDate,
			CreatedAt:     sum.CreatedAt,
			Total:         sum.Total,
			TotalPaid:     sum.Paid,
			AmountDue:     ledger.AmountDue(sum.Total, sum.Paid),
			Status:        status,
		})
	}

	if req.Offset >= len(entries) {
		return []InvoiceListEntry{}, nil
	}
	entries = entries[req.Offset:]
	if req.Limit < len(entries) {
		entries = entries[:req.Limit]
	}
	return entries, nil
}

// RecordPayment validates and persists a payment. The transaction takes
// the invoice row lock first, so concurrent payments against the same
// invoice serialize and the amount-due guard always sees the paid total
// the insert will extend.
func (s *Service) RecordPayment(ctx context.Context, invoiceID int64, req RecordPaymentRequest) (*Payment, error) {
	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	var recorded *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		invoice, err := repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		items, err := repo.ListItems(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("load invoice items: %w", err)
		}
		paid, err := repo.PaidTotal(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("load paid total: %w", err)
		}

		total, err := ledger.InvoiceTotal(toLedgerItems(items))
		if err != nil {
			return fmt.Errorf("compute total: %w", err)
		}
		due := ledger.AmountDue(total, paid)
		if err := ledger.ValidatePayment(req.Amount, due); err != nil {
			return err
		}

		value := ledger.NewPayment(req.Amount, req.Currency, paidAt)
		count, err := repo.CountPayments(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("count payments: %w", err)
		}
		recorded, err = repo.CreatePayment(ctx, Payment{
			InvoiceID: invoice.ID,
			Number:    fmt.Sprintf("%s-P%02d", invoice.Number, count+1),
			Amount:    value.Amount,
			Currency:  value.Currency,
			PaidAt:    value.PaidAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.bumper != nil {
		_ = s.bumper.Bump(ctx)
	}
	if s.notifier != nil {
		// Receipt mail is best effort; the payment is already durable.
		if invoice, err := s.repo.Get(ctx, invoiceID); err == nil {
			if client, err := s.clients.Get(ctx, invoice.ClientID); err == nil {
				_ = s.notifier.PaymentReceived(ctx, invoice.Number, client.Email, recorded.Amount, recorded.Currency)
			}
		}
	}
	return recorded, nil
}

// Delete removes an invoice and its items. Invoices with recorded
// payments are immutable history and cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Get(ctx, id); err != nil {
			return err
		}
		count, err := repo.CountPayments(ctx, id)
		if err != nil {
			return fmt.Errorf("count payments: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: invoice has recorded payments", shared.ErrConflict)
		}
		return repo.Delete(ctx, id)
	})
}

func assembleDetail(invoice Invoice, client clients.Client, items []InvoiceItem, payments []Payment, asOf time.Time) *InvoiceDetail {
	total := 0.0
	for _, item := range items {
		total += item.Amount
	}
	total = ledger.Round(total)
	paid := ledger.TotalPaid(toLedgerPayments(payments))

	if items == nil {
		items = []InvoiceItem{}
	}
	if payments == nil {
		payments = []Payment{}
	}

	return &InvoiceDetail{
		ID:            invoice.ID,
		InvoiceNumber: invoice.Number,
		Client:        client,
		Currency:      invoice.Currency,
		DueDate:       invoice.DueDate,
		CreatedAt:     invoice.CreatedAt,
		Items:         items,
		Payments:      payments,
		Total:         total,
		TotalPaid:     paid,
		AmountDue:     ledger.AmountDue(total, paid),
		Status:        ledger.DeriveStatus(total, paid, invoice.DueDate, asOf),
	}
}

func toLedgerItems(items []InvoiceItem) []ledger.LineItem {
	out := make([]ledger.LineItem, len(items))
	for i, item := range items {
		out[i] = ledger.LineItem{Description: item.Description, Quantity: item.Quantity, Rate: item.Rate}
	}
	return out
}

func toLedgerPayments(payments []Payment) []ledger.Payment {
	out := make([]ledger.Payment, len(payments))
	for i, p := range payments {
		out[i] = ledger.Payment{Amount: p.Amount, Currency: p.Currency, PaidAt: p.PaidAt}
	}
	return out
}
