package invoices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freelanceflow/freelanceflow/internal/platform/db"
	"github.com/freelanceflow/freelanceflow/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, invoice Invoice, items []InvoiceItem) (*Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetForUpdate(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context) ([]InvoiceSummary, error)
	ListItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	PaidTotal(ctx context.Context, invoiceID int64) (float64, error)
	CreatePayment(ctx context.Context, payment Payment) (*Payment, error)
	CountPayments(ctx context.Context, invoiceID int64) (int, error)
	Delete(ctx context.Context, id int64) error
	GenerateNumber(ctx context.Context, year int) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Create(ctx context.Context, invoice Invoice, items []InvoiceItem) (*Invoice, error) {
	const query = `
		INSERT INTO invoices (number, client_id, currency, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	var createdAt, updatedAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, query,
		invoice.Number, invoice.ClientID, invoice.Currency, invoice.DueDate,
	).Scan(&invoice.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	invoice.CreatedAt = createdAt.Time
	invoice.UpdatedAt = updatedAt.Time

	const itemQuery = `
		INSERT INTO invoice_items (invoice_id, description, quantity, rate, amount, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, item := range items {
		if _, err := r.db.Exec(ctx, itemQuery,
			invoice.ID, item.Description, item.Quantity, item.Rate, item.Amount, i,
		); err != nil {
			return nil, fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return &invoice, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	const query = `
		SELECT id, number, client_id, currency, due_date, created_at, updated_at
		FROM invoices
		WHERE id = $1
	`
	return r.getInvoice(ctx, query, id)
}

// GetForUpdate takes the invoice row lock, serializing concurrent
// writers against the same invoice. Only meaningful inside WithTx.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	const query = `
		SELECT id, number, client_id, currency, due_date, created_at, updated_at
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`
	return r.getInvoice(ctx, query, id)
}

func (r *repository) getInvoice(ctx context.Context, query string, id int64) (*Invoice, error) {
	var (
		inv                  Invoice
		dueDate              pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.Number, &inv.ClientID, &inv.Currency, &dueDate, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	inv.DueDate = dueDate.Time
	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time
	return &inv, nil
}

// List returns every invoice newest first with its aggregates. Status
// is derived by the caller, which also filters and paginates; slicing
// the window here would cut matches out of filtered pages.
func (r *repository) List(ctx context.Context) ([]InvoiceSummary, error) {
	const query = `
		SELECT i.id, i.number, i.client_id, c.name, i.currency, i.due_date,
		       i.created_at, i.updated_at,
		       COALESCE(it.total, 0) AS total,
		       COALESCE(p.paid, 0) AS paid
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS total FROM invoice_items GROUP BY invoice_id
		) it ON it.invoice_id = i.id
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS paid FROM payments GROUP BY invoice_id
		) p ON p.invoice_id = i.id
		ORDER BY i.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []InvoiceSummary
	for rows.Next() {
		var (
			s                             InvoiceSummary
			dueDate, createdAt, updatedAt pgtype.Timestamptz
			total, paid                   pgtype.Numeric
		)
		err := rows.Scan(
			&s.ID, &s.Number, &s.ClientID, &s.ClientName, &s.Currency,
			&dueDate, &createdAt, &updatedAt, &total, &paid,
		)
		if err != nil {
			return nil, err
		}
		s.DueDate = dueDate.Time
		s.CreatedAt = createdAt.Time
		s.UpdatedAt = updatedAt.Time
		s.Total = numericFloat(total)
		s.Paid = numericFloat(paid)
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *repository) ListItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	const query = `
		SELECT id, invoice_id, description, quantity, rate, amount, position
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.Rate, &item.Amount, &item.Position); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	const query = `
		SELECT id, invoice_id, number, amount, currency, paid_at, created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var (
			p                 Payment
			paidAt, createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Number, &p.Amount, &p.Currency, &paidAt, &createdAt); err != nil {
			return nil, err
		}
		p.PaidAt = paidAt.Time
		p.CreatedAt = createdAt.Time
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *repository) PaidTotal(ctx context.Context, invoiceID int64) (float64, error) {
	var paid pgtype.Numeric
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`,
		invoiceID,
	).Scan(&paid)
	if err != nil {
		return 0, err
	}
	return numericFloat(paid), nil
}

func (r *repository) CreatePayment(ctx context.Context, payment Payment) (*Payment, error) {
	const query = `
		INSERT INTO payments (invoice_id, number, amount, currency, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	var createdAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, query,
		payment.InvoiceID, payment.Number, payment.Amount, payment.Currency, payment.PaidAt,
	).Scan(&payment.ID, &createdAt)
	if err != nil {
		return nil, err
	}
	payment.CreatedAt = createdAt.Time
	return &payment, nil
}

func (r *repository) CountPayments(ctx context.Context, invoiceID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&count)
	return count, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GenerateNumber suggests the next invoice number, INV-{YYYY}-{SEQ}.
// The sequence continues from the highest number already issued for the
// year, so deleting an invoice never recycles its number.
func (r *repository) GenerateNumber(ctx context.Context, year int) (string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT number FROM invoices WHERE number LIKE $1`,
		fmt.Sprintf("INV-%d-%%", year),
	)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return "", err
		}
		numbers = append(numbers, number)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return nextInvoiceNumber(year, numbers), nil
}

// nextInvoiceNumber picks max+1 over the year's existing sequence.
// Numbers supplied by the client that do not follow the generated
// format are ignored.
func nextInvoiceNumber(year int, existing []string) string {
	prefix := fmt.Sprintf("INV-%d-", year)
	max := 0
	for _, number := range existing {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, max+1)
}

func numericFloat(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, err := n.Float64Value()
	if err != nil {
		return 0
	}
	return f.Float64
}
