package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	CountClients(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	InvoiceAggregates(ctx context.Context) ([]InvoiceAggregate, error)
	RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CountClients(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE archived = FALSE`).Scan(&count)
	return count, err
}

func (r *repository) TotalRevenue(ctx context.Context) (float64, error) {
	var revenue pgtype.Numeric
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments`).Scan(&revenue)
	if err != nil {
		return 0, err
	}
	return numericFloat(revenue), nil
}

// InvoiceAggregates returns total and paid per invoice. Status is not
// computed here; it depends on the request time and belongs to the
// service layer.
func (r *repository) InvoiceAggregates(ctx context.Context) ([]InvoiceAggregate, error) {
	const query = `
		SELECT i.id, i.due_date,
		       COALESCE(it.total, 0) AS total,
		       COALESCE(p.paid, 0) AS paid
		FROM invoices i
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS total FROM invoice_items GROUP BY invoice_id
		) it ON it.invoice_id = i.id
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS paid FROM payments GROUP BY invoice_id
		) p ON p.invoice_id = i.id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggregates []InvoiceAggregate
	for rows.Next() {
		var (
			agg         InvoiceAggregate
			dueDate     pgtype.Timestamptz
			total, paid pgtype.Numeric
		)
		if err := rows.Scan(&agg.ID, &dueDate, &total, &paid); err != nil {
			return nil, err
		}
		agg.DueDate = dueDate.Time
		agg.Total = numericFloat(total)
		agg.Paid = numericFloat(paid)
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

func (r *repository) RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	const query = `
		SELECT i.id, i.number, c.name, i.currency, i.due_date, i.created_at,
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
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recents []RecentInvoice
	for rows.Next() {
		var (
			rec                RecentInvoice
			dueDate, createdAt pgtype.Timestamptz
			total, paid        pgtype.Numeric
		)
		err := rows.Scan(&rec.ID, &rec.InvoiceNumber, &rec.ClientName, &rec.Currency,
			&dueDate, &createdAt, &total, &paid)
		if err != nil {
			return nil, err
		}
		rec.DueDate = dueDate.Time
		rec.CreatedAt = createdAt.Time
		rec.Total = numericFloat(total)
		rec.TotalPaid = numericFloat(paid)
		recents = append(recents, rec)
	}
	return recents, rows.Err()
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
