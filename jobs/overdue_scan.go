package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

// OverdueScanJob emails a reminder for every invoice whose derived
// status is overdue. It never mutates invoice state; status stays a
// read-time derivation.
type OverdueScanJob struct {
	Pool   *pgxpool.Pool
	Mailer Mailer
	Logger *slog.Logger
	clock  func() time.Time
}

func NewOverdueScanJob(pool *pgxpool.Pool, mailer Mailer, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{
		Pool:   pool,
		Mailer: mailer,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type overdueCandidate struct {
	number      string
	clientName  string
	clientEmail string
	currency    string
	dueDate     time.Time
	total       float64
	paid        float64
}

// Handle executes the overdue reminder scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return nil
	}
	asOf := j.clock()

	candidates, err := j.loadCandidates(ctx)
	if err != nil {
		return fmt.Errorf("load overdue candidates: %w", err)
	}

	sent := 0
	for _, c := range candidates {
		if ledger.DeriveStatus(c.total, c.paid, c.dueDate, asOf) != ledger.StatusOverdue {
			continue
		}
		if c.clientEmail == "" {
			continue
		}
		due := ledger.AmountDue(c.total, c.paid)
		subject := fmt.Sprintf("Reminder: invoice %s is overdue", c.number)
		body := fmt.Sprintf(
			"Hi %s,\n\nInvoice %s for %s %.2f was due on %s and is still outstanding.\n\nThank you,\nFreelanceFlow",
			c.clientName, c.number, c.currency, due, c.dueDate.Format("Jan 2, 2006"),
		)
		if err := j.Mailer.Send(c.clientEmail, subject, body); err != nil {
			j.Logger.Error("overdue reminder failed",
				slog.String("invoice", c.number), slog.Any("error", err))
			continue
		}
		sent++
	}

	j.Logger.Info("overdue scan complete",
		slog.Int("candidates", len(candidates)),
		slog.Int("reminders_sent", sent))
	return nil
}

// loadCandidates pulls unpaid invoices only; paid ones can never derive
// to overdue and are excluded in SQL.
func (j *OverdueScanJob) loadCandidates(ctx context.Context) ([]overdueCandidate, error) {
	const query = `
		SELECT i.number, c.name, c.email, i.currency, i.due_date,
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
		WHERE COALESCE(it.total, 0) - COALESCE(p.paid, 0) > 0
	`
	rows, err := j.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []overdueCandidate
	for rows.Next() {
		var (
			c           overdueCandidate
			dueDate     pgtype.Timestamptz
			total, paid pgtype.Numeric
		)
		if err := rows.Scan(&c.number, &c.clientName, &c.clientEmail, &c.currency, &dueDate, &total, &paid); err != nil {
			return nil, err
		}
		c.dueDate = dueDate.Time
		c.total = numericFloat(total)
		c.paid = numericFloat(paid)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
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
