package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// ReceiptEmailJob mails a payment receipt to the client.
type ReceiptEmailJob struct {
	Mailer Mailer
	Logger *slog.Logger
}

func NewReceiptEmailJob(mailer Mailer, logger *slog.Logger) *ReceiptEmailJob {
	return &ReceiptEmailJob{Mailer: mailer, Logger: logger}
}

// Handle processes TaskTypeReceiptEmail tasks.
func (j *ReceiptEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode receipt payload: %w", asynq.SkipRetry)
	}
	if payload.To == "" {
		j.Logger.Warn("receipt email skipped, client has no address",
			slog.String("invoice", payload.InvoiceNumber))
		return nil
	}

	subject := fmt.Sprintf("Payment received for invoice %s", payload.InvoiceNumber)
	body := fmt.Sprintf(
		"We have received your payment of %s %.2f for invoice %s.\n\nThank you for your business!\nFreelanceFlow",
		payload.Currency, payload.Amount, payload.InvoiceNumber,
	)
	if err := j.Mailer.Send(payload.To, subject, body); err != nil {
		return err
	}
	j.Logger.Info("receipt email sent",
		slog.String("invoice", payload.InvoiceNumber),
		slog.String("to", payload.To))
	return nil
}
