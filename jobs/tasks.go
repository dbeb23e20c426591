// Package jobs holds the background task definitions and the Asynq
// worker runtime: payment receipt emails, the daily overdue reminder
// scan and the dashboard cache warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every task runs on.
	QueueDefault = "default"

	// TaskTypeReceiptEmail sends the payment receipt mail.
	TaskTypeReceiptEmail = "email:receipt"
	// TaskTypeOverdueScan emails reminders for overdue invoices.
	TaskTypeOverdueScan = "invoices:overdue_scan"
	// TaskTypeDashboardWarmup pre-populates the dashboard cache.
	TaskTypeDashboardWarmup = "dashboard:warmup"
)

// ReceiptEmailPayload carries everything the receipt mail needs, so the
// worker does not have to query the database.
type ReceiptEmailPayload struct {
	InvoiceNumber string  `json:"invoice_number"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// NewReceiptEmailTask builds the receipt email task.
func NewReceiptEmailTask(payload ReceiptEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReceiptEmail, data), nil
}

// NewOverdueScanTask builds the overdue reminder scan task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}

// NewDashboardWarmupTask builds the dashboard warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeDashboardWarmup, nil)
}
