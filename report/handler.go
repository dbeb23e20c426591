package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/freelanceflow/freelanceflow/internal/invoices"
	"github.com/freelanceflow/freelanceflow/internal/platform/httpx"
)

// InvoiceSource loads the invoice detail the document is rendered from.
// Satisfied by invoices.Service.
type InvoiceSource interface {
	Get(ctx context.Context, id int64) (*invoices.InvoiceDetail, error)
}

// Handler serves invoice PDF downloads.
type Handler struct {
	logger   *slog.Logger
	client   *Client
	invoices InvoiceSource
}

func NewHandler(logger *slog.Logger, client *Client, source InvoiceSource) *Handler {
	return &Handler{logger: logger, client: client, invoices: source}
}

// MountRoutes registers the PDF route on the invoices router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/pdf", h.invoicePDF)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice ID")
		return
	}

	detail, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	html, err := RenderInvoiceHTML(detail)
	if err != nil {
		h.logger.Error("render invoice document", slog.Any("error", err), slog.Int64("invoice_id", id))
		httpx.RespondError(w, err)
		return
	}

	pdf, err := h.client.RenderPDF(r.Context(), html)
	if err != nil {
		h.logger.Error("convert invoice pdf", slog.Any("error", err), slog.Int64("invoice_id", id))
		httpx.Problem(w, http.StatusBadGateway, "PDF Rendering Failed", "the document service is unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=Invoice-%s.pdf", detail.InvoiceNumber))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
