package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	"github.com/frahmantamala/pos-helpdesk/internal/transport"
)

type ServiceAPI interface {
	Summary(ctx context.Context) (*Summary, error)
	Report(ctx context.Context, from, to *time.Time) (*Report, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		h.Logger.Error("Handler: failed to build dashboard", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

// GetReport reads ?open_from and ?open_to with the same date rules as the
// ticket list.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	filter, err := ticket.ParseFilter(r.URL.Query())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	report, err := h.Service.Report(r.Context(), filter.OpenFrom, filter.OpenTo)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}
