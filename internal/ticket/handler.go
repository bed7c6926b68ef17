package ticket

import (
	"context"
	"io"
	"net/http"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/auth"
	"github.com/frahmantamala/pos-helpdesk/internal/export"
	"github.com/frahmantamala/pos-helpdesk/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) ([]*Ticket, error)
	Get(ctx context.Context, id int64) (*Ticket, error)
	Create(ctx context.Context, actor Actor, dto CreateTicketDTO) (*Result, error)
	Update(ctx context.Context, actor Actor, id int64, dto UpdateTicketDTO) (*Ticket, error)
	ChangeStatus(ctx context.Context, actor Actor, id int64, dto StatusDTO) (*Result, error)
	Assign(ctx context.Context, actor Actor, id int64, dto AssignDTO) (*Result, error)
	Reopen(ctx context.Context, actor Actor, id int64, dto ReopenDTO) (*Result, error)
	Delete(ctx context.Context, actor Actor, id int64) error
	AddImage(ctx context.Context, actor Actor, id int64, fileName string, data []byte) (*Image, error)
	History(ctx context.Context, id int64) (*HistoryResponse, error)
	Track(ctx context.Context, code string) (*HistoryResponse, error)
	Export(ctx context.Context, filter Filter, format export.Format) (*ExportFile, error)
}

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	MaxUploadBytes int64
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		Service:        service,
		MaxUploadBytes: DefaultMaxImageBytes,
	}
}

func actorFrom(r *http.Request) Actor {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return Actor{}
	}
	return Actor{ID: p.ID, IsAdmin: p.IsAdmin()}
}

func (h *Handler) GetTickets(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tickets, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("GetTickets: failed to list tickets", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TicketsResponse{Tickets: tickets, Total: len(tickets)})
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	t, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var dto CreateTicketDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Create(r.Context(), actorFrom(r), dto)
	if err != nil {
		h.Logger.Error("CreateTicket: failed to create ticket", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateTicketDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	t, err := h.Service.Update(r.Context(), actorFrom(r), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, Result{Ticket: t, Message: MessageUpdated})
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto StatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.ChangeStatus(r.Context(), actorFrom(r), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) AssignTicket(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto AssignDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Assign(r.Context(), actorFrom(r), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ReopenTicket(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ReopenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Reopen(r.Context(), actorFrom(r), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), actorFrom(r), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "ticket deleted"})
}

// UploadImage expects a multipart form with the file in field "image".
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.MaxUploadBytes + 1<<20); err != nil {
		h.Logger.Warn("UploadImage: failed to parse form", "ticket_id", id, "error", err)
		h.HandleServiceError(w, ErrImageTooLarge)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		h.HandleServiceError(w, errors.NewValidationFieldError("image", "image file is required", errors.ErrCodeInvalidImage))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		h.HandleServiceError(w, errors.NewValidationFieldError("image", "image could not be read", errors.ErrCodeInvalidImage))
		return
	}

	img, err := h.Service.AddImage(r.Context(), actorFrom(r), id, header.Filename, data)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, img)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	history, err := h.Service.History(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) TrackTicket(w http.ResponseWriter, r *http.Request) {
	history, err := h.Service.Track(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, history)
}

// ExportTickets takes the list filters plus ?format=xlsx|pdf|csv.
func (h *Handler) ExportTickets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format, err := export.ParseFormat(query.Get("format"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	filter, err := ParseFilter(query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	file, err := h.Service.Export(r.Context(), filter, format)
	if err != nil {
		h.Logger.Error("ExportTickets: failed to export tickets", "format", format, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteFile(w, file.ContentType, file.Filename, file.Data)
}
