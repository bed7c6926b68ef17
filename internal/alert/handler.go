package alert

import (
	"context"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/transport"
)

type ServiceAPI interface {
	SendManual(ctx context.Context, dto SendAlertDTO) (*SendAlertResponse, error)
	ListLogs(ctx context.Context, ticketID *int64, limit int) ([]*Log, error)
	ListGroups(ctx context.Context) ([]*Group, error)
	CreateGroup(ctx context.Context, dto GroupDTO) (*Group, error)
	AddMember(ctx context.Context, groupID int64, dto MemberDTO) (*Group, error)
	RemoveMember(ctx context.Context, groupID, userID int64) (*Group, error)
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

func (h *Handler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var dto SendAlertDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.SendManual(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Handler: manual alert failed", "ticket_id", dto.TicketID, "platform", dto.Platform, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetLogs takes optional ?ticket_id and ?limit.
func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var ticketID *int64
	if raw := query.Get("ticket_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleServiceError(w, errors.NewValidationFieldError("ticket_id", "ticket_id must be a positive number", errors.ErrCodeInvalidID))
			return
		}
		ticketID = &id
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleServiceError(w, errors.NewValidationFieldError("limit", "limit must be a number", errors.ErrCodeValidationFailed))
			return
		}
		limit = n
	}

	logs, err := h.Service.ListLogs(r.Context(), ticketID, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LogsResponse{Logs: logs})
}

func (h *Handler) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.ListGroups(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GroupsResponse{Groups: groups})
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var dto GroupDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	group, err := h.Service.CreateGroup(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, group)
}

func (h *Handler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto MemberDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	group, err := h.Service.AddMember(r.Context(), groupID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	userID, err := h.ParseIDParam(r, "userID")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	group, err := h.Service.RemoveMember(r.Context(), groupID, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, group)
}
