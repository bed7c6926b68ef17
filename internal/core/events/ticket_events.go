package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTicketCreated       = "ticket.created"
	EventTypeTicketStatusChanged = "ticket.status_changed"
	EventTypeTicketAssigned      = "ticket.assigned"
	EventTypeTicketReopened      = "ticket.reopened"
	EventTypeTicketDeleted       = "ticket.deleted"
	EventTypeAlertSent           = "alert.sent"
	EventTypeAlertFailed         = "alert.failed"
)

var TicketEventTypes = []string{
	EventTypeTicketCreated,
	EventTypeTicketStatusChanged,
	EventTypeTicketAssigned,
	EventTypeTicketReopened,
	EventTypeTicketDeleted,
}

type TicketEvent struct {
	BaseEvent
	TicketID   int64  `json:"ticket_id"`
	TicketCode string `json:"ticket_code"`
	Status     string `json:"status"`
	IssueType  string `json:"issue_type"`
	ActorID    int64  `json:"actor_id"`
}

func NewTicketEvent(eventType string, ticketID int64, code, status, issueType string, actorID int64) *TicketEvent {
	return &TicketEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"ticket_id":   ticketID,
				"ticket_code": code,
				"status":      status,
				"issue_type":  issueType,
				"actor_id":    actorID,
			},
		},
		TicketID:   ticketID,
		TicketCode: code,
		Status:     status,
		IssueType:  issueType,
		ActorID:    actorID,
	}
}

type AlertEvent struct {
	BaseEvent
	AlertID  int64  `json:"alert_id"`
	Platform string `json:"platform"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

func NewAlertEvent(eventType string, alertID int64, platform string, attempts int, errText string) *AlertEvent {
	return &AlertEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"alert_id": alertID,
				"platform": platform,
				"attempts": attempts,
				"error":    errText,
			},
		},
		AlertID:  alertID,
		Platform: platform,
		Attempts: attempts,
		Error:    errText,
	}
}
