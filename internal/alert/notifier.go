package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type ChatLookup interface {
	ChatIDsForUser(ctx context.Context, userID int64) ([]int64, error)
}

type MessageDispatcher interface {
	Dispatch(ctx context.Context, msg Message) Result
}

// TicketNotifier turns ticket changes into alerts for the assignee: an
// email to their address and a Telegram message to each of their groups,
// or to the default chat when they belong to none.
type TicketNotifier struct {
	dispatcher    MessageDispatcher
	users         UserLookup
	chats         ChatLookup
	defaultChatID int64
	logger        *slog.Logger
}

func NewTicketNotifier(dispatcher MessageDispatcher, users UserLookup, chats ChatLookup, defaultChatID int64, logger *slog.Logger) *TicketNotifier {
	return &TicketNotifier{
		dispatcher:    dispatcher,
		users:         users,
		chats:         chats,
		defaultChatID: defaultChatID,
		logger:        logger,
	}
}

var _ ticket.Notifier = (*TicketNotifier)(nil)

func (n *TicketNotifier) NotifyTicket(ctx context.Context, kind ticket.NotifyKind, t *ticket.Ticket) error {
	recipients, err := n.Recipients(ctx, t)
	if err != nil {
		return err
	}
	subject, body := FormatTicketAlert(kind, t)
	id := t.ID
	result := n.dispatcher.Dispatch(ctx, Message{
		TicketID:   &id,
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	})
	return result.Err()
}

// Recipients resolves who hears about t. The result has no duplicates.
func (n *TicketNotifier) Recipients(ctx context.Context, t *ticket.Ticket) ([]Recipient, error) {
	var recipients []Recipient
	seen := make(map[Recipient]bool)
	add := func(r Recipient) {
		if r.Address == "" || seen[r] {
			return
		}
		seen[r] = true
		recipients = append(recipients, r)
	}

	var chatIDs []int64
	if t.AssigneeID != nil {
		u, err := n.users.GetByID(ctx, *t.AssigneeID)
		if err != nil {
			n.logger.Error("failed to look up alert recipient", "users_id", *t.AssigneeID, "error", err)
			return nil, fmt.Errorf("look up assignee: %w", err)
		}
		if u != nil {
			add(EmailRecipient(strings.TrimSpace(u.Email)))
		}

		chatIDs, err = n.chats.ChatIDsForUser(ctx, *t.AssigneeID)
		if err != nil {
			n.logger.Error("failed to look up telegram groups", "users_id", *t.AssigneeID, "error", err)
			return nil, fmt.Errorf("look up telegram groups: %w", err)
		}
	}
	if len(chatIDs) == 0 && n.defaultChatID != 0 {
		chatIDs = []int64{n.defaultChatID}
	}
	for _, id := range chatIDs {
		add(TelegramRecipient(id))
	}
	return recipients, nil
}

// KindManual marks alerts sent by hand from the alert bot endpoint.
const KindManual ticket.NotifyKind = "manual"

var alertTitles = map[ticket.NotifyKind]string{
	KindManual:            "Ticket alert",
	ticket.NotifyCreated:  "New ticket",
	ticket.NotifyStatus:   "Ticket status changed",
	ticket.NotifyAssigned: "Ticket assigned",
	ticket.NotifyReopened: "Ticket reopened",
}

func FormatTicketAlert(kind ticket.NotifyKind, t *ticket.Ticket) (string, string) {
	title, ok := alertTitles[kind]
	if !ok {
		title = "Ticket update"
	}
	subject := fmt.Sprintf("[%s] %s", t.Code, title)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", title, t.Code)
	fmt.Fprintf(&b, "Station: %s - %s\n", t.StationID, t.StationName)
	if t.Province != "" {
		fmt.Fprintf(&b, "Province: %s\n", t.Province)
	}
	fmt.Fprintf(&b, "Issue: %s / %s\n", t.IssueCategory, t.IssueType)
	fmt.Fprintf(&b, "Description: %s\n", t.IssueDescription)
	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	if t.AssigneeName != nil {
		fmt.Fprintf(&b, "Assignee: %s\n", *t.AssigneeName)
	}
	if t.Comment != nil && *t.Comment != "" {
		fmt.Fprintf(&b, "Comment: %s\n", *t.Comment)
	}
	fmt.Fprintf(&b, "Time: %s UTC", ticket.FormatTimestamp(timePtr(t.StatusTime())))
	return subject, b.String()
}

func timePtr(t time.Time) *time.Time { return &t }
