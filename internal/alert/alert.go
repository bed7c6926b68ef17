package alert

import (
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	alertDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/alert"
)

type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformEmail    Platform = "email"
)

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

var (
	ErrInvalidPlatform    = errors.NewValidationFieldError("platform", "platform must be one of: telegram, email", errors.ErrCodeInvalidPlatform)
	ErrSenderUnavailable  = errors.NewDownstreamError("Alert channel is not configured", errors.ErrCodeSenderUnavailable, nil)
	ErrNotificationFailed = errors.NewDownstreamError("Alert could not be delivered", errors.ErrCodeNotificationFailed, nil)
	ErrNoRecipients       = errors.NewDownstreamError("Alert has no recipients", errors.ErrCodeNotificationFailed, nil)
	ErrLogNotFound        = errors.NewNotFoundError("Alert log not found", errors.ErrCodeAlertLogNotFound)
	ErrGroupNotFound      = errors.NewNotFoundError("Telegram group not found", errors.ErrCodeGroupNotFound)
	ErrDuplicateChat      = errors.NewConflictError("Telegram chat is already registered", errors.ErrCodeDuplicateChat)
	ErrQueueFull          = errors.NewConflictError("Alert queue is full, try again later", errors.ErrCodeQueueFull)
)

// ParsePlatform accepts "gmail" and "mail" as email.
func ParsePlatform(raw string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "telegram", "tg":
		return PlatformTelegram, nil
	case "email", "gmail", "mail":
		return PlatformEmail, nil
	}
	return "", ErrInvalidPlatform
}

type Recipient struct {
	Platform Platform `json:"platform"`
	Address  string   `json:"address"`
}

func TelegramRecipient(chatID int64) Recipient {
	return Recipient{Platform: PlatformTelegram, Address: strconv.FormatInt(chatID, 10)}
}

func EmailRecipient(address string) Recipient {
	return Recipient{Platform: PlatformEmail, Address: address}
}

// Message is one alert fanned out to every recipient.
type Message struct {
	TicketID   *int64
	Subject    string
	Body       string
	Recipients []Recipient
}

// Result reports a dispatch. Errors is keyed by platform and keeps the last
// failure seen for it.
type Result struct {
	Sent   int                 `json:"sent"`
	Failed int                 `json:"failed"`
	Errors map[Platform]string `json:"errors,omitempty"`
	LogIDs []int64             `json:"log_ids,omitempty"`
}

func (r Result) OK() bool {
	return r.Failed == 0 && r.Sent > 0
}

// Err is nil when every recipient got the alert.
func (r Result) Err() error {
	if r.Sent == 0 && r.Failed == 0 {
		return ErrNoRecipients
	}
	if r.Failed == 0 {
		return nil
	}
	details := make(map[string]string, len(r.Errors))
	for p, msg := range r.Errors {
		details[string(p)] = msg
	}
	return ErrNotificationFailed.WithDetails(details)
}

type Log struct {
	ID        int64     `json:"id"`
	TicketID  *int64    `json:"ticket_id"`
	Platform  Platform  `json:"platform"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError *string   `json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func LogFromDataModel(l *alertDatamodel.Log) *Log {
	return &Log{
		ID:        l.ID,
		TicketID:  l.TicketID,
		Platform:  Platform(l.Platform),
		Recipient: l.Recipient,
		Subject:   l.Subject,
		Message:   l.Message,
		Status:    Status(l.Status),
		Attempts:  l.Attempts,
		LastError: l.LastError,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ChatID    int64     `json:"chat_id"`
	Members   []int64   `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func GroupFromDataModel(g *alertDatamodel.TelegramGroup, members []int64) *Group {
	if members == nil {
		members = []int64{}
	}
	return &Group{
		ID:        g.ID,
		Name:      g.Name,
		ChatID:    g.ChatID,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}
