package alert

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	alertDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/alert"
	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
)

// LogStore persists one row per delivery attempt.
type LogStore interface {
	CreateLog(ctx context.Context, l *alertDatamodel.Log) error
	UpdateLog(ctx context.Context, l *alertDatamodel.Log) error
	GetLog(ctx context.Context, id int64) (*alertDatamodel.Log, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Dispatcher struct {
	senders   map[Platform]Sender
	logs      LogStore
	publisher Publisher
	logger    *slog.Logger
}

// NewDispatcher registers senders by platform. A nil sender is skipped so
// callers can pass a disabled channel straight through.
func NewDispatcher(logs LogStore, publisher Publisher, logger *slog.Logger, senders ...Sender) *Dispatcher {
	d := &Dispatcher{
		senders:   make(map[Platform]Sender),
		logs:      logs,
		publisher: publisher,
		logger:    logger,
	}
	for _, s := range senders {
		if s == nil {
			continue
		}
		d.senders[s.Platform()] = s
	}
	return d
}

func (d *Dispatcher) Enabled(p Platform) bool {
	_, ok := d.senders[p]
	return ok
}

// Dispatch sends msg to every recipient and records each attempt. Failures
// are collected per platform; a failed recipient does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Result {
	result := Result{Errors: make(map[Platform]string)}

	for _, rcpt := range msg.Recipients {
		row := &alertDatamodel.Log{
			TicketID:  msg.TicketID,
			Platform:  string(rcpt.Platform),
			Recipient: rcpt.Address,
			Subject:   msg.Subject,
			Message:   msg.Body,
			Attempts:  1,
		}

		err := d.deliver(ctx, rcpt.Platform, rcpt.Address, msg.Subject, msg.Body)
		markAttempt(row, err)

		if logErr := d.logs.CreateLog(errors.Detached(ctx), row); logErr != nil {
			d.logger.Error("failed to write alert log", "platform", rcpt.Platform, "recipient", rcpt.Address, "error", logErr)
		} else {
			result.LogIDs = append(result.LogIDs, row.ID)
		}

		if err != nil {
			result.Failed++
			result.Errors[rcpt.Platform] = err.Error()
			d.logger.Warn("alert delivery failed", "platform", rcpt.Platform, "recipient", rcpt.Address, "error", err)
		} else {
			result.Sent++
		}
		d.publish(ctx, row, err)
	}

	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result
}

// Retry re-sends a logged alert. Rows already sent are left alone.
func (d *Dispatcher) Retry(ctx context.Context, logID int64) (*Log, error) {
	row, err := d.logs.GetLog(ctx, logID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load alert log", err)
	}
	if row == nil {
		return nil, ErrLogNotFound
	}
	if Status(row.Status) == StatusSent {
		return LogFromDataModel(row), nil
	}

	sendErr := d.deliver(ctx, Platform(row.Platform), row.Recipient, row.Subject, row.Message)
	row.Attempts++
	markAttempt(row, sendErr)

	if err := d.logs.UpdateLog(errors.Detached(ctx), row); err != nil {
		d.logger.Error("failed to update alert log", "alert_id", row.ID, "error", err)
		return nil, errors.NewInternalError("Failed to update alert log", err)
	}
	d.publish(ctx, row, sendErr)

	if sendErr != nil {
		d.logger.Warn("alert retry failed", "alert_id", row.ID, "attempts", row.Attempts, "error", sendErr)
		return LogFromDataModel(row), ErrNotificationFailed.WithCause(sendErr)
	}
	d.logger.Info("alert retry delivered", "alert_id", row.ID, "attempts", row.Attempts)
	return LogFromDataModel(row), nil
}

func (d *Dispatcher) deliver(ctx context.Context, p Platform, address, subject, body string) (err error) {
	sender, ok := d.senders[p]
	if !ok {
		return ErrSenderUnavailable.WithDetails(map[string]string{"platform": string(p)})
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("alert sender panicked", "platform", p, "panic", r)
			err = errors.NewDownstreamError("Alert sender crashed", errors.ErrCodeNotificationFailed, nil)
		}
	}()
	return sender.Send(ctx, address, subject, body)
}

func (d *Dispatcher) publish(ctx context.Context, row *alertDatamodel.Log, sendErr error) {
	if d.publisher == nil {
		return
	}
	eventType, errText := events.EventTypeAlertSent, ""
	if sendErr != nil {
		eventType, errText = events.EventTypeAlertFailed, sendErr.Error()
	}
	event := events.NewAlertEvent(eventType, row.ID, row.Platform, row.Attempts, errText)
	if err := d.publisher.Publish(errors.Detached(ctx), event); err != nil {
		d.logger.Warn("failed to publish alert event", "event_type", eventType, "error", err)
	}
}

func markAttempt(row *alertDatamodel.Log, err error) {
	if err != nil {
		msg := err.Error()
		row.Status = string(StatusFailed)
		row.LastError = &msg
		return
	}
	row.Status = string(StatusSent)
	row.LastError = nil
}
