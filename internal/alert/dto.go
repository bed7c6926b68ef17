package alert

import (
	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/core/common/validation"
)

const MaxManualMessageLength = 2000

// SendAlertDTO is the body of a manual alert. An empty message sends the
// standard ticket summary.
type SendAlertDTO struct {
	Platform string `json:"platform"`
	TicketID int64  `json:"ticket_id"`
	Message  string `json:"message"`
}

func (d SendAlertDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("platform", d.Platform).Required().Custom(func(value interface{}) *errors.AppError {
		raw, _ := value.(string)
		if _, err := ParsePlatform(raw); err != nil {
			return ErrInvalidPlatform
		}
		return nil
	})
	v.Field("ticket_id", d.TicketID).MinInt(1, errors.ErrCodeInvalidID)
	v.Field("message", d.Message).MaxLength(MaxManualMessageLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type GroupDTO struct {
	Name   string `json:"name"`
	ChatID int64  `json:"chat_id"`
}

func (d GroupDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("chat_id", d.ChatID).Custom(func(value interface{}) *errors.AppError {
		if id, _ := value.(int64); id == 0 {
			return errors.NewValidationFieldError("chat_id", "chat_id is required", errors.ErrCodeValidationFailed)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type MemberDTO struct {
	UserID int64 `json:"users_id"`
}

func (d MemberDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("users_id", d.UserID).MinInt(1, errors.ErrCodeInvalidID)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type SendAlertResponse struct {
	Message string `json:"message"`
	Result  Result `json:"result"`
}

type GroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type LogsResponse struct {
	Logs []*Log `json:"logs"`
}
