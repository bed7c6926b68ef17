package ticket

import (
	"fmt"
	"strings"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/core/common/validation"
)

const MaxDescriptionLength = 1000

type CreateTicketDTO struct {
	StationID        string  `json:"station_id"`
	IssueCategory    string  `json:"issue_category"`
	IssueType        string  `json:"issue_type"`
	IssueDescription string  `json:"issue_description"`
	AssigneeID       *int64  `json:"users_id"`
	Comment          *string `json:"comment"`
}

func (d CreateTicketDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("station_id", d.StationID).Required()
	v.Field("issue_category", d.IssueCategory).Required().OneOf(errors.ErrCodeInvalidCategory, IssueCategories...)
	v.Field("issue_type", d.IssueType).Required().Custom(issueTypeRule("issue_type"))
	v.Field("issue_description", d.IssueDescription).Required().Custom(descriptionRule("issue_description"))
	v.Field("comment", d.Comment).MaxLength(MaxDescriptionLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateTicketDTO edits the descriptive fields; nil fields are left alone.
type UpdateTicketDTO struct {
	IssueCategory    *string `json:"issue_category"`
	IssueType        *string `json:"issue_type"`
	IssueDescription *string `json:"issue_description"`
	Comment          *string `json:"comment"`
	Version          int64   `json:"version"`
}

func (d UpdateTicketDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("issue_category", d.IssueCategory).OneOf(errors.ErrCodeInvalidCategory, IssueCategories...)
	if d.IssueType != nil {
		v.Field("issue_type", *d.IssueType).Required().Custom(issueTypeRule("issue_type"))
	}
	if d.IssueDescription != nil {
		v.Field("issue_description", *d.IssueDescription).Required().Custom(descriptionRule("issue_description"))
	}
	v.Field("comment", d.Comment).MaxLength(MaxDescriptionLength)
	v.Field("version", d.Version).MinInt(0, errors.ErrCodeValidationFailed)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type StatusDTO struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
	Version int64   `json:"version"`
}

func (d StatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required()
	v.Field("comment", d.Comment).MaxLength(MaxDescriptionLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AssignDTO struct {
	AssigneeID int64 `json:"users_id"`
	Version    int64 `json:"version"`
}

func (d AssignDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("users_id", d.AssigneeID).Required().MinInt(1, errors.ErrCodeInvalidID)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReopenDTO struct {
	Reason  string `json:"reason"`
	Version int64  `json:"version"`
}

func (d ReopenDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("reason", d.Reason).Required().MaxLength(MaxDescriptionLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type Notification struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// Result is returned by mutations that send alerts. A failed alert leaves
// the ticket write in place and is reported through Notification.
type Result struct {
	Ticket       *Ticket       `json:"ticket"`
	Message      string        `json:"message"`
	Notification *Notification `json:"notification,omitempty"`
}

type TicketsResponse struct {
	Tickets []*Ticket `json:"tickets"`
	Total   int       `json:"total"`
}

type HistoryResponse struct {
	Ticket  *Ticket    `json:"ticket"`
	History []*History `json:"history"`
}

func issueTypeRule(field string) validation.ValidatorFunc {
	return func(value interface{}) *errors.AppError {
		s, _ := value.(string)
		if _, ok := IssueTypeID(s); !ok {
			return errors.NewValidationFieldError(field,
				fmt.Sprintf("%s must be one of: %s", field, strings.Join(IssueTypes, ", ")),
				errors.ErrCodeInvalidIssueType)
		}
		return nil
	}
}

func descriptionRule(field string) validation.ValidatorFunc {
	return func(value interface{}) *errors.AppError {
		s, _ := value.(string)
		if len([]rune(s)) > MaxDescriptionLength {
			return errors.NewValidationFieldError(field,
				fmt.Sprintf("%s must not exceed %d characters", field, MaxDescriptionLength),
				errors.ErrCodeDescriptionTooLong)
		}
		return nil
	}
}
