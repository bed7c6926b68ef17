package ticket

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	ticketDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/ticket"
)

type Status string

const (
	StatusOpen          Status = "open"
	StatusOnHold        Status = "on_hold"
	StatusInProgress    Status = "in progress"
	StatusPendingVendor Status = "pending_vendor"
	StatusClose         Status = "close"
)

var Statuses = []Status{StatusOpen, StatusOnHold, StatusInProgress, StatusPendingVendor, StatusClose}

var (
	ErrTicketNotFound    = errors.NewNotFoundError("Ticket not found", errors.ErrCodeTicketNotFound)
	ErrInvalidStatus     = errors.NewValidationFieldError("status", "status must be one of: open, on_hold, in progress, pending_vendor, close", errors.ErrCodeInvalidStatus)
	ErrInvalidTransition = errors.NewInvalidTransitionError("Status change is not allowed", errors.ErrCodeInvalidTransition)
	ErrNoopTransition    = errors.NewInvalidTransitionError("Ticket already has this status", errors.ErrCodeNoopTransition)
	ErrTicketClosed      = errors.NewInvalidTransitionError("Ticket is closed, reopen it first", errors.ErrCodeTicketClosed)
	ErrTicketNotClosed   = errors.NewInvalidTransitionError("Only closed tickets can be reopened", errors.ErrCodeTicketNotClosed)
)

// ParseStatus accepts any casing and treats '_', '-' and spaces alike, so
// "In Progress", "in_progress" and "CLOSE" are all valid.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")

	switch key {
	case "open":
		return StatusOpen, nil
	case "on hold", "onhold", "hold":
		return StatusOnHold, nil
	case "in progress", "inprogress", "progress":
		return StatusInProgress, nil
	case "pending vendor", "pendingvendor", "pending":
		return StatusPendingVendor, nil
	case "close", "closed":
		return StatusClose, nil
	}
	return "", ErrInvalidStatus
}

var transitions = map[Status][]Status{
	StatusOpen:          {StatusOnHold, StatusInProgress, StatusClose},
	StatusInProgress:    {StatusOnHold, StatusPendingVendor, StatusClose},
	StatusOnHold:        {StatusInProgress, StatusClose},
	StatusPendingVendor: {StatusInProgress, StatusOnHold, StatusClose},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type IssueCategory string

const (
	CategoryPTTDigital IssueCategory = "PTT_Digital"
	CategoryThirdParty IssueCategory = "Third_Party"
)

var IssueCategories = []string{string(CategoryPTTDigital), string(CategoryThirdParty)}

// IssueTypes lists the issue types in id order; the id is index+1.
var IssueTypes = []string{"Software", "Hardware", "Dispenser", "ABA", "Network", "ATG", "Fleetcard"}

func IssueTypeID(issueType string) (int, bool) {
	for i, t := range IssueTypes {
		if strings.EqualFold(t, strings.TrimSpace(issueType)) {
			return i + 1, true
		}
	}
	return 0, false
}

// CanonicalIssueType returns the stored spelling of an issue type.
func CanonicalIssueType(issueType string) string {
	if id, ok := IssueTypeID(issueType); ok {
		return IssueTypes[id-1]
	}
	return issueType
}

type Ticket struct {
	ID               int64      `json:"id"`
	Code             string     `json:"ticket_code"`
	StationID        string     `json:"station_id"`
	StationName      string     `json:"station_name"`
	StationType      string     `json:"station_type"`
	Province         string     `json:"province"`
	IssueCategory    string     `json:"issue_category"`
	IssueType        string     `json:"issue_type"`
	IssueTypeID      int        `json:"issue_type_id"`
	IssueDescription string     `json:"issue_description"`
	AssigneeID       *int64     `json:"users_id"`
	AssigneeName     *string    `json:"assignee_name,omitempty"`
	Status           Status     `json:"status"`
	OpenedAt         time.Time  `json:"ticket_open"`
	OnHoldAt         *time.Time `json:"ticket_on_hold"`
	InProgressAt     *time.Time `json:"ticket_in_progress"`
	PendingVendorAt  *time.Time `json:"ticket_pending_vendor"`
	ClosedAt         *time.Time `json:"ticket_close"`
	Comment          *string    `json:"comment"`
	CreatedBy        *int64     `json:"created_by"`
	CreatorName      *string    `json:"creator_name,omitempty"`
	Version          int64      `json:"version"`
	Images           []*Image   `json:"images,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Transition moves the ticket to status to. Only the timestamp of the new
// status stays populated; ticket_open is never touched.
func (t *Ticket) Transition(to Status, at time.Time) error {
	if t.Status == StatusClose {
		return ErrTicketClosed
	}
	if t.Status == to {
		return ErrNoopTransition
	}
	if !CanTransition(t.Status, to) {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": string(t.Status), "to": string(to)})
	}

	t.clearStatusTimes()
	stamp := at
	switch to {
	case StatusOnHold:
		t.OnHoldAt = &stamp
	case StatusInProgress:
		t.InProgressAt = &stamp
	case StatusPendingVendor:
		t.PendingVendorAt = &stamp
	case StatusClose:
		t.ClosedAt = &stamp
	}
	t.Status = to
	return nil
}

// Reopen puts a closed ticket back to open.
func (t *Ticket) Reopen() error {
	if t.Status != StatusClose {
		return ErrTicketNotClosed
	}
	t.clearStatusTimes()
	t.Status = StatusOpen
	return nil
}

func (t *Ticket) clearStatusTimes() {
	t.OnHoldAt = nil
	t.InProgressAt = nil
	t.PendingVendorAt = nil
	t.ClosedAt = nil
}

// StatusTime returns the timestamp that belongs to the current status.
func (t *Ticket) StatusTime() time.Time {
	switch t.Status {
	case StatusOnHold:
		if t.OnHoldAt != nil {
			return *t.OnHoldAt
		}
	case StatusInProgress:
		if t.InProgressAt != nil {
			return *t.InProgressAt
		}
	case StatusPendingVendor:
		if t.PendingVendorAt != nil {
			return *t.PendingVendorAt
		}
	case StatusClose:
		if t.ClosedAt != nil {
			return *t.ClosedAt
		}
	}
	return t.OpenedAt
}

type Image struct {
	ID          int64     `json:"id"`
	TicketID    int64     `json:"ticket_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  *int64    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	Path        string    `json:"-"`
}

type History struct {
	ID         int64     `json:"id"`
	TicketID   int64     `json:"ticket_id"`
	Action     string    `json:"action"`
	FromStatus *string   `json:"from_status"`
	ToStatus   *string   `json:"to_status"`
	ActorID    *int64    `json:"actor_id"`
	Note       *string   `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	ActionCreated  = "created"
	ActionStatus   = "status_changed"
	ActionAssigned = "assigned"
	ActionUpdated  = "updated"
	ActionReopened = "reopened"
	ActionImage    = "image_added"
)

func ToDataModel(t *Ticket) *ticketDatamodel.Ticket {
	return &ticketDatamodel.Ticket{
		ID:               t.ID,
		Code:             t.Code,
		StationCode:      t.StationID,
		StationName:      t.StationName,
		StationType:      t.StationType,
		Province:         t.Province,
		IssueCategory:    t.IssueCategory,
		IssueType:        t.IssueType,
		IssueTypeID:      t.IssueTypeID,
		IssueDescription: t.IssueDescription,
		AssigneeID:       t.AssigneeID,
		Status:           string(t.Status),
		OpenedAt:         t.OpenedAt,
		OnHoldAt:         t.OnHoldAt,
		InProgressAt:     t.InProgressAt,
		PendingVendorAt:  t.PendingVendorAt,
		ClosedAt:         t.ClosedAt,
		Comment:          t.Comment,
		CreatedBy:        t.CreatedBy,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func FromDataModel(t *ticketDatamodel.Ticket) *Ticket {
	status, err := ParseStatus(t.Status)
	if err != nil {
		status = Status(t.Status)
	}
	return &Ticket{
		ID:               t.ID,
		Code:             t.Code,
		StationID:        t.StationCode,
		StationName:      t.StationName,
		StationType:      t.StationType,
		Province:         t.Province,
		IssueCategory:    t.IssueCategory,
		IssueType:        t.IssueType,
		IssueTypeID:      t.IssueTypeID,
		IssueDescription: t.IssueDescription,
		AssigneeID:       t.AssigneeID,
		Status:           status,
		OpenedAt:         t.OpenedAt,
		OnHoldAt:         t.OnHoldAt,
		InProgressAt:     t.InProgressAt,
		PendingVendorAt:  t.PendingVendorAt,
		ClosedAt:         t.ClosedAt,
		Comment:          t.Comment,
		CreatedBy:        t.CreatedBy,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func FromRow(row *ticketDatamodel.TicketRow) *Ticket {
	t := FromDataModel(&row.Ticket)
	t.AssigneeName = row.AssigneeName
	t.CreatorName = row.CreatorName
	return t
}

func ImageFromDataModel(img *ticketDatamodel.Image) *Image {
	return &Image{
		ID:          img.ID,
		TicketID:    img.TicketID,
		FileName:    img.FileName,
		ContentType: img.ContentType,
		SizeBytes:   img.SizeBytes,
		UploadedBy:  img.UploadedBy,
		CreatedAt:   img.CreatedAt,
		Path:        img.Path,
	}
}

func HistoryFromDataModel(h *ticketDatamodel.History) *History {
	return &History{
		ID:         h.ID,
		TicketID:   h.TicketID,
		Action:     h.Action,
		FromStatus: h.FromStatus,
		ToStatus:   h.ToStatus,
		ActorID:    h.ActorID,
		Note:       h.Note,
		CreatedAt:  h.CreatedAt,
	}
}
