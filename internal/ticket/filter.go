package ticket

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
)

// TimestampLayout is how timestamps are rendered for substring filters and
// exports. Rendering is done in UTC.
const TimestampLayout = "2006-01-02 15:04:05"

const dateLayout = "2006-01-02"

var boundLayouts = []string{time.RFC3339, TimestampLayout, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// Filter holds the list predicates. Zero values mean "not filtered on".
type Filter struct {
	StationID   string
	StationName string
	StationType string
	Province    string

	IssueCategory    string
	IssueDescription string
	IssueType        string
	IssueTypeID      int

	Status Status

	AssigneeID   int64
	AssigneeName string

	OpenFrom  *time.Time
	OpenTo    *time.Time
	CloseFrom *time.Time
	CloseTo   *time.Time

	OnHold        string
	InProgress    string
	PendingVendor string
	TicketTime    string
	Comment       string
	Creator       string
}

func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// ParseFilter reads a Filter from list query parameters.
func ParseFilter(q url.Values) (Filter, error) {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }

	f := Filter{
		StationID:        get("station_id"),
		StationName:      get("station_name"),
		StationType:      get("station_type"),
		Province:         get("province"),
		IssueCategory:    get("issue_category"),
		IssueDescription: get("issue_description"),
		IssueType:        get("issue_type"),
		AssigneeName:     get("assignee"),
		OnHold:           get("ticket_on_hold"),
		InProgress:       get("ticket_in_progress"),
		PendingVendor:    get("ticket_pending_vendor"),
		TicketTime:       get("ticket_time"),
		Comment:          get("comment"),
		Creator:          get("creator"),
	}

	if raw := get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			return Filter{}, err
		}
		f.Status = status
	}

	if raw := get("issue_type_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 || id > len(IssueTypes) {
			return Filter{}, errors.NewValidationFieldError("issue_type_id", "issue_type_id must be between 1 and 7", errors.ErrCodeInvalidIssueType)
		}
		f.IssueTypeID = id
	}

	if raw := get("users_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Filter{}, errors.NewValidationFieldError("users_id", "users_id must be a positive integer", errors.ErrCodeInvalidID)
		}
		f.AssigneeID = id
	}

	var err error
	if f.OpenFrom, err = parseBound("open_from", get("open_from"), false); err != nil {
		return Filter{}, err
	}
	if f.OpenTo, err = parseBound("open_to", get("open_to"), true); err != nil {
		return Filter{}, err
	}
	if f.CloseFrom, err = parseBound("close_from", get("close_from"), false); err != nil {
		return Filter{}, err
	}
	if f.CloseTo, err = parseBound("close_to", get("close_to"), true); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// parseBound accepts a date or a timestamp. A date-only upper bound covers
// the whole day.
func parseBound(field, raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if day, err := time.ParseInLocation(dateLayout, raw, time.UTC); err == nil {
		if upper {
			day = day.Add(24*time.Hour - time.Nanosecond)
		}
		return &day, nil
	}
	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, errors.NewValidationFieldError(field, field+" must be a date (YYYY-MM-DD) or timestamp", errors.ErrCodeInvalidDate)
}

// Apply returns the tickets matching every set predicate, in input order.
// An empty filter returns a copy of the input, nil entries included; any
// other filter drops nil entries. The input slice is never modified.
func (f Filter) Apply(tickets []*Ticket) []*Ticket {
	if f.IsEmpty() {
		return append(make([]*Ticket, 0, len(tickets)), tickets...)
	}
	out := make([]*Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t != nil && f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (f Filter) Match(t *Ticket) bool {
	if !contains(t.StationID, f.StationID) ||
		!contains(t.StationName, f.StationName) ||
		!contains(t.StationType, f.StationType) ||
		!contains(t.Province, f.Province) ||
		!contains(t.IssueCategory, f.IssueCategory) ||
		!contains(t.IssueDescription, f.IssueDescription) ||
		!contains(t.IssueType, f.IssueType) {
		return false
	}
	if f.IssueTypeID != 0 && t.IssueTypeID != f.IssueTypeID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssigneeID != 0 && (t.AssigneeID == nil || *t.AssigneeID != f.AssigneeID) {
		return false
	}
	if !containsPtr(t.AssigneeName, f.AssigneeName) ||
		!containsPtr(t.Comment, f.Comment) ||
		!containsPtr(t.CreatorName, f.Creator) {
		return false
	}

	opened := t.OpenedAt
	if !within(&opened, f.OpenFrom, f.OpenTo) || !within(t.ClosedAt, f.CloseFrom, f.CloseTo) {
		return false
	}

	if !containsTime(t.OnHoldAt, f.OnHold) ||
		!containsTime(t.InProgressAt, f.InProgress) ||
		!containsTime(t.PendingVendorAt, f.PendingVendor) ||
		!containsTime(&opened, f.TicketTime) {
		return false
	}
	return true
}

func contains(value, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

func containsPtr(value *string, needle string) bool {
	if needle == "" {
		return true
	}
	if value == nil {
		return false
	}
	return contains(*value, needle)
}

func containsTime(value *time.Time, needle string) bool {
	if needle == "" {
		return true
	}
	if value == nil {
		return false
	}
	return strings.Contains(FormatTimestamp(value), needle)
}

func within(value, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if value == nil {
		return false
	}
	if from != nil && value.Before(*from) {
		return false
	}
	if to != nil && value.After(*to) {
		return false
	}
	return true
}
