package ticket

import (
	"github.com/frahmantamala/pos-helpdesk/internal/export"
)

var ExportHeaders = []string{
	"ticket_code",
	"station_id",
	"station_name",
	"station_type",
	"province",
	"issue_category",
	"issue_type",
	"issue_description",
	"status",
	"assignee",
	"ticket_open",
	"ticket_on_hold",
	"ticket_in_progress",
	"ticket_pending_vendor",
	"ticket_close",
	"comment",
	"creator",
}

// ExportTable lays tickets out in ExportHeaders order.
func ExportTable(tickets []*Ticket) export.Table {
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		opened := t.OpenedAt
		rows = append(rows, []string{
			t.Code,
			t.StationID,
			t.StationName,
			t.StationType,
			t.Province,
			t.IssueCategory,
			t.IssueType,
			t.IssueDescription,
			string(t.Status),
			deref(t.AssigneeName),
			FormatTimestamp(&opened),
			FormatTimestamp(t.OnHoldAt),
			FormatTimestamp(t.InProgressAt),
			FormatTimestamp(t.PendingVendorAt),
			FormatTimestamp(t.ClosedAt),
			deref(t.Comment),
			deref(t.CreatorName),
		})
	}
	return export.Table{
		Title:   "POS Helpdesk Tickets",
		Headers: ExportHeaders,
		Rows:    rows,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
