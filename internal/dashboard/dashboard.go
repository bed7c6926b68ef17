package dashboard

import (
	"fmt"
	"strings"
	"time"
)

// Columns a summary can be grouped by.
const (
	ColumnStatus    = "status"
	ColumnIssueType = "issue_type"
	ColumnProvince  = "province"
)

var GroupColumns = []string{ColumnStatus, ColumnIssueType, ColumnProvince}

type Count struct {
	Key   string `db:"label" json:"key"`
	Count int64  `db:"total" json:"count"`
}

type Summary struct {
	Total              int64     `json:"total"`
	OpenBacklog        int64     `json:"open_backlog"`
	ByStatus           []Count   `json:"by_status"`
	ByIssueType        []Count   `json:"by_issue_type"`
	ByProvince         []Count   `json:"by_province"`
	ClosedCount        int64     `json:"closed_count"`
	AvgResolutionHours float64   `json:"avg_resolution_hours"`
	GeneratedAt        time.Time `json:"generated_at"`
}

type StationReport struct {
	StationID   string `db:"station_id" json:"station_id"`
	StationName string `db:"station_name" json:"station_name"`
	Province    string `db:"province" json:"province"`
	Total       int64  `db:"total" json:"total"`
	Closed      int64  `db:"closed" json:"closed"`
}

type Report struct {
	OpenFrom *time.Time      `json:"open_from"`
	OpenTo   *time.Time      `json:"open_to"`
	Total    int64           `json:"total"`
	Closed   int64           `json:"closed"`
	Stations []StationReport `json:"stations"`
}

// Resolution is the open and close time of one closed ticket.
type Resolution struct {
	OpenedAt time.Time `db:"ticket_open"`
	ClosedAt time.Time `db:"ticket_close"`
}

// AverageHours ignores rows closed before they were opened.
func AverageHours(rows []Resolution) float64 {
	var total time.Duration
	n := 0
	for _, r := range rows {
		d := r.ClosedAt.Sub(r.OpenedAt)
		if d < 0 {
			continue
		}
		total += d
		n++
	}
	if n == 0 {
		return 0
	}
	hours := total.Hours() / float64(n)
	return float64(int64(hours*100+0.5)) / 100
}

// FormatDigest renders the summary as the plain text posted to Telegram.
func FormatDigest(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "POS Helpdesk summary %s UTC\n", s.GeneratedAt.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total tickets: %d\n", s.Total)
	fmt.Fprintf(&b, "Open backlog: %d\n", s.OpenBacklog)
	fmt.Fprintf(&b, "Average resolution: %.2f hours\n", s.AvgResolutionHours)

	writeCounts(&b, "By status", s.ByStatus)
	writeCounts(&b, "By issue type", s.ByIssueType)
	return strings.TrimRight(b.String(), "\n")
}

func writeCounts(b *strings.Builder, title string, counts []Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, c := range counts {
		key := c.Key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(b, "- %s: %d\n", key, c.Count)
	}
}
