package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/dashboard"
	"github.com/jmoiron/sqlx"
)

const closedStatus = "close"

// DashboardRepository runs the read-only analytics queries over sqlx.
// Placeholders are written as '?' and rebound for the driver in use.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

var _ dashboard.RepositoryAPI = (*DashboardRepository)(nil)

func (r *DashboardRepository) CountTotal(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM tickets")
	return n, err
}

func (r *DashboardRepository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, r.db.Rebind("SELECT COUNT(*) FROM tickets WHERE status <> ?"), closedStatus)
	return n, err
}

func (r *DashboardRepository) CountBy(ctx context.Context, column string) ([]dashboard.Count, error) {
	if !allowedColumn(column) {
		return nil, fmt.Errorf("cannot group tickets by %q", column)
	}

	query := fmt.Sprintf(
		"SELECT COALESCE(%[1]s, '') AS label, COUNT(*) AS total FROM tickets GROUP BY %[1]s ORDER BY total DESC, label ASC",
		column,
	)
	counts := []dashboard.Count{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *DashboardRepository) Resolutions(ctx context.Context) ([]dashboard.Resolution, error) {
	var rows []dashboard.Resolution
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		"SELECT ticket_open, ticket_close FROM tickets WHERE status = ? AND ticket_close IS NOT NULL",
	), closedStatus)
	return rows, err
}

func (r *DashboardRepository) StationReport(ctx context.Context, from, to *time.Time) ([]dashboard.StationReport, error) {
	var (
		where []string
		args  = []interface{}{closedStatus}
	)
	if from != nil {
		where = append(where, "ticket_open >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		where = append(where, "ticket_open <= ?")
		args = append(args, to.UTC())
	}

	var b strings.Builder
	b.WriteString("SELECT station_id, COALESCE(MAX(station_name), '') AS station_name, COALESCE(MAX(province), '') AS province, ")
	b.WriteString("COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS closed ")
	b.WriteString("FROM tickets")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" GROUP BY station_id ORDER BY total DESC, station_id ASC")

	rows := []dashboard.StationReport{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(b.String()), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func allowedColumn(column string) bool {
	for _, c := range dashboard.GroupColumns {
		if c == column {
			return true
		}
	}
	return false
}
