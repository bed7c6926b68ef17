package postgres

import (
	"context"
	"errors"
	"time"

	appErrors "github.com/frahmantamala/pos-helpdesk/internal"
	ticketDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/ticket"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const listSelect = "tickets.*, assignee.name AS assignee_name, creator.name AS creator_name"

type TicketRepository struct {
	db    *gorm.DB
	codes CodeGenerator
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("tickets").
		Select(listSelect).
		Joins("LEFT JOIN users AS assignee ON assignee.users_id = tickets.users_id").
		Joins("LEFT JOIN users AS creator ON creator.users_id = tickets.created_by")
}

func (r *TicketRepository) Create(ctx context.Context, t *ticketDatamodel.Ticket, h *ticketDatamodel.History) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := r.codes.Next(tx, t.OpenedAt)
		if err != nil {
			return err
		}
		t.Code = code
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if h == nil {
			return nil
		}
		h.TicketID = t.ID
		return tx.Create(h).Error
	})
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*ticketDatamodel.TicketRow, error) {
	return r.first(r.joined(ctx).Where("tickets.id = ?", id))
}

func (r *TicketRepository) GetByCode(ctx context.Context, code string) (*ticketDatamodel.TicketRow, error) {
	return r.first(r.joined(ctx).Where("tickets.ticket_code = ?", code))
}

func (r *TicketRepository) first(q *gorm.DB) (*ticketDatamodel.TicketRow, error) {
	var rows []*ticketDatamodel.TicketRow
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// List returns every ticket, newest first. Filtering happens in the service.
func (r *TicketRepository) List(ctx context.Context) ([]*ticketDatamodel.TicketRow, error) {
	var rows []*ticketDatamodel.TicketRow
	err := r.joined(ctx).
		Order("tickets.ticket_open DESC").
		Order("tickets.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *TicketRepository) Update(ctx context.Context, t *ticketDatamodel.Ticket, expectedVersion int64, h *ticketDatamodel.History) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ticketDatamodel.Ticket{ID: t.ID}).
			Where("version = ?", expectedVersion).
			Select("*").
			Omit("id", "ticket_code", "ticket_open", "created_by", "created_at").
			Updates(t)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&ticketDatamodel.Ticket{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ticket.ErrTicketNotFound
			}
			return appErrors.ErrVersionConflict
		}
		if h == nil {
			return nil
		}
		h.TicketID = t.ID
		return tx.Create(h).Error
	})
}

func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&ticketDatamodel.Image{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&ticketDatamodel.History{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&ticketDatamodel.Ticket{}).Error
	})
}

func (r *TicketRepository) AddImage(ctx context.Context, img *ticketDatamodel.Image, h *ticketDatamodel.History) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(img).Error; err != nil {
			return err
		}
		if h == nil {
			return nil
		}
		h.TicketID = img.TicketID
		return tx.Create(h).Error
	})
}

func (r *TicketRepository) Images(ctx context.Context, ticketID int64) ([]*ticketDatamodel.Image, error) {
	var images []*ticketDatamodel.Image
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&images).Error
	return images, err
}

func (r *TicketRepository) History(ctx context.Context, ticketID int64) ([]*ticketDatamodel.History, error) {
	var history []*ticketDatamodel.History
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&history).Error
	return history, err
}

// CodeGenerator hands out ticket codes from the per-month counter table.
type CodeGenerator struct{}

// Next bumps the counter for the month of at and formats the code. It must
// run inside the transaction that inserts the ticket so a failed insert
// gives the number back.
func (CodeGenerator) Next(tx *gorm.DB, at time.Time) (string, error) {
	period := ticket.CodePeriod(at)

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"counter": gorm.Expr("ticket_code_counters.counter + 1"),
		}),
	}).Create(&ticketDatamodel.CodeCounter{Period: period, Counter: 1}).Error
	if err != nil {
		return "", err
	}

	var counter ticketDatamodel.CodeCounter
	if err := tx.Where("period = ?", period).First(&counter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.New("ticket code counter missing after upsert")
		}
		return "", err
	}
	return ticket.FormatCode(at, counter.Counter)
}
