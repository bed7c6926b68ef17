package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/pos-helpdesk/internal/alert"
	alertDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/alert"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

var _ alert.RepositoryAPI = (*AlertRepository)(nil)

func (r *AlertRepository) CreateLog(ctx context.Context, l *alertDatamodel.Log) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *AlertRepository) UpdateLog(ctx context.Context, l *alertDatamodel.Log) error {
	return r.db.WithContext(ctx).
		Model(&alertDatamodel.Log{ID: l.ID}).
		Select("status", "attempts", "last_error", "updated_at").
		Updates(l).Error
}

func (r *AlertRepository) GetLog(ctx context.Context, id int64) (*alertDatamodel.Log, error) {
	var l alertDatamodel.Log
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *AlertRepository) ListLogs(ctx context.Context, ticketID *int64, limit int) ([]*alertDatamodel.Log, error) {
	var logs []*alertDatamodel.Log
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit)
	if ticketID != nil {
		q = q.Where("ticket_id = ?", *ticketID)
	}
	err := q.Find(&logs).Error
	return logs, err
}

// ListRetryable returns failed rows with attempts left, oldest first.
func (r *AlertRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]*alertDatamodel.Log, error) {
	var logs []*alertDatamodel.Log
	err := r.db.WithContext(ctx).
		Where("status = ? AND attempts < ?", string(alert.StatusFailed), maxAttempts).
		Order("updated_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *AlertRepository) ChatIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	var chatIDs []int64
	err := r.db.WithContext(ctx).
		Model(&alertDatamodel.TelegramGroup{}).
		Joins("JOIN user_groups ON user_groups.group_id = telegram_groups.id").
		Where("user_groups.users_id = ?", userID).
		Order("telegram_groups.id ASC").
		Pluck("telegram_groups.chat_id", &chatIDs).Error
	return chatIDs, err
}

func (r *AlertRepository) ListGroups(ctx context.Context) ([]*alertDatamodel.TelegramGroup, error) {
	var groups []*alertDatamodel.TelegramGroup
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&groups).Error
	return groups, err
}

func (r *AlertRepository) GetGroup(ctx context.Context, id int64) (*alertDatamodel.TelegramGroup, error) {
	return r.firstGroup(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *AlertRepository) GetGroupByChatID(ctx context.Context, chatID int64) (*alertDatamodel.TelegramGroup, error) {
	return r.firstGroup(r.db.WithContext(ctx).Where("chat_id = ?", chatID))
}

func (r *AlertRepository) firstGroup(q *gorm.DB) (*alertDatamodel.TelegramGroup, error) {
	var g alertDatamodel.TelegramGroup
	if err := q.First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *AlertRepository) CreateGroup(ctx context.Context, g *alertDatamodel.TelegramGroup) error {
	return r.db.WithContext(ctx).Create(g).Error
}

// GroupMembers maps each group id to its member user ids.
func (r *AlertRepository) GroupMembers(ctx context.Context, groupIDs ...int64) (map[int64][]int64, error) {
	members := make(map[int64][]int64, len(groupIDs))
	if len(groupIDs) == 0 {
		return members, nil
	}

	var rows []*alertDatamodel.UserGroup
	err := r.db.WithContext(ctx).
		Where("group_id IN ?", groupIDs).
		Order("users_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		members[row.GroupID] = append(members[row.GroupID], row.UserID)
	}
	return members, nil
}

// AddMember is idempotent.
func (r *AlertRepository) AddMember(ctx context.Context, m *alertDatamodel.UserGroup) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m).Error
}

func (r *AlertRepository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND users_id = ?", groupID, userID).
		Delete(&alertDatamodel.UserGroup{}).Error
}
