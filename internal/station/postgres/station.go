package postgres

import (
	"context"
	"errors"
	"strings"

	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
	"github.com/frahmantamala/pos-helpdesk/internal/station"
	"gorm.io/gorm"
)

type StationRepository struct {
	db *gorm.DB
}

func NewStationRepository(db *gorm.DB) *StationRepository {
	return &StationRepository{db: db}
}

var _ station.RepositoryAPI = (*StationRepository)(nil)

func (r *StationRepository) List(ctx context.Context, search string) ([]*stationDatamodel.Station, error) {
	var stations []*stationDatamodel.Station
	q := r.db.WithContext(ctx).Order("station_id ASC")
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(station_id) LIKE ? OR LOWER(station_name) LIKE ? OR LOWER(province) LIKE ?", like, like, like)
	}
	err := q.Find(&stations).Error
	return stations, err
}

func (r *StationRepository) GetByID(ctx context.Context, id int64) (*stationDatamodel.Station, error) {
	var s stationDatamodel.Station
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *StationRepository) GetByCode(ctx context.Context, code string) (*stationDatamodel.Station, error) {
	var s stationDatamodel.Station
	err := r.db.WithContext(ctx).Where("UPPER(station_id) = ?", strings.ToUpper(strings.TrimSpace(code))).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *StationRepository) Create(ctx context.Context, s *stationDatamodel.Station) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *StationRepository) Update(ctx context.Context, s *stationDatamodel.Station) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *StationRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&stationDatamodel.Station{}).Error
}
