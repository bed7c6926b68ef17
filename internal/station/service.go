package station

import (
	"context"
	stderrors "errors"
	"log/slog"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
	"gorm.io/gorm"
)

var (
	ErrStationNotFound  = errors.NewNotFoundError("Station not found", errors.ErrCodeStationNotFound)
	ErrDuplicateStation = errors.NewConflictError("Station id is already registered", errors.ErrCodeDuplicateStation)
)

type RepositoryAPI interface {
	List(ctx context.Context, search string) ([]*stationDatamodel.Station, error)
	GetByID(ctx context.Context, id int64) (*stationDatamodel.Station, error)
	GetByCode(ctx context.Context, code string) (*stationDatamodel.Station, error)
	Create(ctx context.Context, s *stationDatamodel.Station) error
	Update(ctx context.Context, s *stationDatamodel.Station) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, search string) ([]*Station, error) {
	rows, err := s.repo.List(ctx, search)
	if err != nil {
		s.logger.Error("failed to list stations", "error", err)
		return nil, errors.NewInternalError("Failed to list stations", err)
	}

	stations := make([]*Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, FromDataModel(row))
	}
	return stations, nil
}

func (s *Service) Create(ctx context.Context, dto StationDTO) (*Station, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCode(ctx, dto.Code, 0); err != nil {
		return nil, err
	}

	row := &stationDatamodel.Station{
		Code:        dto.Code,
		Name:        dto.Name,
		StationType: dto.StationType,
		Province:    dto.Province,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateStation
		}
		s.logger.Error("failed to create station", "station_id", dto.Code, "error", err)
		return nil, errors.NewInternalError("Failed to create station", err)
	}

	s.logger.Info("station created", "id", row.ID, "station_id", row.Code)
	return FromDataModel(row), nil
}

// Update changes the station only; tickets keep the snapshot taken when
// they were opened.
func (s *Service) Update(ctx context.Context, id int64, dto StationDTO) (*Station, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get station", "id", id, "error", err)
		return nil, errors.NewInternalError("Failed to update station", err)
	}
	if row == nil {
		return nil, ErrStationNotFound
	}
	if err := s.checkCode(ctx, dto.Code, id); err != nil {
		return nil, err
	}

	row.Code = dto.Code
	row.Name = dto.Name
	row.StationType = dto.StationType
	row.Province = dto.Province
	if err := s.repo.Update(ctx, row); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateStation
		}
		s.logger.Error("failed to update station", "id", id, "error", err)
		return nil, errors.NewInternalError("Failed to update station", err)
	}

	s.logger.Info("station updated", "id", id, "station_id", row.Code)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get station", "id", id, "error", err)
		return errors.NewInternalError("Failed to delete station", err)
	}
	if row == nil {
		return ErrStationNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete station", "id", id, "error", err)
		return errors.NewInternalError("Failed to delete station", err)
	}

	s.logger.Info("station deleted", "id", id, "station_id", row.Code)
	return nil
}

func (s *Service) checkCode(ctx context.Context, code string, ownerID int64) error {
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error("failed to check station id", "station_id", code, "error", err)
		return errors.NewInternalError("Failed to check station id", err)
	}
	if existing != nil && existing.ID != ownerID {
		return ErrDuplicateStation
	}
	return nil
}
