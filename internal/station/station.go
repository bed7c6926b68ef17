package station

import (
	"time"

	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
)

type Station struct {
	ID          int64     `json:"id"`
	Code        string    `json:"station_id"`
	Name        string    `json:"station_name"`
	StationType string    `json:"station_type"`
	Province    string    `json:"province"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToDataModel(s *Station) *stationDatamodel.Station {
	return &stationDatamodel.Station{
		ID:          s.ID,
		Code:        s.Code,
		Name:        s.Name,
		StationType: s.StationType,
		Province:    s.Province,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func FromDataModel(s *stationDatamodel.Station) *Station {
	return &Station{
		ID:          s.ID,
		Code:        s.Code,
		Name:        s.Name,
		StationType: s.StationType,
		Province:    s.Province,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
