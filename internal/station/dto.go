package station

import (
	"strings"

	"github.com/frahmantamala/pos-helpdesk/internal/core/common/validation"
)

type StationDTO struct {
	Code        string `json:"station_id"`
	Name        string `json:"station_name"`
	StationType string `json:"station_type"`
	Province    string `json:"province"`
}

func (d *StationDTO) Normalize() {
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	d.Name = strings.TrimSpace(d.Name)
	d.StationType = strings.TrimSpace(d.StationType)
	d.Province = strings.TrimSpace(d.Province)
}

func (d StationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("station_id", d.Code).Required().MaxLength(20)
	v.Field("station_name", d.Name).Required().MaxLength(150)
	v.Field("station_type", d.StationType).MaxLength(50)
	v.Field("province", d.Province).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type StationsResponse struct {
	Stations []*Station `json:"stations"`
}
