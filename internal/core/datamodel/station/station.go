package station

import "time"

type Station struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Code        string    `gorm:"column:station_id;uniqueIndex;not null"`
	Name        string    `gorm:"column:station_name;not null"`
	StationType string    `gorm:"column:station_type"`
	Province    string    `gorm:"column:province"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Station) TableName() string { return "stations" }
