package model

import "time"

// OfficeCapacity is the configured number of office seats for one weekday.
// Only Monday through Friday carry rows; the default set is materialized
// lazily on first read.
type OfficeCapacity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Weekday   string    `json:"weekday" gorm:"type:varchar(20);not null;uniqueIndex"`
	Capacity  int       `json:"capacity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
