package model

import "time"

// Self-service attendance statuses
const (
	StatusOffice   = "office"
	StatusRemote   = "remote"
	StatusAbsent   = "absent"
	StatusVacation = "vacation"
)

// StatusOff is only accepted by the allocate-for-others entry point; it is a
// deliberately separate vocabulary from the self-service statuses above.
const StatusOff = "off"

// AttendanceRecord is one user's choice for one calendar date. The composite
// unique index backs the ON CONFLICT upsert path, so two concurrent writers for
// the same (user, date) race to last-writer-wins instead of duplicating rows.
type AttendanceRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_attendance_user_date"`
	Date      time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_attendance_user_date;index"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null"`
	Note      string    `json:"note" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// SelfServiceStatus reports whether the status is accepted on the self-service
// write path.
func SelfServiceStatus(status string) bool {
	switch status {
	case StatusOffice, StatusRemote, StatusAbsent, StatusVacation:
		return true
	}
	return false
}

// AllocationStatus reports whether the status is accepted on the
// allocate-for-others write path.
func AllocationStatus(status string) bool {
	switch status {
	case StatusOffice, StatusRemote, StatusOff:
		return true
	}
	return false
}

// DateOnly truncates a timestamp to its calendar date in UTC. Attendance keys
// are flat dates with no time component.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
