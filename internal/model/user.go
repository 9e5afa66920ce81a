package model

import (
	"time"

	"gorm.io/gorm"
)

// Role values for users in the reporting hierarchy
const (
	RoleReporter    = "reporter"
	RoleChapterLead = "chapter_lead"
	RoleTribeLead   = "tribe_lead"
)

// User represents an employee in the three-level reporting hierarchy.
// ManagerID points at the user's chapter lead and is only meaningful for
// reporters; the tribe lead sits at the top and has no manager.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Role      string         `json:"role" gorm:"type:varchar(50);not null;default:'reporter';index"`
	ManagerID *uint          `json:"manager_id,omitempty" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidRole reports whether the given string is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleReporter, RoleChapterLead, RoleTribeLead:
		return true
	}
	return false
}
