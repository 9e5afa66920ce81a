package model

import "time"

// Delegation is a time-boxed grant of the tribe lead's write reach to another
// user. Rows are never deleted; revocation flips IsActive so the grant history
// stays available for audit. A delegation can be active but outside its date
// window, in which case it grants nothing.
type Delegation struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	DelegatorID uint      `json:"delegator_id" gorm:"not null;index"`
	DelegateID  uint      `json:"delegate_id" gorm:"not null;index"`
	StartDate   time.Time `json:"start_date" gorm:"type:date;not null"`
	EndDate     time.Time `json:"end_date" gorm:"type:date;not null"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Delegate *User `json:"delegate,omitempty" gorm:"foreignKey:DelegateID"`
}

// EffectiveAt reports whether the delegation grants authority at the given
// instant: it must be active and the instant's calendar date must fall inside
// the closed [StartDate, EndDate] interval.
func (d *Delegation) EffectiveAt(at time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	day := DateOnly(at)
	return !day.Before(DateOnly(d.StartDate)) && !day.After(DateOnly(d.EndDate))
}
