// Package attendance owns the per-(user, date) status records. Every write is
// a total overwrite of status and note through a single conditional upsert, so
// concurrent writers for the same key settle to last-writer-wins and the
// (user_id, date) uniqueness invariant holds without in-process locking.
package attendance

import (
	"errors"
	"time"

	"attendance-service/internal/access"
	"attendance-service/internal/apperr"
	"attendance-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger performs authorized reads and writes of attendance records.
type Ledger struct {
	db       *gorm.DB
	resolver *access.Resolver
}

func NewLedger(db *gorm.DB, resolver *access.Resolver) *Ledger {
	return &Ledger{db: db, resolver: resolver}
}

// Filter narrows an attendance query. Every predicate intersects with the
// actor's read set; none can widen it.
type Filter struct {
	TargetID *uint
	LeadID   *uint
	From     *time.Time
	To       *time.Time
	Status   string
}

// Upsert is the self-service write path: set the status for one user on one
// date, creating the record if absent and overwriting it otherwise. The actor
// must hold write authority over the target (self, manager, tribe lead, or an
// effective delegation). Idempotent under retry.
func (l *Ledger) Upsert(actor model.User, targetID uint, date time.Time, status, note string) (*model.AttendanceRecord, error) {
	if !model.SelfServiceStatus(status) {
		return nil, apperr.InvalidArgument("invalid attendance status")
	}
	if _, err := l.resolver.CanActOnBehalfOf(actor, targetID); err != nil {
		return nil, err
	}
	return l.write(targetID, date, status, note)
}

// Allocate is the on-behalf write path for managers and delegates. It rejects
// self-targeting (self-service has its own entry point) and accepts only the
// narrower allocation vocabulary: office, remote, off.
func (l *Ledger) Allocate(actor model.User, targetID uint, date time.Time, status string) (*model.AttendanceRecord, error) {
	if targetID == actor.ID {
		return nil, apperr.InvalidArgument("cannot allocate your own attendance here")
	}
	if !model.AllocationStatus(status) {
		return nil, apperr.InvalidArgument("invalid allocation status")
	}
	if _, err := l.resolver.CanActOnBehalfOf(actor, targetID); err != nil {
		return nil, err
	}
	return l.write(targetID, date, status, "")
}

// write issues the conditional upsert keyed on (user_id, date) as one atomic
// store operation.
func (l *Ledger) write(userID uint, date time.Time, status, note string) (*model.AttendanceRecord, error) {
	record := model.AttendanceRecord{
		UserID: userID,
		Date:   model.DateOnly(date),
		Status: status,
		Note:   note,
	}
	err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "note", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return nil, apperr.Internal("upsert attendance record", err)
	}
	return &record, nil
}

// Delete removes a record. Only the record's owner or the tribe lead may
// delete; delegation deliberately does not reach this operation.
func (l *Ledger) Delete(actor model.User, recordID uint) error {
	var record model.AttendanceRecord
	if err := l.db.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("attendance record not found")
		}
		return apperr.Internal("lookup attendance record", err)
	}
	rel := access.RelationNone
	if record.UserID == actor.ID {
		rel = access.RelationSelf
	}
	if !access.Allowed(access.OpDeleteAttendance, actor.Role, rel, false) {
		return apperr.NotAuthorized("not authorized to delete this record")
	}
	if err := l.db.Delete(&record).Error; err != nil {
		return apperr.Internal("delete attendance record", err)
	}
	return nil
}

// Query lists records visible to the actor. An explicit target outside the
// actor's read set is a deny, never a silent empty result; with no target the
// whole accessible set is filtered by the remaining predicates.
func (l *Ledger) Query(actor model.User, f Filter) ([]model.AttendanceRecord, error) {
	var userIDs []uint
	switch {
	case f.TargetID != nil:
		target, err := l.resolver.ResolveTarget(actor, *f.TargetID)
		if err != nil {
			return nil, err
		}
		userIDs = []uint{target.ID}
	case f.LeadID != nil:
		set, err := l.resolver.ReadSetFor(actor)
		if err != nil {
			return nil, err
		}
		if !set.All && *f.LeadID != actor.ID {
			return nil, apperr.NotAuthorized("lead's reports not accessible")
		}
		reports, err := l.resolver.DirectReports(*f.LeadID)
		if err != nil {
			return nil, err
		}
		for _, u := range reports {
			userIDs = append(userIDs, u.ID)
		}
		if len(userIDs) == 0 {
			return []model.AttendanceRecord{}, nil
		}
	default:
		ids, err := l.resolver.AccessibleUserIDs(actor)
		if err != nil {
			return nil, err
		}
		userIDs = ids
	}

	q := l.db.Where("user_id IN ?", userIDs)
	if f.From != nil {
		q = q.Where("date >= ?", model.DateOnly(*f.From))
	}
	if f.To != nil {
		q = q.Where("date <= ?", model.DateOnly(*f.To))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var records []model.AttendanceRecord
	if err := q.Order("date, user_id").Find(&records).Error; err != nil {
		return nil, apperr.Internal("query attendance records", err)
	}
	return records, nil
}

// Reset wipes every attendance record. This is a fixed administrative
// operation gated on the actor's own role; holding a delegation never
// satisfies it.
func (l *Ledger) Reset(actor model.User) (int64, error) {
	if err := l.resolver.Authorize(actor, access.OpResetAttendance); err != nil {
		return 0, err
	}
	result := l.db.Where("1 = 1").Delete(&model.AttendanceRecord{})
	if result.Error != nil {
		return 0, apperr.Internal("reset attendance records", result.Error)
	}
	return result.RowsAffected, nil
}
