// Package delegation manages time-boxed grants of the tribe lead's write
// reach. Grants are deactivated on revocation, never deleted, so the history
// stays auditable.
package delegation

import (
	"errors"
	"time"

	"attendance-service/internal/access"
	"attendance-service/internal/apperr"
	"attendance-service/internal/model"

	"gorm.io/gorm"
)

// Registry owns the delegation lifecycle.
type Registry struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db, now: time.Now}
}

// Create grants the actor's write reach to delegateID for the closed date
// interval [start, end]. Only the tribe lead may delegate, and only by own
// role — delegation itself is never delegable. Any previously active grant for
// the same delegate is deactivated in the same transaction, so at most one
// active grant per delegate exists at any instant.
func (r *Registry) Create(actor model.User, delegateID uint, start, end time.Time) (*model.Delegation, error) {
	if !access.Allowed(access.OpManageDelegations, actor.Role, access.RelationNone, false) {
		return nil, apperr.NotAuthorized("only the tribe lead can delegate authority")
	}
	if actor.ID == delegateID {
		return nil, apperr.InvalidArgument("cannot delegate to yourself")
	}
	start, end = model.DateOnly(start), model.DateOnly(end)
	if !start.Before(end) {
		return nil, apperr.InvalidArgument("start date must be before end date")
	}

	var delegate model.User
	if err := r.db.First(&delegate, delegateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("delegate not found")
		}
		return nil, apperr.Internal("lookup delegate", err)
	}

	grant := model.Delegation{
		DelegatorID: actor.ID,
		DelegateID:  delegateID,
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Delegation{}).
			Where("delegate_id = ? AND is_active = ?", delegateID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&grant).Error
	})
	if err != nil {
		return nil, apperr.Internal("create delegation", err)
	}
	return &grant, nil
}

// Revoke deactivates a grant. Idempotent: revoking an already-inactive grant
// succeeds without touching it again.
func (r *Registry) Revoke(actor model.User, id uint) (*model.Delegation, error) {
	if !access.Allowed(access.OpManageDelegations, actor.Role, access.RelationNone, false) {
		return nil, apperr.NotAuthorized("only the tribe lead can revoke delegations")
	}
	var grant model.Delegation
	if err := r.db.First(&grant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("delegation not found")
		}
		return nil, apperr.Internal("lookup delegation", err)
	}
	if !grant.IsActive {
		return &grant, nil
	}
	if err := r.db.Model(&grant).Update("is_active", false).Error; err != nil {
		return nil, apperr.Internal("revoke delegation", err)
	}
	grant.IsActive = false
	return &grant, nil
}

// ActiveFor returns the currently-effective grant for userID, or nil.
func (r *Registry) ActiveFor(userID uint, at time.Time) (*model.Delegation, error) {
	var grants []model.Delegation
	err := r.db.
		Where("delegate_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&grants).Error
	if err != nil {
		return nil, apperr.Internal("query delegations", err)
	}
	for i := range grants {
		if grants[i].EffectiveAt(at) {
			return &grants[i], nil
		}
	}
	return nil, nil
}

// List returns the grant history, newest first, optionally filtered by
// delegate. Audit access is tribe-lead only.
func (r *Registry) List(actor model.User, delegateID *uint) ([]model.Delegation, error) {
	if !access.Allowed(access.OpManageDelegations, actor.Role, access.RelationNone, false) {
		return nil, apperr.NotAuthorized("only the tribe lead can list delegations")
	}
	q := r.db.Order("created_at DESC")
	if delegateID != nil {
		q = q.Where("delegate_id = ?", *delegateID)
	}
	var grants []model.Delegation
	if err := q.Find(&grants).Error; err != nil {
		return nil, apperr.Internal("list delegations", err)
	}
	return grants, nil
}
