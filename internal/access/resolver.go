package access

import (
	"errors"
	"time"

	"attendance-service/internal/apperr"
	"attendance-service/internal/model"

	"gorm.io/gorm"
)

// ReadSet is the resolved set of user ids a principal may view. All short-
// circuits membership for organization-wide reach so the full id list is only
// materialized when a query actually needs it.
type ReadSet struct {
	All bool
	IDs []uint
}

// Contains reports whether the set covers the given user id.
func (s ReadSet) Contains(id uint) bool {
	if s.All {
		return true
	}
	for _, v := range s.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Resolver computes read reach and write authorization for acting principals
// from the static hierarchy plus any currently-effective delegation.
type Resolver struct {
	db  *gorm.DB
	now func() time.Time
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, now: time.Now}
}

// ActiveDelegation returns the currently-effective delegation for userID, or
// nil. At most one exists per delegate; rows that are active but outside their
// date window are ignored.
func (r *Resolver) ActiveDelegation(userID uint) (*model.Delegation, error) {
	var grants []model.Delegation
	err := r.db.
		Where("delegate_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&grants).Error
	if err != nil {
		return nil, apperr.Internal("query active delegations", err)
	}
	at := r.now()
	for i := range grants {
		if grants[i].EffectiveAt(at) {
			return &grants[i], nil
		}
	}
	return nil, nil
}

// Delegated reports whether the actor currently holds an effective delegation.
func (r *Resolver) Delegated(actorID uint) (bool, error) {
	d, err := r.ActiveDelegation(actorID)
	if err != nil {
		return false, err
	}
	return d != nil, nil
}

// ReadSetFor computes the accessible read set for the actor per the hierarchy
// rules: tribe lead sees everyone, a chapter lead sees self plus direct
// reports, a reporter sees self only — unless an effective delegation
// escalates reach to organization-wide.
func (r *Resolver) ReadSetFor(actor model.User) (ReadSet, error) {
	if actor.Role == model.RoleTribeLead {
		return ReadSet{All: true}, nil
	}
	delegated, err := r.Delegated(actor.ID)
	if err != nil {
		return ReadSet{}, err
	}
	if delegated {
		return ReadSet{All: true}, nil
	}
	ids := []uint{actor.ID}
	if actor.Role == model.RoleChapterLead {
		var reportIDs []uint
		err := r.db.Model(&model.User{}).
			Where("manager_id = ?", actor.ID).
			Pluck("id", &reportIDs).Error
		if err != nil {
			return ReadSet{}, apperr.Internal("query direct reports", err)
		}
		ids = append(ids, reportIDs...)
	}
	return ReadSet{IDs: ids}, nil
}

// AccessibleUserIDs materializes the read set into explicit ids, resolving
// organization-wide reach against the user table.
func (r *Resolver) AccessibleUserIDs(actor model.User) ([]uint, error) {
	set, err := r.ReadSetFor(actor)
	if err != nil {
		return nil, err
	}
	if !set.All {
		return set.IDs, nil
	}
	var ids []uint
	if err := r.db.Model(&model.User{}).Pluck("id", &ids).Error; err != nil {
		return nil, apperr.Internal("query user ids", err)
	}
	return ids, nil
}

// ResolveTarget fetches the target user for a read and checks it against the
// actor's read set. Existence is checked first: a nonexistent target is
// NotFound for every caller, an existing one outside the actor's reach is
// NotAuthorized. That ordering is a single deliberate policy, not per-endpoint.
func (r *Resolver) ResolveTarget(actor model.User, targetID uint) (*model.User, error) {
	target, err := r.lookupUser(targetID)
	if err != nil {
		return nil, err
	}
	set, err := r.ReadSetFor(actor)
	if err != nil {
		return nil, err
	}
	if !set.Contains(target.ID) {
		return nil, apperr.NotAuthorized("user not accessible")
	}
	return target, nil
}

// WriteAllowed is the pure write-authorization rule: self, tribe lead,
// manager of the target, or an effective delegation.
func WriteAllowed(actor, target model.User, delegated bool) bool {
	return Allowed(OpWriteAttendance, actor.Role, RelationOf(actor, target), delegated)
}

// CanActOnBehalfOf authorizes a write against targetID and returns the target
// on success. Same existence-before-authorization ordering as ResolveTarget.
func (r *Resolver) CanActOnBehalfOf(actor model.User, targetID uint) (*model.User, error) {
	target, err := r.lookupUser(targetID)
	if err != nil {
		return nil, err
	}
	delegated := false
	if RelationOf(actor, *target) == RelationNone && !RoleAtLeast(actor.Role, model.RoleTribeLead) {
		delegated, err = r.Delegated(actor.ID)
		if err != nil {
			return nil, err
		}
	}
	if !WriteAllowed(actor, *target, delegated) {
		return nil, apperr.NotAuthorized("not authorized to act for this user")
	}
	return target, nil
}

// Authorize gates a non-targeted operation on the actor's own role. All such
// operations sit on the non-delegable administrative allow-list, so delegation
// is deliberately not consulted here.
func (r *Resolver) Authorize(actor model.User, op Operation) error {
	if !Allowed(op, actor.Role, RelationNone, false) {
		return apperr.NotAuthorized("insufficient role for this operation")
	}
	return nil
}

func (r *Resolver) lookupUser(id uint) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("lookup user", err)
	}
	return &user, nil
}
