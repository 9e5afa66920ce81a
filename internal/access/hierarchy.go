package access

import (
	"errors"

	"attendance-service/internal/apperr"
	"attendance-service/internal/model"

	"gorm.io/gorm"
)

// Manager resolves the upward link for a user: a reporter's chapter lead, or
// the tribe lead for a chapter lead (leads report to the tribe lead
// implicitly, their manager_id column is ignored). Returns nil for the tribe
// lead and for reporters without an assigned chapter.
func (r *Resolver) Manager(userID uint) (*model.User, error) {
	user, err := r.lookupUser(userID)
	if err != nil {
		return nil, err
	}
	switch user.Role {
	case model.RoleTribeLead:
		return nil, nil
	case model.RoleChapterLead:
		var lead model.User
		err := r.db.Where("role = ?", model.RoleTribeLead).First(&lead).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, apperr.Internal("lookup tribe lead", err)
		}
		return &lead, nil
	default:
		if user.ManagerID == nil {
			return nil, nil
		}
		return r.lookupUser(*user.ManagerID)
	}
}

// DirectReports lists the users directly under userID: reporters assigned to
// a chapter lead, or every chapter lead when userID is the tribe lead.
// Reporters have no reports; the result is empty.
func (r *Resolver) DirectReports(userID uint) ([]model.User, error) {
	user, err := r.lookupUser(userID)
	if err != nil {
		return nil, err
	}
	var reports []model.User
	switch user.Role {
	case model.RoleTribeLead:
		err = r.db.Where("role = ?", model.RoleChapterLead).Order("id").Find(&reports).Error
	case model.RoleChapterLead:
		err = r.db.Where("manager_id = ?", user.ID).Order("id").Find(&reports).Error
	default:
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("query direct reports", err)
	}
	return reports, nil
}
