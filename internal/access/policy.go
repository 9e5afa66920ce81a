package access

import "attendance-service/internal/model"

// Operation names an authorizable action. Every handler funnels through the
// one policy table below instead of re-deriving role rules inline.
type Operation string

const (
	OpWriteAttendance    Operation = "attendance.write"
	OpAllocateAttendance Operation = "attendance.allocate"
	OpDeleteAttendance   Operation = "attendance.delete"
	OpResetAttendance    Operation = "attendance.reset"
	OpViewCapacity       Operation = "capacity.view"
	OpEditCapacity       Operation = "capacity.edit"
	OpManageDelegations  Operation = "delegation.manage"
	OpManageUsers        Operation = "user.manage"
)

// Relation is the actor's structural relationship to the target user.
type Relation int

const (
	RelationNone Relation = iota
	RelationSelf
	RelationManager
)

// RelationOf computes the actor→target relation from the static hierarchy.
func RelationOf(actor, target model.User) Relation {
	if actor.ID == target.ID {
		return RelationSelf
	}
	if target.ManagerID != nil && *target.ManagerID == actor.ID {
		return RelationManager
	}
	return RelationNone
}

// rule states which of the four independent grounds grant an operation.
// delegable marks operations a currently-effective delegation can grant;
// administrative operations keep it false so delegation never reaches them.
type rule struct {
	minRole   string
	self      bool
	manager   bool
	delegable bool
}

var policy = map[Operation]rule{
	OpWriteAttendance:    {minRole: model.RoleTribeLead, self: true, manager: true, delegable: true},
	OpAllocateAttendance: {minRole: model.RoleTribeLead, manager: true, delegable: true},
	OpDeleteAttendance:   {minRole: model.RoleTribeLead, self: true},
	OpResetAttendance:    {minRole: model.RoleTribeLead},
	OpViewCapacity:       {minRole: model.RoleChapterLead},
	OpEditCapacity:       {minRole: model.RoleTribeLead},
	OpManageDelegations:  {minRole: model.RoleTribeLead},
	OpManageUsers:        {minRole: model.RoleTribeLead},
}

// Allowed evaluates the policy table. The grounds are a plain OR: any one of
// role, self, manager relation, or effective delegation is sufficient.
func Allowed(op Operation, actorRole string, rel Relation, delegated bool) bool {
	r, ok := policy[op]
	if !ok {
		return false
	}
	if r.minRole != "" && RoleAtLeast(actorRole, r.minRole) {
		return true
	}
	if r.self && rel == RelationSelf {
		return true
	}
	if r.manager && rel == RelationManager {
		return true
	}
	if r.delegable && delegated {
		return true
	}
	return false
}

// Delegable reports whether an effective delegation can ever grant op. The
// administrative allow-list is exactly the operations for which this is false.
func Delegable(op Operation) bool {
	return policy[op].delegable
}
