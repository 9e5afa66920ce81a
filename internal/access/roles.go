package access

import "attendance-service/internal/model"

// roleRank is the single source of the role ordering
// reporter < chapter_lead < tribe_lead. Call sites compare through RoleAtLeast
// instead of repeating rank literals.
var roleRank = map[string]int{
	model.RoleReporter:    0,
	model.RoleChapterLead: 1,
	model.RoleTribeLead:   2,
}

// RoleRank returns the position of role in the hierarchy, or -1 for an
// unknown role.
func RoleRank(role string) int {
	rank, ok := roleRank[role]
	if !ok {
		return -1
	}
	return rank
}

// RoleAtLeast reports whether role sits at or above min in the hierarchy.
// Unknown roles never satisfy anything.
func RoleAtLeast(role, min string) bool {
	r, m := RoleRank(role), RoleRank(min)
	return r >= 0 && m >= 0 && r >= m
}
