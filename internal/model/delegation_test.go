package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDelegationEffectiveAt(t *testing.T) {
	grant := &Delegation{
		DelegatorID: 1,
		DelegateID:  2,
		StartDate:   date(2025, 1, 1),
		EndDate:     date(2025, 1, 7),
		IsActive:    true,
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"inside window", date(2025, 1, 3), true},
		{"first day", date(2025, 1, 1), true},
		{"last day", date(2025, 1, 7), true},
		{"day after end", date(2025, 1, 8), false},
		{"day before start", date(2024, 12, 31), false},
		{"last day late evening", time.Date(2025, 1, 7, 23, 30, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, grant.EffectiveAt(tt.at))
		})
	}
}

func TestDelegationEffectiveAt_Inactive(t *testing.T) {
	grant := &Delegation{
		StartDate: date(2025, 1, 1),
		EndDate:   date(2025, 1, 7),
		IsActive:  false,
	}
	assert.False(t, grant.EffectiveAt(date(2025, 1, 3)),
		"revoked delegation must grant nothing even inside its window")
}

func TestDelegationEffectiveAt_Nil(t *testing.T) {
	var grant *Delegation
	assert.False(t, grant.EffectiveAt(date(2025, 1, 3)))
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 6, 15, 18, 45, 12, 999, time.UTC)
	assert.Equal(t, date(2025, 6, 15), DateOnly(in))
}

func TestStatusVocabularies(t *testing.T) {
	// Self-service accepts the four named statuses but never "off".
	for _, s := range []string{StatusOffice, StatusRemote, StatusAbsent, StatusVacation} {
		assert.True(t, SelfServiceStatus(s), s)
	}
	assert.False(t, SelfServiceStatus(StatusOff))
	assert.False(t, SelfServiceStatus("holiday"))

	// Allocation accepts office, remote, off and nothing else.
	for _, s := range []string{StatusOffice, StatusRemote, StatusOff} {
		assert.True(t, AllocationStatus(s), s)
	}
	assert.False(t, AllocationStatus(StatusVacation))
	assert.False(t, AllocationStatus(StatusAbsent))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleReporter))
	assert.True(t, ValidRole(RoleChapterLead))
	assert.True(t, ValidRole(RoleTribeLead))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
}
