// Package capacity holds the per-weekday office capacity configuration and
// aggregates same-day occupancy. Capacity is advisory: the ledger never
// rejects a write for exceeding it, this package only reports saturation.
package capacity

import (
	"strings"
	"time"

	"attendance-service/internal/access"
	"attendance-service/internal/apperr"
	"attendance-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Weekdays carrying capacity rows, in display order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// defaultCapacities is materialized lazily on first read when no
// configuration exists yet.
var defaultCapacities = map[string]int{
	"monday":    20,
	"tuesday":   10,
	"wednesday": 50,
	"thursday":  20,
	"friday":    50,
}

// DayOccupancy is one weekday's capacity report for a requested week.
type DayOccupancy struct {
	Weekday            string    `json:"weekday"`
	Date               time.Time `json:"date"`
	Capacity           int       `json:"capacity"`
	Booked             int       `json:"booked"`
	Available          int       `json:"available"`
	IsOverbooked       bool      `json:"is_overbooked"`
	UtilizationPercent int       `json:"utilization_percent"`
}

// Engine reads and writes capacity configuration and computes weekly
// occupancy from the attendance records.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// ValidWeekday reports whether name is a configurable weekday (weekends never
// carry capacity).
func ValidWeekday(name string) bool {
	_, ok := defaultCapacities[strings.ToLower(name)]
	return ok
}

// List returns the capacity configuration for Monday through Friday,
// materializing the default set first if none exists. Viewing is restricted
// to chapter leads and above.
func (e *Engine) List(actor model.User) ([]model.OfficeCapacity, error) {
	if !access.Allowed(access.OpViewCapacity, actor.Role, access.RelationNone, false) {
		return nil, apperr.NotAuthorized("insufficient role to view capacity")
	}
	if err := e.materializeDefaults(); err != nil {
		return nil, err
	}
	var rows []model.OfficeCapacity
	if err := e.db.Find(&rows).Error; err != nil {
		return nil, apperr.Internal("list capacities", err)
	}
	byDay := make(map[string]model.OfficeCapacity, len(rows))
	for _, row := range rows {
		byDay[row.Weekday] = row
	}
	ordered := make([]model.OfficeCapacity, 0, len(Weekdays))
	for _, day := range Weekdays {
		if row, ok := byDay[day]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

// CapacityOf returns the configured capacity for a weekday, materializing
// defaults on first access.
func (e *Engine) CapacityOf(weekday string) (int, error) {
	weekday = strings.ToLower(weekday)
	if !ValidWeekday(weekday) {
		return 0, apperr.InvalidArgument("unknown weekday")
	}
	if err := e.materializeDefaults(); err != nil {
		return 0, err
	}
	var row model.OfficeCapacity
	if err := e.db.Where("weekday = ?", weekday).First(&row).Error; err != nil {
		return 0, apperr.Internal("lookup capacity", err)
	}
	return row.Capacity, nil
}

// Set upserts one weekday's capacity. Editing is tribe-lead only and is never
// delegable.
func (e *Engine) Set(actor model.User, weekday string, cap int) (*model.OfficeCapacity, error) {
	if !access.Allowed(access.OpEditCapacity, actor.Role, access.RelationNone, false) {
		return nil, apperr.NotAuthorized("only the tribe lead can edit capacity")
	}
	weekday = strings.ToLower(weekday)
	if !ValidWeekday(weekday) {
		return nil, apperr.InvalidArgument("unknown weekday")
	}
	if cap < 0 {
		return nil, apperr.InvalidArgument("capacity must not be negative")
	}
	row := model.OfficeCapacity{Weekday: weekday, Capacity: cap}
	err := e.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "weekday"}},
		DoUpdates: clause.AssignmentColumns([]string{"capacity", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, apperr.Internal("upsert capacity", err)
	}
	return &row, nil
}

// WeekOccupancy reports Monday..Friday of the week containing referenceDate
// shifted by weekOffset whole weeks: configured capacity, booked office seats
// on each exact date, and the derived availability figures. Viewing is
// restricted to chapter leads and above.
func (e *Engine) WeekOccupancy(actor model.User, referenceDate time.Time, weekOffset int) ([]DayOccupancy, error) {
	if !access.Allowed(access.OpViewCapacity, actor.Role, access.RelationNone, false) {
		return nil, apperr.NotAuthorized("insufficient role to view capacity")
	}
	if err := e.materializeDefaults(); err != nil {
		return nil, err
	}
	var rows []model.OfficeCapacity
	if err := e.db.Find(&rows).Error; err != nil {
		return nil, apperr.Internal("list capacities", err)
	}
	capacities := make(map[string]int, len(rows))
	for _, row := range rows {
		capacities[row.Weekday] = row.Capacity
	}

	monday := MondayOf(referenceDate, weekOffset)
	week := make([]DayOccupancy, 0, len(Weekdays))
	for i, day := range Weekdays {
		date := monday.AddDate(0, 0, i)
		var booked int64
		err := e.db.Model(&model.AttendanceRecord{}).
			Where("date = ? AND status = ?", date, model.StatusOffice).
			Count(&booked).Error
		if err != nil {
			return nil, apperr.Internal("count office bookings", err)
		}
		week = append(week, NewDayOccupancy(day, date, capacities[day], int(booked)))
	}
	return week, nil
}

// NewDayOccupancy derives availability, overbooking, and utilization for one
// day. Utilization is defined as 0 when capacity is 0.
func NewDayOccupancy(weekday string, date time.Time, cap, booked int) DayOccupancy {
	available := cap - booked
	if available < 0 {
		available = 0
	}
	utilization := 0
	if cap > 0 {
		utilization = int(float64(booked)/float64(cap)*100 + 0.5)
	}
	return DayOccupancy{
		Weekday:            weekday,
		Date:               date,
		Capacity:           cap,
		Booked:             booked,
		Available:          available,
		IsOverbooked:       booked > cap,
		UtilizationPercent: utilization,
	}
}

// MondayOf returns the Monday of the week containing ref, shifted by offset
// whole weeks. Weeks start on Monday; a Sunday reference belongs to the week
// that started six days earlier.
func MondayOf(ref time.Time, offset int) time.Time {
	day := model.DateOnly(ref)
	back := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -back+offset*7)
}

// materializeDefaults inserts the default capacity set in one transaction.
// The unique index on weekday plus ON CONFLICT DO NOTHING keeps concurrent
// first-readers from creating duplicate rows.
func (e *Engine) materializeDefaults() error {
	var count int64
	if err := e.db.Model(&model.OfficeCapacity{}).Count(&count).Error; err != nil {
		return apperr.Internal("count capacities", err)
	}
	if count > 0 {
		return nil
	}
	rows := make([]model.OfficeCapacity, 0, len(Weekdays))
	for _, day := range Weekdays {
		rows = append(rows, model.OfficeCapacity{Weekday: day, Capacity: defaultCapacities[day]})
	}
	err := e.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
	if err != nil {
		return apperr.Internal("materialize default capacities", err)
	}
	return nil
}
