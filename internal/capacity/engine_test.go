package capacity

import (
	"testing"
	"time"

	"attendance-service/internal/apperr"
	"attendance-service/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewEngine(db), mock
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name   string
		ref    time.Time
		offset int
		want   time.Time
	}{
		{"monday is its own week start", date(2025, 3, 10), 0, date(2025, 3, 10)},
		{"wednesday", date(2025, 3, 12), 0, date(2025, 3, 10)},
		{"sunday belongs to the prior monday", date(2025, 3, 16), 0, date(2025, 3, 10)},
		{"next week", date(2025, 3, 12), 1, date(2025, 3, 17)},
		{"previous week", date(2025, 3, 12), -1, date(2025, 3, 3)},
		{"across a year boundary", date(2026, 1, 1), 0, date(2025, 12, 29)},
		{"time of day is ignored", time.Date(2025, 3, 12, 23, 59, 0, 0, time.UTC), 0, date(2025, 3, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MondayOf(tt.ref, tt.offset))
		})
	}
}

func TestNewDayOccupancy(t *testing.T) {
	t.Run("overbooked", func(t *testing.T) {
		day := NewDayOccupancy("monday", date(2025, 3, 10), 10, 12)
		assert.Equal(t, 0, day.Available)
		assert.True(t, day.IsOverbooked)
		assert.Equal(t, 120, day.UtilizationPercent)
	})

	t.Run("zero capacity has zero utilization", func(t *testing.T) {
		day := NewDayOccupancy("tuesday", date(2025, 3, 11), 0, 0)
		assert.Equal(t, 0, day.UtilizationPercent)
		assert.False(t, day.IsOverbooked)
	})

	t.Run("zero capacity with bookings is overbooked", func(t *testing.T) {
		day := NewDayOccupancy("tuesday", date(2025, 3, 11), 0, 3)
		assert.Equal(t, 0, day.UtilizationPercent)
		assert.Equal(t, 0, day.Available)
		assert.True(t, day.IsOverbooked)
	})

	t.Run("half seats", func(t *testing.T) {
		day := NewDayOccupancy("friday", date(2025, 3, 14), 50, 25)
		assert.Equal(t, 25, day.Available)
		assert.False(t, day.IsOverbooked)
		assert.Equal(t, 50, day.UtilizationPercent)
	})

	t.Run("rounds to nearest percent", func(t *testing.T) {
		day := NewDayOccupancy("monday", date(2025, 3, 10), 3, 1)
		assert.Equal(t, 33, day.UtilizationPercent)
	})
}

func TestValidWeekday(t *testing.T) {
	for _, d := range Weekdays {
		assert.True(t, ValidWeekday(d), d)
	}
	assert.True(t, ValidWeekday("Monday"), "case insensitive")
	assert.False(t, ValidWeekday("saturday"))
	assert.False(t, ValidWeekday("sunday"))
	assert.False(t, ValidWeekday(""))
}

func TestList_ReporterDenied(t *testing.T) {
	e, _ := newMockEngine(t)

	_, err := e.List(model.User{ID: 5, Role: model.RoleReporter})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotAuthorized, apperr.KindOf(err))
}

func TestSet_TribeLeadOnly(t *testing.T) {
	e, _ := newMockEngine(t)

	_, err := e.Set(model.User{ID: 2, Role: model.RoleChapterLead}, "monday", 30)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotAuthorized, apperr.KindOf(err),
		"capacity editing is never delegable and stops below tribe lead")
}

func TestSet_Validation(t *testing.T) {
	e, _ := newMockEngine(t)
	tribe := model.User{ID: 1, Role: model.RoleTribeLead}

	_, err := e.Set(tribe, "saturday", 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = e.Set(tribe, "monday", -1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestSet_Upserts(t *testing.T) {
	e, mock := newMockEngine(t)
	tribe := model.User{ID: 1, Role: model.RoleTribeLead}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "office_capacities" .* ON CONFLICT \("weekday"\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	row, err := e.Set(tribe, "Wednesday", 40)
	require.NoError(t, err)
	assert.Equal(t, "wednesday", row.Weekday)
	assert.Equal(t, 40, row.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityOf_MaterializesDefaultsOnce(t *testing.T) {
	e, mock := newMockEngine(t)

	// Empty table: the default set is inserted in one transaction before the
	// read.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "office_capacities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "office_capacities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(1).AddRow(2).AddRow(3).AddRow(4).AddRow(5))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "office_capacities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "weekday", "capacity", "created_at", "updated_at"}).
			AddRow(2, "tuesday", 10, time.Now(), time.Now()))

	got, err := e.CapacityOf("tuesday")
	require.NoError(t, err)
	assert.Equal(t, 10, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityOf_SkipsMaterializationWhenConfigured(t *testing.T) {
	e, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "office_capacities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT \* FROM "office_capacities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "weekday", "capacity", "created_at", "updated_at"}).
			AddRow(1, "monday", 25, time.Now(), time.Now()))

	got, err := e.CapacityOf("monday")
	require.NoError(t, err)
	assert.Equal(t, 25, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekOccupancy_CountsOfficeOnly(t *testing.T) {
	e, mock := newMockEngine(t)
	lead := model.User{ID: 2, Role: model.RoleChapterLead}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "office_capacities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	rows := sqlmock.NewRows([]string{"id", "weekday", "capacity", "created_at", "updated_at"})
	caps := []int{20, 10, 50, 20, 50}
	for i, day := range Weekdays {
		rows.AddRow(i+1, day, caps[i], time.Now(), time.Now())
	}
	mock.ExpectQuery(`SELECT \* FROM "office_capacities"`).WillReturnRows(rows)

	booked := []int64{12, 12, 0, 5, 60}
	for _, b := range booked {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "attendance_records"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(b))
	}

	week, err := e.WeekOccupancy(lead, date(2025, 3, 12), 0)
	require.NoError(t, err)
	require.Len(t, week, 5)

	assert.Equal(t, "monday", week[0].Weekday)
	assert.Equal(t, date(2025, 3, 10), week[0].Date)
	assert.Equal(t, 8, week[0].Available)

	assert.Equal(t, "tuesday", week[1].Weekday)
	assert.True(t, week[1].IsOverbooked)
	assert.Equal(t, 120, week[1].UtilizationPercent)

	assert.Equal(t, "friday", week[4].Weekday)
	assert.Equal(t, date(2025, 3, 14), week[4].Date)
	assert.True(t, week[4].IsOverbooked)
	assert.Equal(t, 0, week[4].Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}
