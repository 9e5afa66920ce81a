package handler

import (
	"attendance-service/internal/apperr"
	"attendance-service/internal/attendance"
	"attendance-service/internal/middleware"
	"attendance-service/pkg/logger"
	"attendance-service/prometheus"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// SetAttendance is the self-service write path: upsert one user's status for
// one date. Targeting another user is allowed when the actor holds write
// authority over them (manager, tribe lead, or an effective delegation).
func SetAttendance(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		TargetUserID *uint  `json:"target_user_id"`
		Date         string `json:"date"`
		Status       string `json:"status"`
		Note         string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse attendance request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	targetID := actor.ID
	if req.TargetUserID != nil {
		targetID = *req.TargetUserID
	}

	defer prometheus.TrackDBOperation("upsert")(time.Now())
	record, werr := ledger.Upsert(actor, targetID, date, req.Status, req.Note)
	if werr != nil {
		if apperr.KindOf(werr) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("attendance.write")
		}
		return fail(c, log, werr)
	}
	prometheus.RecordAttendanceWrite("self_service", record.Status)

	log.Info("Attendance recorded",
		zap.Uint("target_user_id", targetID),
		zap.String("date", req.Date),
		zap.String("status", record.Status))
	return c.JSON(http.StatusOK, record)
}

// AllocateAttendance is the on-behalf write path for managers and delegates.
// Self-targeting is rejected and only the allocation vocabulary
// (office, remote, off) is accepted.
func AllocateAttendance(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		TargetUserID uint   `json:"target_user_id"`
		Date         string `json:"date"`
		Status       string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse allocation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TargetUserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target_user_id is required"})
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("upsert")(time.Now())
	record, werr := ledger.Allocate(actor, req.TargetUserID, date, req.Status)
	if werr != nil {
		if apperr.KindOf(werr) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("attendance.allocate")
		}
		return fail(c, log, werr)
	}
	prometheus.RecordAttendanceWrite("allocation", record.Status)

	log.Info("Attendance allocated",
		zap.Uint("target_user_id", req.TargetUserID),
		zap.String("date", req.Date),
		zap.String("status", record.Status))
	return c.JSON(http.StatusOK, record)
}

// ListAttendance returns records visible to the actor, filtered by optional
// target user, chapter lead, date range, and status query parameters.
func ListAttendance(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var filter attendance.Filter
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		target := uint(id)
		filter.TargetID = &target
	}
	if v := c.QueryParam("lead_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lead_id"})
		}
		lead := uint(id)
		filter.LeadID = &lead
	}
	if v := c.QueryParam("from"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		filter.From = &from
	}
	if v := c.QueryParam("to"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
		filter.To = &to
	}
	filter.Status = c.QueryParam("status")

	defer prometheus.TrackDBOperation("query")(time.Now())
	records, err := ledger.Query(actor, filter)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("attendance.read")
		}
		return fail(c, log, err)
	}
	return c.JSON(http.StatusOK, records)
}

// DeleteAttendance removes one record. Owner or tribe lead only.
func DeleteAttendance(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if derr := ledger.Delete(actor, id); derr != nil {
		if apperr.KindOf(derr) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("attendance.delete")
		}
		return fail(c, log, derr)
	}
	prometheus.AttendanceDeleteCounter.Inc()

	log.Info("Attendance record deleted", zap.Uint("record_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Attendance record deleted successfully"})
}

// ResetAttendance wipes every attendance record. Tribe-lead own role only;
// a delegation never reaches this operation.
func ResetAttendance(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	removed, err := ledger.Reset(actor)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("attendance.reset")
		}
		return fail(c, log, err)
	}

	log.Info("Attendance ledger reset", zap.Int64("records_removed", removed))
	return c.JSON(http.StatusOK, echo.Map{
		"message":         "Attendance records reset",
		"records_removed": removed,
	})
}
