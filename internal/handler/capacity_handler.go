package handler

import (
	"attendance-service/internal/apperr"
	"attendance-service/internal/middleware"
	"attendance-service/pkg/logger"
	"attendance-service/prometheus"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListCapacity returns the Monday..Friday capacity configuration,
// materializing defaults on first access. Chapter leads and above.
func ListCapacity(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	rows, err := occupancy.List(actor)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("capacity.view")
		}
		return fail(c, log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// SetCapacity upserts one weekday's capacity. Tribe-lead only; never
// delegable.
func SetCapacity(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Weekday  string `json:"weekday"`
		Capacity int    `json:"capacity"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse capacity request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("upsert")(time.Now())
	row, serr := occupancy.Set(actor, req.Weekday, req.Capacity)
	if serr != nil {
		if apperr.KindOf(serr) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("capacity.edit")
		}
		return fail(c, log, serr)
	}
	prometheus.CapacityUpdateCounter.Inc()

	log.Info("Capacity updated",
		zap.String("weekday", row.Weekday),
		zap.Int("capacity", row.Capacity))
	return c.JSON(http.StatusOK, row)
}

// WeekOccupancy reports booked seats against capacity for the week containing
// today shifted by the optional offset query parameter (in whole weeks).
func WeekOccupancy(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offset"})
		}
		offset = parsed
	}
	reference := time.Now()
	if v := c.QueryParam("date"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		reference = parsed
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	week, err := occupancy.WeekOccupancy(actor, reference, offset)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("capacity.view")
		}
		return fail(c, log, err)
	}
	return c.JSON(http.StatusOK, week)
}
