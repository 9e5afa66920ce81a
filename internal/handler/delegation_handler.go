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

// CreateDelegation grants the tribe lead's write reach to another user for a
// date interval. Any prior active grant for the same delegate is deactivated
// in the same transaction.
func CreateDelegation(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		DelegateID uint   `json:"delegate_id"`
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse delegation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.DelegateID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delegate_id is required"})
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	grant, cerr := registry.Create(actor, req.DelegateID, start, end)
	if cerr != nil {
		if apperr.KindOf(cerr) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("delegation.manage")
		}
		return fail(c, log, cerr)
	}
	prometheus.RecordDelegationOperation("create")
	prometheus.ActiveDelegationsGauge.Inc()

	log.Info("Delegation created",
		zap.Uint("delegation_id", grant.ID),
		zap.Uint("delegate_id", grant.DelegateID),
		zap.Time("start_date", grant.StartDate),
		zap.Time("end_date", grant.EndDate))
	return c.JSON(http.StatusCreated, grant)
}

// RevokeDelegation deactivates a grant. Idempotent.
func RevokeDelegation(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid delegation ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	grant, rerr := registry.Revoke(actor, id)
	if rerr != nil {
		if apperr.KindOf(rerr) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("delegation.manage")
		}
		return fail(c, log, rerr)
	}
	prometheus.RecordDelegationOperation("revoke")
	prometheus.ActiveDelegationsGauge.Dec()

	log.Info("Delegation revoked", zap.Uint("delegation_id", grant.ID))
	return c.JSON(http.StatusOK, grant)
}

// ListDelegations returns the grant history for audit, optionally filtered
// by delegate. Tribe-lead only.
func ListDelegations(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var delegateID *uint
	if v := c.QueryParam("delegate_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid delegate_id"})
		}
		u := uint(id)
		delegateID = &u
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	grants, err := registry.List(actor, delegateID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("delegation.manage")
		}
		return fail(c, log, err)
	}
	return c.JSON(http.StatusOK, grants)
}
