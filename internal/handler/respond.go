package handler

import (
	"net/http"

	"attendance-service/internal/access"
	"attendance-service/internal/apperr"
	"attendance-service/internal/attendance"
	"attendance-service/internal/capacity"
	"attendance-service/internal/delegation"
	"attendance-service/pkg/database"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	resolver  *access.Resolver
	registry  *delegation.Registry
	ledger    *attendance.Ledger
	occupancy *capacity.Engine
)

// Init wires the handler package to the core engines. Must run after InitDB.
func Init() {
	db := database.GetDB()
	resolver = access.NewResolver(db)
	registry = delegation.NewRegistry(db)
	ledger = attendance.NewLedger(db, resolver)
	occupancy = capacity.NewEngine(db)
}

// StatusOf maps an error kind to its HTTP status code. The mapping lives in
// one place so every handler reports outcomes identically.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotAuthenticated:
		return http.StatusUnauthorized
	case apperr.KindNotAuthorized:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail renders a core error. Business-rule outcomes surface verbatim;
// internal failures are logged and replaced with a generic body.
func fail(c echo.Context, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Error("Request failed", zap.Error(err))
	}
	return c.JSON(StatusOf(kind), echo.Map{"error": apperr.Message(err)})
}
