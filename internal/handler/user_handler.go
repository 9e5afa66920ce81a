package handler

import (
	"attendance-service/internal/access"
	"attendance-service/internal/apperr"
	"attendance-service/internal/middleware"
	"attendance-service/internal/model"
	"attendance-service/pkg/database"
	"attendance-service/pkg/logger"
	"attendance-service/prometheus"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ListUsers returns the users inside the actor's read set.
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ids, err := resolver.AccessibleUserIDs(actor)
	if err != nil {
		return fail(c, log, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := database.GetDB().Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser returns one user. A nonexistent id is 404 for every caller; an
// existing user outside the actor's read set is 403.
func GetUser(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	target, rerr := resolver.ResolveTarget(actor, id)
	if rerr != nil {
		if apperr.KindOf(rerr) == apperr.KindNotAuthorized {
			prometheus.RecordAuthorizationDenied("user.read")
		}
		return fail(c, log, rerr)
	}
	return c.JSON(http.StatusOK, target)
}

// ListReports returns the direct reports of a chapter lead (or all chapter
// leads when the target is the tribe lead).
func ListReports(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	if _, rerr := resolver.ResolveTarget(actor, id); rerr != nil {
		return fail(c, log, rerr)
	}
	reports, rerr := resolver.DirectReports(id)
	if rerr != nil {
		return fail(c, log, rerr)
	}
	if reports == nil {
		reports = []model.User{}
	}
	return c.JSON(http.StatusOK, reports)
}

// CreateUser is the tribe-lead entry point for provisioning accounts with an
// explicit role and chapter assignment.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if err := resolver.Authorize(actor, access.OpManageUsers); err != nil {
		prometheus.RecordAuthorizationDenied("user.manage")
		return fail(c, log, err)
	}

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Name      string `json:"name"`
		Role      string `json:"role"`
		ManagerID *uint  `json:"manager_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	if req.Role == "" {
		req.Role = model.RoleReporter
	}
	if err := validateRoleAssignment(log, req.Role, req.ManagerID, 0); err != nil {
		return fail(c, log, err)
	}

	var existing model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&existing); result.Error == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	user := model.User{
		Email:     req.Email,
		Password:  string(hashedPassword),
		Name:      req.Name,
		Role:      req.Role,
		ManagerID: req.ManagerID,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	log.Info("User created",
		zap.Uint("id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser changes a user's name, role, or chapter assignment. Tribe-lead
// only; never delegable.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if err := resolver.Authorize(actor, access.OpManageUsers); err != nil {
		prometheus.RecordAuthorizationDenied("user.manage")
		return fail(c, log, err)
	}

	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var req struct {
		Name      *string `json:"name"`
		Role      *string `json:"role"`
		ManagerID *uint   `json:"manager_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.ManagerID != nil {
		user.ManagerID = req.ManagerID
	}
	if err := validateRoleAssignment(log, user.Role, user.ManagerID, user.ID); err != nil {
		return fail(c, log, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user update failed"})
	}

	log.Info("User updated",
		zap.Uint("id", user.ID),
		zap.String("role", user.Role))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account. Tribe-lead only; never delegable.
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if err := resolver.Authorize(actor, access.OpManageUsers); err != nil {
		prometheus.RecordAuthorizationDenied("user.manage")
		return fail(c, log, err)
	}

	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}
	if id == actor.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(&user); result.Error != nil {
		log.Error("Failed to delete user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user deletion failed"})
	}

	log.Info("User deleted", zap.Uint("id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

// validateRoleAssignment enforces the business invariants on role and
// chapter assignment: known role, a reporter's manager must be a chapter
// lead, and at most one tribe lead exists at any time.
func validateRoleAssignment(log *zap.Logger, role string, managerID *uint, selfID uint) error {
	if !model.ValidRole(role) {
		return apperr.InvalidArgument("unknown role")
	}
	if role == model.RoleTribeLead {
		var count int64
		q := database.GetDB().Model(&model.User{}).Where("role = ?", model.RoleTribeLead)
		if selfID != 0 {
			q = q.Where("id <> ?", selfID)
		}
		if err := q.Count(&count).Error; err != nil {
			log.Error("Failed to count tribe leads", zap.Error(err))
			return apperr.Internal("count tribe leads", err)
		}
		if count > 0 {
			return apperr.Conflict("a tribe lead already exists")
		}
	}
	if managerID != nil {
		if role != model.RoleReporter {
			return apperr.InvalidArgument("only reporters are assigned to a chapter")
		}
		var manager model.User
		if result := database.GetDB().First(&manager, *managerID); result.Error != nil {
			return apperr.NotFound("manager not found")
		}
		if manager.Role != model.RoleChapterLead {
			return apperr.InvalidArgument("manager must be a chapter lead")
		}
	}
	return nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
