package handler

import (
	"net/http"
	"testing"

	"attendance-service/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_NonTribeLeadDenied(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 2, Role: model.RoleChapterLead}

	c, rec := newContext(http.MethodPost, "/api/users",
		`{"email":"new@example.com","password":"pw","role":"reporter"}`, &actor)

	require.NoError(t, CreateUser(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_UnknownRole(t *testing.T) {
	wireMockEngines(t)
	actor := model.User{ID: 1, Role: model.RoleTribeLead}

	c, rec := newContext(http.MethodPost, "/api/users",
		`{"email":"new@example.com","password":"pw","role":"manager"}`, &actor)

	require.NoError(t, CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown role")
}

func TestCreateUser_SecondTribeLeadConflict(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 1, Role: model.RoleTribeLead}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	c, rec := newContext(http.MethodPost, "/api/users",
		`{"email":"usurper@example.com","password":"pw","role":"tribe_lead"}`, &actor)

	require.NoError(t, CreateUser(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "tribe lead already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_ManagerMustBeChapterLead(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 1, Role: model.RoleTribeLead}

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).
			AddRow(5, model.RoleReporter))

	c, rec := newContext(http.MethodPost, "/api/users",
		`{"email":"new@example.com","password":"pw","role":"reporter","manager_id":5}`, &actor)

	require.NoError(t, CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "chapter lead")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_ChapterAssignmentOnlyForReporters(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 1, Role: model.RoleTribeLead}

	c, rec := newContext(http.MethodPost, "/api/users",
		`{"email":"new@example.com","password":"pw","role":"chapter_lead","manager_id":5}`, &actor)

	require.NoError(t, CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "only reporters")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser_SelfDeleteRejected(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 1, Role: model.RoleTribeLead}

	c, rec := newContext(http.MethodDelete, "/api/users/1", "", &actor)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, DeleteUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NotFoundForEveryone(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 3, Role: model.RoleReporter}

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := newContext(http.MethodGet, "/api/users/404", "", &actor)
	c.SetParamNames("id")
	c.SetParamValues("404")

	require.NoError(t, GetUser(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_OutOfReachIsForbidden(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 3, Role: model.RoleReporter}

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow(9, "other@example.com", model.RoleReporter))
	mock.ExpectQuery(`SELECT \* FROM "delegations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := newContext(http.MethodGet, "/api/users/9", "", &actor)
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, GetUser(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
