package handler

import (
	"net/http"
	"testing"
	"time"

	"attendance-service/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister_MissingFields(t *testing.T) {
	wireMockEngines(t)

	c, rec := newContext(http.MethodPost, "/auth/register", `{"email":"a@example.com"}`, nil)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_FirstUserBootstrapsTribeLead(t *testing.T) {
	mock := wireMockEngines(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	c, rec := newContext(http.MethodPost, "/auth/register",
		`{"email":"founder@example.com","password":"pw","name":"Founder"}`, nil)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), model.RoleTribeLead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_LaterUsersAreReporters(t *testing.T) {
	mock := wireMockEngines(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	c, rec := newContext(http.MethodPost, "/auth/register",
		`{"email":"later@example.com","password":"pw"}`, nil)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), model.RoleReporter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mock := wireMockEngines(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(1, "taken@example.com"))

	c, rec := newContext(http.MethodPost, "/auth/register",
		`{"email":"taken@example.com","password":"pw"}`, nil)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	mock := wireMockEngines(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "role"}).
			AddRow(1, "a@example.com", string(hash), model.RoleReporter))

	c, rec := newContext(http.MethodPost, "/auth/login",
		`{"email":"a@example.com","password":"wrong"}`, nil)

	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmailIsSameError(t *testing.T) {
	mock := wireMockEngines(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := newContext(http.MethodPost, "/auth/login",
		`{"email":"nobody@example.com","password":"pw"}`, nil)

	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials",
		"unknown email and wrong password must be indistinguishable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_IssuesToken(t *testing.T) {
	mock := wireMockEngines(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "name", "role"}).
			AddRow(2, "lead@example.com", string(hash), "Lead", model.RoleChapterLead))

	c, rec := newContext(http.MethodPost, "/auth/login",
		`{"email":"lead@example.com","password":"secret1"}`, nil)

	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.Contains(t, rec.Body.String(), model.RoleChapterLead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMe_IncludesActiveDelegation(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 3, Role: model.RoleReporter}

	today := model.DateOnly(time.Now())
	mock.ExpectQuery(`SELECT \* FROM "delegations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "delegator_id", "delegate_id", "start_date", "end_date", "is_active"}).
			AddRow(7, 1, 3, today.AddDate(0, 0, -1), today.AddDate(0, 0, 1), true))

	c, rec := newContext(http.MethodGet, "/auth/me", "", &actor)

	require.NoError(t, Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"delegation"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMe_NoDelegation(t *testing.T) {
	mock := wireMockEngines(t)
	actor := model.User{ID: 3, Role: model.RoleReporter}

	mock.ExpectQuery(`SELECT \* FROM "delegations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := newContext(http.MethodGet, "/auth/me", "", &actor)

	require.NoError(t, Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"delegation"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
