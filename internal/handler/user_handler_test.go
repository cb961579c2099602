package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tasktracker/internal/auth"
	"tasktracker/internal/handler"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
)

func setupTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	assert.NoError(t, err)

	users := service.NewUserService(repository.NewGateway(gormDB), "test-secret", time.Hour)
	userHandler := handler.NewUserHandler(users)

	r := gin.New()
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	return r, mock
}

func postJSON(router *gin.Engine, uri string, body any) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", uri, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, mock := setupTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "users"`).
		WithArgs("u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "id" = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "roles"}).
			AddRow(1, "u1", "hashed", "{user}"))
	mock.ExpectQuery(`SELECT \* FROM "users_tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "task_id"}))
	mock.ExpectCommit()

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Username: "u1",
		Password: "password",
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "u1", body["username"])
	assert.Equal(t, []any{"user"}, body["roles"])
	// The hashed credential never leaves the server
	assert.NotContains(t, body, "password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	router, mock := setupTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "roles"}).
			AddRow(1, "u1", "hashed", "{user}"))
	mock.ExpectRollback()

	resp := postJSON(router, "/register", handler.RegisterRequest{
		Username: "u1",
		Password: "password",
	})

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_Success(t *testing.T) {
	router, mock := setupTest(t)
	hash, err := auth.HashPassword("password")
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "username" = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "roles"}).
			AddRow(1, "u1", hash, "{user}"))
	mock.ExpectQuery(`SELECT \* FROM "users_tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "task_id"}))
	mock.ExpectRollback()

	resp := postJSON(router, "/login", handler.LoginRequest{Username: "u1", Password: "password"})

	assert.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])

	claims, err := auth.ParseToken("test-secret", body["access_token"])
	assert.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	router, mock := setupTest(t)
	hash, err := auth.HashPassword("correct")
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "username" = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "roles"}).
			AddRow(1, "u1", hash, "{user}"))
	mock.ExpectQuery(`SELECT \* FROM "users_tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "task_id"}))
	mock.ExpectRollback()

	resp := postJSON(router, "/login", handler.LoginRequest{Username: "u1", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Incorrect password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownUser(t *testing.T) {
	router, mock := setupTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	resp := postJSON(router, "/login", handler.LoginRequest{Username: "ghost", Password: "password"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
