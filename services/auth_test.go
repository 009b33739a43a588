package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/db"
)

func principalLoginRow(t *testing.T, password string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_name", "full_name", "email", "password_hash", "role", "role_type",
		"is_active", "created_at", "updated_at",
	}).AddRow("u1", "asha", "Asha Rao", "asha@example.com", string(hash), "user", nil, active, now, now)
}

func TestLogin_Success(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	mock.ExpectQuery("SELECT id, user_name, full_name, email, password_hash").
		WithArgs("asha@example.com").
		WillReturnRows(principalLoginRow(t, "swordfish1", true))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(sqlmock.AnyArg(), "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "swordfish1"})
	assert.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Empty(t, resp.User.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	mock.ExpectQuery("SELECT id, user_name, full_name, email, password_hash").
		WithArgs("asha@example.com").
		WillReturnRows(principalLoginRow(t, "swordfish1", true))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmail(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	mock.ExpectQuery("SELECT id, user_name, full_name, email, password_hash").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_DisabledAccount(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	mock.ExpectQuery("SELECT id, user_name, full_name, email, password_hash").
		WithArgs("asha@example.com").
		WillReturnRows(principalLoginRow(t, "swordfish1", false))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "swordfish1"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_RoleTypeOnlyForAdmins(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	_, err = svc.Register(context.Background(), RegisterRequest{
		UserName: "asha",
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Password: "swordfish1",
		Role:     "user",
		RoleType: "main",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("asha@example.com", "asha").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = svc.Register(context.Background(), RegisterRequest{
		UserName: "asha",
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Password: "swordfish1",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_AdminDefaultsToDepartmentAdmin(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("head@example.com", "head").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO principals").
		WithArgs(sqlmock.AnyArg(), "head", "Dept Head", "head@example.com", sqlmock.AnyArg(),
			"admin", "departmentAdmin", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := svc.Register(context.Background(), RegisterRequest{
		UserName: "head",
		FullName: "Dept Head",
		Email:    "head@example.com",
		Password: "swordfish1",
		Role:     "admin",
	})
	assert.NoError(t, err)
	assert.Equal(t, db.RoleTypeDepartmentAdmin, p.RoleType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RevokedToken(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	tokens := testTokenService()
	svc := NewAuthService(mockDB, tokens)

	refresh, err := tokens.GenerateRefreshToken(&db.Principal{ID: "u1", Role: db.RoleUser})
	assert.NoError(t, err)

	mock.ExpectQuery("SELECT id FROM refresh_tokens").
		WithArgs(hashToken(refresh)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = svc.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_GarbageToken(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewAuthService(mockDB, testTokenService())

	_, err = svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
