package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/db"
)

func departmentRow(id, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "head_supervisor_id", "head_admin_id", "created_at", "updated_at",
		"full_name", "full_name",
	}).AddRow(id, name, "s1", nil, now, now, "Asha Rao", nil)
}

func TestCreateDepartment_DuplicateName(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("hostel").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = svc.CreateDepartment(context.Background(), "  Hostel ")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDepartment_EmptyName(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	_, err = svc.CreateDepartment(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAssignHead_Supervisor(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	mock.ExpectQuery("SELECT role FROM principals").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("supervisor"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id FROM departments WHERE head_supervisor_id").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("UPDATE departments SET head_supervisor_id").
		WithArgs("s1", "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT d.id, d.name").
		WithArgs("d1").
		WillReturnRows(departmentRow("d1", "hostel"))

	resp, err := svc.AssignHead(context.Background(), "d1", "s1")
	assert.NoError(t, err)
	assert.Equal(t, "d1", resp.ID)
	assert.NotNil(t, resp.HeadSupervisorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignHead_SameDepartmentIdempotent(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	mock.ExpectQuery("SELECT role FROM principals").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("supervisor"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id FROM departments WHERE head_supervisor_id").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d1"))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT d.id, d.name").
		WithArgs("d1").
		WillReturnRows(departmentRow("d1", "hostel"))

	resp, err := svc.AssignHead(context.Background(), "d1", "s1")
	assert.NoError(t, err)
	assert.Equal(t, "d1", resp.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignHead_AlreadyHeadsAnotherDepartment(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	mock.ExpectQuery("SELECT role FROM principals").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("supervisor"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("d2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id FROM departments WHERE head_supervisor_id").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d1"))
	mock.ExpectRollback()

	_, err = svc.AssignHead(context.Background(), "d2", "s1")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignHead_PlainUserRejected(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	mock.ExpectQuery("SELECT role FROM principals").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("user"))

	_, err = svc.AssignHead(context.Background(), "d1", "u1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDepartment_WithOpenComplaints(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err = svc.DeleteDepartment(context.Background(), "d1")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveHead_UnknownRole(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewDepartmentService(mockDB)

	err = svc.RemoveHead(context.Background(), "d1", db.Role("user"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
