package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/db"
)

func statusLogRow(isAnonymous bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "complaint_id", "changed_by", "changed_by_role", "old_status", "new_status", "created_at",
		"full_name", "title", "is_anonymous", "id", "full_name", "email",
	}).AddRow("l1", "c1", "a1", "admin", "pending", "in_review", now,
		"Admin One", "Broken heater", isAnonymous, "u1", "Asha Rao", "asha@example.com")
}

func TestListForComplaint_NotFoundBeforeScope(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	scoper := authz.NewScoper(mockDB)
	complaints := NewComplaintService(mockDB, nil, nil, scoper)
	svc := NewStatusLogService(mockDB, complaints, scoper)

	// a user with no rights at all still gets 404 for a missing id
	viewer := &db.Principal{ID: "u9", Role: db.RoleUser}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = svc.ListForComplaint(context.Background(), viewer, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForComplaint_NewestFirst(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	scoper := authz.NewScoper(mockDB)
	complaints := NewComplaintService(mockDB, nil, nil, scoper)
	svc := NewStatusLogService(mockDB, complaints, scoper)
	viewer := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "complaint_id", "changed_by", "changed_by_role", "old_status", "new_status", "created_at",
		"full_name", "title", "is_anonymous", "id", "full_name", "email",
	}).AddRow("l2", "c1", "a1", "admin", "in_review", "resolved", now,
		"Admin One", "Broken heater", false, "u1", "Asha Rao", "asha@example.com").
		AddRow("l1", "c1", "a1", "admin", "pending", "in_review", now.Add(-time.Hour),
			"Admin One", "Broken heater", false, "u1", "Asha Rao", "asha@example.com")

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("resolved"))
	mock.ExpectQuery(`(?s)SELECT l\.id, l\.complaint_id.*ORDER BY l\.created_at DESC`).
		WithArgs("c1").
		WillReturnRows(rows)

	logs, err := svc.ListForComplaint(context.Background(), viewer, "c1")
	assert.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, "l2", logs[0].ID)
	assert.True(t, logs[0].CreatedAt.After(logs[1].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUserActivity_UnknownUser(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	scoper := authz.NewScoper(mockDB)
	complaints := NewComplaintService(mockDB, nil, nil, scoper)
	svc := NewStatusLogService(mockDB, complaints, scoper)
	viewer := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = svc.ListUserActivity(context.Background(), viewer, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUserActivity_OutsideDepartmentScope(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	scoper := authz.NewScoper(mockDB)
	complaints := NewComplaintService(mockDB, nil, nil, scoper)
	svc := NewStatusLogService(mockDB, complaints, scoper)
	viewer := &db.Principal{ID: "a2", Role: db.RoleAdmin, RoleType: db.RoleTypeDepartmentAdmin}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("u1", "a2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err = svc.ListUserActivity(context.Background(), viewer, "u1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUserActivity_MainAdminSeesAnyone(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	scoper := authz.NewScoper(mockDB)
	complaints := NewComplaintService(mockDB, nil, nil, scoper)
	svc := NewStatusLogService(mockDB, complaints, scoper)
	viewer := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT l.id, l.complaint_id").
		WithArgs("u1").
		WillReturnRows(statusLogRow(false))

	logs, err := svc.ListUserActivity(context.Background(), viewer, "u1")
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, "Broken heater", logs[0].ComplaintTitle)
	assert.NotNil(t, logs[0].SubmittedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOwnActivity_RedactsAnonymousSubmitters(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	scoper := authz.NewScoper(mockDB)
	complaints := NewComplaintService(mockDB, nil, nil, scoper)
	svc := NewStatusLogService(mockDB, complaints, scoper)
	viewer := &db.Principal{ID: "a2", Role: db.RoleAdmin, RoleType: db.RoleTypeDepartmentAdmin}

	mock.ExpectQuery("SELECT l.id, l.complaint_id").
		WithArgs("a2").
		WillReturnRows(statusLogRow(true))

	logs, err := svc.ListOwnActivity(context.Background(), viewer)
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Nil(t, logs[0].SubmittedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
