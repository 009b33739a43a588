package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/db"
)

func complaintRowAt(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "description", "category", "department_id", "submitted_by",
		"is_anonymous", "status", "image_url", "image_public_id", "video_url",
		"video_public_id", "assigned_supervisor_id", "created_at", "updated_at",
	}).AddRow("c1", "Broken heater", "No heat in block B", "other", "d1", "u1",
		false, status, nil, nil, nil, nil, nil, now, now)
}

func complaintRowAssignedTo(status, supervisorID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "description", "category", "department_id", "submitted_by",
		"is_anonymous", "status", "image_url", "image_public_id", "video_url",
		"video_public_id", "assigned_supervisor_id", "created_at", "updated_at",
	}).AddRow("c1", "Broken heater", "No heat in block B", "other", "d1", "u1",
		false, status, nil, nil, nil, nil, supervisorID, now, now)
}

func complaintListRow(isAnonymous bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "description", "category", "department_id", "name",
		"submitted_by", "full_name", "email", "is_anonymous", "status",
		"image_url", "image_public_id", "video_url", "video_public_id",
		"assigned_supervisor_id", "sup_name", "created_at", "updated_at",
	}).AddRow("c1", "Broken heater", "No heat in block B", "other", "d1", "Hostel",
		"u1", "Asha Rao", "asha@example.com", isAnonymous, "pending",
		nil, nil, nil, nil, nil, nil, now, now)
}

// fakeMediaStore records upload and delete calls in memory.
type fakeMediaStore struct {
	uploads int
	deleted []string
}

func (f *fakeMediaStore) Upload(ctx context.Context, localPath string) (*db.MediaRef, error) {
	f.uploads++
	id := fmt.Sprintf("blob-%d", f.uploads)
	return &db.MediaRef{URL: "https://media.local/" + id, PublicID: id}, nil
}

func (f *fakeMediaStore) Delete(ctx context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func TestParseAnonymousFlag(t *testing.T) {
	cases := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"false", false, false},
		{"", false, false},
		{"TRUE", false, true},
		{"1", false, true},
		{"yes", false, true},
	}

	for _, tc := range cases {
		got, err := ParseAnonymousFlag(tc.raw)
		if tc.wantErr {
			assert.ErrorIs(t, err, apperr.ErrValidation, "raw=%q", tc.raw)
			continue
		}
		assert.NoError(t, err, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("pending"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM complaints").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec("UPDATE complaints SET status").
		WithArgs("in_review", "c1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO status_logs").
		WithArgs(sqlmock.AnyArg(), "c1", "a1", "admin", "pending", "in_review").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := svc.UpdateStatus(context.Background(), actor, "c1", db.StatusInReview)
	assert.NoError(t, err)
	assert.Equal(t, db.StatusInReview, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("resolved"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM complaints").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("resolved"))
	mock.ExpectRollback()

	_, err = svc.UpdateStatus(context.Background(), actor, "c1", db.StatusInReview)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	var transitionErr *apperr.InvalidTransitionError
	assert.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, "resolved", transitionErr.OldStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("pending"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM complaints").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec("UPDATE complaints SET status").
		WithArgs("in_review", "c1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = svc.UpdateStatus(context.Background(), actor, "c1", db.StatusInReview)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	_, err = svc.UpdateStatus(context.Background(), actor, "c1", db.Status("escalated"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateStatus_OutOfScope(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "a2", Role: db.RoleAdmin, RoleType: db.RoleTypeDepartmentAdmin}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("pending"))
	mock.ExpectQuery("SELECT id FROM departments WHERE head_admin_id").
		WithArgs("a2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d9"))

	_, err = svc.UpdateStatus(context.Background(), actor, "c1", db.StatusInReview)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_DeletedComplaint(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("pending"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM complaints").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err = svc.UpdateStatus(context.Background(), actor, "c1", db.StatusInReview)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_UnassignedHeadSupervisorForbidden(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	// s9 heads the complaint's department but is not assigned to it
	actor := &db.Principal{ID: "s9", Role: db.RoleSupervisor}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("pending"))

	_, err = svc.UpdateStatus(context.Background(), actor, "c1", db.StatusInReview)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_AssignedSupervisor(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "s1", Role: db.RoleSupervisor}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAssignedTo("pending", "s1"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM complaints").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec("UPDATE complaints SET status").
		WithArgs("in_review", "c1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO status_logs").
		WithArgs(sqlmock.AnyArg(), "c1", "s1", "supervisor", "pending", "in_review").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := svc.UpdateStatus(context.Background(), actor, "c1", db.StatusInReview)
	assert.NoError(t, err)
	assert.Equal(t, db.StatusInReview, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComplaint_CleansUpMediaOnInsertFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	media := &fakeMediaStore{}
	svc := NewComplaintService(mockDB, media, nil, authz.NewScoper(mockDB))
	submitter := &db.Principal{ID: "u1", Role: db.RoleUser}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO complaints").
		WillReturnError(errors.New("connection reset"))

	req := db.CreateComplaintRequest{
		Title:        "Broken heater",
		Description:  "No heat in block B",
		Category:     "other",
		DepartmentID: "d1",
	}
	_, err = svc.CreateComplaint(context.Background(), submitter, req, "/tmp/photo.jpg", "/tmp/clip.mp4")
	assert.Error(t, err)
	assert.Equal(t, []string{"blob-1", "blob-2"}, media.deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComplaint_KeepsMediaOnSuccess(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	media := &fakeMediaStore{}
	svc := NewComplaintService(mockDB, media, nil, authz.NewScoper(mockDB))
	submitter := &db.Principal{ID: "u1", Role: db.RoleUser}

	now := time.Now()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO complaints").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	req := db.CreateComplaintRequest{
		Title:        "Broken heater",
		Description:  "No heat in block B",
		Category:     "other",
		DepartmentID: "d1",
	}
	c, err := svc.CreateComplaint(context.Background(), submitter, req, "/tmp/photo.jpg", "")
	assert.NoError(t, err)
	assert.NotNil(t, c.Image)
	assert.Equal(t, "blob-1", c.Image.PublicID)
	assert.Empty(t, media.deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NonSubmitterForbidden(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	// even a main admin cannot delete someone else's complaint
	actor := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("pending"))

	err = svc.Delete(context.Background(), actor, "c1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_BySubmitter(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	actor := &db.Principal{ID: "u1", Role: db.RoleUser}

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("c1").
		WillReturnRows(complaintRowAt("pending"))
	mock.ExpectExec("UPDATE complaints SET is_deleted").
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = svc.Delete(context.Background(), actor, "c1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScoped_MainAdminRegularListRedactsAnonymous(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	viewer := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT c.id, c.title").
		WithArgs(20, 0).
		WillReturnRows(complaintListRow(true))

	page, err := svc.ListScoped(context.Background(), viewer, db.ComplaintFilter{})
	assert.NoError(t, err)
	assert.Len(t, page.Complaints, 1)
	assert.Nil(t, page.Complaints[0].SubmittedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScoped_MainAdminAnonymousViewKeepsSubmitter(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer mockDB.Close()

	svc := NewComplaintService(mockDB, nil, nil, authz.NewScoper(mockDB))
	viewer := &db.Principal{ID: "a1", Role: db.RoleAdmin, RoleType: db.RoleTypeMain}

	anon := true
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT c.id, c.title").
		WithArgs(true, 20, 0).
		WillReturnRows(complaintListRow(true))

	page, err := svc.ListScoped(context.Background(), viewer, db.ComplaintFilter{IsAnonymous: &anon})
	assert.NoError(t, err)
	assert.Len(t, page.Complaints, 1)
	assert.NotNil(t, page.Complaints[0].SubmittedBy)
	assert.Equal(t, "u1", page.Complaints[0].SubmittedBy.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
