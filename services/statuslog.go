package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/db"
)

// StatusLogService reads the append-only transition audit trail. Logs
// are written exclusively by ComplaintService.UpdateStatus inside the
// transition transaction.
type StatusLogService struct {
	PG         *sql.DB
	Complaints *ComplaintService
	Scoper     *authz.Scoper
}

func NewStatusLogService(pg *sql.DB, complaints *ComplaintService, scoper *authz.Scoper) *StatusLogService {
	return &StatusLogService{PG: pg, Complaints: complaints, Scoper: scoper}
}

const statusLogSelect = `
	SELECT l.id, l.complaint_id, l.changed_by, l.changed_by_role, l.old_status, l.new_status, l.created_at,
	       actor.full_name, c.title, c.is_anonymous,
	       sub.id, sub.full_name, sub.email
	FROM status_logs l
	JOIN complaints c ON c.id = l.complaint_id
	JOIN principals actor ON actor.id = l.changed_by
	JOIN principals sub ON sub.id = c.submitted_by
`

// ListForComplaint returns the transition history of one complaint.
// The complaint is loaded first, so absence reads as 404 before any
// scope rule can produce a 403.
func (s *StatusLogService) ListForComplaint(ctx context.Context, viewer *db.Principal, complaintID string) ([]db.StatusLogResponse, error) {
	c, err := s.Complaints.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if !s.Scoper.OwnsComplaint(c, viewer.ID) && !s.Scoper.InManagedScope(ctx, viewer, c) {
		return nil, apperr.Forbidden("complaint is outside your scope")
	}

	return s.query(ctx, viewer, false, statusLogSelect+`
		WHERE l.complaint_id = $1
		ORDER BY l.created_at DESC
	`, complaintID)
}

// ListOwnActivity returns every transition the principal performed.
func (s *StatusLogService) ListOwnActivity(ctx context.Context, viewer *db.Principal) ([]db.StatusLogResponse, error) {
	return s.query(ctx, viewer, false, statusLogSelect+`
		WHERE l.changed_by = $1
		ORDER BY l.created_at DESC
	`, viewer.ID)
}

// ListUserActivity returns the transitions performed by another
// principal. Main admins audit anyone; department admins only users
// who belong to a department they head. This is an audit query, so a
// main admin also sees the submitter behind anonymous complaints.
func (s *StatusLogService) ListUserActivity(ctx context.Context, viewer *db.Principal, targetID string) ([]db.StatusLogResponse, error) {
	var exists bool
	err := s.PG.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM principals WHERE id = $1)
	`, targetID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check target principal: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("user")
	}

	if !s.Scoper.SharesManagedDepartment(ctx, viewer, targetID) {
		return nil, apperr.Forbidden("user is outside your department scope")
	}

	return s.query(ctx, viewer, true, statusLogSelect+`
		WHERE l.changed_by = $1
		ORDER BY l.created_at DESC
	`, targetID)
}

// ListByDateRange returns the transitions recorded inside [start, end].
// Main admins see everything. Department admins see transitions whose
// actor belongs to a department they head. Supervisors see transitions
// on complaints in departments they head-supervise. Plain users are
// rejected at the role gate before this runs.
func (s *StatusLogService) ListByDateRange(ctx context.Context, viewer *db.Principal, start, end time.Time) ([]db.StatusLogResponse, error) {
	if end.Before(start) {
		return nil, apperr.Validation("end date is before start date")
	}

	where := "WHERE l.created_at >= $1 AND l.created_at <= $2"
	args := []interface{}{start, end}

	switch {
	case viewer.IsMainAdmin():
		// unrestricted
	case viewer.IsDepartmentAdmin():
		where += ` AND l.changed_by IN (
			SELECT pd.principal_id FROM principal_departments pd
			JOIN departments d ON d.id = pd.department_id
			WHERE d.head_admin_id = $3
		)`
		args = append(args, viewer.ID)
	case viewer.Role == db.RoleSupervisor:
		where += ` AND c.department_id IN (
			SELECT id FROM departments WHERE head_supervisor_id = $3
		)`
		args = append(args, viewer.ID)
	default:
		return nil, apperr.Forbidden("activity reports are not available to your role")
	}

	return s.query(ctx, viewer, false, statusLogSelect+where+`
		ORDER BY l.created_at DESC
	`, args...)
}

func (s *StatusLogService) query(ctx context.Context, viewer *db.Principal, audit bool, query string, args ...interface{}) ([]db.StatusLogResponse, error) {
	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status logs: %w", err)
	}
	defer rows.Close()

	logs := []db.StatusLogResponse{}
	for rows.Next() {
		var resp db.StatusLogResponse
		var submitter db.SubmitterInfo
		err := rows.Scan(&resp.ID, &resp.ComplaintID, &resp.ChangedBy, &resp.ChangedByRole,
			&resp.OldStatus, &resp.NewStatus, &resp.CreatedAt,
			&resp.ChangedByName, &resp.ComplaintTitle, &resp.IsAnonymous,
			&submitter.ID, &submitter.FullName, &submitter.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		resp.SubmittedBy = &submitter

		c := &db.Complaint{ID: resp.ComplaintID, SubmittedBy: submitter.ID, IsAnonymous: resp.IsAnonymous}
		authz.RedactStatusLog(viewer, c, &resp, audit)
		logs = append(logs, resp)
	}
	return logs, rows.Err()
}
