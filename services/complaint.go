package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/db"
)

// ComplaintService owns the complaint lifecycle: creation with media
// compensation, scoped reads, owner edits, soft deletion, supervisor
// assignment and the transactional status transition.
type ComplaintService struct {
	PG            *sql.DB
	Media         MediaStore
	Notifications *NotificationService
	Scoper        *authz.Scoper
}

func NewComplaintService(pg *sql.DB, media MediaStore, notifications *NotificationService, scoper *authz.Scoper) *ComplaintService {
	return &ComplaintService{
		PG:            pg,
		Media:         media,
		Notifications: notifications,
		Scoper:        scoper,
	}
}

// ParseAnonymousFlag accepts only the literals "true" and "false", or
// empty which defaults to false. Anything else is a validation error,
// never a silent default.
func ParseAnonymousFlag(raw string) (bool, error) {
	switch raw {
	case "", "false":
		return false, nil
	case "true":
		return true, nil
	default:
		return false, apperr.Validation(fmt.Sprintf("is_anonymous must be 'true' or 'false', got '%s'", raw))
	}
}

// CreateComplaint validates the payload, uploads any attached media and
// inserts the complaint. Media is uploaded before the insert; if the
// insert fails the uploaded blobs are deleted again.
func (s *ComplaintService) CreateComplaint(ctx context.Context, submitter *db.Principal, req db.CreateComplaintRequest, imagePath, videoPath string) (*db.Complaint, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if !db.ValidCategory(db.Category(req.Category)) {
		return nil, apperr.Validation(fmt.Sprintf("unknown category '%s'", req.Category))
	}
	if req.DepartmentID == "" {
		return nil, apperr.Validation("department is required")
	}

	isAnonymous, err := ParseAnonymousFlag(req.IsAnonymous)
	if err != nil {
		return nil, err
	}

	var exists bool
	err = s.PG.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM departments WHERE id = $1)
	`, req.DepartmentID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check department: %w", err)
	}
	if !exists {
		return nil, apperr.Validation("department does not exist")
	}

	var image, video *db.MediaRef
	var uploaded []*db.MediaRef
	cleanup := func() {
		for _, ref := range uploaded {
			if delErr := s.Media.Delete(ctx, ref.PublicID); delErr != nil {
				log.Printf("Failed to clean up media %s: %v", ref.PublicID, delErr)
			}
		}
	}

	if imagePath != "" {
		image, err = s.Media.Upload(ctx, imagePath)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, image)
	}
	if videoPath != "" {
		video, err = s.Media.Upload(ctx, videoPath)
		if err != nil {
			cleanup()
			return nil, err
		}
		uploaded = append(uploaded, video)
	}

	c := &db.Complaint{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  description,
		Category:     db.Category(req.Category),
		DepartmentID: req.DepartmentID,
		SubmittedBy:  submitter.ID,
		IsAnonymous:  isAnonymous,
		Status:       db.StatusPending,
		Image:        image,
		Video:        video,
	}

	var imageURL, imagePublicID, videoURL, videoPublicID interface{}
	if image != nil {
		imageURL, imagePublicID = image.URL, image.PublicID
	}
	if video != nil {
		videoURL, videoPublicID = video.URL, video.PublicID
	}

	err = s.PG.QueryRowContext(ctx, `
		INSERT INTO complaints (id, title, description, category, department_id, submitted_by,
		                        is_anonymous, status, image_url, image_public_id, video_url, video_public_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, c.ID, c.Title, c.Description, string(c.Category), c.DepartmentID, c.SubmittedBy,
		c.IsAnonymous, string(c.Status), imageURL, imagePublicID, videoURL, videoPublicID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	return c, nil
}

// GetComplaint loads a live complaint. Soft-deleted rows read as not
// found, so existence is checked before any scope rule runs.
func (s *ComplaintService) GetComplaint(ctx context.Context, id string) (*db.Complaint, error) {
	var c db.Complaint
	var imageURL, imagePublicID, videoURL, videoPublicID, assignedTo sql.NullString
	err := s.PG.QueryRowContext(ctx, `
		SELECT id, title, description, category, department_id, submitted_by, is_anonymous, status,
		       image_url, image_public_id, video_url, video_public_id, assigned_supervisor_id,
		       created_at, updated_at
		FROM complaints
		WHERE id = $1 AND is_deleted = false
	`, id).Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.DepartmentID, &c.SubmittedBy,
		&c.IsAnonymous, &c.Status, &imageURL, &imagePublicID, &videoURL, &videoPublicID,
		&assignedTo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("complaint")
		}
		return nil, fmt.Errorf("failed to load complaint: %w", err)
	}
	if imageURL.Valid {
		c.Image = &db.MediaRef{URL: imageURL.String, PublicID: imagePublicID.String}
	}
	if videoURL.Valid {
		c.Video = &db.MediaRef{URL: videoURL.String, PublicID: videoPublicID.String}
	}
	if assignedTo.Valid {
		c.AssignedSupervisorID = &assignedTo.String
	}
	return &c, nil
}

// GetComplaintForViewer loads a complaint, enforces view scope and
// returns the redacted response.
func (s *ComplaintService) GetComplaintForViewer(ctx context.Context, viewer *db.Principal, id string) (*db.ComplaintResponse, error) {
	c, err := s.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canView(ctx, viewer, c) {
		return nil, apperr.Forbidden("you cannot view this complaint")
	}

	resp, err := s.buildResponse(ctx, c)
	if err != nil {
		return nil, err
	}
	authz.RedactComplaint(viewer, c, resp, false)
	return resp, nil
}

// canView combines ownership and management scope. Called only after
// the complaint has been loaded.
func (s *ComplaintService) canView(ctx context.Context, viewer *db.Principal, c *db.Complaint) bool {
	if viewer == nil {
		return false
	}
	if s.Scoper.OwnsComplaint(c, viewer.ID) {
		return true
	}
	return s.Scoper.InManagedScope(ctx, viewer, c)
}

// listScope is a WHERE fragment with %d placeholders for argument
// positions, one per entry in args, in order.
type listScope struct {
	clause string
	args   []interface{}
}

// ListOwn returns the submitter's complaints.
func (s *ComplaintService) ListOwn(ctx context.Context, viewer *db.Principal, filter db.ComplaintFilter) (*db.ComplaintPage, error) {
	return s.list(ctx, viewer, filter, &listScope{"c.submitted_by = $%d", []interface{}{viewer.ID}}, false)
}

// ListScoped returns the complaints visible to a supervisor or admin.
// Main admins see everything; department admins and supervisors see
// their departments, supervisors additionally their assignments. A main
// admin filtering down to anonymous complaints is the audit view, the
// one read where the submitter identity stays visible to them.
func (s *ComplaintService) ListScoped(ctx context.Context, viewer *db.Principal, filter db.ComplaintFilter) (*db.ComplaintPage, error) {
	if viewer.IsMainAdmin() {
		audit := filter.IsAnonymous != nil && *filter.IsAnonymous
		return s.list(ctx, viewer, filter, nil, audit)
	}

	var deptIDs []string
	var err error
	switch {
	case viewer.Role == db.RoleSupervisor:
		deptIDs, err = s.Scoper.SupervisorDepartmentIDs(ctx, viewer.ID)
	case viewer.IsDepartmentAdmin():
		deptIDs, err = s.Scoper.HeadedDepartmentIDs(ctx, viewer.ID)
	default:
		return nil, apperr.Forbidden("you cannot list department complaints")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve department scope: %w", err)
	}

	if viewer.Role == db.RoleSupervisor {
		return s.listSupervisorScope(ctx, viewer, filter, deptIDs)
	}

	if len(deptIDs) == 0 {
		return &db.ComplaintPage{Complaints: []db.ComplaintResponse{}, Page: normalizePage(filter.Page)}, nil
	}
	return s.list(ctx, viewer, filter, &listScope{"c.department_id = ANY($%d)", []interface{}{pq.Array(deptIDs)}}, false)
}

// UpdateOwn lets the submitter amend a still-pending complaint.
func (s *ComplaintService) UpdateOwn(ctx context.Context, actor *db.Principal, id string, req db.UpdateComplaintRequest) (*db.Complaint, error) {
	c, err := s.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Scoper.OwnsComplaint(c, actor.ID) {
		return nil, apperr.Forbidden("only the submitter can edit a complaint")
	}
	if c.Status != db.StatusPending {
		return nil, apperr.Conflict("complaint can no longer be edited")
	}

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		c.Title = t
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if d == "" {
			return nil, apperr.Validation("description cannot be empty")
		}
		c.Description = d
	}
	if req.Category != nil {
		if !db.ValidCategory(db.Category(*req.Category)) {
			return nil, apperr.Validation(fmt.Sprintf("unknown category '%s'", *req.Category))
		}
		c.Category = db.Category(*req.Category)
	}

	err = s.PG.QueryRowContext(ctx, `
		UPDATE complaints
		SET title = $1, description = $2, category = $3, updated_at = NOW()
		WHERE id = $4 AND is_deleted = false
		RETURNING updated_at
	`, c.Title, c.Description, string(c.Category), c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}
	return c, nil
}

// Delete soft-deletes a complaint. Only the submitter may delete,
// regardless of role. The row and its status logs stay in place.
func (s *ComplaintService) Delete(ctx context.Context, actor *db.Principal, id string) error {
	c, err := s.GetComplaint(ctx, id)
	if err != nil {
		return err
	}

	if !s.Scoper.OwnsComplaint(c, actor.ID) {
		return apperr.Forbidden("only the submitter can delete a complaint")
	}

	_, err = s.PG.ExecContext(ctx, `
		UPDATE complaints SET is_deleted = true, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete complaint: %w", err)
	}
	return nil
}

// AssignSupervisor sets the single assigned supervisor. Reassignment
// replaces the previous one.
func (s *ComplaintService) AssignSupervisor(ctx context.Context, complaintID, supervisorID string) (*db.Complaint, error) {
	c, err := s.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	var role string
	err = s.PG.QueryRowContext(ctx, `
		SELECT role FROM principals WHERE id = $1 AND is_active = true
	`, supervisorID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("supervisor")
		}
		return nil, fmt.Errorf("failed to load supervisor: %w", err)
	}
	if db.Role(role) != db.RoleSupervisor {
		return nil, apperr.Validation("assignee must have the supervisor role")
	}

	err = s.PG.QueryRowContext(ctx, `
		UPDATE complaints SET assigned_supervisor_id = $1, updated_at = NOW()
		WHERE id = $2 AND is_deleted = false
		RETURNING updated_at
	`, supervisorID, complaintID).Scan(&c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to assign supervisor: %w", err)
	}
	c.AssignedSupervisorID = &supervisorID
	return c, nil
}

// UpdateStatus performs the validated, atomic status transition. The
// current status is re-read under FOR UPDATE inside the transaction, so
// two concurrent transitions serialize and the loser fails validation
// against the winner's result. The status update and the audit log
// append commit together or not at all; the submitter notification is
// created after commit, best effort.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *db.Principal, complaintID string, newStatus db.Status) (*db.Complaint, error) {
	if !db.ValidStatus(newStatus) {
		return nil, apperr.Validation(fmt.Sprintf("unknown status '%s'", newStatus))
	}

	c, err := s.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if !s.Scoper.InTransitionScope(ctx, actor, c) {
		return nil, apperr.Forbidden("complaint is outside your scope")
	}

	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current db.Status
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM complaints WHERE id = $1 AND is_deleted = false FOR UPDATE
	`, complaintID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("complaint")
		}
		return nil, fmt.Errorf("failed to lock complaint: %w", err)
	}

	if !db.CanTransition(current, newStatus) {
		return nil, &apperr.InvalidTransitionError{OldStatus: string(current), NewStatus: string(newStatus)}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE complaints SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND is_deleted = false
	`, string(newStatus), complaintID, string(current))
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.Conflict("complaint status changed concurrently")
	}

	logID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO status_logs (id, complaint_id, changed_by, changed_by_role, old_status, new_status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, logID, complaintID, actor.ID, string(actor.Role), string(current), string(newStatus))
	if err != nil {
		return nil, fmt.Errorf("failed to append status log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status transition: %w", err)
	}

	c.Status = newStatus

	if s.Notifications != nil {
		message := fmt.Sprintf("Your complaint '%s' is now %s", c.Title, newStatus)
		if _, err := s.Notifications.Create(ctx, c.SubmittedBy, message); err != nil {
			log.Printf("Failed to create notification for complaint %s: %v", complaintID, err)
		}
	}

	return c, nil
}

// AssignmentsOverview groups each active supervisor with the complaints
// currently assigned to them.
func (s *ComplaintService) AssignmentsOverview(ctx context.Context, viewer *db.Principal) ([]db.SupervisorAssignments, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT id, user_name, full_name, email, role, is_active, created_at, updated_at
		FROM principals WHERE role = 'supervisor' AND is_active = true
		ORDER BY full_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisors: %w", err)
	}
	defer rows.Close()

	var overview []db.SupervisorAssignments
	for rows.Next() {
		var p db.Principal
		if err := rows.Scan(&p.ID, &p.UserName, &p.FullName, &p.Email, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supervisor: %w", err)
		}
		overview = append(overview, db.SupervisorAssignments{Supervisor: p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range overview {
		page, err := s.list(ctx, viewer, db.ComplaintFilter{Limit: 100},
			&listScope{"c.assigned_supervisor_id = $%d", []interface{}{overview[i].Supervisor.ID}}, false)
		if err != nil {
			return nil, err
		}
		overview[i].Complaints = page.Complaints
	}
	return overview, nil
}

// ===========================
// internal query helpers
// ===========================

const complaintSelect = `
	SELECT c.id, c.title, c.description, c.category, c.department_id, d.name,
	       c.submitted_by, p.full_name, p.email, c.is_anonymous, c.status,
	       c.image_url, c.image_public_id, c.video_url, c.video_public_id,
	       c.assigned_supervisor_id, sup.full_name,
	       c.created_at, c.updated_at
	FROM complaints c
	JOIN departments d ON d.id = c.department_id
	JOIN principals p ON p.id = c.submitted_by
	LEFT JOIN principals sup ON sup.id = c.assigned_supervisor_id
`

// list builds the filtered, paginated query from an optional scope
// fragment plus the caller-supplied filters.
func (s *ComplaintService) list(ctx context.Context, viewer *db.Principal, filter db.ComplaintFilter, scope *listScope, audit bool) (*db.ComplaintPage, error) {
	conditions := []string{"c.is_deleted = false"}
	args := []interface{}{}
	argIndex := 1

	if scope != nil {
		indices := make([]interface{}, len(scope.args))
		for i := range scope.args {
			indices[i] = argIndex
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf(scope.clause, indices...))
		args = append(args, scope.args...)
	}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("c.department_id = $%d", argIndex))
		args = append(args, filter.DepartmentID)
		argIndex++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.IsAnonymous != nil {
		conditions = append(conditions, fmt.Sprintf("c.is_anonymous = $%d", argIndex))
		args = append(args, *filter.IsAnonymous)
		argIndex++
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("c.created_at >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("c.created_at <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM complaints c" + where
	if err := s.PG.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count complaints: %w", err)
	}

	page := normalizePage(filter.Page)
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := complaintSelect + where +
		fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	complaints := []db.ComplaintResponse{}
	for rows.Next() {
		resp, c, err := scanComplaintRow(rows)
		if err != nil {
			return nil, err
		}
		authz.RedactComplaint(viewer, c, resp, audit)
		complaints = append(complaints, *resp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return &db.ComplaintPage{
		Complaints: complaints,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// listSupervisorScope lists complaints a supervisor may see: assigned
// to them or in a department they head.
func (s *ComplaintService) listSupervisorScope(ctx context.Context, viewer *db.Principal, filter db.ComplaintFilter, deptIDs []string) (*db.ComplaintPage, error) {
	if len(deptIDs) == 0 {
		return s.list(ctx, viewer, filter, &listScope{"c.assigned_supervisor_id = $%d", []interface{}{viewer.ID}}, false)
	}
	return s.list(ctx, viewer, filter, &listScope{
		"(c.assigned_supervisor_id = $%d OR c.department_id = ANY($%d))",
		[]interface{}{viewer.ID, pq.Array(deptIDs)},
	}, false)
}

func scanComplaintRow(rows *sql.Rows) (*db.ComplaintResponse, *db.Complaint, error) {
	var resp db.ComplaintResponse
	var submitter db.SubmitterInfo
	var imageURL, imagePublicID, videoURL, videoPublicID sql.NullString
	var assignedTo, assignedName sql.NullString

	err := rows.Scan(&resp.ID, &resp.Title, &resp.Description, &resp.Category,
		&resp.DepartmentID, &resp.DepartmentName,
		&submitter.ID, &submitter.FullName, &submitter.Email,
		&resp.IsAnonymous, &resp.Status,
		&imageURL, &imagePublicID, &videoURL, &videoPublicID,
		&assignedTo, &assignedName,
		&resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan complaint: %w", err)
	}

	resp.SubmittedBy = &submitter
	if imageURL.Valid {
		resp.Image = &db.MediaRef{URL: imageURL.String, PublicID: imagePublicID.String}
	}
	if videoURL.Valid {
		resp.Video = &db.MediaRef{URL: videoURL.String, PublicID: videoPublicID.String}
	}
	if assignedTo.Valid {
		resp.AssignedSupervisorID = &assignedTo.String
		resp.AssignedSupervisor = assignedName.String
	}

	c := &db.Complaint{
		ID:          resp.ID,
		SubmittedBy: submitter.ID,
		IsAnonymous: resp.IsAnonymous,
	}
	return &resp, c, nil
}

// buildResponse loads the join data for a single complaint.
func (s *ComplaintService) buildResponse(ctx context.Context, c *db.Complaint) (*db.ComplaintResponse, error) {
	resp := &db.ComplaintResponse{
		ID:                   c.ID,
		Title:                c.Title,
		Description:          c.Description,
		Category:             c.Category,
		DepartmentID:         c.DepartmentID,
		IsAnonymous:          c.IsAnonymous,
		Status:               c.Status,
		Image:                c.Image,
		Video:                c.Video,
		AssignedSupervisorID: c.AssignedSupervisorID,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}

	if err := s.PG.QueryRowContext(ctx, `
		SELECT name FROM departments WHERE id = $1
	`, c.DepartmentID).Scan(&resp.DepartmentName); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load department name: %w", err)
	}

	var submitter db.SubmitterInfo
	if err := s.PG.QueryRowContext(ctx, `
		SELECT id, full_name, email FROM principals WHERE id = $1
	`, c.SubmittedBy).Scan(&submitter.ID, &submitter.FullName, &submitter.Email); err == nil {
		resp.SubmittedBy = &submitter
	}

	if c.AssignedSupervisorID != nil {
		if err := s.PG.QueryRowContext(ctx, `
			SELECT full_name FROM principals WHERE id = $1
		`, *c.AssignedSupervisorID).Scan(&resp.AssignedSupervisor); err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to load supervisor name: %w", err)
		}
	}

	return resp, nil
}

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
