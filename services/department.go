package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/db"
)

// DepartmentService manages departments and head assignments. The
// main-admin role gate is enforced by middleware before any of these
// run; the service enforces the data invariants.
type DepartmentService struct {
	PG *sql.DB
}

func NewDepartmentService(pg *sql.DB) *DepartmentService {
	return &DepartmentService{PG: pg}
}

// normalizeName canonicalizes department names so uniqueness is
// case-insensitive.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateDepartment creates a department with a unique normalized name.
func (s *DepartmentService) CreateDepartment(ctx context.Context, name string) (*db.Department, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, apperr.Validation("department name is required")
	}

	var exists bool
	err := s.PG.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM departments WHERE name = $1)
	`, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check department name: %w", err)
	}
	if exists {
		return nil, apperr.Conflict(fmt.Sprintf("department '%s' already exists", name))
	}

	d := &db.Department{ID: uuid.New().String(), Name: name}
	err = s.PG.QueryRowContext(ctx, `
		INSERT INTO departments (id, name) VALUES ($1, $2)
		RETURNING created_at, updated_at
	`, d.ID, d.Name).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return d, nil
}

// GetDepartment loads one department with resolved head names.
func (s *DepartmentService) GetDepartment(ctx context.Context, id string) (*db.DepartmentResponse, error) {
	var resp db.DepartmentResponse
	var headSup, headAdmin, headSupName, headAdminName sql.NullString
	err := s.PG.QueryRowContext(ctx, `
		SELECT d.id, d.name, d.head_supervisor_id, d.head_admin_id, d.created_at, d.updated_at,
		       sup.full_name, adm.full_name
		FROM departments d
		LEFT JOIN principals sup ON sup.id = d.head_supervisor_id
		LEFT JOIN principals adm ON adm.id = d.head_admin_id
		WHERE d.id = $1
	`, id).Scan(&resp.ID, &resp.Name, &headSup, &headAdmin, &resp.CreatedAt, &resp.UpdatedAt,
		&headSupName, &headAdminName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("department")
		}
		return nil, fmt.Errorf("failed to load department: %w", err)
	}
	if headSup.Valid {
		resp.HeadSupervisorID = &headSup.String
		resp.HeadSupervisorName = headSupName.String
	}
	if headAdmin.Valid {
		resp.HeadAdminID = &headAdmin.String
		resp.HeadAdminName = headAdminName.String
	}
	return &resp, nil
}

// ListDepartments returns all departments with head names.
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]db.DepartmentResponse, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT d.id, d.name, d.head_supervisor_id, d.head_admin_id, d.created_at, d.updated_at,
		       sup.full_name, adm.full_name
		FROM departments d
		LEFT JOIN principals sup ON sup.id = d.head_supervisor_id
		LEFT JOIN principals adm ON adm.id = d.head_admin_id
		ORDER BY d.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	out := []db.DepartmentResponse{}
	for rows.Next() {
		var resp db.DepartmentResponse
		var headSup, headAdmin, headSupName, headAdminName sql.NullString
		err := rows.Scan(&resp.ID, &resp.Name, &headSup, &headAdmin, &resp.CreatedAt, &resp.UpdatedAt,
			&headSupName, &headAdminName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		if headSup.Valid {
			resp.HeadSupervisorID = &headSup.String
			resp.HeadSupervisorName = headSupName.String
		}
		if headAdmin.Valid {
			resp.HeadAdminID = &headAdmin.String
			resp.HeadAdminName = headAdminName.String
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// RenameDepartment changes a department's name, keeping uniqueness.
func (s *DepartmentService) RenameDepartment(ctx context.Context, id, name string) (*db.Department, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, apperr.Validation("department name is required")
	}

	var taken bool
	err := s.PG.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM departments WHERE name = $1 AND id != $2)
	`, name, id).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("failed to check department name: %w", err)
	}
	if taken {
		return nil, apperr.Conflict(fmt.Sprintf("department '%s' already exists", name))
	}

	d := &db.Department{ID: id, Name: name}
	err = s.PG.QueryRowContext(ctx, `
		UPDATE departments SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING created_at, updated_at
	`, name, id).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("department")
		}
		return nil, fmt.Errorf("failed to rename department: %w", err)
	}
	return d, nil
}

// DeleteDepartment removes an empty department. Departments with live
// complaints cannot be deleted.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id string) error {
	var inUse bool
	err := s.PG.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM complaints WHERE department_id = $1 AND is_deleted = false)
	`, id).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("failed to check department usage: %w", err)
	}
	if inUse {
		return apperr.Conflict("department has open complaints")
	}

	res, err := s.PG.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("department")
	}
	return nil
}

// AssignHead makes a supervisor or admin the head of a department. A
// principal heads at most one department: assigning them the same
// department again is an idempotent no-op, assigning a different one
// while they still head another is a conflict. The invariant is
// re-checked inside the transaction so concurrent assignments cannot
// both commit.
func (s *DepartmentService) AssignHead(ctx context.Context, departmentID, principalID string) (*db.DepartmentResponse, error) {
	var role string
	err := s.PG.QueryRowContext(ctx, `
		SELECT role FROM principals WHERE id = $1 AND is_active = true
	`, principalID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	var column string
	switch db.Role(role) {
	case db.RoleSupervisor:
		column = "head_supervisor_id"
	case db.RoleAdmin:
		column = "head_admin_id"
	default:
		return nil, apperr.Validation("department heads must be supervisors or admins")
	}

	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM departments WHERE id = $1)
	`, departmentID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check department: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("department")
	}

	// re-check the one-department invariant under the transaction
	var current sql.NullString
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id FROM departments WHERE %s = $1 FOR UPDATE
	`, column), principalID).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing headship: %w", err)
	}
	if current.Valid {
		if current.String == departmentID {
			// idempotent re-assignment
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit head assignment: %w", err)
			}
			return s.GetDepartment(ctx, departmentID)
		}
		return nil, apperr.Conflict("user already heads another department")
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE departments SET %s = $1, updated_at = NOW() WHERE id = $2
	`, column), principalID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign department head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit head assignment: %w", err)
	}

	return s.GetDepartment(ctx, departmentID)
}

// RemoveHead clears a department's head slot for the given role kind.
func (s *DepartmentService) RemoveHead(ctx context.Context, departmentID string, role db.Role) error {
	var column string
	switch role {
	case db.RoleSupervisor:
		column = "head_supervisor_id"
	case db.RoleAdmin:
		column = "head_admin_id"
	default:
		return apperr.Validation("head role must be supervisor or admin")
	}

	res, err := s.PG.ExecContext(ctx, fmt.Sprintf(`
		UPDATE departments SET %s = NULL, updated_at = NOW() WHERE id = $1
	`, column), departmentID)
	if err != nil {
		return fmt.Errorf("failed to remove department head: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("department")
	}
	return nil
}
