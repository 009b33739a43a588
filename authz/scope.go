package authz

import (
	"context"
	"database/sql"
	"log"

	"github.com/campusgrid/grievance/db"
)

// Scoper answers entity-scope questions using direct SQL queries. It
// only reads; all mutation happens in the service layer.
type Scoper struct {
	db *sql.DB
}

// NewScoper creates a new Scoper with the given database connection
func NewScoper(database *sql.DB) *Scoper {
	return &Scoper{db: database}
}

// OwnsComplaint reports whether principalID submitted the complaint.
// The complaint entity must already have been loaded by the caller, so
// a false here means forbidden, never not-found.
func (s *Scoper) OwnsComplaint(c *db.Complaint, principalID string) bool {
	return c != nil && c.SubmittedBy == principalID
}

// IsAssignedSupervisor reports whether principalID is the supervisor
// currently assigned to the complaint.
func (s *Scoper) IsAssignedSupervisor(c *db.Complaint, principalID string) bool {
	return c != nil && c.AssignedSupervisorID != nil && *c.AssignedSupervisorID == principalID
}

// HeadedDepartmentIDs returns the ids of departments the admin heads.
// Main admins have global scope and never need this.
func (s *Scoper) HeadedDepartmentIDs(ctx context.Context, adminID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM departments WHERE head_admin_id = $1
	`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// SupervisorDepartmentIDs returns the ids of departments the
// supervisor heads.
func (s *Scoper) SupervisorDepartmentIDs(ctx context.Context, supervisorID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM departments WHERE head_supervisor_id = $1
	`, supervisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// MemberDepartmentIDs returns the departments a principal belongs to.
func (s *Scoper) MemberDepartmentIDs(ctx context.Context, principalID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT department_id FROM principal_departments WHERE principal_id = $1
	`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// InManagedScope reports whether the complaint's department is among
// the departments the principal manages. Main admins always pass.
func (s *Scoper) InManagedScope(ctx context.Context, p *db.Principal, c *db.Complaint) bool {
	if p == nil || c == nil {
		return false
	}
	if p.IsMainAdmin() {
		return true
	}
	var deptIDs []string
	var err error
	switch {
	case p.Role == db.RoleSupervisor:
		if s.IsAssignedSupervisor(c, p.ID) {
			return true
		}
		deptIDs, err = s.SupervisorDepartmentIDs(ctx, p.ID)
	case p.IsDepartmentAdmin():
		deptIDs, err = s.HeadedDepartmentIDs(ctx, p.ID)
	default:
		return false
	}
	if err != nil {
		log.Printf("Error resolving department scope for %s: %v", p.ID, err)
		return false
	}
	for _, id := range deptIDs {
		if id == c.DepartmentID {
			return true
		}
	}
	return false
}

// InTransitionScope reports whether the principal may move the
// complaint through its status lifecycle. Supervisors must be the
// assigned supervisor; heading the complaint's department is not
// enough to mutate it. Admins follow their management scope.
func (s *Scoper) InTransitionScope(ctx context.Context, p *db.Principal, c *db.Complaint) bool {
	if p == nil || c == nil {
		return false
	}
	if p.Role == db.RoleSupervisor {
		return s.IsAssignedSupervisor(c, p.ID)
	}
	return s.InManagedScope(ctx, p, c)
}

// SharesManagedDepartment reports whether any of the target principal's
// departments is headed by the admin. Used for the user-activity audit
// query. Main admins always pass.
func (s *Scoper) SharesManagedDepartment(ctx context.Context, admin *db.Principal, targetID string) bool {
	if admin == nil {
		return false
	}
	if admin.IsMainAdmin() {
		return true
	}
	if !admin.IsDepartmentAdmin() {
		return false
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM principal_departments pd
		JOIN departments d ON d.id = pd.department_id
		WHERE pd.principal_id = $1 AND d.head_admin_id = $2
	`, targetID, admin.ID).Scan(&n)
	if err != nil {
		log.Printf("Error checking shared department scope: %v", err)
		return false
	}
	return n > 0
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
