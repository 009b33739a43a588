package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/db"
)

type PrincipalService struct {
	PG *sql.DB
}

func NewPrincipalService(pg *sql.DB) *PrincipalService {
	return &PrincipalService{PG: pg}
}

// GetPrincipal loads a principal with department memberships attached.
func (s *PrincipalService) GetPrincipal(ctx context.Context, id string) (*db.Principal, error) {
	var p db.Principal
	var roleType sql.NullString
	var fcmToken sql.NullString
	err := s.PG.QueryRowContext(ctx, `
		SELECT p.id, p.user_name, p.full_name, p.email, p.role, p.role_type, p.fcm_token,
		       p.is_active, p.created_at, p.updated_at,
		       COALESCE(array_agg(pd.department_id) FILTER (WHERE pd.department_id IS NOT NULL), '{}')
		FROM principals p
		LEFT JOIN principal_departments pd ON pd.principal_id = p.id
		WHERE p.id = $1
		GROUP BY p.id
	`, id).Scan(&p.ID, &p.UserName, &p.FullName, &p.Email, &p.Role, &roleType, &fcmToken,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt, pq.Array(&p.Departments))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}
	if roleType.Valid {
		p.RoleType = db.RoleType(roleType.String)
	}
	if fcmToken.Valid {
		p.FCMToken = fcmToken.String
	}
	return &p, nil
}

// ListSupervisors returns all active supervisors.
func (s *PrincipalService) ListSupervisors(ctx context.Context) ([]db.Principal, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT id, user_name, full_name, email, role, is_active, created_at, updated_at
		FROM principals
		WHERE role = 'supervisor' AND is_active = true
		ORDER BY full_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisors: %w", err)
	}
	defer rows.Close()

	var out []db.Principal
	for rows.Next() {
		var p db.Principal
		if err := rows.Scan(&p.ID, &p.UserName, &p.FullName, &p.Email, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supervisor: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateFCMToken stores the principal's device token for push delivery.
func (s *PrincipalService) UpdateFCMToken(ctx context.Context, principalID, token string) error {
	res, err := s.PG.ExecContext(ctx, `
		UPDATE principals SET fcm_token = $1, updated_at = NOW() WHERE id = $2
	`, token, principalID)
	if err != nil {
		return fmt.Errorf("failed to update fcm token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user")
	}
	return nil
}
