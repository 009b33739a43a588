package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/db"
)

type AuthService struct {
	PG     *sql.DB
	Tokens *TokenService
}

type RegisterRequest struct {
	UserName    string   `json:"user_name" binding:"required"`
	FullName    string   `json:"full_name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=8"`
	Role        string   `json:"role"`
	RoleType    string   `json:"role_type"`
	Departments []string `json:"departments"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User         db.Principal `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Message      string       `json:"message"`
}

func NewAuthService(pg *sql.DB, tokens *TokenService) *AuthService {
	return &AuthService{
		PG:     pg,
		Tokens: tokens,
	}
}

// HashPassword creates a bcrypt hash of the password
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// Register creates a principal. Role defaults to 'user'; role_type is
// only accepted for admins.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*db.Principal, error) {
	role := db.Role(req.Role)
	if req.Role == "" {
		role = db.RoleUser
	}
	if !db.ValidRole(role) {
		return nil, apperr.Validation(fmt.Sprintf("unknown role '%s'", req.Role))
	}

	var roleType db.RoleType
	if role == db.RoleAdmin {
		roleType = db.RoleType(req.RoleType)
		if req.RoleType == "" {
			roleType = db.RoleTypeDepartmentAdmin
		}
		if !db.ValidRoleType(roleType) {
			return nil, apperr.Validation(fmt.Sprintf("unknown role_type '%s'", req.RoleType))
		}
	} else if req.RoleType != "" {
		return nil, apperr.Validation("role_type is only valid for admins")
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM principals WHERE email = $1 OR user_name = $2)
	`, req.Email, req.UserName).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing principal: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("email or user name already registered")
	}

	p := &db.Principal{
		ID:          uuid.New().String(),
		UserName:    req.UserName,
		FullName:    req.FullName,
		Email:       req.Email,
		Role:        role,
		RoleType:    roleType,
		Departments: req.Departments,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	var roleTypeArg interface{}
	if roleType != "" {
		roleTypeArg = string(roleType)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO principals (id, user_name, full_name, email, password_hash, role, role_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, $9)
	`, p.ID, p.UserName, p.FullName, p.Email, hash, string(p.Role), roleTypeArg, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}

	for _, deptID := range req.Departments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO principal_departments (principal_id, department_id) VALUES ($1, $2)
		`, p.ID, deptID)
		if err != nil {
			return nil, fmt.Errorf("failed to attach department %s: %w", deptID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	return p, nil
}

// Login verifies credentials and issues the token pair.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var p db.Principal
	var hash string
	var roleType sql.NullString
	err := s.PG.QueryRowContext(ctx, `
		SELECT id, user_name, full_name, email, password_hash, role, role_type, is_active, created_at, updated_at
		FROM principals WHERE email = $1
	`, req.Email).Scan(&p.ID, &p.UserName, &p.FullName, &p.Email, &hash, &p.Role, &roleType, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}
	if roleType.Valid {
		p.RoleType = db.RoleType(roleType.String)
	}

	if !p.IsActive {
		return nil, fmt.Errorf("account disabled: %w", apperr.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}

	access, err := s.Tokens.GenerateAccessToken(&p)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.Tokens.GenerateRefreshToken(&p)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.storeRefreshToken(ctx, p.ID, refresh); err != nil {
		return nil, err
	}

	return &LoginResponse{
		User:         p,
		AccessToken:  access,
		RefreshToken: refresh,
		Message:      "login successful",
	}, nil
}

// Refresh rotates the token pair. The presented refresh token must be
// valid, unexpired and not revoked; it is revoked on use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.Tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthorized)
	}

	tokenHash := hashToken(refreshToken)
	var tokenID string
	err = s.PG.QueryRowContext(ctx, `
		SELECT id FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`, tokenHash).Scan(&tokenID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token revoked or unknown: %w", apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if _, err := s.PG.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW() WHERE id = $1
	`, tokenID); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	var p db.Principal
	var roleType sql.NullString
	err = s.PG.QueryRowContext(ctx, `
		SELECT id, user_name, full_name, email, role, role_type, is_active, created_at, updated_at
		FROM principals WHERE id = $1 AND is_active = true
	`, claims.PrincipalID).Scan(&p.ID, &p.UserName, &p.FullName, &p.Email, &p.Role, &roleType, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("principal no longer active: %w", apperr.ErrUnauthorized)
	}
	if roleType.Valid {
		p.RoleType = db.RoleType(roleType.String)
	}

	access, err := s.Tokens.GenerateAccessToken(&p)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.Tokens.GenerateRefreshToken(&p)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	if err := s.storeRefreshToken(ctx, p.ID, refresh); err != nil {
		return nil, err
	}

	return &LoginResponse{
		User:         p,
		AccessToken:  access,
		RefreshToken: refresh,
		Message:      "token refreshed",
	}, nil
}

// UpdateAccountRequest carries the self-service profile fields. Nil
// fields are left untouched.
type UpdateAccountRequest struct {
	FullName *string `json:"full_name,omitempty"`
	UserName *string `json:"user_name,omitempty"`
}

// UpdateAccount lets a principal change their own profile fields.
func (s *AuthService) UpdateAccount(ctx context.Context, principalID string, req UpdateAccountRequest) error {
	if req.FullName == nil && req.UserName == nil {
		return apperr.Validation("nothing to update")
	}

	if req.UserName != nil {
		name := *req.UserName
		if name == "" {
			return apperr.Validation("user_name cannot be empty")
		}
		var taken bool
		err := s.PG.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM principals WHERE user_name = $1 AND id != $2)
		`, name, principalID).Scan(&taken)
		if err != nil {
			return fmt.Errorf("failed to check user name: %w", err)
		}
		if taken {
			return apperr.Conflict("user name already taken")
		}
		if _, err := s.PG.ExecContext(ctx, `
			UPDATE principals SET user_name = $1, updated_at = NOW() WHERE id = $2
		`, name, principalID); err != nil {
			return fmt.Errorf("failed to update user name: %w", err)
		}
	}

	if req.FullName != nil {
		if *req.FullName == "" {
			return apperr.Validation("full_name cannot be empty")
		}
		if _, err := s.PG.ExecContext(ctx, `
			UPDATE principals SET full_name = $1, updated_at = NOW() WHERE id = $2
		`, *req.FullName, principalID); err != nil {
			return fmt.Errorf("failed to update full name: %w", err)
		}
	}

	return nil
}

// ChangePassword verifies the current password before setting the new
// one, then revokes every outstanding refresh token.
func (s *AuthService) ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperr.Validation("new password must be at least 8 characters")
	}

	var hash string
	err := s.PG.QueryRowContext(ctx, `
		SELECT password_hash FROM principals WHERE id = $1 AND is_active = true
	`, principalID).Scan(&hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.NotFound("user")
		}
		return fmt.Errorf("failed to load principal: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", apperr.ErrUnauthorized)
	}

	newHash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.PG.ExecContext(ctx, `
		UPDATE principals SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, newHash, principalID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.Logout(ctx, principalID)
}

// Logout revokes all outstanding refresh tokens for the principal.
func (s *AuthService) Logout(ctx context.Context, principalID string) error {
	_, err := s.PG.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE principal_id = $1 AND revoked_at IS NULL
	`, principalID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	log.Printf("Revoked refresh tokens for principal %s", principalID)
	return nil
}

func (s *AuthService) storeRefreshToken(ctx context.Context, principalID, token string) error {
	_, err := s.PG.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, principal_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New().String(), principalID, hashToken(token), time.Now().Add(s.Tokens.refreshTTL))
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
