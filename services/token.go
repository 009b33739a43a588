package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusgrid/grievance/db"
)

// TokenService issues and validates the API's own HS256 token pair.
// Access tokens are short-lived and self-contained; refresh tokens are
// long-lived and additionally tracked server-side so logout can revoke
// them.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// Claims carried by both token kinds. TokenKind distinguishes them so
// a refresh token can never pass as an access token.
type Claims struct {
	PrincipalID string      `json:"sub"`
	Role        db.Role     `json:"role"`
	RoleType    db.RoleType `json:"role_type,omitempty"`
	TokenKind   string      `json:"kind"`
	jwt.RegisteredClaims
}

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// GenerateAccessToken creates a short-lived access token for p.
func (s *TokenService) GenerateAccessToken(p *db.Principal) (string, error) {
	return s.sign(p, tokenKindAccess, s.accessSecret, s.accessTTL)
}

// GenerateRefreshToken creates a long-lived refresh token for p.
func (s *TokenService) GenerateRefreshToken(p *db.Principal) (string, error) {
	return s.sign(p, tokenKindRefresh, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) sign(p *db.Principal, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		PrincipalID: p.ID,
		Role:        p.Role,
		RoleType:    p.RoleType,
		TokenKind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccessToken parses and verifies an access token.
func (s *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, tokenKindAccess, s.accessSecret)
}

// ValidateRefreshToken parses and verifies a refresh token.
func (s *TokenService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, tokenKindRefresh, s.refreshSecret)
}

func (s *TokenService) validate(tokenString, kind string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenKind != kind {
		return nil, fmt.Errorf("token kind mismatch: got %s", claims.TokenKind)
	}
	return claims, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
