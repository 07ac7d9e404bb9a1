package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// PermissionAdmin grants the admin role.
const PermissionAdmin = "admin"

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	// RoleSystem identifies operator commands that run without an account.
	RoleSystem Role = "system"
)

// AuthContext is the caller identity handed to every leave operation.
type AuthContext struct {
	AccountID int64
	Role      Role
}

func (a AuthContext) Authenticated() bool {
	return a.AccountID > 0 || a.Role == RoleSystem
}

func (a AuthContext) IsAdmin() bool {
	if a.Role == RoleSystem {
		return true
	}
	return a.AccountID > 0 && a.Role == RoleAdmin
}

func SystemContext() AuthContext {
	return AuthContext{Role: RoleSystem}
}

type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasPermission(PermissionAdmin)
}

func (u *User) Role() Role {
	if u.IsAdmin() {
		return RoleAdmin
	}
	return RoleMember
}

func (u *User) AuthContext() AuthContext {
	if u == nil {
		return AuthContext{}
	}
	return AuthContext{AccountID: u.ID, Role: u.Role()}
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

// AuthContextFrom returns the identity attached by AuthMiddleware, or the
// zero AuthContext when the request is anonymous.
func AuthContextFrom(ctx context.Context) AuthContext {
	u, ok := UserFromContext(ctx)
	if !ok {
		return AuthContext{}
	}
	return u.AuthContext()
}

// Credentials is what login needs to know about an account.
type Credentials struct {
	AccountID    int64
	Email        string
	PasswordHash string
	IsActive     bool
}

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUserNotFound       = errors.New("user not found")
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
