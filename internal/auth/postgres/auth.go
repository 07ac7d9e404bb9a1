package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

type credentialsRow struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var row credentialsRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, email, password_hash, is_active FROM accounts WHERE email = ?`, email).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	if row.ID == 0 {
		return nil, auth.ErrUserNotFound
	}

	return &auth.Credentials{
		AccountID:    row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
	}, nil
}

func (r *Repository) GetUserWithPermissions(ctx context.Context, userID int64) (*auth.User, error) {
	db := r.db.WithContext(ctx)

	var user auth.User
	row := db.Raw(`SELECT id, email, name FROM accounts WHERE id = ? AND is_active = ?`, userID, true).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	rows, err := db.Raw(`SELECT p.name
	             FROM permissions p
	             JOIN account_permissions ap ON p.id = ap.permission_id
	             WHERE ap.account_id = ?
	             ORDER BY p.name`, userID).Rows()
	if err != nil {
		return nil, fmt.Errorf("get permissions: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	user.Permissions = permissions
	return &user, nil
}
