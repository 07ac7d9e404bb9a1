package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/leave-management/internal/account"
	accountDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/account"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	var row accountDatamodel.Account
	query := r.db.Rebind(`SELECT id, email, name, password_hash, COALESCE(department, '') AS department,
		is_active, created_at, updated_at FROM accounts WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account.FromDataModel(&row), nil
}

func (r *Repository) GetPermissions(ctx context.Context, id int64) ([]string, error) {
	permissions := []string{}
	query := r.db.Rebind(`SELECT p.name FROM permissions p
		JOIN account_permissions ap ON ap.permission_id = p.id
		WHERE ap.account_id = ? ORDER BY p.name`)
	if err := r.db.SelectContext(ctx, &permissions, query, id); err != nil {
		return nil, fmt.Errorf("get permissions: %w", err)
	}
	return permissions, nil
}

func (r *Repository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	query := r.db.Rebind(`SELECT id FROM accounts WHERE is_active = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &ids, query, true); err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	return ids, nil
}
