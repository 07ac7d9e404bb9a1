package account

import (
	"fmt"
	"time"

	apperrors "github.com/frahmantamala/leave-management/internal"
	accountDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/account"
)

type Account struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Department  string    `json:"department"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *Account) HasPermission(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

var ErrNotFound = fmt.Errorf("account %w", apperrors.ErrRecordNotFound)

func FromDataModel(a *accountDatamodel.Account) *Account {
	return &Account{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Department:  a.Department,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Permissions: []string{},
	}
}

func FromDataModelWithPermissions(a *accountDatamodel.Account, permissions []string) *Account {
	acc := FromDataModel(a)
	if permissions != nil {
		acc.Permissions = permissions
	}
	return acc
}
