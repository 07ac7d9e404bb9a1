package account

import "time"

type Account struct {
	ID           int64     `gorm:"primaryKey" db:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" db:"email"`
	Name         string    `gorm:"column:name;not null" db:"name"`
	PasswordHash string    `gorm:"column:password_hash;not null" db:"password_hash"`
	Department   string    `gorm:"column:department" db:"department"`
	IsActive     bool      `gorm:"column:is_active" db:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at" db:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" db:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

type Permission struct {
	ID          int64     `gorm:"primaryKey" db:"id"`
	Name        string    `gorm:"column:name;uniqueIndex;not null" db:"name"`
	Description string    `gorm:"column:description" db:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" db:"created_at"`
}

func (Permission) TableName() string {
	return "permissions"
}

type AccountPermission struct {
	ID           int64     `gorm:"primaryKey" db:"id"`
	AccountID    int64     `gorm:"column:account_id;not null;uniqueIndex:idx_account_permissions_pair,priority:1" db:"account_id"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_account_permissions_pair,priority:2" db:"permission_id"`
	GrantedBy    *int64    `gorm:"column:granted_by" db:"granted_by"`
	CreatedAt    time.Time `gorm:"column:created_at" db:"created_at"`
}

func (AccountPermission) TableName() string {
	return "account_permissions"
}
