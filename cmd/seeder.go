package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/leave-management/internal/auth"
	accountDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/account"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

var (
	clearData    bool
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample accounts for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		app, err := newApplication(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}

		return app.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
			}
			return seedAccounts(tx, string(hash), time.Now().UTC(), func(format string, args ...any) {
				cmd.Printf(format+"\n", args...)
			})
		})
	},
}

type seedAccount struct {
	Email       string
	Name        string
	Department  string
	JoinedAgo   time.Duration
	Permissions []string
}

var sampleAccounts = []seedAccount{
	{Email: "admin@example.com", Name: "Admin", Department: "People Ops", JoinedAgo: 3 * 365 * 24 * time.Hour, Permissions: []string{auth.PermissionAdmin}},
	{Email: "member@example.com", Name: "Member", Department: "Engineering", JoinedAgo: 400 * 24 * time.Hour},
	{Email: "newcomer@example.com", Name: "Newcomer", Department: "Engineering", JoinedAgo: 30 * 24 * time.Hour},
}

func seedAccounts(tx *gorm.DB, passwordHash string, now time.Time, report func(string, ...any)) error {
	admin := accountDatamodel.Permission{Name: auth.PermissionAdmin, Description: "approve leave and manage balances", CreatedAt: now}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&admin).Error; err != nil {
		return fmt.Errorf("seed permission: %w", err)
	}
	if err := tx.Where("name = ?", auth.PermissionAdmin).First(&admin).Error; err != nil {
		return fmt.Errorf("load permission: %w", err)
	}
	permissions := map[string]accountDatamodel.Permission{admin.Name: admin}

	for _, s := range sampleAccounts {
		joined := now.Add(-s.JoinedAgo)
		acc := accountDatamodel.Account{
			Email:        s.Email,
			Name:         s.Name,
			PasswordHash: passwordHash,
			Department:   s.Department,
			IsActive:     true,
			CreatedAt:    joined,
			UpdatedAt:    joined,
		}
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(&acc)
		if res.Error != nil {
			return fmt.Errorf("seed account %s: %w", s.Email, res.Error)
		}
		if res.RowsAffected == 0 {
			report("account %s already exists", s.Email)
			if err := tx.Where("email = ?", s.Email).First(&acc).Error; err != nil {
				return fmt.Errorf("load account %s: %w", s.Email, err)
			}
		} else {
			report("seeded account %s (joined %s)", s.Email, joined.Format("2006-01-02"))
		}

		for _, name := range s.Permissions {
			perm, ok := permissions[name]
			if !ok {
				return fmt.Errorf("unknown permission %q for %s", name, s.Email)
			}
			grant := accountDatamodel.AccountPermission{AccountID: acc.ID, PermissionID: perm.ID, CreatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "account_id"}, {Name: "permission_id"}},
				DoNothing: true,
			}).Create(&grant).Error
			if err != nil {
				return fmt.Errorf("grant %s to %s: %w", name, s.Email, err)
			}
		}
	}
	return nil
}

func clearSeedData(tx *gorm.DB) error {
	for _, model := range []interface{}{
		&leaveDatamodel.LeaveRequest{},
		&leaveDatamodel.LeaveBalance{},
		&accountDatamodel.AccountPermission{},
		&accountDatamodel.Account{},
		&accountDatamodel.Permission{},
	} {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "Password of every seeded account")

	rootCmd.AddCommand(seedCmd)
}
