package account

import (
	"context"
	"fmt"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetPermissions(ctx context.Context, id int64) ([]string, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	perms, err := s.repo.GetPermissions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account permissions: %w", err)
	}
	a.Permissions = perms

	return a, nil
}

// GetCreatedAt returns the creation time that anchors casual leave accrual.
func (s *Service) GetCreatedAt(ctx context.Context, id int64) (time.Time, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return a.CreatedAt, nil
}

func (s *Service) ListActiveIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListActiveIDs(ctx)
}
