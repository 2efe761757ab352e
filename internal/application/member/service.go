package member

import (
	"context"

	"github.com/ecell-portal/internal/domain"
)

type Service interface {
	Get(ctx context.Context, memberID string) (*domain.Member, error)
}

type memberStore interface {
	Get(ctx context.Context, memberID string) (*domain.Member, error)
}

type service struct {
	repo memberStore
}

func NewService(repo memberStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, memberID string) (*domain.Member, error) {
	return s.repo.Get(ctx, memberID)
}
