package event

import (
	"context"
	"time"

	"github.com/ecell-portal/internal/domain"
)

// upcomingLimit caps the homepage listing, matching the portal UI.
const upcomingLimit = 6

type Service interface {
	ListUpcoming(ctx context.Context) ([]domain.Event, error)
}

type eventStore interface {
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]domain.Event, error)
}

type service struct {
	repo eventStore
}

func NewService(repo eventStore) Service {
	return &service{repo: repo}
}

func (s *service) ListUpcoming(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListUpcoming(ctx, time.Now().UTC(), upcomingLimit)
}
