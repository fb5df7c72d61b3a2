package service

import (
	"context"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
)

// QueueService manages the browsable matchmaking queue. Queued players are
// visible to room hosts looking for a full lobby.
type QueueService struct {
	queue    repository.QueueRepository
	profiles repository.ProfileRepository
}

// NewQueueService returns a new QueueService.
func NewQueueService(queue repository.QueueRepository, profiles repository.ProfileRepository) *QueueService {
	return &QueueService{queue: queue, profiles: profiles}
}

// Join puts the user in the queue. Banned and unverified users cannot queue.
func (s *QueueService) Join(ctx context.Context, userID uint) (*models.QueueEntry, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsVerified {
		return nil, models.NewForbiddenError("Verify your Riot account before queueing")
	}
	if profile.IsBanned(time.Now()) {
		return nil, models.NewForbiddenError("Your account is currently banned")
	}

	entry := &models.QueueEntry{UserID: userID, JoinedAt: time.Now()}
	if err := s.queue.Join(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Leave removes the user's queue entry. Leaving while not queued is a no-op.
func (s *QueueService) Leave(ctx context.Context, userID uint) error {
	return s.queue.Leave(ctx, userID)
}

// Status returns the user's queue entry, or nil when not queued.
func (s *QueueService) Status(ctx context.Context, userID uint) (*models.QueueEntry, error) {
	return s.queue.GetByUser(ctx, userID)
}

// List returns queued players in join order for hosts browsing for invites.
func (s *QueueService) List(ctx context.Context, limit, offset int) ([]models.QueueEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.queue.List(ctx, limit, offset)
}
