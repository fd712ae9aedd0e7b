package service

import (
	"context"
	"time"

	apprepository "github.com/sifan077/Linxify/internal/app/repository"
	"go.uber.org/zap"
)

// ResetTokenSweeper periodically clears password-reset tokens past their expiry.
type ResetTokenSweeper struct {
	logger   *zap.Logger
	repo     apprepository.UserRepository
	interval time.Duration
	stopChan chan struct{}
	now      func() time.Time
}

// NewResetTokenSweeper creates a sweeper running every interval.
func NewResetTokenSweeper(logger *zap.Logger, repo apprepository.UserRepository, interval time.Duration) *ResetTokenSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetTokenSweeper{
		logger:   logger,
		repo:     repo,
		interval: interval,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start begins the periodic sweep.
func (s *ResetTokenSweeper) Start() {
	go s.run()
}

// Stop stops the periodic sweep.
func (s *ResetTokenSweeper) Stop() {
	close(s.stopChan)
}

func (s *ResetTokenSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			s.logger.Info("reset token sweeper stopped")
			return
		}
	}
}

func (s *ResetTokenSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	now := s.now()
	affected, err := s.repo.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		s.logger.Error("failed to clear expired reset tokens", zap.Error(err))
		return
	}

	if affected > 0 {
		s.logger.Info("cleared expired reset tokens",
			zap.Int64("count", affected),
			zap.Time("expired_before", now),
		)
	}
}
