package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunExpirationSweep периодически закрывает просроченные позиции заказов и
// возвращает освободившиеся аккаунты на склад. Блокируется до отмены ctx.
func (s *Service) RunExpirationSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _, _ = s.SweepExpired(ctx)
		}
	}
}

// SweepExpired выполняет один проход закрытия просроченных позиций.
func (s *Service) SweepExpired(ctx context.Context) (int64, int64, error) {
	expired, released, err := s.repo.ExpireItems(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("expiration sweep failed", zap.Error(err))
		}
		return 0, 0, err
	}

	if expired > 0 || released > 0 {
		s.invalidate(ctx, catalogCacheKey)
		s.logger.Info("expiration sweep finished",
			zap.Int64("expiredItems", expired),
			zap.Int64("releasedAccounts", released),
		)
	}
	return expired, released, nil
}
