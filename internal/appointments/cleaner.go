package appointments

import (
	"context"
	"time"

	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Cleaner periodically removes expired appointments.
type Cleaner struct {
	service  *Service
	interval time.Duration
	logger   *logging.Logger
}

// NewCleaner creates a cleanup worker. A non-positive interval defaults to one hour.
func NewCleaner(service *Service, interval time.Duration, logger *logging.Logger) *Cleaner {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Cleaner{service: service, interval: interval, logger: logger}
}

// Start runs until ctx is cancelled, sweeping once immediately.
func (c *Cleaner) Start(ctx context.Context) {
	c.sweep(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	if _, err := c.service.CleanupExpired(ctx); err != nil {
		c.logger.Error("appointment cleanup failed", "error", err)
	}
}
