package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiredDeleter is implemented by session stores that need periodic
// sweeping. The Redis store expires entries natively and does not.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob periodically removes expired session keys from the store.
type CleanupJob struct {
	store    ExpiredDeleter
	interval time.Duration
	done     chan struct{}
}

func NewCleanupJob(store ExpiredDeleter, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("session cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("session cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.store.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to clean up expired session keys")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up expired session keys")
	}
}
