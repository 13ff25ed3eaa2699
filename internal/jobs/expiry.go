package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const expiryJobName = "expire-stale-bookings"

// ExpiryJob периодически переводит просроченные бронирования в expired
type ExpiryJob struct {
	sweeper BookingSweeper
	clock   Clock
	timeout time.Duration
	logger  Logger
}

// NewExpiryJob создает задачу очистки; timeout ограничивает один проход
func NewExpiryJob(sweeper BookingSweeper, clock Clock, timeout time.Duration, logger Logger) *ExpiryJob {
	return &ExpiryJob{
		sweeper: sweeper,
		clock:   clock,
		timeout: timeout,
		logger:  logger,
	}
}

// Schedule регистрирует задачу в планировщике
// Следующий запуск пропускается, пока предыдущий не завершился
func (j *ExpiryJob) Schedule(s gocron.Scheduler, interval time.Duration) (gocron.Job, error) {
	job, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.Run),
		gocron.WithName(expiryJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", expiryJobName, err)
	}

	j.logger.Info("ExpiryJob: scheduled every %s, job id=%s", interval, job.ID())
	return job, nil
}

// Run выполняет один проход очистки
func (j *ExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	expired, err := j.sweeper.ExpireStaleBookings(ctx, j.clock.Now())
	if err != nil {
		j.logger.Error("ExpiryJob: sweep failed after %d bookings: %v", expired, err)
		return
	}
	if expired > 0 {
		j.logger.Info("ExpiryJob: expired %d bookings", expired)
	}
}
