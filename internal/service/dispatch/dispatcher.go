package dispatch

import (
	"context"
	"sync"
	"time"
)

// Dispatcher выполняет внешние вызовы вне транзакций и блокировок
//
// Ошибка вызова только логируется и приводит к повторной попытке с
// экспоненциальной задержкой. До вызывающего ошибка не доходит: переход
// статуса уже закоммичен и не откатывается.
type Dispatcher struct {
	cfg     Config
	queue   chan Task
	metrics MetricsRecorder
	logger  Logger

	mu      sync.RWMutex
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New создает диспетчер; воркеры запускаются через Start
func New(cfg Config, metrics MetricsRecorder, logger Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}

	return &Dispatcher{
		cfg:     cfg,
		queue:   make(chan Task, cfg.QueueSize),
		metrics: metrics,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start запускает воркеры
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Info("Dispatcher: started workers=%d queue=%d attempts=%d", d.cfg.Workers, d.cfg.QueueSize, d.cfg.MaxAttempts)
}

// Submit ставит задачу в очередь, не блокируясь
func (d *Dispatcher) Submit(task Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.logger.Warn("Dispatcher: task %s %s dropped, dispatcher stopped", task.Kind, task.Name)
		return ErrStopped
	}

	select {
	case d.queue <- task:
		return nil
	default:
		d.logger.Error("Dispatcher: queue full, task %s %s dropped", task.Kind, task.Name)
		d.observeFailure(task.Kind)
		return ErrQueueFull
	}
}

// Stop перестаёт принимать задачи и дожидается обработки очереди
// Отложенные ретраи отбрасываются
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopCh)
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Dispatcher: stopped")
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(task)
	}
}

func (d *Dispatcher) run(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.CallTimeout)
	err := task.Run(ctx)
	cancel()

	if err == nil {
		return
	}

	task.attempt++
	d.observeFailure(task.Kind)

	if task.attempt >= d.cfg.MaxAttempts {
		d.logger.Error("Dispatcher: %s %s failed after %d attempts: %v", task.Kind, task.Name, task.attempt, err)
		return
	}

	delay := d.cfg.Backoff << (task.attempt - 1)
	d.logger.Warn("Dispatcher: %s %s attempt=%d failed, retry in %s: %v", task.Kind, task.Name, task.attempt, delay, err)
	d.scheduleRetry(task, delay)
}

func (d *Dispatcher) scheduleRetry(task Task, delay time.Duration) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-d.stopCh:
			d.logger.Warn("Dispatcher: retry of %s %s dropped on shutdown", task.Kind, task.Name)
			return
		}

		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.stopped {
			d.logger.Warn("Dispatcher: retry of %s %s dropped on shutdown", task.Kind, task.Name)
			return
		}
		select {
		case d.queue <- task:
		default:
			d.logger.Error("Dispatcher: queue full, retry of %s %s dropped", task.Kind, task.Name)
			d.observeFailure(task.Kind)
		}
	}()
}

func (d *Dispatcher) observeFailure(kind string) {
	if d.metrics != nil {
		d.metrics.ObserveDispatchFailure(kind)
	}
}
