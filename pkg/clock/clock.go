package clock

import (
	"sync"
	"time"
)

// Clock источник текущего времени
// Все компоненты получают время только через него, чтобы тесты были детерминированными
type Clock interface {
	Now() time.Time
}

// Real реальные часы для production
type Real struct{}

// Now возвращает текущее время в UTC
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed управляемые часы для тестов
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed создает часы, остановленные на указанном моменте
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// Now возвращает зафиксированное время
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set переставляет часы
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Advance сдвигает часы вперед
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
