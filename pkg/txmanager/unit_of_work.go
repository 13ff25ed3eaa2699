package txmanager

import (
	"context"
	"sync"
)

// UnitOfWork собирает побочные эффекты, которые зависят от исхода транзакции:
// - rollback-хуки откатывают изменения вне БД (например, in-memory леджер слотов)
// - commit-хуки выполняются только после успешного коммита (уведомления, платежи)
type UnitOfWork struct {
	mu         sync.Mutex
	onRollback []func()
	onCommit   []func()
	done       bool
}

type uowKey struct{}

// NewUnitOfWork кладёт новый unit of work в контекст
func NewUnitOfWork(ctx context.Context) (context.Context, *UnitOfWork) {
	uow := &UnitOfWork{}
	return context.WithValue(ctx, uowKey{}, uow), uow
}

// FromContext возвращает unit of work из контекста
func FromContext(ctx context.Context) (*UnitOfWork, bool) {
	uow, ok := ctx.Value(uowKey{}).(*UnitOfWork)
	return uow, ok && uow != nil
}

// OnRollback регистрирует компенсацию
// Вне транзакции компенсация не нужна и отбрасывается
func OnRollback(ctx context.Context, fn func()) {
	if uow, ok := FromContext(ctx); ok {
		uow.mu.Lock()
		uow.onRollback = append(uow.onRollback, fn)
		uow.mu.Unlock()
	}
}

// OnCommit регистрирует действие после коммита
// Вне транзакции выполняется сразу
func OnCommit(ctx context.Context, fn func()) {
	if uow, ok := FromContext(ctx); ok {
		uow.mu.Lock()
		uow.onCommit = append(uow.onCommit, fn)
		uow.mu.Unlock()
		return
	}
	fn()
}

// Commit выполняет commit-хуки в порядке регистрации
func (u *UnitOfWork) Commit() {
	hooks := u.finish(false)
	for _, fn := range hooks {
		fn()
	}
}

// Rollback выполняет rollback-хуки в обратном порядке
func (u *UnitOfWork) Rollback() {
	hooks := u.finish(true)
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

func (u *UnitOfWork) finish(rollback bool) []func() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done {
		return nil
	}
	u.done = true

	hooks := u.onCommit
	if rollback {
		hooks = u.onRollback
	}
	u.onCommit, u.onRollback = nil, nil
	return hooks
}
