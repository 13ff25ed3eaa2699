package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	// UserIDHeader заголовок с ID пользователя, проставляемый API gateway
	UserIDHeader = "X-User-ID"
	// RoleHeader заголовок с ролью пользователя
	RoleHeader = "X-User-Role"

	// RoleOperator оператор парковки: отмена после дедлайна, обслуживание слотов
	RoleOperator = "operator"
)

type (
	userIDKey struct{}
	roleKey   struct{}
)

// Auth проверяет наличие X-User-ID и кладёт ID пользователя в контекст
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			unauthorized(w, "отсутствует заголовок X-User-ID")
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			unauthorized(w, "некорректный заголовок X-User-ID")
			return
		}

		ctx := WithUserID(r.Context(), userID)
		if role := r.Header.Get(RoleHeader); role != "" {
			ctx = context.WithValue(ctx, roleKey{}, role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUserID возвращает контекст с ID пользователя
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

// IsOperator возвращает true, если запрос выполняет оператор парковки
func IsOperator(ctx context.Context) bool {
	role, _ := ctx.Value(roleKey{}).(string)
	return role == RoleOperator
}

// WithOperator возвращает контекст с ролью оператора
func WithOperator(ctx context.Context) context.Context {
	return context.WithValue(ctx, roleKey{}, RoleOperator)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
