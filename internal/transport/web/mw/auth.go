package mw

import (
	"net/http"
	"strings"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/policy"
)

type AuthDeps struct {
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
	Users     domain.UsersRepo
}

// RequireAuth проверяет токен и перечитывает пользователя из базы на каждый
// запрос: смена роли или удаление вступают в силу немедленно, а не по
// истечении токена. Кешировать пользователя здесь нельзя.
func RequireAuth(deps AuthDeps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			writeAuthError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		claims, err := deps.Tokens.Parse(r.Context(), raw)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		if revoked, _ := deps.Blacklist.IsRevoked(r.Context(), claims.JTI); revoked {
			writeAuthError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		u, err := deps.Users.UserByID(r.Context(), claims.UserID)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		ctx := domain.WithUser(r.Context(), u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAction пропускает только роли, которым таблица политики разрешает
// действие. Единственное место принятия ролевых решений на маршрутах:
// списки ролей у call-site'ов не перечисляются. Вешается поверх RequireAuth.
func RequireAction(action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := domain.UserFromCtx(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !policy.Allowed(u.Role, action) {
				writeAuthError(w, http.StatusForbidden, "Access forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError — локальный минимум, чтобы не тянуть сюда пакет v1 (цикл импортов)
func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + msg + `"}`))
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	// наследованный клиентский заголовок
	return r.Header.Get("x-auth-token")
}
