package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/policy"
)

type fakeTokens struct {
	claims domain.TokenClaims
	err    error
}

func (f fakeTokens) Issue(context.Context, domain.User) (domain.Token, domain.TokenClaims, error) {
	return "", domain.TokenClaims{}, domain.ErrUnexpected
}

func (f fakeTokens) Parse(context.Context, domain.Token) (domain.TokenClaims, error) {
	return f.claims, f.err
}

type fakeBlacklist struct{ revoked bool }

func (f fakeBlacklist) Revoke(context.Context, string, time.Time) error { return nil }
func (f fakeBlacklist) IsRevoked(context.Context, string) (bool, error) { return f.revoked, nil }

type userStore struct{ users map[domain.UserID]domain.User }

func (s *userStore) Close()                     {}
func (s *userStore) Ping(context.Context) error { return nil }

func (s *userStore) CreateUser(ctx context.Context, name, login string, passHash []byte, role domain.Role) (domain.User, error) {
	return domain.User{}, domain.ErrUnexpected
}

func (s *userStore) UserByLogin(context.Context, string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (s *userStore) UserByID(_ context.Context, id domain.UserID) (domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *userStore) ListUsers(context.Context) ([]domain.User, error) { return nil, nil }

func (s *userStore) UpdateUser(context.Context, domain.UserID, domain.UserUpdate) (domain.User, error) {
	return domain.User{}, domain.ErrUnexpected
}

func (s *userStore) DeleteUser(context.Context, domain.UserID) error { return nil }

func okHandler(got *domain.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := domain.UserFromCtx(r.Context()); ok {
			*got = u
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRefetchesUser(t *testing.T) {
	id := uuid.New()
	store := &userStore{users: map[domain.UserID]domain.User{
		// роль в БД уже не совпадает с ролью, зашитой в токен
		id: {ID: id, Login: "alice", Role: domain.RoleAssistant},
	}}
	deps := AuthDeps{
		Tokens:    fakeTokens{claims: domain.TokenClaims{JTI: "j1", UserID: id, Role: domain.RoleDoctor}},
		Blacklist: fakeBlacklist{},
		Users:     store,
	}

	var got domain.User
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	RequireAuth(deps, okHandler(&got)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got.Role != domain.RoleAssistant {
		t.Fatalf("role = %s, want live role from store", got.Role)
	}
}

func TestRequireAuthDeletedUser(t *testing.T) {
	id := uuid.New()
	deps := AuthDeps{
		Tokens:    fakeTokens{claims: domain.TokenClaims{JTI: "j1", UserID: id}},
		Blacklist: fakeBlacklist{},
		Users:     &userStore{users: map[domain.UserID]domain.User{}}, // пользователь удалён
	}

	var got domain.User
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	RequireAuth(deps, okHandler(&got)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "User no longer exists") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireAuthRevokedToken(t *testing.T) {
	id := uuid.New()
	deps := AuthDeps{
		Tokens:    fakeTokens{claims: domain.TokenClaims{JTI: "j1", UserID: id}},
		Blacklist: fakeBlacklist{revoked: true},
		Users:     &userStore{users: map[domain.UserID]domain.User{id: {ID: id}}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	RequireAuth(deps, okHandler(&domain.User{})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthNoToken(t *testing.T) {
	deps := AuthDeps{Tokens: fakeTokens{}, Blacklist: fakeBlacklist{}, Users: &userStore{}}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	RequireAuth(deps, okHandler(&domain.User{})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No token, authorization denied") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireAction(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name   string
		role   domain.Role
		action policy.Action
		want   int
	}{
		{"admin manages users", domain.RoleAdmin, policy.ActionManageUsers, http.StatusOK},
		{"nurse cannot manage users", domain.RoleNurse, policy.ActionManageUsers, http.StatusForbidden},
		{"nurse uploads", domain.RoleNurse, policy.ActionUploadFile, http.StatusOK},
		{"assistant cannot upload", domain.RoleAssistant, policy.ActionUploadFile, http.StatusForbidden},
		{"doctor cannot view audit", domain.RoleDoctor, policy.ActionViewAudit, http.StatusForbidden},
		{"assistant views own assignments", domain.RoleAssistant, policy.ActionViewOwnAssignments, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RequireAction(tc.action)(next)
			u := domain.User{ID: uuid.New(), Role: tc.role}
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			req = req.WithContext(domain.WithUser(req.Context(), u))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
			if tc.want == http.StatusForbidden && !strings.Contains(w.Body.String(), "Access forbidden") {
				t.Fatalf("unexpected body: %s", w.Body.String())
			}
		})
	}
}
