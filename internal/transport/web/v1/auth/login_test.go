package auth

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/domain"
)

type fakeUsers struct {
	users map[string]domain.User
}

func (f *fakeUsers) Close() {}

func (f *fakeUsers) Ping(context.Context) error { return nil }

func (f *fakeUsers) CreateUser(ctx context.Context, name, login string, passHash []byte, role domain.Role) (domain.User, error) {
	return domain.User{}, domain.ErrUnexpected
}
func (f *fakeUsers) UserByLogin(ctx context.Context, login string) (domain.User, error) {
	u, ok := f.users[login]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
func (f *fakeUsers) UserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
func (f *fakeUsers) ListUsers(ctx context.Context) ([]domain.User, error) { return nil, nil }
func (f *fakeUsers) UpdateUser(ctx context.Context, id domain.UserID, upd domain.UserUpdate) (domain.User, error) {
	return domain.User{}, domain.ErrUnexpected
}
func (f *fakeUsers) DeleteUser(ctx context.Context, id domain.UserID) error { return nil }

// fakeHasher принимает единственный пароль "correct-horse".
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Verify(plain, encodedHash string) (bool, error) {
	return encodedHash == "hashed:"+plain, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(_ context.Context, u domain.User) (domain.Token, domain.TokenClaims, error) {
	return "tok", domain.TokenClaims{JTI: "jti", UserID: u.ID}, nil
}
func (fakeTokens) Parse(_ context.Context, raw domain.Token) (domain.TokenClaims, error) {
	return domain.TokenClaims{}, domain.ErrUnauth
}

func newLoginHandler() *Handler {
	return &Handler{
		Log: log.New(io.Discard, "", 0),
		Users: &fakeUsers{users: map[string]domain.User{
			"alice": {ID: uuid.New(), Name: "Alice", Login: "alice", PassHash: []byte("hashed:correct-horse"), Role: domain.RoleDoctor},
		}},
		Hasher: fakeHasher{},
		Tokens: fakeTokens{},
	}
}

func doLogin(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	h := newLoginHandler()
	rec := doLogin(t, h, `{"login":"alice","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token":"tok"`) {
		t.Fatalf("token missing in body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "hashed:") {
		t.Fatalf("password hash leaked into response: %s", rec.Body.String())
	}
}

// Неизвестный логин и неверный пароль обязаны давать байт-в-байт
// одинаковый ответ, иначе по разнице ответов перебираются логины.
func TestLoginFailuresIndistinguishable(t *testing.T) {
	h := newLoginHandler()

	wrongPass := doLogin(t, h, `{"login":"alice","password":"wrong"}`)
	unknownUser := doLogin(t, h, `{"login":"nobody","password":"whatever"}`)

	if wrongPass.Code != http.StatusBadRequest || unknownUser.Code != http.StatusBadRequest {
		t.Fatalf("statuses = %d, %d, want both 400", wrongPass.Code, unknownUser.Code)
	}
	if !bytes.Equal(wrongPass.Body.Bytes(), unknownUser.Body.Bytes()) {
		t.Fatalf("bodies differ:\n%s\n%s", wrongPass.Body.String(), unknownUser.Body.String())
	}
	if !strings.Contains(wrongPass.Body.String(), "Invalid credentials") {
		t.Fatalf("unexpected body: %s", wrongPass.Body.String())
	}
}

func TestLoginEmptyFields(t *testing.T) {
	h := newLoginHandler()
	rec := doLogin(t, h, `{"login":"","password":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
