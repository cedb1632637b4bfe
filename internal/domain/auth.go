package domain

import (
	"context"
	"time"
)

type Token = string

type TokenClaims struct {
	JTI       string // уникальный id токена (для ревокации)
	UserID    UserID
	Login     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Хеширование паролей (argon2id в internal/auth/password)
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encodedHash string) (bool, error)
}

// Управление сессионными токенами (JWT в internal/auth/token)
type TokenManager interface {
	Issue(ctx context.Context, u User) (Token, TokenClaims, error)
	Parse(ctx context.Context, raw Token) (TokenClaims, error)
}

// Блэклист/ревокация токенов (Redis). Дополняет обязательную
// пере-проверку пользователя по БД на каждом запросе, не заменяет её.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
