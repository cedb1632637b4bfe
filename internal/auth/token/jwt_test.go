package token

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/domain"
)

func TestIssueParseRoundtrip(t *testing.T) {
	m := New("test-secret", "med-vault", 24*time.Hour)
	u := domain.User{ID: uuid.New(), Login: "drhouse", Role: domain.RoleDoctor}

	raw, issued, err := m.Issue(context.Background(), u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := m.Parse(context.Background(), raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("uid: got %s want %s", got.UserID, u.ID)
	}
	if got.Role != domain.RoleDoctor {
		t.Errorf("role: got %q want %q", got.Role, domain.RoleDoctor)
	}
	if got.JTI == "" || got.JTI != issued.JTI {
		t.Errorf("jti mismatch: %q vs %q", got.JTI, issued.JTI)
	}
	if d := issued.ExpiresAt.Sub(issued.IssuedAt); d != 24*time.Hour {
		t.Errorf("ttl: got %s want 24h", d)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	good := New("secret-a", "med-vault", time.Hour)
	bad := New("secret-b", "med-vault", time.Hour)

	raw, _, err := good.Issue(context.Background(), domain.User{ID: uuid.New(), Login: "x", Role: domain.RoleNurse})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := bad.Parse(context.Background(), raw); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := New("test-secret", "med-vault", -time.Minute)
	raw, _, err := m.Issue(context.Background(), domain.User{ID: uuid.New(), Login: "x", Role: domain.RoleAssistant})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(context.Background(), raw); err == nil {
		t.Fatal("expected expiry error")
	}
}
