package capability

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/EgorLis/med-vault/internal/domain"
)

type fakeSigner struct {
	ttls []time.Duration
}

func (f *fakeSigner) sign(method, container, path string, ttl time.Duration) (*url.URL, error) {
	f.ttls = append(f.ttls, ttl)
	return url.Parse("https://storage.local/" + container + "/" + path + "?m=" + method)
}

func (f *fakeSigner) PresignGet(_ context.Context, c, p string, ttl time.Duration) (*url.URL, error) {
	return f.sign("GET", c, p, ttl)
}
func (f *fakeSigner) PresignPut(_ context.Context, c, p string, ttl time.Duration) (*url.URL, error) {
	return f.sign("PUT", c, p, ttl)
}
func (f *fakeSigner) PresignDelete(_ context.Context, c, p string, ttl time.Duration) (*url.URL, error) {
	return f.sign("DELETE", c, p, ttl)
}

func TestPermissionsForRole(t *testing.T) {
	cases := []struct {
		role domain.Role
		want string
	}{
		{domain.RoleAdmin, "racwd"},
		{domain.RoleDoctor, "rcw"},
		{domain.RoleNurse, "rcw"},
		{domain.RoleAssistant, "r"},
		{domain.Role("intern"), "r"}, // нераспознанная роль — только чтение
		{domain.Role(""), "r"},
	}
	for _, c := range cases {
		if got := PermissionsForRole(c.role).String(); got != c.want {
			t.Errorf("PermissionsForRole(%q) = %q, want %q", c.role, got, c.want)
		}
	}
}

func TestIssueURLsPerRole(t *testing.T) {
	ctx := context.Background()

	// assistant: только GET, никаких upload/delete URL
	fs := &fakeSigner{}
	cap, err := NewIssuer(fs).Issue(ctx, "cph-container3", "Patient_Data_001/scan.pdf", domain.RoleAssistant)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cap.URL == "" || cap.UploadURL != "" || cap.DeleteURL != "" {
		t.Errorf("assistant capability must be read-only: %+v", cap)
	}

	// doctor: GET + PUT, без DELETE
	fs = &fakeSigner{}
	cap, err = NewIssuer(fs).Issue(ctx, "cph-container3", "Patient_Data_001/scan.pdf", domain.RoleDoctor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cap.UploadURL == "" || cap.DeleteURL != "" {
		t.Errorf("doctor capability must allow upload but not delete: %+v", cap)
	}

	// admin: все три
	fs = &fakeSigner{}
	cap, err = NewIssuer(fs).Issue(ctx, "cph-container3", "Patient_Data_001/scan.pdf", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cap.URL == "" || cap.UploadURL == "" || cap.DeleteURL == "" {
		t.Errorf("admin capability must carry all URLs: %+v", cap)
	}
	if cap.Permissions != "racwd" {
		t.Errorf("admin permissions = %q, want racwd", cap.Permissions)
	}
}

func TestIssueTTLExactlyOneHour(t *testing.T) {
	fs := &fakeSigner{}
	before := time.Now().UTC()
	cap, err := NewIssuer(fs).Issue(context.Background(), "c", "f/b", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	after := time.Now().UTC()

	for _, ttl := range fs.ttls {
		if ttl != time.Hour {
			t.Errorf("presign ttl = %s, want 1h", ttl)
		}
	}
	if cap.ExpiresAt.Before(before.Add(time.Hour)) || cap.ExpiresAt.After(after.Add(time.Hour)) {
		t.Errorf("expiresAt %s out of [issue+1h] window", cap.ExpiresAt)
	}
}
