package access

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/policy"
)

type fakeChecker struct {
	containers map[string]bool // key: userID|container
	folders    map[string]bool // key: userID|container|folder
	calls      int
	err        error
}

func (f *fakeChecker) HasContainerAssignment(_ context.Context, id domain.UserID, c string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.containers[id.String()+"|"+c], nil
}

func (f *fakeChecker) HasFolderAssignment(_ context.Context, id domain.UserID, c string, fo domain.FolderName) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.folders[id.String()+"|"+c+"|"+fo.String()], nil
}

func mustFolder(t *testing.T, s string) domain.FolderName {
	t.Helper()
	f, err := domain.NewFolderName(s)
	if err != nil {
		t.Fatalf("folder %q: %v", s, err)
	}
	return f
}

func TestAdminBypassesAssignmentLookup(t *testing.T) {
	fc := &fakeChecker{}
	g := NewGate(fc)
	admin := domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	folder := mustFolder(t, "Patient_Data_001")

	if err := g.Check(context.Background(), admin, policy.ActionDeleteFile, "cph-container3", &folder); err != nil {
		t.Fatalf("admin must be allowed: %v", err)
	}
	if fc.calls != 0 {
		t.Errorf("admin must not touch the assignment store, got %d calls", fc.calls)
	}
}

func TestRoleDeniedBeforeAssignmentLookup(t *testing.T) {
	fc := &fakeChecker{}
	g := NewGate(fc)
	assistant := domain.User{ID: uuid.New(), Role: domain.RoleAssistant}

	err := g.Check(context.Background(), assistant, policy.ActionUploadFile, "cph-container3", nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if fc.calls != 0 {
		t.Errorf("role deny must short-circuit, got %d assignment lookups", fc.calls)
	}
}

func TestContainerAndFolderNarrowing(t *testing.T) {
	doctor := domain.User{ID: uuid.New(), Role: domain.RoleDoctor}
	key := doctor.ID.String()
	fc := &fakeChecker{
		containers: map[string]bool{key + "|cph-container3": true},
		folders:    map[string]bool{key + "|cph-container3|Patient_Data_001": true},
	}
	g := NewGate(fc)
	ctx := context.Background()

	// контейнер назначен, папка не запрошена
	if err := g.Check(ctx, doctor, policy.ActionListContainer, "cph-container3", nil); err != nil {
		t.Errorf("container-level access must pass: %v", err)
	}

	// назначенная папка
	f1 := mustFolder(t, "Patient_Data_001")
	if err := g.Check(ctx, doctor, policy.ActionListContainer, "cph-container3", &f1); err != nil {
		t.Errorf("assigned folder must pass: %v", err)
	}

	// не назначенная папка
	f2 := mustFolder(t, "Patient_Data_099")
	if err := g.Check(ctx, doctor, policy.ActionListContainer, "cph-container3", &f2); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unassigned folder must be forbidden, got %v", err)
	}

	// не назначенный контейнер
	if err := g.Check(ctx, doctor, policy.ActionListContainer, "cph-container9", nil); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unassigned container must be forbidden, got %v", err)
	}
}

func TestLookupErrorIsNotForbidden(t *testing.T) {
	boom := errors.New("db down")
	fc := &fakeChecker{err: boom}
	g := NewGate(fc)
	nurse := domain.User{ID: uuid.New(), Role: domain.RoleNurse}

	err := g.Check(context.Background(), nurse, policy.ActionListContainer, "cph-container3", nil)
	if err == nil || errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("store error must surface as-is, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestActionWithoutResourceSkipsAssignments(t *testing.T) {
	fc := &fakeChecker{}
	g := NewGate(fc)
	admin := domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	if err := g.Check(context.Background(), admin, policy.ActionViewAudit, "", nil); err != nil {
		t.Fatalf("view-audit must pass for admin: %v", err)
	}
	nurse := domain.User{ID: uuid.New(), Role: domain.RoleNurse}
	if err := g.Check(context.Background(), nurse, policy.ActionViewAudit, "", nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("view-audit must be forbidden for nurse, got %v", err)
	}
}
