package policy

import (
	"testing"

	"github.com/EgorLis/med-vault/internal/domain"
)

func TestAdminAllowedEverything(t *testing.T) {
	actions := []Action{
		ActionManageUsers, ActionManageAssignments, ActionViewAudit,
		ActionUploadFile, ActionDeleteFile, ActionListContainer, ActionViewOwnAssignments,
	}
	for _, a := range actions {
		if !Allowed(domain.RoleAdmin, a) {
			t.Errorf("admin must be allowed %q", a)
		}
	}
}

func TestRoleTable(t *testing.T) {
	cases := []struct {
		role   domain.Role
		action Action
		want   bool
	}{
		{domain.RoleDoctor, ActionUploadFile, true},
		{domain.RoleDoctor, ActionListContainer, true},
		{domain.RoleDoctor, ActionViewOwnAssignments, true},
		{domain.RoleDoctor, ActionDeleteFile, false},
		{domain.RoleDoctor, ActionManageUsers, false},
		{domain.RoleDoctor, ActionViewAudit, false},
		{domain.RoleNurse, ActionUploadFile, true},
		{domain.RoleNurse, ActionManageAssignments, false},
		{domain.RoleAssistant, ActionListContainer, true},
		{domain.RoleAssistant, ActionUploadFile, false},
		{domain.RoleAssistant, ActionDeleteFile, false},
	}
	for _, c := range cases {
		if got := Allowed(c.role, c.action); got != c.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", c.role, c.action, got, c.want)
		}
	}
}

func TestDenyByDefault(t *testing.T) {
	if Allowed(domain.Role("intern"), ActionListContainer) {
		t.Error("unknown role must be denied")
	}
	if Allowed(domain.RoleNurse, Action("reboot-server")) {
		t.Error("unknown action must be denied")
	}
	if Allowed("", "") {
		t.Error("empty role/action must be denied")
	}
}
