package user

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"manager", RoleManager, false},
		{"gestor", RoleManager, false},
		{"collaborator", RoleCollaborator, false},
		{"colaborador", RoleCollaborator, false},
		{"owner", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("expected ErrInvalidRole, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUserRolePredicates(t *testing.T) {
	admin := &User{ID: "1", Role: RoleAdmin}
	manager := &User{ID: "2", Role: RoleManager}
	collaborator := &User{ID: "3", Role: RoleCollaborator}

	if !admin.IsAdmin() || !admin.CanCreateProjects() {
		t.Error("admin should be admin and able to create projects")
	}
	if !manager.IsManager() || !manager.CanCreateProjects() {
		t.Error("manager should be manager and able to create projects")
	}
	if collaborator.CanCreateProjects() {
		t.Error("collaborator should not create projects")
	}
	if a := manager.Actor(); a.ID != "2" || a.Role != RoleManager {
		t.Errorf("unexpected actor %+v", a)
	}
}
