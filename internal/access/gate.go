// Package access — Access Gate: единая точка «можно ли пользователю U
// выполнить действие O над контейнером C (и папкой F)». Каждый обработчик,
// трогающий storage, обязан получить allow отсюда до любого обращения к
// object store.
package access

import (
	"context"
	"fmt"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/policy"
)

// AssignmentChecker — узкий порт к Assignment Store.
type AssignmentChecker interface {
	HasContainerAssignment(ctx context.Context, userID domain.UserID, containerName string) (bool, error)
	HasFolderAssignment(ctx context.Context, userID domain.UserID, containerName string, folder domain.FolderName) (bool, error)
}

type Gate struct {
	assignments AssignmentChecker
}

func NewGate(assignments AssignmentChecker) *Gate {
	return &Gate{assignments: assignments}
}

// Check: сперва ролевой allow/deny, затем проверка назначений.
// Порядок значим — запрещённая роль не должна узнать даже о существовании
// назначений. Админ проходит проверку назначений без обращения к хранилищу.
// containerName == "" означает действие без ресурса (например view-audit).
func (g *Gate) Check(ctx context.Context, u domain.User, action policy.Action, containerName string, folder *domain.FolderName) error {
	if !policy.Allowed(u.Role, action) {
		return fmt.Errorf("role %s denied action %s: %w", u.Role, action, domain.ErrForbidden)
	}
	if containerName == "" || u.Role == domain.RoleAdmin {
		return nil
	}

	ok, err := g.assignments.HasContainerAssignment(ctx, u.ID, containerName)
	if err != nil {
		return fmt.Errorf("container assignment lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("container %s not assigned: %w", containerName, domain.ErrForbidden)
	}

	if folder != nil {
		ok, err := g.assignments.HasFolderAssignment(ctx, u.ID, containerName, *folder)
		if err != nil {
			return fmt.Errorf("folder assignment lookup: %w", err)
		}
		if !ok {
			return fmt.Errorf("folder %s not assigned: %w", *folder, domain.ErrForbidden)
		}
	}
	return nil
}
