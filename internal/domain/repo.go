package domain

import (
	"context"
	"time"
)

type UserUpdate struct {
	Name     *string
	Login    *string
	PassHash []byte // nil — пароль не меняется
	Role     *Role
}

type UsersRepo interface {
	Close()
	Ping(context.Context) error
	CreateUser(ctx context.Context, name, login string, passHash []byte, role Role) (User, error)
	UserByLogin(ctx context.Context, login string) (User, error)
	UserByID(ctx context.Context, id UserID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id UserID, upd UserUpdate) (User, error)
	// Каскадно удаляет назначения и записи аудита пользователя одной транзакцией.
	DeleteUser(ctx context.Context, id UserID) error
}

type AssignmentsRepo interface {
	CreateContainerAssignment(ctx context.Context, userID UserID, containerName string) (ContainerAssignment, error)
	// Требует существующий ContainerAssignment; уже назначенные папки пропускает.
	// Все вставки — одной транзакцией.
	CreateFolderAssignments(ctx context.Context, userID UserID, containerName string, folders []FolderName) ([]FolderAssignment, error)
	// Каскадно удаляет папочные назначения под контейнером, атомарно.
	RevokeContainerAssignment(ctx context.Context, id AssignmentID) error
	RevokeFolderAssignment(ctx context.Context, id AssignmentID) error
	AssignmentsForUser(ctx context.Context, userID UserID) ([]ContainerAssignment, []FolderAssignment, error)
	HasContainerAssignment(ctx context.Context, userID UserID, containerName string) (bool, error)
	HasFolderAssignment(ctx context.Context, userID UserID, containerName string, folder FolderName) (bool, error)
}

// Фильтры запроса журнала аудита (admin-only)
type AuditFilter struct {
	UserID        *UserID
	ContainerName string
	FolderName    string
	Operation     Operation
	From, To      time.Time
	Limit         int
	Offset        int
}

// Запись аудита, обогащённая данными пользователя (join для админского списка)
type AuditEntry struct {
	AuditRecord
	UserName  string `json:"name"`
	UserLogin string `json:"login"`
	UserRole  Role   `json:"role"`
}

type AuditRepo interface {
	InsertAudit(ctx context.Context, rec AuditRecord) (AuditRecord, error)
	QueryAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}
