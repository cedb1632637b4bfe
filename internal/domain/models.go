package domain

import (
	"time"

	"github.com/google/uuid"
)

// Базовые идентификаторы
type UserID = uuid.UUID
type AssignmentID = uuid.UUID

// Роль пользователя — закрытое множество, динамического расширения нет.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleNurse     Role = "nurse"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleAssistant:
		return true
	}
	return false
}

// Роли, которые админ может назначить через API (создать второго админа нельзя).
func (r Role) Assignable() bool {
	switch r {
	case RoleDoctor, RoleNurse, RoleAssistant:
		return true
	}
	return false
}

// Пользователь
type User struct {
	ID        UserID    `json:"id"`
	Name      string    `json:"name"`
	Login     string    `json:"login"`
	PassHash  []byte    `json:"-"` // никогда не отдаём наружу
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Доступ пользователя к контейнеру целиком (с возможным сужением по папкам).
// Контейнеры — внешние сущности object store: мы их не создаём, только находим.
type ContainerAssignment struct {
	ID            AssignmentID `json:"id"`
	UserID        UserID       `json:"userId"`
	ContainerName string       `json:"containerName"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Сужение контейнерного доступа до конкретной папки.
// Не существует без соответствующего ContainerAssignment — проверяется при выдаче.
type FolderAssignment struct {
	ID            AssignmentID `json:"id"`
	UserID        UserID       `json:"userId"`
	ContainerName string       `json:"containerName"`
	FolderName    string       `json:"folderName"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Операция над файлом для журнала аудита.
type Operation string

const (
	OpList     Operation = "LIST"
	OpUpload   Operation = "UPLOAD"
	OpDownload Operation = "DOWNLOAD"
	OpDelete   Operation = "DELETE"
)

func (o Operation) Valid() bool {
	switch o {
	case OpList, OpUpload, OpDownload, OpDelete:
		return true
	}
	return false
}

// Запись аудита: append-only, удаляется только каскадом при удалении пользователя.
type AuditRecord struct {
	ID            int64     `json:"id"`
	UserID        UserID    `json:"userId"`
	ContainerName string    `json:"containerName"`
	FolderName    string    `json:"folderName"`
	BlobName      string    `json:"blobName"`
	Operation     Operation `json:"operation"`
	Timestamp     time.Time `json:"timestamp"`
}
