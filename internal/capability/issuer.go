// Package capability — выпуск короткоживущих подписанных URL на один блоб.
// Набор прав выводится из роли, срок действия фиксированный. Сам выпуск
// авторизацию не проверяет: Issuer вызывается только после allow от Access Gate.
package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/EgorLis/med-vault/internal/domain"
)

// TTL подписи: ровно час с момента выпуска, не продлевается.
// Новый URL — только через повторный проход Access Gate.
const TTL = time.Hour

type Permissions struct {
	Read   bool
	Create bool
	Write  bool
	Delete bool
}

// String — компактная запись в духе SAS-строк ("racwd", "rcw", "r").
func (p Permissions) String() string {
	s := ""
	if p.Read {
		s += "r"
	}
	if p.Create {
		s += "c"
	}
	if p.Write {
		s += "w"
	}
	if p.Delete {
		s += "d"
	}
	return s
}

// PermissionsForRole: admin — полный набор; doctor/nurse — чтение и запись;
// assistant и любая нераспознанная роль — только чтение.
func PermissionsForRole(role domain.Role) Permissions {
	switch role {
	case domain.RoleAdmin:
		return Permissions{Read: true, Create: true, Write: true, Delete: true}
	case domain.RoleDoctor, domain.RoleNurse:
		return Permissions{Read: true, Create: true, Write: true}
	default:
		return Permissions{Read: true}
	}
}

// Capability — эфемерный результат выпуска; нигде не хранится,
// восстанавливается только повторным выпуском.
type Capability struct {
	URL         string    `json:"sasUrl"`
	UploadURL   string    `json:"uploadUrl,omitempty"`
	DeleteURL   string    `json:"deleteUrl,omitempty"`
	Permissions string    `json:"permissions"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type Issuer struct {
	signer domain.Presigner
}

func NewIssuer(signer domain.Presigner) *Issuer {
	return &Issuer{signer: signer}
}

// Issue подписывает URL ровно на один (containerName, blobPath).
// S3-подпись привязана к HTTP-методу, поэтому права create/write/delete
// выражаются отдельными presigned URL вместо битов в одной подписи.
func (i *Issuer) Issue(ctx context.Context, containerName, blobPath string, role domain.Role) (Capability, error) {
	perms := PermissionsForRole(role)
	now := time.Now().UTC()

	getURL, err := i.signer.PresignGet(ctx, containerName, blobPath, TTL)
	if err != nil {
		return Capability{}, fmt.Errorf("presign get: %w", err)
	}

	cap := Capability{
		URL:         getURL.String(),
		Permissions: perms.String(),
		ExpiresAt:   now.Add(TTL),
	}

	if perms.Create || perms.Write {
		putURL, err := i.signer.PresignPut(ctx, containerName, blobPath, TTL)
		if err != nil {
			return Capability{}, fmt.Errorf("presign put: %w", err)
		}
		cap.UploadURL = putURL.String()
	}
	if perms.Delete {
		delURL, err := i.signer.PresignDelete(ctx, containerName, blobPath, TTL)
		if err != nil {
			return Capability{}, fmt.Errorf("presign delete: %w", err)
		}
		cap.DeleteURL = delURL.String()
	}
	return cap, nil
}
