// Package policy — статическая таблица «роль × действие».
// Единственное место, где решается, что роли позволено; точечные проверки
// строк ролей по обработчикам запрещены. Движок чистый: ни БД, ни назначений
// он не видит.
package policy

import "github.com/EgorLis/med-vault/internal/domain"

type Action string

const (
	ActionManageUsers        Action = "manage-users"
	ActionManageAssignments  Action = "manage-assignments"
	ActionViewAudit          Action = "view-audit"
	ActionUploadFile         Action = "upload-file"
	ActionDeleteFile         Action = "delete-file"
	ActionListContainer      Action = "list-container"
	ActionViewOwnAssignments Action = "view-own-assignments"
)

// Закрытая таблица. Всё, что не перечислено явно, — deny.
var table = map[domain.Role]map[Action]bool{
	domain.RoleAdmin: {
		ActionManageUsers:        true,
		ActionManageAssignments:  true,
		ActionViewAudit:          true,
		ActionUploadFile:         true,
		ActionDeleteFile:         true,
		ActionListContainer:      true,
		ActionViewOwnAssignments: true,
	},
	domain.RoleDoctor: {
		ActionUploadFile:         true,
		ActionListContainer:      true,
		ActionViewOwnAssignments: true,
	},
	domain.RoleNurse: {
		ActionUploadFile:         true,
		ActionListContainer:      true,
		ActionViewOwnAssignments: true,
	},
	domain.RoleAssistant: {
		ActionListContainer:      true,
		ActionViewOwnAssignments: true,
	},
}

func Allowed(role domain.Role, action Action) bool {
	return table[role][action]
}
