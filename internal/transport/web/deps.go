package web

import "github.com/EgorLis/med-vault/internal/domain"

type Repos struct {
	Users       domain.UsersRepo
	Assignments domain.AssignmentsRepo
	Audit       domain.AuditRepo
}

type AuthDeps struct {
	Hasher    domain.PasswordHasher
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}
