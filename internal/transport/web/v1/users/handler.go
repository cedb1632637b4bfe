package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/transport/web/logx"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	v1 "github.com/EgorLis/med-vault/internal/transport/web/v1"
)

type Handler struct {
	Log         *log.Logger
	Users       domain.UsersRepo
	Assignments domain.AssignmentsRepo
	Hasher      domain.PasswordHasher
}

type usersResponse struct {
	Success bool          `json:"success"`
	Users   []domain.User `json:"users"`
}

type userView struct {
	domain.User
	ContainerAssignments []domain.ContainerAssignment `json:"containerAssignments"`
	FolderAssignments    []domain.FolderAssignment    `json:"folderAssignments"`
}

type userResponse struct {
	Success bool        `json:"success"`
	User    domain.User `json:"user"`
}

type userViewResponse struct {
	Success bool     `json:"success"`
	User    userView `json:"user"`
}

type usersViewResponse struct {
	Success bool       `json:"success"`
	Users   []userView `json:"users"`
}

// List godoc
// @Summary     List users
// @Tags        users
// @Produce     json
// @Success     200 {object} usersResponse
// @Failure     401 {object} v1.ErrResponse
// @Failure     403 {object} v1.ErrResponse
// @Router      /api/users [get]
// @Security    BearerAuth
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "users.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	us, err := h.Users.ListUsers(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteJSON(w, r, http.StatusOK, usersResponse{Success: true, Users: us})
}

// WithAssignments godoc
// @Summary     List non-admin users with their assignments
// @Tags        users
// @Produce     json
// @Success     200 {object} usersViewResponse
// @Failure     401 {object} v1.ErrResponse
// @Failure     403 {object} v1.ErrResponse
// @Router      /api/users/with-assignments [get]
// @Security    BearerAuth
func (h *Handler) WithAssignments(w http.ResponseWriter, r *http.Request) {
	const op = "users.with_assignments"
	reqID := mw.RequestIDFromCtx(r.Context())

	us, err := h.Users.ListUsers(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	views := make([]userView, 0, len(us))
	for _, u := range us {
		if u.Role == domain.RoleAdmin {
			continue // админы доступами не описываются
		}
		containers, folders, err := h.Assignments.AssignmentsForUser(r.Context(), u.ID)
		if err != nil {
			logx.Error(h.Log, reqID, op, "assignments failed", err, "user_id", u.ID)
			v1.WriteDomainError(w, r, err)
			return
		}
		views = append(views, userView{
			User:                 u,
			ContainerAssignments: containers,
			FolderAssignments:    folders,
		})
	}
	v1.WriteJSON(w, r, http.StatusOK, usersViewResponse{Success: true, Users: views})
}

// GetByID godoc
// @Summary     Get user by id with assignments
// @Tags        users
// @Produce     json
// @Param       id path string true "user id"
// @Success     200 {object} userViewResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/users/{id} [get]
// @Security    BearerAuth
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	const op = "users.get"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	u, err := h.Users.UserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v1.WriteError(w, r, http.StatusNotFound, "User not found")
			return
		}
		logx.Error(h.Log, reqID, op, "get failed", err, "user_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	containers, folders, err := h.Assignments.AssignmentsForUser(r.Context(), u.ID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "assignments failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteJSON(w, r, http.StatusOK, userViewResponse{Success: true, User: userView{
		User:                 u,
		ContainerAssignments: containers,
		FolderAssignments:    folders,
	}})
}

type updateRequest struct {
	Name     *string      `json:"name"`
	Login    *string      `json:"login"`
	Password *string      `json:"password"`
	Role     *domain.Role `json:"role"`
}

// Update godoc
// @Summary     Update user fields
// @Description Частичное обновление: присланные поля меняются, остальные не трогаются.
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       id path string true "user id"
// @Param       request body updateRequest true "fields to update"
// @Success     200 {object} userResponse
// @Failure     400 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/users/{id} [put]
// @Security    BearerAuth
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "users.update"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	if req.Role != nil && !req.Role.Assignable() {
		v1.WriteError(w, r, http.StatusBadRequest, "Invalid role")
		return
	}
	if req.Login != nil && !domain.ValidLogin(*req.Login) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	upd := domain.UserUpdate{Name: req.Name, Login: req.Login, Role: req.Role}
	if req.Password != nil {
		if !domain.ValidPassword(*req.Password) {
			v1.WriteDomainError(w, r, domain.ErrBadParams)
			return
		}
		hashStr, err := h.Hasher.Hash(*req.Password)
		if err != nil {
			logx.Error(h.Log, reqID, op, "hash failed", err)
			v1.WriteDomainError(w, r, domain.ErrUnexpected)
			return
		}
		upd.PassHash = []byte(hashStr)
	}
	if upd.Name == nil && upd.Login == nil && upd.PassHash == nil && upd.Role == nil {
		v1.WriteError(w, r, http.StatusBadRequest, "No fields to update")
		return
	}

	u, err := h.Users.UpdateUser(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			v1.WriteError(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, domain.ErrConflict):
			v1.WriteError(w, r, http.StatusBadRequest, "Username already exists")
		default:
			logx.Error(h.Log, reqID, op, "update failed", err, "user_id", id)
			v1.WriteDomainError(w, r, err)
		}
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID)
	v1.WriteJSON(w, r, http.StatusOK, userResponse{Success: true, User: u})
}

// Delete godoc
// @Summary     Delete user
// @Description Удаляет пользователя вместе с его назначениями и записями аудита.
// @Tags        users
// @Produce     json
// @Param       id path string true "user id"
// @Success     200 {object} v1.MsgResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/users/{id} [delete]
// @Security    BearerAuth
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "users.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if err := h.Users.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v1.WriteError(w, r, http.StatusNotFound, "User not found")
			return
		}
		logx.Error(h.Log, reqID, op, "delete failed", err, "user_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", id)
	v1.WriteMessage(w, r, "User deleted successfully")
}
