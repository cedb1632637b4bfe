package assignments

import (
	"encoding/json"
	"errors"
	"fmt"
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
	Storage     domain.BlobStorage
}

type containersResponse struct {
	Success    bool     `json:"success"`
	Containers []string `json:"containers"`
}

type foldersResponse struct {
	Success bool     `json:"success"`
	Folders []string `json:"folders"`
}

// Containers godoc
// @Summary     List patient containers
// @Tags        assignments
// @Produce     json
// @Success     200 {object} containersResponse
// @Failure     403 {object} v1.ErrResponse
// @Router      /api/assignments/containers [get]
// @Security    BearerAuth
func (h *Handler) Containers(w http.ResponseWriter, r *http.Request) {
	const op = "assignments.containers"
	reqID := mw.RequestIDFromCtx(r.Context())

	names, err := h.Storage.ListContainers(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "list containers failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	v1.WriteJSON(w, r, http.StatusOK, containersResponse{Success: true, Containers: names})
}

// Folders godoc
// @Summary     List folders in a container
// @Tags        assignments
// @Produce     json
// @Param       containerName path string true "container"
// @Success     200 {object} foldersResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/assignments/containers/{containerName}/folders [get]
// @Security    BearerAuth
func (h *Handler) Folders(w http.ResponseWriter, r *http.Request) {
	const op = "assignments.folders"
	reqID := mw.RequestIDFromCtx(r.Context())
	containerName := r.PathValue("containerName")

	exists, err := h.Storage.ContainerExists(r.Context(), containerName)
	if err != nil {
		logx.Error(h.Log, reqID, op, "container check failed", err, "container", containerName)
		v1.WriteDomainError(w, r, err)
		return
	}
	if !exists {
		v1.WriteError(w, r, http.StatusNotFound, "Container not found")
		return
	}

	folders, err := h.Storage.ListFolders(r.Context(), containerName)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list folders failed", err, "container", containerName)
		v1.WriteDomainError(w, r, err)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	v1.WriteJSON(w, r, http.StatusOK, foldersResponse{Success: true, Folders: folders})
}

type assignmentResponse struct {
	Success    bool                       `json:"success"`
	Assignment domain.ContainerAssignment `json:"assignment"`
}

// AssignContainer godoc
// @Summary     Assign container to user
// @Tags        assignments
// @Produce     json
// @Param       containerName path string true "container"
// @Param       userId path string true "user id"
// @Success     201 {object} assignmentResponse
// @Failure     400 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/assignments/containers/{containerName}/users/{userId} [post]
// @Security    BearerAuth
func (h *Handler) AssignContainer(w http.ResponseWriter, r *http.Request) {
	const op = "assignments.assign_container"
	reqID := mw.RequestIDFromCtx(r.Context())
	containerName := r.PathValue("containerName")

	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if _, err := h.Users.UserByID(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v1.WriteError(w, r, http.StatusNotFound, "User not found")
			return
		}
		v1.WriteDomainError(w, r, err)
		return
	}

	exists, err := h.Storage.ContainerExists(r.Context(), containerName)
	if err != nil {
		logx.Error(h.Log, reqID, op, "container check failed", err, "container", containerName)
		v1.WriteDomainError(w, r, err)
		return
	}
	if !exists {
		v1.WriteError(w, r, http.StatusNotFound, "Container not found")
		return
	}

	a, err := h.Assignments.CreateContainerAssignment(r.Context(), userID, containerName)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			v1.WriteError(w, r, http.StatusBadRequest, "Container already assigned to user")
			return
		}
		logx.Error(h.Log, reqID, op, "create failed", err, "user_id", userID, "container", containerName)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", userID, "container", containerName)
	v1.WriteJSON(w, r, http.StatusCreated, assignmentResponse{Success: true, Assignment: a})
}

type assignFoldersRequest struct {
	UserID      uuid.UUID `json:"userId"`
	FolderNames []string  `json:"folderNames"`
}

type assignFoldersResponse struct {
	Success     bool                      `json:"success"`
	Message     string                    `json:"message"`
	Assignments []domain.FolderAssignment `json:"assignments"`
}

// AssignFolders godoc
// @Summary     Assign folders to user
// @Description Требует уже назначенный контейнер. Повторные папки пропускаются.
// @Tags        assignments
// @Accept      json
// @Produce     json
// @Param       containerName path string true "container"
// @Param       request body assignFoldersRequest true "userId, folderNames"
// @Success     201 {object} assignFoldersResponse
// @Failure     400 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/assignments/containers/{containerName}/folders [post]
// @Security    BearerAuth
func (h *Handler) AssignFolders(w http.ResponseWriter, r *http.Request) {
	const op = "assignments.assign_folders"
	reqID := mw.RequestIDFromCtx(r.Context())
	containerName := r.PathValue("containerName")

	var req assignFoldersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if req.UserID == uuid.Nil || len(req.FolderNames) == 0 {
		v1.WriteError(w, r, http.StatusBadRequest, "User ID and folder names array required")
		return
	}

	folders := make([]domain.FolderName, 0, len(req.FolderNames))
	for _, name := range req.FolderNames {
		f, err := domain.NewFolderName(name)
		if err != nil {
			v1.WriteDomainError(w, r, err)
			return
		}
		folders = append(folders, f)
	}

	if _, err := h.Users.UserByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v1.WriteError(w, r, http.StatusNotFound, "User not found")
			return
		}
		v1.WriteDomainError(w, r, err)
		return
	}

	created, err := h.Assignments.CreateFolderAssignments(r.Context(), req.UserID, containerName, folders)
	if err != nil {
		if errors.Is(err, domain.ErrBadParams) {
			v1.WriteError(w, r, http.StatusBadRequest, "Container not assigned to user")
			return
		}
		logx.Error(h.Log, reqID, op, "create failed", err, "user_id", req.UserID, "container", containerName)
		v1.WriteDomainError(w, r, err)
		return
	}
	if created == nil {
		created = []domain.FolderAssignment{}
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", req.UserID, "container", containerName, "assigned", len(created))
	v1.WriteJSON(w, r, http.StatusCreated, assignFoldersResponse{
		Success:     true,
		Message:     fmt.Sprintf("%d folders assigned to user", len(created)),
		Assignments: created,
	})
}

type userAssignmentsResponse struct {
	Success              bool                         `json:"success"`
	User                 domain.User                  `json:"user"`
	ContainerAssignments []domain.ContainerAssignment `json:"containerAssignments"`
	FolderAssignments    []domain.FolderAssignment    `json:"folderAssignments"`
}

// UserAssignments godoc
// @Summary     Get assignments of a user
// @Tags        assignments
// @Produce     json
// @Param       userId path string true "user id"
// @Success     200 {object} userAssignmentsResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/assignments/users/{userId} [get]
// @Security    BearerAuth
func (h *Handler) UserAssignments(w http.ResponseWriter, r *http.Request) {
	const op = "assignments.user"
	reqID := mw.RequestIDFromCtx(r.Context())

	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	u, err := h.Users.UserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v1.WriteError(w, r, http.StatusNotFound, "User not found")
			return
		}
		v1.WriteDomainError(w, r, err)
		return
	}
	containers, folders, err := h.Assignments.AssignmentsForUser(r.Context(), userID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "assignments failed", err, "user_id", userID)
		v1.WriteDomainError(w, r, err)
		return
	}
	if containers == nil {
		containers = []domain.ContainerAssignment{}
	}
	if folders == nil {
		folders = []domain.FolderAssignment{}
	}
	v1.WriteJSON(w, r, http.StatusOK, userAssignmentsResponse{
		Success:              true,
		User:                 u,
		ContainerAssignments: containers,
		FolderAssignments:    folders,
	})
}

type containerWithFolders struct {
	domain.ContainerAssignment
	Folders []domain.FolderAssignment `json:"folders"`
}

type myAssignmentsResponse struct {
	Success     bool                   `json:"success"`
	User        domain.User            `json:"user"`
	Assignments []containerWithFolders `json:"assignments"`
}

// MyAssignments godoc
// @Summary     Current user's assignments grouped by container
// @Tags        assignments
// @Produce     json
// @Success     200 {object} myAssignmentsResponse
// @Failure     401 {object} v1.ErrResponse
// @Router      /api/assignments/my-assignments [get]
// @Security    BearerAuth
func (h *Handler) MyAssignments(w http.ResponseWriter, r *http.Request) {
	const op = "assignments.my"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	containers, folders, err := h.Assignments.AssignmentsForUser(r.Context(), u.ID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "assignments failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	grouped := make([]containerWithFolders, 0, len(containers))
	for _, c := range containers {
		cw := containerWithFolders{ContainerAssignment: c, Folders: []domain.FolderAssignment{}}
		for _, f := range folders {
			if f.ContainerName == c.ContainerName {
				cw.Folders = append(cw.Folders, f)
			}
		}
		grouped = append(grouped, cw)
	}
	v1.WriteJSON(w, r, http.StatusOK, myAssignmentsResponse{Success: true, User: u, Assignments: grouped})
}

// Revoke godoc
// @Summary     Revoke an assignment
// @Description type=container снимает и все папочные назначения под контейнером.
// @Tags        assignments
// @Produce     json
// @Param       assignmentId path string true "assignment id"
// @Param       type query string true "container | folder"
// @Success     200 {object} v1.MsgResponse
// @Failure     400 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/assignments/{assignmentId} [delete]
// @Security    BearerAuth
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	const op = "assignments.revoke"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := uuid.Parse(r.PathValue("assignmentId"))
	if err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	typ := r.URL.Query().Get("type")
	switch typ {
	case "container":
		err = h.Assignments.RevokeContainerAssignment(r.Context(), id)
	case "folder":
		err = h.Assignments.RevokeFolderAssignment(r.Context(), id)
	default:
		v1.WriteError(w, r, http.StatusBadRequest, "Assignment type required (container or folder)")
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v1.WriteError(w, r, http.StatusNotFound, "Assignment not found")
			return
		}
		logx.Error(h.Log, reqID, op, "revoke failed", err, "assignment_id", id, "type", typ)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "assignment_id", id, "type", typ)
	v1.WriteMessage(w, r, typ+" assignment revoked")
}
