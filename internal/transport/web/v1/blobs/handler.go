package blobs

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/capability"
	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/obs"
	"github.com/EgorLis/med-vault/internal/policy"
	"github.com/EgorLis/med-vault/internal/transport/web/logx"
	"github.com/EgorLis/med-vault/internal/transport/web/mw"
	v1 "github.com/EgorLis/med-vault/internal/transport/web/v1"
)

// Имя-маркер для записей аудита об операции LIST: сама операция
// относится к папке, а не к конкретному блобу.
const folderListingMarker = "FOLDER_LISTING"

// Узкие порты, чтобы хэндлер тестировался на фейках.
type AccessGate interface {
	Check(ctx context.Context, u domain.User, action policy.Action, containerName string, folder *domain.FolderName) error
}

type Auditor interface {
	Record(userID domain.UserID, containerName string, folder domain.FolderName, blobName string, op domain.Operation)
	Query(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error)
}

type CapabilityIssuer interface {
	Issue(ctx context.Context, containerName, blobPath string, role domain.Role) (capability.Capability, error)
}

type Handler struct {
	Log     *log.Logger
	Gate    AccessGate
	Storage domain.BlobStorage
	Caps    CapabilityIssuer
	Audit   Auditor
}

type listResponse struct {
	Success       bool              `json:"success"`
	ContainerName string            `json:"containerName"`
	FolderName    string            `json:"folderName"`
	Blobs         []domain.BlobInfo `json:"blobs"`
}

// List godoc
// @Summary     List blobs in a folder
// @Description Каждый успешный листинг фиксируется в аудите операцией LIST.
// @Tags        blobs
// @Produce     json
// @Param       containerName path string true "container"
// @Param       folderName path string true "folder"
// @Success     200 {object} listResponse
// @Failure     403 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/blobs/{containerName}/{folderName} [get]
// @Security    BearerAuth
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "blobs.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	containerName := r.PathValue("containerName")
	folder, err := domain.NewFolderName(r.PathValue("folderName"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	// Отказ здесь не оставляет следа в аудите: журналируются только
	// состоявшиеся обращения к хранилищу.
	if err := h.Gate.Check(r.Context(), u, policy.ActionListContainer, containerName, &folder); err != nil {
		logx.Error(h.Log, reqID, op, "access denied", err, "user_id", u.ID, "container", containerName)
		v1.WriteError(w, r, http.StatusForbidden, "Access denied")
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

	bs, err := h.Storage.ListBlobs(r.Context(), containerName, folder)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err, "container", containerName, "folder", folder)
		v1.WriteDomainError(w, r, err)
		return
	}
	if bs == nil {
		bs = []domain.BlobInfo{}
	}

	h.Audit.Record(u.ID, containerName, folder, folderListingMarker, domain.OpList)

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "container", containerName, "folder", folder, "blobs", len(bs))
	v1.WriteJSON(w, r, http.StatusOK, listResponse{
		Success:       true,
		ContainerName: containerName,
		FolderName:    folder.String(),
		Blobs:         bs,
	})
}

type capabilityResponse struct {
	Success bool `json:"success"`
	capability.Capability
	CanModify bool `json:"canModify"`
	CanUpload bool `json:"canUpload"`
}

// CapabilityURL godoc
// @Summary     Issue presigned URLs for a blob
// @Description Набор прав зависит от роли; срок действия подписи — один час.
// @Tags        blobs
// @Produce     json
// @Param       containerName path string true "container"
// @Param       folderName path string true "folder"
// @Param       blobName path string true "blob"
// @Success     200 {object} capabilityResponse
// @Failure     403 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/blobs/{containerName}/{folderName}/{blobName}/url [get]
// @Security    BearerAuth
func (h *Handler) CapabilityURL(w http.ResponseWriter, r *http.Request) {
	const op = "blobs.capability"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	containerName := r.PathValue("containerName")
	folder, err := domain.NewFolderName(r.PathValue("folderName"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	blobName := r.PathValue("blobName")
	if !domain.ValidBlobName(blobName) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	if err := h.Gate.Check(r.Context(), u, policy.ActionListContainer, containerName, &folder); err != nil {
		logx.Error(h.Log, reqID, op, "access denied", err, "user_id", u.ID, "container", containerName)
		v1.WriteError(w, r, http.StatusForbidden, "Access denied")
		return
	}

	exists, err := h.Storage.ContainerExists(r.Context(), containerName)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if !exists {
		v1.WriteError(w, r, http.StatusNotFound, "Container not found")
		return
	}

	blobPath := folder.String() + "/" + blobName
	blobExists, err := h.Storage.BlobExists(r.Context(), containerName, blobPath)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if !blobExists {
		v1.WriteError(w, r, http.StatusNotFound, "Blob not found")
		return
	}

	cap, err := h.Caps.Issue(r.Context(), containerName, blobPath, u.Role)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue failed", err, "container", containerName, "blob", blobPath)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}
	obs.CapabilityIssued(string(u.Role))

	h.Audit.Record(u.ID, containerName, folder, blobName, domain.OpDownload)

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "container", containerName, "blob", blobPath, "perms", cap.Permissions)
	v1.WriteJSON(w, r, http.StatusOK, capabilityResponse{
		Success:    true,
		Capability: cap,
		CanModify:  u.Role == domain.RoleAdmin,
		CanUpload:  cap.UploadURL != "",
	})
}

type uploadResponse struct {
	Success       bool           `json:"success"`
	ContainerName string         `json:"containerName"`
	FolderName    string         `json:"folderName"`
	BlobName      string         `json:"blobName"`
	FullPath      string         `json:"fullPath"`
	ContentType   string         `json:"contentType"`
	Size          int64          `json:"size"`
	UploadedBy    uploadedByView `json:"uploadedBy"`
}

type uploadedByView struct {
	ID   domain.UserID `json:"id"`
	Role domain.Role   `json:"role"`
	Name string        `json:"name"`
}

// Upload godoc
// @Summary     Upload a blob
// @Description multipart: file — содержимое, filename — необязательное имя.
// @Tags        blobs
// @Accept      multipart/form-data
// @Produce     json
// @Param       containerName path string true "container"
// @Param       folderName path string true "folder"
// @Param       file formData file true "file"
// @Success     201 {object} uploadResponse
// @Failure     400 {object} v1.ErrResponse
// @Failure     403 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/blobs/{containerName}/{folderName} [post]
// @Security    BearerAuth
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "blobs.upload"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	containerName := r.PathValue("containerName")
	folder, err := domain.NewFolderName(r.PathValue("folderName"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	if err := h.Gate.Check(r.Context(), u, policy.ActionUploadFile, containerName, &folder); err != nil {
		logx.Error(h.Log, reqID, op, "access denied", err, "user_id", u.ID, "container", containerName)
		v1.WriteError(w, r, http.StatusForbidden, "Access denied")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		v1.WriteError(w, r, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	blobName := r.FormValue("filename")
	if blobName == "" {
		blobName = uuid.NewString() + "-" + header.Filename
	}
	if !domain.ValidBlobName(blobName) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	exists, err := h.Storage.ContainerExists(r.Context(), containerName)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if !exists {
		v1.WriteError(w, r, http.StatusNotFound, "Container not found")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	fullBlobName := folder.String() + "/" + blobName

	if err := h.Storage.Put(r.Context(), containerName, fullBlobName, file, header.Size, contentType); err != nil {
		logx.Error(h.Log, reqID, op, "put failed", err, "container", containerName, "blob", fullBlobName)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	h.Audit.Record(u.ID, containerName, folder, blobName, domain.OpUpload)

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "container", containerName, "blob", fullBlobName, "size", header.Size)
	v1.WriteJSON(w, r, http.StatusCreated, uploadResponse{
		Success:       true,
		ContainerName: containerName,
		FolderName:    folder.String(),
		BlobName:      blobName,
		FullPath:      fullBlobName,
		ContentType:   contentType,
		Size:          header.Size,
		UploadedBy:    uploadedByView{ID: u.ID, Role: u.Role, Name: u.Name},
	})
}

type deleteResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ContainerName string `json:"containerName"`
	FolderName    string `json:"folderName"`
	BlobName      string `json:"blobName"`
}

// Delete godoc
// @Summary     Delete a blob
// @Tags        blobs
// @Produce     json
// @Param       containerName path string true "container"
// @Param       folderName path string true "folder"
// @Param       blobName path string true "blob"
// @Success     200 {object} deleteResponse
// @Failure     403 {object} v1.ErrResponse
// @Failure     404 {object} v1.ErrResponse
// @Router      /api/blobs/{containerName}/{folderName}/{blobName} [delete]
// @Security    BearerAuth
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "blobs.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	containerName := r.PathValue("containerName")
	folder, err := domain.NewFolderName(r.PathValue("folderName"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	blobName := r.PathValue("blobName")
	if !domain.ValidBlobName(blobName) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	if err := h.Gate.Check(r.Context(), u, policy.ActionDeleteFile, containerName, &folder); err != nil {
		logx.Error(h.Log, reqID, op, "access denied", err, "user_id", u.ID, "container", containerName)
		v1.WriteError(w, r, http.StatusForbidden, "Access denied")
		return
	}

	exists, err := h.Storage.ContainerExists(r.Context(), containerName)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if !exists {
		v1.WriteError(w, r, http.StatusNotFound, "Container not found")
		return
	}

	blobPath := folder.String() + "/" + blobName
	blobExists, err := h.Storage.BlobExists(r.Context(), containerName, blobPath)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if !blobExists {
		v1.WriteError(w, r, http.StatusNotFound, "Blob not found")
		return
	}

	if err := h.Storage.Delete(r.Context(), containerName, blobPath); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "container", containerName, "blob", blobPath)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	h.Audit.Record(u.ID, containerName, folder, blobName, domain.OpDelete)

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "container", containerName, "blob", blobPath)
	v1.WriteJSON(w, r, http.StatusOK, deleteResponse{
		Success:       true,
		Message:       "Blob deleted successfully",
		ContainerName: containerName,
		FolderName:    folder.String(),
		BlobName:      blobName,
	})
}

type auditResponse struct {
	Success    bool                `json:"success"`
	AuditLogs  []domain.AuditEntry `json:"auditLogs"`
	Pagination paginationView      `json:"pagination"`
}

type paginationView struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// AuditLogs godoc
// @Summary     Query the file operation audit trail
// @Description Фильтры: userId, containerName, folderName, operation, startDate, endDate.
// @Tags        blobs
// @Produce     json
// @Param       limit query int false "page size" default(100)
// @Param       offset query int false "page offset" default(0)
// @Success     200 {object} auditResponse
// @Failure     403 {object} v1.ErrResponse
// @Router      /api/blobs/audit [get]
// @Security    BearerAuth
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	const op = "blobs.audit"
	reqID := mw.RequestIDFromCtx(r.Context())

	u, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	if err := h.Gate.Check(r.Context(), u, policy.ActionViewAudit, "", nil); err != nil {
		v1.WriteError(w, r, http.StatusForbidden, "Access denied")
		return
	}

	f, err := auditFilterFromQuery(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	entries, err := h.Audit.Query(r.Context(), f)
	if err != nil {
		logx.Error(h.Log, reqID, op, "query failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}

	v1.WriteJSON(w, r, http.StatusOK, auditResponse{
		Success:   true,
		AuditLogs: entries,
		Pagination: paginationView{
			Limit:  f.Limit,
			Offset: f.Offset,
			// точный счётчик потребовал бы второго запроса; для листания хватает
			Total: len(entries),
		},
	})
}

func auditFilterFromQuery(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	f := domain.AuditFilter{
		ContainerName: q.Get("containerName"),
		FolderName:    q.Get("folderName"),
		Operation:     domain.Operation(q.Get("operation")),
		Limit:         100,
	}
	if f.Operation != "" && !f.Operation.Valid() {
		return f, fmt.Errorf("unknown operation %q: %w", f.Operation, domain.ErrBadParams)
	}
	if s := q.Get("userId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, fmt.Errorf("bad userId: %w", domain.ErrBadParams)
		}
		f.UserID = &id
	}
	if s := q.Get("startDate"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, fmt.Errorf("bad startDate: %w", domain.ErrBadParams)
		}
		f.From = t
	}
	if s := q.Get("endDate"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, fmt.Errorf("bad endDate: %w", domain.ErrBadParams)
		}
		f.To = t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("bad limit: %w", domain.ErrBadParams)
		}
		f.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, fmt.Errorf("bad offset: %w", domain.ErrBadParams)
		}
		f.Offset = n
	}
	return f, nil
}
