package blobs

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/access"
	"github.com/EgorLis/med-vault/internal/capability"
	"github.com/EgorLis/med-vault/internal/domain"
)

// fakeChecker отдаёт назначения из статических множеств.
type fakeChecker struct {
	containers map[string]bool // "userID|container"
	folders    map[string]bool // "userID|container|folder"
}

func (f *fakeChecker) HasContainerAssignment(_ context.Context, userID domain.UserID, containerName string) (bool, error) {
	return f.containers[userID.String()+"|"+containerName], nil
}

func (f *fakeChecker) HasFolderAssignment(_ context.Context, userID domain.UserID, containerName string, folder domain.FolderName) (bool, error) {
	return f.folders[userID.String()+"|"+containerName+"|"+folder.String()], nil
}

type fakeStorage struct {
	containers map[string]bool
	blobs      map[string][]domain.BlobInfo // по префиксу папки
	exists     map[string]bool              // "container|blobPath"
}

func (f *fakeStorage) Ping(context.Context) error { return nil }

func (f *fakeStorage) ListContainers(context.Context) ([]string, error) {
	var out []string
	for name := range f.containers {
		out = append(out, name)
	}
	return out, nil
}

func (f *fakeStorage) ContainerExists(_ context.Context, containerName string) (bool, error) {
	return f.containers[containerName], nil
}

func (f *fakeStorage) ListFolders(_ context.Context, containerName string) ([]string, error) {
	return nil, nil
}

func (f *fakeStorage) ListBlobs(_ context.Context, containerName string, folder domain.FolderName) ([]domain.BlobInfo, error) {
	return f.blobs[containerName+"|"+folder.String()], nil
}

func (f *fakeStorage) BlobExists(_ context.Context, containerName, blobPath string) (bool, error) {
	return f.exists[containerName+"|"+blobPath], nil
}

func (f *fakeStorage) Put(_ context.Context, containerName, blobPath string, r io.Reader, size int64, contentType string) error {
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, containerName, blobPath string) error { return nil }

type fakeAudit struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

func (f *fakeAudit) Record(userID domain.UserID, containerName string, folder domain.FolderName, blobName string, op domain.Operation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, domain.AuditRecord{
		UserID:        userID,
		ContainerName: containerName,
		FolderName:    folder.String(),
		BlobName:      blobName,
		Operation:     op,
		Timestamp:     time.Now().UTC(),
	})
}

func (f *fakeAudit) Query(_ context.Context, _ domain.AuditFilter) ([]domain.AuditEntry, error) {
	return nil, nil
}

func (f *fakeAudit) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeCaps struct{}

func (fakeCaps) Issue(_ context.Context, containerName, blobPath string, role domain.Role) (capability.Capability, error) {
	perms := capability.PermissionsForRole(role)
	c := capability.Capability{
		URL:         "https://signed.example/" + containerName + "/" + blobPath,
		Permissions: perms.String(),
		ExpiresAt:   time.Now().Add(capability.TTL),
	}
	if perms.Create || perms.Write {
		c.UploadURL = c.URL + "?put"
	}
	if perms.Delete {
		c.DeleteURL = c.URL + "?delete"
	}
	return c, nil
}

func newTestHandler(doctor domain.User) (*Handler, *fakeAudit) {
	checker := &fakeChecker{
		containers: map[string]bool{
			doctor.ID.String() + "|cph-container3": true,
		},
		folders: map[string]bool{
			doctor.ID.String() + "|cph-container3|Patient_Data_001": true,
		},
	}
	storage := &fakeStorage{
		containers: map[string]bool{"cph-container3": true},
		blobs: map[string][]domain.BlobInfo{
			"cph-container3|Patient_Data_001": {
				{Name: "scan.pdf", FullPath: "Patient_Data_001/scan.pdf", Size: 42},
			},
		},
		exists: map[string]bool{
			"cph-container3|Patient_Data_001/scan.pdf": true,
		},
	}
	rec := &fakeAudit{}
	return &Handler{
		Log:     log.New(io.Discard, "", 0),
		Gate:    access.NewGate(checker),
		Storage: storage,
		Caps:    fakeCaps{},
		Audit:   rec,
	}, rec
}

func listRequest(u domain.User, container, folder string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/blobs/"+container+"/"+folder, nil)
	req.SetPathValue("containerName", container)
	req.SetPathValue("folderName", folder)
	return req.WithContext(domain.WithUser(req.Context(), u))
}

func TestListAllowedWritesAuditRecord(t *testing.T) {
	doctor := domain.User{ID: uuid.New(), Name: "Dr. Bob", Login: "bob", Role: domain.RoleDoctor}
	h, rec := newTestHandler(doctor)

	w := httptest.NewRecorder()
	h.List(w, listRequest(doctor, "cph-container3", "Patient_Data_001"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "scan.pdf") {
		t.Fatalf("blob missing in body: %s", w.Body.String())
	}
	if rec.count() != 1 {
		t.Fatalf("audit records = %d, want 1", rec.count())
	}
	got := rec.records[0]
	if got.Operation != domain.OpList || got.BlobName != folderListingMarker {
		t.Fatalf("audit record = %+v, want LIST %s", got, folderListingMarker)
	}
}

// Отказ по назначениям не должен оставлять след в аудите.
func TestListDeniedLeavesNoAuditTrail(t *testing.T) {
	doctor := domain.User{ID: uuid.New(), Name: "Dr. Bob", Login: "bob", Role: domain.RoleDoctor}
	h, rec := newTestHandler(doctor)

	w := httptest.NewRecorder()
	h.List(w, listRequest(doctor, "cph-container3", "Patient_Data_002")) // папка не назначена

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Access denied") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if rec.count() != 0 {
		t.Fatalf("audit records = %d, want 0", rec.count())
	}
}

func TestAdminBypassesAssignments(t *testing.T) {
	admin := domain.User{ID: uuid.New(), Name: "Root", Login: "root", Role: domain.RoleAdmin}
	doctor := domain.User{ID: uuid.New(), Role: domain.RoleDoctor}
	h, rec := newTestHandler(doctor) // у admin нет ни одного назначения

	w := httptest.NewRecorder()
	h.List(w, listRequest(admin, "cph-container3", "Patient_Data_001"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if rec.count() != 1 {
		t.Fatalf("audit records = %d, want 1", rec.count())
	}
}

func TestCapabilityURLPermissionsByRole(t *testing.T) {
	doctor := domain.User{ID: uuid.New(), Name: "Dr. Bob", Login: "bob", Role: domain.RoleDoctor}
	h, rec := newTestHandler(doctor)

	req := httptest.NewRequest(http.MethodGet, "/api/blobs/cph-container3/Patient_Data_001/scan.pdf/url", nil)
	req.SetPathValue("containerName", "cph-container3")
	req.SetPathValue("folderName", "Patient_Data_001")
	req.SetPathValue("blobName", "scan.pdf")
	req = req.WithContext(domain.WithUser(req.Context(), doctor))

	w := httptest.NewRecorder()
	h.CapabilityURL(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"permissions":"rcw"`) {
		t.Fatalf("doctor permissions wrong: %s", body)
	}
	if !strings.Contains(body, `"canUpload":true`) {
		t.Fatalf("doctor should be able to upload: %s", body)
	}
	if !strings.Contains(body, `"canModify":false`) {
		t.Fatalf("doctor must not get canModify: %s", body)
	}
	if rec.count() != 1 || rec.records[0].Operation != domain.OpDownload {
		t.Fatalf("expected one DOWNLOAD audit record, got %+v", rec.records)
	}
}

func TestCapabilityURLMissingBlob(t *testing.T) {
	doctor := domain.User{ID: uuid.New(), Login: "bob", Role: domain.RoleDoctor}
	h, rec := newTestHandler(doctor)

	req := httptest.NewRequest(http.MethodGet, "/api/blobs/cph-container3/Patient_Data_001/nope.pdf/url", nil)
	req.SetPathValue("containerName", "cph-container3")
	req.SetPathValue("folderName", "Patient_Data_001")
	req.SetPathValue("blobName", "nope.pdf")
	req = req.WithContext(domain.WithUser(req.Context(), doctor))

	w := httptest.NewRecorder()
	h.CapabilityURL(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body: %s", w.Code, w.Body.String())
	}
	if rec.count() != 0 {
		t.Fatalf("audit records = %d, want 0", rec.count())
	}
}
