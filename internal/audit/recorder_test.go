package audit

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/med-vault/internal/domain"
)

type fakeRepo struct {
	mu   sync.Mutex
	recs []domain.AuditRecord
	err  error
}

func (f *fakeRepo) InsertAudit(_ context.Context, rec domain.AuditRecord) (domain.AuditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.AuditRecord{}, f.err
	}
	rec.ID = int64(len(f.recs) + 1)
	f.recs = append(f.recs, rec)
	return rec, nil
}

func (f *fakeRepo) QueryAudit(_ context.Context, _ domain.AuditFilter) ([]domain.AuditEntry, error) {
	return nil, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func folder(t *testing.T, s string) domain.FolderName {
	t.Helper()
	f, err := domain.NewFolderName(s)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestRecordIsWrittenAndDrainedOnClose(t *testing.T) {
	repo := &fakeRepo{}
	r := NewRecorder(discard(), repo, 16)

	uid := uuid.New()
	for i := 0; i < 5; i++ {
		r.Record(uid, "cph-container3", folder(t, "Patient_Data_001"), "scan.pdf", domain.OpDownload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r.Close(ctx)

	if got := repo.count(); got != 5 {
		t.Fatalf("records written = %d, want 5", got)
	}
}

func TestRecordNeverBlocksOrFailsCaller(t *testing.T) {
	repo := &fakeRepo{err: errors.New("audit db down")}
	r := NewRecorder(discard(), repo, 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// намного больше буфера; при отказе БД очередь не должна блокировать
		for i := 0; i < 100; i++ {
			r.Record(uuid.New(), "c", folder(t, "f"), "b", domain.OpUpload)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked the caller")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Close(ctx)
}

func TestRecordAfterCloseIsDroppedNotPanicking(t *testing.T) {
	repo := &fakeRepo{}
	r := NewRecorder(discard(), repo, 4)

	r.Record(uuid.New(), "c", folder(t, "f"), "b", domain.OpList)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Close(ctx)

	// запоздавший хэндлер после остановки
	r.Record(uuid.New(), "c", folder(t, "f"), "late", domain.OpUpload)
	r.Close(ctx) // повторный Close тоже безопасен

	if got := repo.count(); got != 1 {
		t.Fatalf("records written = %d, want 1", got)
	}
}

func TestCloseWithEmptyQueueReturns(t *testing.T) {
	r := NewRecorder(discard(), &fakeRepo{}, 4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	r.Close(ctx)
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("Close with empty queue must return promptly")
	}
}
