// Package audit — журнал обращений к файлам. Запись — fire-and-forget через
// выделенную очередь: отказ журнала никогда не ломает и не тормозит основную
// операцию. Контракт выражен структурой (канал + фоновый воркер), а не
// проигнорированной ошибкой.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/EgorLis/med-vault/internal/domain"
	"github.com/EgorLis/med-vault/internal/obs"
)

const insertTimeout = 5 * time.Second

type Recorder struct {
	log  *log.Logger
	repo domain.AuditRepo
	done chan struct{}

	mu     sync.Mutex
	queue  chan domain.AuditRecord
	closed bool
}

func NewRecorder(logger *log.Logger, repo domain.AuditRepo, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Recorder{
		log:   logger,
		repo:  repo,
		queue: make(chan domain.AuditRecord, buffer),
		done:  make(chan struct{}),
	}
	go r.worker()
	return r
}

// Record ставит запись в очередь и возвращается немедленно.
// При переполненной очереди запись теряется с пометкой в логе —
// блокировать вызывающего нельзя ни при каких условиях.
func (r *Recorder) Record(userID domain.UserID, containerName string, folder domain.FolderName, blobName string, op domain.Operation) {
	rec := domain.AuditRecord{
		UserID:        userID,
		ContainerName: containerName,
		FolderName:    folder.String(),
		BlobName:      blobName,
		Operation:     op,
		Timestamp:     time.Now().UTC(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// хвост запроса, переживший shutdown сервера
		obs.AuditDropped()
		r.log.Printf("recorder closed, dropping record user=%s op=%s %s/%s/%s",
			userID, op, containerName, folder, blobName)
		return
	}
	select {
	case r.queue <- rec:
	default:
		obs.AuditDropped()
		r.log.Printf("queue full, dropping record user=%s op=%s %s/%s/%s",
			userID, op, containerName, folder, blobName)
	}
}

// Query — админская выборка журнала; просто делегирует хранилищу.
func (r *Recorder) Query(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	return r.repo.QueryAudit(ctx, f)
}

// Close останавливает приём и дожидается, пока воркер дольёт очередь
// (или истечёт ctx). Record после Close не паникует, а теряет запись.
func (r *Recorder) Close(ctx context.Context) {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	select {
	case <-r.done:
		r.log.Println("drained")
	case <-ctx.Done():
		r.log.Printf("drain interrupted: %v", ctx.Err())
	}
}

func (r *Recorder) worker() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		if _, err := r.repo.InsertAudit(ctx, rec); err != nil {
			// не критично: журнал best-effort
			r.log.Printf("insert failed: %v (user=%s op=%s)", err, rec.UserID, rec.Operation)
		}
		cancel()
	}
}
