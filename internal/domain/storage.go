package domain

import (
	"context"
	"io"
	"net/url"
	"time"
)

// Метаданные блоба в выдаче листинга
type BlobInfo struct {
	Name         string    `json:"name"`     // без префикса папки
	FullPath     string    `json:"fullPath"` // {folder}/{name}
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"contentLength"`
	LastModified time.Time `json:"lastModified"`
}

// Object store: контейнеры управляются извне, «папки» — конвенция префиксов
// имён блобов. Адресация блоба: {containerName}/{folderName}/{blobName}.
type BlobStorage interface {
	Ping(ctx context.Context) error

	// Обнаружение контейнеров/папок по принятым префиксам именования
	ListContainers(ctx context.Context) ([]string, error)
	ContainerExists(ctx context.Context, containerName string) (bool, error)
	ListFolders(ctx context.Context, containerName string) ([]string, error)

	ListBlobs(ctx context.Context, containerName string, folder FolderName) ([]BlobInfo, error)
	BlobExists(ctx context.Context, containerName, blobPath string) (bool, error)
	Put(ctx context.Context, containerName, blobPath string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, containerName, blobPath string) error
}

// Подпись time-limited URL на один блоб. Авторизацию не проверяет —
// вызывается только после allow от Access Gate.
type Presigner interface {
	PresignGet(ctx context.Context, containerName, blobPath string, ttl time.Duration) (*url.URL, error)
	PresignPut(ctx context.Context, containerName, blobPath string, ttl time.Duration) (*url.URL, error)
	PresignDelete(ctx context.Context, containerName, blobPath string, ttl time.Duration) (*url.URL, error)
}
