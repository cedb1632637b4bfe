package s3

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/EgorLis/med-vault/internal/domain"
)

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool

	// Конвенции именования: контейнеры пациентов и папки с данными
	// распознаются по этим префиксам, остальные бакеты/префиксы невидимы.
	ContainerPrefix string
	FolderPrefix    string
}

type Storage struct {
	cl              *minio.Client
	logger          *log.Logger
	containerPrefix string
	folderPrefix    string
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		cl:              cl,
		logger:          logger,
		containerPrefix: cfg.ContainerPrefix,
		folderPrefix:    cfg.FolderPrefix,
	}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.cl.ListBuckets(ctx)
	if err != nil {
		s.logger.Printf("ping failed: %v", err)
	}
	return err
}

// ListContainers возвращает бакеты, подходящие под контейнерный префикс.
func (s *Storage) ListContainers(ctx context.Context) ([]string, error) {
	buckets, err := s.cl.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, b := range buckets {
		if strings.HasPrefix(b.Name, s.containerPrefix) {
			res = append(res, b.Name)
		}
	}
	s.logger.Printf("ListContainers: %d of %d buckets match prefix %q", len(res), len(buckets), s.containerPrefix)
	return res, nil
}

func (s *Storage) ContainerExists(ctx context.Context, containerName string) (bool, error) {
	if !strings.HasPrefix(containerName, s.containerPrefix) {
		return false, nil
	}
	return s.cl.BucketExists(ctx, containerName)
}

// ListFolders перечисляет «папки» контейнера: общие префиксы верхнего уровня,
// подходящие под папочный префикс. Слэш на конце срезается.
func (s *Storage) ListFolders(ctx context.Context, containerName string) ([]string, error) {
	ch := s.cl.ListObjects(ctx, containerName, minio.ListObjectsOptions{
		Recursive: false,
	})
	var res []string
	for obj := range ch {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		name := strings.TrimSuffix(obj.Key, "/")
		if strings.HasPrefix(name, s.folderPrefix) {
			res = append(res, name)
		}
	}
	s.logger.Printf("ListFolders %s: %d folders", containerName, len(res))
	return res, nil
}

func (s *Storage) ListBlobs(ctx context.Context, containerName string, folder domain.FolderName) ([]domain.BlobInfo, error) {
	prefix := folder.String() + "/"
	ch := s.cl.ListObjects(ctx, containerName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	var res []domain.BlobInfo
	for obj := range ch {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == prefix {
			continue // сам префикс-плейсхолдер
		}
		res = append(res, domain.BlobInfo{
			Name:         strings.TrimPrefix(obj.Key, prefix),
			FullPath:     obj.Key,
			ContentType:  obj.ContentType,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	s.logger.Printf("ListBlobs %s/%s: %d blobs", containerName, folder, len(res))
	return res, nil
}

func (s *Storage) BlobExists(ctx context.Context, containerName, blobPath string) (bool, error) {
	_, err := s.cl.StatObject(ctx, containerName, blobPath, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Storage) Put(ctx context.Context, containerName, blobPath string, r io.Reader, size int64, contentType string) error {
	info, err := s.cl.PutObject(ctx, containerName, blobPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Printf("Put %s/%s failed: %v", containerName, blobPath, err)
		return err
	}
	s.logger.Printf("Put %s/%s ok (%d bytes)", containerName, blobPath, info.Size)
	return nil
}

func (s *Storage) Delete(ctx context.Context, containerName, blobPath string) error {
	err := s.cl.RemoveObject(ctx, containerName, blobPath, minio.RemoveObjectOptions{})
	if err != nil {
		s.logger.Printf("Delete %s/%s failed: %v", containerName, blobPath, err)
		return err
	}
	s.logger.Printf("Delete %s/%s ok", containerName, blobPath)
	return nil
}

// ---- Подпись time-limited URL ----

func (s *Storage) PresignGet(ctx context.Context, containerName, blobPath string, ttl time.Duration) (*url.URL, error) {
	return s.cl.PresignedGetObject(ctx, containerName, blobPath, ttl, url.Values{})
}

func (s *Storage) PresignPut(ctx context.Context, containerName, blobPath string, ttl time.Duration) (*url.URL, error) {
	return s.cl.PresignedPutObject(ctx, containerName, blobPath, ttl)
}

func (s *Storage) PresignDelete(ctx context.Context, containerName, blobPath string, ttl time.Duration) (*url.URL, error) {
	u, err := s.cl.Presign(ctx, "DELETE", containerName, blobPath, ttl, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign delete: %w", err)
	}
	return u, nil
}

var (
	_ domain.BlobStorage = (*Storage)(nil)
	_ domain.Presigner   = (*Storage)(nil)
)
