// Package storage 克鲁图标等图片的对象存储
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	FolderCrew = "crew"
	FolderUser = "user"
)

var ErrNotConfigured = errors.New("image storage is not configured")

type GCSConfig struct {
	Bucket      string
	CDNDomain   string
	Credentials string // JSON 内容或文件路径，为空时使用默认凭据
}

type GCSStore struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if creds := strings.TrimSpace(cfg.Credentials); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, cdnDomain: cfg.CDNDomain}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Upload 以 uuid 重新命名，只保留原文件扩展名；返回对象在 folder 下的 key
func (s *GCSStore) Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	key := NewKey(filename)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(path.Join(folder, key)).NewWriter(ctx)
	if ct := contentType(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object writer: %w", err)
	}
	return key, nil
}

func (s *GCSStore) Delete(ctx context.Context, folder, key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := s.client.Bucket(s.bucket).Object(path.Join(folder, key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s/%s: %w", folder, key, err)
	}
	return nil
}

func (s *GCSStore) URL(folder, key string) string {
	if key == "" {
		return ""
	}
	return PublicURL(s.bucket, s.cdnDomain, folder, key)
}

func PublicURL(bucket, cdnDomain, folder, key string) string {
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s/%s", cdnDomain, folder, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s/%s", bucket, folder, key)
}

func NewKey(filename string) string {
	return uuid.NewString() + strings.ToLower(path.Ext(filename))
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}

// NopStore 未配置存储桶时使用：上传直接失败，删除忽略
type NopStore struct{}

func (NopStore) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}

func (NopStore) Delete(context.Context, string, string) error { return nil }

func (NopStore) URL(_, key string) string { return key }
