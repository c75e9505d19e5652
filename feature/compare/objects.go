package compare

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"reconciler/core/failure"
	"reconciler/core/tabular"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo describes a spreadsheet stored in the bucket.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	MediaType    string    `json:"media_type"`
}

// ObjectFile describes a bucket object as a comparison input.
func (s *Service) ObjectFile(ctx context.Context, key string) (tabular.File, error) {
	if s.client == nil {
		return tabular.File{}, failure.Validation("object storage is disabled")
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return tabular.File{}, failure.Validation("an object key is required")
	}

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return tabular.File{}, failure.Validation("object %s not found in bucket %s", key, s.bucket)
		}
		return tabular.File{}, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	mediaType := info.ContentType
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = tabular.MediaTypeByExtension(key)
	}

	client, bucket := s.client, s.bucket
	return tabular.File{
		Name:      key,
		Size:      info.Size,
		ModTime:   info.LastModified,
		MediaType: mediaType,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
		},
	}, nil
}

// ListObjects lists the objects under prefix whose extension is a supported format.
func (s *Service) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if s.client == nil {
		return nil, failure.Validation("object storage is disabled")
	}

	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		mediaType := tabular.MediaTypeByExtension(path.Base(obj.Key))
		if !tabular.IsAllowedMediaType(mediaType) {
			continue
		}
		out = append(out, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			MediaType:    mediaType,
		})
	}
	return out, nil
}
