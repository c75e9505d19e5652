package tabular

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File describes a tabular input and how to open it.
type File struct {
	// Name identifies the file in results and cache keys.
	Name string
	// Size is the declared size in bytes.
	Size int64
	// ModTime is the last modification time. A zero value disables caching.
	ModTime time.Time
	// MediaType is the declared media type.
	MediaType string
	// Open returns a fresh reader over the file contents.
	Open func(ctx context.Context) (io.ReadCloser, error)
}

var extensionTypes = map[string]string{
	".csv":  MediaTypeCSV,
	".xls":  MediaTypeXLS,
	".xlsx": MediaTypeXLSX,
}

// MediaTypeByExtension maps a file name to a media type, or "" if unknown.
func MediaTypeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// LocalFile describes a file on the local filesystem.
func LocalFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	return File{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		MediaType: MediaTypeByExtension(path),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// UploadedFile describes a multipart upload. Browsers do not send the modification time
// with the file body, so callers pass it separately (zero if unknown).
func UploadedFile(fh *multipart.FileHeader, modTime time.Time) File {
	mediaType := fh.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = MediaTypeByExtension(fh.Filename)
	}

	return File{
		Name:      fh.Filename,
		Size:      fh.Size,
		ModTime:   modTime,
		MediaType: mediaType,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
