package tabular

import (
	"mime"
	"strings"

	"reconciler/core/failure"

	"github.com/dustin/go-humanize"
)

// Validate checks the declared size and media type of f. It does not read the file.
func Validate(f File, cfg Config) error {
	cfg = cfg.withDefaults()

	if f.Size > cfg.MaxFileSize {
		return failure.Validation("file %s is %s, the maximum allowed size is %s",
			f.Name, humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(cfg.MaxFileSize)))
	}

	if !IsAllowedMediaType(f.MediaType) {
		return failure.Validation("file %s has type %q, only XLSX, XLS or CSV files are accepted", f.Name, f.MediaType)
	}

	return nil
}

// IsAllowedMediaType reports whether mediaType (parameters ignored) is accepted.
func IsAllowedMediaType(mediaType string) bool {
	base, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	for _, allowed := range AllowedMediaTypes {
		if strings.EqualFold(base, allowed) {
			return true
		}
	}
	return false
}
