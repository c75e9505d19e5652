package tabular

const (
	// MediaTypeCSV is the media type of comma separated text.
	MediaTypeCSV = "text/csv"
	// MediaTypeXLS is the media type of legacy Excel workbooks.
	MediaTypeXLS = "application/vnd.ms-excel"
	// MediaTypeXLSX is the media type of OOXML workbooks.
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// DefaultMaxFileSize is 1.5 GiB.
	DefaultMaxFileSize int64 = 1536 * 1024 * 1024
	// DefaultChunkSize is 1 MiB.
	DefaultChunkSize = 1024 * 1024
	// DefaultPreviewRows is the number of rows returned by Preview.
	DefaultPreviewRows = 5
)

// AllowedMediaTypes lists the media types accepted by Validate.
var AllowedMediaTypes = []string{MediaTypeXLSX, MediaTypeXLS, MediaTypeCSV}

// Config holds decoder settings.
type Config struct {
	// MaxFileSize is the largest accepted file in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" default:"1610612736"`
	// ChunkSize is the number of bytes read from a source at a time.
	ChunkSize int `mapstructure:"chunk_size" default:"1048576"`
	// PreviewRows is the default number of rows returned by Preview.
	PreviewRows int `mapstructure:"preview_rows" default:"5"`
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	return c
}
