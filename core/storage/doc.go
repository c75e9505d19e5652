// Package storage provides an abstraction layer for object storage services.
//
// Spreadsheets kept in a bucket can be compared without uploading them, and
// difference reports can be exported back to the bucket. The Client interface wraps
// the MinIO Go client and works against AWS S3 and self-hosted MinIO alike; a
// testify mock lives in core/storage/mocks.
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - StatObject: Reads size, content type and modification time.
//   - GetObject: Retrieves content as a stream.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//   - PutObject: Uploads an exported report.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	info, err := client.StatObject(ctx, "reconciler", "ledger.xlsx", minio.StatObjectOptions{})
package storage
