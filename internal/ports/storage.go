package ports

import "context"

// ObjectStorage keeps generated documents for later retrieval.
type ObjectStorage interface {
	Save(ctx context.Context, data []byte, filename string) (string, error)
	Delete(ctx context.Context, fileID string) error
}
