package ports

import "context"

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, to, text, requestID string) error
	// UploadMedia stores a document on the transport and returns its media id.
	UploadMedia(ctx context.Context, data []byte, mimeType, filename, requestID string) (string, error)
	SendDocument(ctx context.Context, to, mediaID, filename, caption, requestID string) error
}
