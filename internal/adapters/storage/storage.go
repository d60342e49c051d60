// Package storage implements ports.ObjectStorage over a simple
// HTTP object endpoint (PUT to write, DELETE to drop).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	baseURL string
	bucket  string
	token   string
	client  *http.Client
	log     *slog.Logger
}

func NewClient(baseURL, bucket, token string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		bucket:  bucket,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With("adapter", "storage"),
	}
}

func (c *Client) objectURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, url.PathEscape(name))
}

func (c *Client) Save(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(filename), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("save object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("save object: status %d: %s", resp.StatusCode, body)
	}
	c.log.Debug("object stored", "filename", filename, "bytes", len(data))
	return filename, nil
}

func (c *Client) Delete(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(fileID), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("delete object: status %d: %s", resp.StatusCode, body)
	}
	return nil
}
