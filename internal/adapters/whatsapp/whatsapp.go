// Package whatsapp implements ports.Messenger against the cloud
// messaging HTTP API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

type Client struct {
	baseURL       string
	phoneNumberID string
	token         string
	client        *http.Client
	log           *slog.Logger
}

func NewClient(baseURL, phoneNumberID, token string, log *slog.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		client:        &http.Client{Timeout: 30 * time.Second},
		log:           log.With("adapter", "whatsapp"),
	}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (c *Client) SendText(ctx context.Context, to, text, requestID string) error {
	p := textPayload{MessagingProduct: "whatsapp", To: to, Type: "text"}
	p.Text.Body = text

	if err := c.postJSON(ctx, c.messagesURL(), p, nil); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	c.log.Debug("text sent", "to", to, "request_id", requestID)
	return nil
}

type mediaResponse struct {
	ID string `json:"id"`
}

func (c *Client) UploadMedia(ctx context.Context, data []byte, mimeType, filename, requestID string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", fmt.Errorf("write field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload media: status %d: %s", resp.StatusCode, raw)
	}

	var mr mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("decode media response: %w", err)
	}
	c.log.Debug("media uploaded", "media_id", mr.ID, "filename", filename, "request_id", requestID)
	return mr.ID, nil
}

type documentPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Document         struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		Caption  string `json:"caption,omitempty"`
	} `json:"document"`
}

func (c *Client) SendDocument(ctx context.Context, to, mediaID, filename, caption, requestID string) error {
	p := documentPayload{MessagingProduct: "whatsapp", To: to, Type: "document"}
	p.Document.ID = mediaID
	p.Document.Filename = filename
	p.Document.Caption = caption

	if err := c.postJSON(ctx, c.messagesURL(), p, nil); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	c.log.Debug("document sent", "to", to, "media_id", mediaID, "request_id", requestID)
	return nil
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
