package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 5 * time.Second

// Client delivers receipt notices to the external notification service.
// Single attempt; only the HTTP outcome matters, the body is ignored.
type Client struct {
	http *http.Client
	url  string
}

func NewClient(url string) *Client {
	return &Client{
		http: &http.Client{Timeout: defaultTimeout},
		url:  url,
	}
}

type notifyRequest struct {
	TransferID string `json:"transfer_id"`
	Message    string `json:"message"`
}

// Notify posts the notice. A non-2xx response or a transport error is a
// delivery failure for the caller to record.
func (c *Client) Notify(ctx context.Context, transferID uuid.UUID, message string) error {
	body, err := json.Marshal(notifyRequest{
		TransferID: transferID.String(),
		Message:    message,
	})
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delivering notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}
