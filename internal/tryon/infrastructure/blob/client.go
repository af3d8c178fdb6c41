package blob

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
)

// Client uploads bytes to the blob store and returns the durable public URL.
// A random suffix keeps concurrent uploads under the same name from
// colliding.
type Client struct {
	log     *slog.Logger
	http    *http.Client
	baseURL string
	token   string
}

func New(log *slog.Logger, baseURL, token string) *Client {
	return &Client{
		log:     log,
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

type putResponse struct {
	URL string `json:"url"`
}

func (c *Client) Put(ctx context.Context, name string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/"+withSuffix(name), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("blob store returned %d: %s", resp.StatusCode, excerpt)
	}

	var out putResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode blob response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("blob store response missing url")
	}
	return out.URL, nil
}

func withSuffix(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return base + "-" + hex.EncodeToString(suffix) + ext
}
