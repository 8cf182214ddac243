// Package imagehost uploads shop item images to an external image CDN so
// the SQLite database never stores blobs.
package imagehost

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the API key is set. Without it, shop items
// simply have no images.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type uploadResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Upload posts the image and returns its public URL and host-side ID.
func (c *Client) Upload(filename string, data []byte) (url, id string, err error) {
	if !c.Configured() {
		return "", "", fmt.Errorf("image host not configured: missing api key")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", "", fmt.Errorf("write image data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/upload", &body)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("image host error: status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	return out.URL, out.ID, nil
}

// Delete removes a previously uploaded image. A 404 is treated as success:
// the image is gone either way.
func (c *Client) Delete(id string) error {
	if !c.Configured() {
		return fmt.Errorf("image host not configured: missing api key")
	}

	req, err := http.NewRequest("DELETE", c.baseURL+"/images/"+id, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("image host error: status %d", resp.StatusCode)
	}
	return nil
}
