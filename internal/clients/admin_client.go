package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalog-service/internal/models"
)

// AdminClient calls the catalog admin API on behalf of an operator
type AdminClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAdminClient creates a client for the service at baseURL. token is sent
// as a bearer token when not empty.
func NewAdminClient(baseURL, token string) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the service
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

type envelope struct {
	Success    bool                   `json:"success"`
	Data       json.RawMessage        `json:"data"`
	Pagination *models.PaginationInfo `json:"pagination"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

// Do sends body as JSON to path and decodes the data field of the response
// into out. out may be nil.
func (c *AdminClient) Do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.send(ctx, method, path, body, out)
	return err
}

// GetPage reads one page of a paginated listing. The returned pagination is
// nil when the endpoint does not paginate.
func (c *AdminClient) GetPage(ctx context.Context, path string, out interface{}) (*models.PaginationInfo, error) {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *AdminClient) send(ctx context.Context, method, path string, body, out interface{}) (*models.PaginationInfo, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call catalog service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeResponse(resp.StatusCode, raw, out)
}

// UploadImage runs the two-step upload and returns the stored object path
func (c *AdminClient) UploadImage(ctx context.Context, image io.Reader) (string, error) {
	var target struct {
		UploadURL  string `json:"uploadURL"`
		ObjectPath string `json:"objectPath"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/admin/delivery/products/upload-url", nil, &target); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, image)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if _, err := decodeResponse(resp.StatusCode, raw, nil); err != nil {
		return "", err
	}
	return target.ObjectPath, nil
}

func decodeResponse(status int, raw []byte, out interface{}) (*models.PaginationInfo, error) {
	var env envelope
	_ = json.Unmarshal(raw, &env)

	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Field = env.Error.Field
		}
		return nil, apiErr
	}

	if out == nil || len(raw) == 0 {
		return env.Pagination, nil
	}
	data := []byte(env.Data)
	if len(data) == 0 {
		data = raw
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return env.Pagination, nil
}
