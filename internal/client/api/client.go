// Package api is the HTTP client of the guardian backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/pkg/api"
)

// DefaultTimeout bounds every request when no client timeout is configured.
const DefaultTimeout = 30 * time.Second

// Client talks JSON to the backend with bearer-token auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates an API client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// keep the bearer token across redirects
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, api.PathHealth, "", nil, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// PostLocations uploads a batch of samples. Any 2xx is success.
func (c *Client) PostLocations(ctx context.Context, token string, samples []models.LocationSample) error {
	if err := c.doRequest(ctx, http.MethodPost, api.PathLocation, token, samples, nil); err != nil {
		return fmt.Errorf("location upload failed: %w", err)
	}
	return nil
}

// SendEmergencyAlert posts an alert for server-side fan-out.
func (c *Client) SendEmergencyAlert(ctx context.Context, token string, req api.EmergencyAlertRequest) (*api.EmergencyAlertResponse, error) {
	var resp api.EmergencyAlertResponse
	if err := c.doRequest(ctx, http.MethodPost, api.PathEmergencyAlert, token, req, &resp); err != nil {
		return nil, fmt.Errorf("emergency alert request failed: %w", err)
	}
	return &resp, nil
}

// GetContacts fetches the remote contact list.
func (c *Client) GetContacts(ctx context.Context, token string) ([]models.Contact, error) {
	var resp api.ContactsResponse
	if err := c.doRequest(ctx, http.MethodGet, api.PathContacts, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("get contacts failed: %w", err)
	}
	if resp.Contacts == nil {
		resp.Contacts = []models.Contact{}
	}
	return resp.Contacts, nil
}

// GetProfile fetches the remote user profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*models.UserProfile, error) {
	var resp models.UserProfile
	if err := c.doRequest(ctx, http.MethodGet, api.PathProfile, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("get profile failed: %w", err)
	}
	return &resp, nil
}

// GetMedicalInfo fetches the remote medical info.
func (c *Client) GetMedicalInfo(ctx context.Context, token string) (*models.MedicalInfo, error) {
	var resp models.MedicalInfo
	if err := c.doRequest(ctx, http.MethodGet, api.PathMedicalInfo, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("get medical info failed: %w", err)
	}
	return &resp, nil
}

// Execute delivers a queued mutation using the token captured at enqueue time.
func (c *Client) Execute(ctx context.Context, op *models.QueuedOperation) error {
	method, path, err := route(op)
	if err != nil {
		return err
	}

	var body any
	if method != http.MethodDelete && len(op.Payload) > 0 {
		body = op.Payload
	}

	if err := c.doRequest(ctx, method, path, op.AuthToken, body, nil); err != nil {
		return fmt.Errorf("%s %s failed: %w", op.Kind, op.EntityType, err)
	}
	return nil
}

// route maps an operation to its HTTP method and path.
// Contacts are a collection; profile and medical info are singletons.
func route(op *models.QueuedOperation) (string, string, error) {
	if !op.Kind.Valid() {
		return "", "", fmt.Errorf("%w: kind %q", ErrUnroutable, op.Kind)
	}

	switch op.EntityType {
	case models.EntityContacts:
		switch op.Kind {
		case models.OperationCreate:
			return http.MethodPost, api.PathContacts, nil
		case models.OperationUpdate, models.OperationDelete:
			if op.EntityID == "" {
				return "", "", fmt.Errorf("%w: contact %s without id", ErrUnroutable, op.Kind)
			}
			method := http.MethodPut
			if op.Kind == models.OperationDelete {
				method = http.MethodDelete
			}
			return method, api.PathContacts + "/" + url.PathEscape(op.EntityID), nil
		}
	case models.EntityProfile, models.EntityMedical:
		path := api.PathProfile
		if op.EntityType == models.EntityMedical {
			path = api.PathMedicalInfo
		}
		if op.Kind == models.OperationDelete {
			return http.MethodDelete, path, nil
		}
		return http.MethodPut, path, nil
	}

	return "", "", fmt.Errorf("%w: entity %q", ErrUnroutable, op.EntityType)
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			if errResp.Message != "" {
				statusErr.Message = errResp.Message
			} else if errResp.Error != "" {
				statusErr.Message = errResp.Error
			}
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
