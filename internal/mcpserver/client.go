package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/socialseed/socialseed/internal/retry"
)

// Config holds the configuration for connecting to the SocialSeed API.
type Config struct {
	APIURL      string // Base URL, e.g. "http://localhost:8080"
	AdminSecret string // Admin secret for privileged operations (optional)
	Approver    string // Name recorded on approve/reject decisions
}

// APIClient is a pure HTTP client for the SocialSeed orchestrator API.
type APIClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewAPIClient creates a new client for the orchestrator API.
func NewAPIClient(cfg Config) *APIClient {
	return &APIClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the orchestrator.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the orchestrator and returns the response
// body. GETs are retried on transport failures; mutating requests run once so
// a lost response never double-resolves an approval.
func (c *APIClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var bodyData []byte
	if body != nil {
		bodyData, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = 3
	}

	var result json.RawMessage
	err = retry.Do(ctx, attempts, 500*time.Millisecond, func() error {
		var reqBody io.Reader
		if bodyData != nil {
			reqBody = bytes.NewReader(bodyData)
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		if c.cfg.AdminSecret != "" {
			req.Header.Set("X-Admin-Secret", c.cfg.AdminSecret)
		}
		if bodyData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				return retry.Permanent(fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message))
			}
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
				return retry.Permanent(fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error))
			}
			return retry.Permanent(fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody)))
		}

		result = json.RawMessage(respBody)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListPendingApprovals returns approval requests awaiting a decision.
func (c *APIClient) ListPendingApprovals(ctx context.Context, accountID string) (json.RawMessage, error) {
	q := url.Values{}
	if accountID != "" {
		q.Set("account_id", accountID)
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/approvals/pending", q, nil)
}

// ApproveAction approves a pending approval request.
func (c *APIClient) ApproveAction(ctx context.Context, approvalID, notes string) (json.RawMessage, error) {
	body := map[string]string{
		"approver": c.cfg.Approver,
		"notes":    notes,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/approvals/"+approvalID+"/approve", nil, body)
}

// RejectAction rejects a pending approval request.
func (c *APIClient) RejectAction(ctx context.Context, approvalID, notes string) (json.RawMessage, error) {
	body := map[string]string{
		"approver": c.cfg.Approver,
		"notes":    notes,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/approvals/"+approvalID+"/reject", nil, body)
}

// ListAccounts lists all managed accounts.
func (c *APIClient) ListAccounts(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/accounts", nil, nil)
}

// GetAccountHealth returns derived health metrics for an account.
func (c *APIClient) GetAccountHealth(ctx context.Context, accountID string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/accounts/"+accountID+"/health", nil, nil)
}

// GetActionHistory returns recent actions for an account.
func (c *APIClient) GetActionHistory(ctx context.Context, accountID string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/accounts/"+accountID+"/actions", q, nil)
}

// GetPlatformHealth returns per-platform health snapshots.
func (c *APIClient) GetPlatformHealth(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/platform-health", nil, nil)
}

// GetDashboard returns the operator dashboard summary.
func (c *APIClient) GetDashboard(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/dashboard", nil, nil)
}
