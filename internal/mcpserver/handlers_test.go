package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	cfg := Config{
		APIURL:      ts.URL,
		AdminSecret: "test_secret",
		Approver:    "operator@test",
	}
	client := NewAPIClient(cfg)
	h := NewHandlers(client)
	return h, ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// ============================================================
// Client tests
// ============================================================

func TestClient_AdminSecretHeader(t *testing.T) {
	var gotSecret string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Admin-Secret")
		_, _ = w.Write([]byte(`{"pending":[]}`))
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, AdminSecret: "s3cret", Approver: "op"})
	_, err := client.ListPendingApprovals(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", gotSecret)
}

func TestClient_NoAdminSecret_OmitsHeader(t *testing.T) {
	var hasHeader bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasHeader = r.Header["X-Admin-Secret"]
		_, _ = w.Write([]byte(`{"pending":[]}`))
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, Approver: "op"})
	_, err := client.ListPendingApprovals(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, hasHeader)
}

func TestClient_HTTPError_WithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "not_pending",
			"message": "approval request is not pending",
		})
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, Approver: "op"})
	_, err := client.ApproveAction(context.Background(), "apr_x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "not pending")
}

func TestClient_HTTPError_ErrorOnly(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "approval_not_found"})
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, Approver: "op"})
	_, err := client.ApproveAction(context.Background(), "apr_missing", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approval_not_found")
}

func TestClient_ConnectionRefused(t *testing.T) {
	client := NewAPIClient(Config{APIURL: "http://127.0.0.1:1", Approver: "op"})
	_, err := client.GetPlatformHealth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, Approver: "op"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetDashboard(ctx)
	require.Error(t, err)
}

func TestClient_ListPendingApprovals_QueryParam(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/approvals/pending", r.URL.Path)
		assert.Equal(t, "acc_1", r.URL.Query().Get("account_id"))
		_, _ = w.Write([]byte(`{"pending":[]}`))
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, Approver: "op"})
	_, err := client.ListPendingApprovals(context.Background(), "acc_1")
	require.NoError(t, err)
}

func TestClient_ApproveAction_RequestBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/approvals/apr_42/approve", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var m map[string]string
		_ = json.Unmarshal(body, &m)
		assert.Equal(t, "operator@test", m["approver"])
		assert.Equal(t, "looks safe", m["notes"])

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "approved"})
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, Approver: "operator@test"})
	_, err := client.ApproveAction(context.Background(), "apr_42", "looks safe")
	require.NoError(t, err)
}

func TestClient_GetActionHistory_LimitParam(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acc_9/actions", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"actions":[]}`))
	}))
	defer ts.Close()

	client := NewAPIClient(Config{APIURL: ts.URL, Approver: "op"})
	_, err := client.GetActionHistory(context.Background(), "acc_9", 5)
	require.NoError(t, err)
}

// ============================================================
// Handler: list_pending_approvals
// ============================================================

func TestHandleListPendingApprovals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/approvals/pending", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pending": []map[string]any{
				{
					"id": "apr_1", "accountId": "acc_1", "actionType": "follow",
					"riskLevel": "yellow", "reasoning": "account is young",
				},
				{
					"id": "apr_2", "accountId": "acc_2", "actionType": "comment",
					"riskLevel": "red", "reasoning": "error streak is high",
				},
			},
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleListPendingApprovals(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "2 pending approval(s)")
	assert.Contains(t, text, "apr_1")
	assert.Contains(t, text, "YELLOW")
	assert.Contains(t, text, "account is young")
	assert.Contains(t, text, "RED")
}

func TestHandleListPendingApprovals_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/approvals/pending", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"pending": []map[string]any{}})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleListPendingApprovals(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No pending approvals")
}

func TestHandleListPendingApprovals_AccountFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/approvals/pending", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acc_7", r.URL.Query().Get("account_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{"pending": []map[string]any{}})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	_, err := h.HandleListPendingApprovals(context.Background(), makeRequest(map[string]any{
		"account_id": "acc_7",
	}))
	require.NoError(t, err)
}

func TestHandleListPendingApprovals_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/approvals/pending", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "internal", "message": "db down"})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleListPendingApprovals(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "db down")
}

// ============================================================
// Handlers: approve_action / reject_action
// ============================================================

func TestHandleApproveAction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/approvals/apr_10/approve", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "apr_10", "status": "approved"})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleApproveAction(context.Background(), makeRequest(map[string]any{
		"approval_id": "apr_10",
		"notes":       "reviewed, low risk",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "apr_10")
	assert.Contains(t, text, "granted")
}

func TestHandleApproveAction_MissingID(t *testing.T) {
	h := NewHandlers(NewAPIClient(Config{}))
	result, err := h.HandleApproveAction(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "approval_id is required")
}

func TestHandleApproveAction_AlreadyResolved(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/approvals/apr_done/approve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(409)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": "not_pending", "message": "approval request is not pending",
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleApproveAction(context.Background(), makeRequest(map[string]any{
		"approval_id": "apr_done",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not pending")
}

func TestHandleRejectAction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/approvals/apr_11/reject", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "operator@test", body["approver"])
		assert.Equal(t, "too risky", body["notes"])
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "apr_11", "status": "rejected"})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleRejectAction(context.Background(), makeRequest(map[string]any{
		"approval_id": "apr_11",
		"notes":       "too risky",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "apr_11")
	assert.Contains(t, text, "will not be executed")
}

func TestHandleRejectAction_MissingID(t *testing.T) {
	h := NewHandlers(NewAPIClient(Config{}))
	result, err := h.HandleRejectAction(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "approval_id is required")
}

// ============================================================
// Handler: list_accounts
// ============================================================

func TestHandleListAccounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{
				{"id": "acc_1", "username": "seedling", "platform": "tiktok", "phase": "phase_1", "status": "active"},
				{"id": "acc_2", "username": "grower", "platform": "instagram", "phase": "phase_2", "status": "paused"},
			},
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleListAccounts(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "2 account(s)")
	assert.Contains(t, text, "@seedling on tiktok")
	assert.Contains(t, text, "phase_2")
	assert.Contains(t, text, "paused")
}

func TestHandleListAccounts_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"accounts": []map[string]any{}})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleListAccounts(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No accounts registered")
}

// ============================================================
// Handler: get_account_health
// ============================================================

func TestHandleGetAccountHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts/acc_5/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accountId":         "acc_5",
			"phase":             "phase_2",
			"riskScore":         0.3,
			"followRatio":       1.5,
			"engagementRate":    0.025,
			"consecutiveErrors": 1.0,
			"ageDays":           45.0,
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetAccountHealth(context.Background(), makeRequest(map[string]any{
		"account_id": "acc_5",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "acc_5")
	assert.Contains(t, text, "phase_2")
	assert.Contains(t, text, "0.30")
	assert.Contains(t, text, "45 days")
}

func TestHandleGetAccountHealth_MissingID(t *testing.T) {
	h := NewHandlers(NewAPIClient(Config{}))
	result, err := h.HandleGetAccountHealth(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "account_id is required")
}

func TestHandleGetAccountHealth_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts/acc_missing/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "account_not_found"})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetAccountHealth(context.Background(), makeRequest(map[string]any{
		"account_id": "acc_missing",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "account_not_found")
}

// ============================================================
// Handler: get_action_history
// ============================================================

func TestHandleGetActionHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts/acc_3/actions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"actions": []map[string]any{
				{"actionType": "follow", "status": "success", "riskLevel": "green", "delaySeconds": 120.0, "createdAt": "2026-08-27T10:00:00Z"},
				{"actionType": "like", "status": "approval_required", "riskLevel": "yellow"},
			},
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetActionHistory(context.Background(), makeRequest(map[string]any{
		"account_id": "acc_3",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "follow -> success")
	assert.Contains(t, text, "Delay: 120s")
	assert.Contains(t, text, "like -> approval_required")
	assert.Contains(t, text, "YELLOW")
}

func TestHandleGetActionHistory_MissingID(t *testing.T) {
	h := NewHandlers(NewAPIClient(Config{}))
	result, err := h.HandleGetActionHistory(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "account_id is required")
}

func TestHandleGetActionHistory_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts/acc_3/actions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"actions": []map[string]any{}})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetActionHistory(context.Background(), makeRequest(map[string]any{
		"account_id": "acc_3",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No actions recorded")
}

// ============================================================
// Handler: get_platform_health
// ============================================================

func TestHandleGetPlatformHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/platform-health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"platforms": map[string]any{
				"tiktok": map[string]any{
					"status": "degraded", "consecutiveErrors": 3.0,
					"rateLimitsLastHour": 2.0, "backoffSeconds": 240.0, "avgResponseMs": 850.0,
				},
				"instagram": map[string]any{"status": "healthy"},
			},
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetPlatformHealth(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "tiktok: degraded")
	assert.Contains(t, text, "Error streak: 3")
	assert.Contains(t, text, "Current backoff: 240s")
	assert.Contains(t, text, "instagram: healthy")
}

func TestHandleGetPlatformHealth_NoActivity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/platform-health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"platforms": map[string]any{}})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetPlatformHealth(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No platform activity")
}

// ============================================================
// Handler: get_dashboard
// ============================================================

func TestHandleGetDashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/dashboard", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts":         map[string]any{"total": 3},
			"pendingApprovals": 1,
		})
	})

	h, cleanup := newTestSetup(mux)
	defer cleanup()

	result, err := h.HandleGetDashboard(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, "\"total\": 3")
	assert.Contains(t, text, "\"pendingApprovals\": 1")
}

// ============================================================
// Formatting & parsing unit tests
// ============================================================

func TestFormatApprovalList_MalformedJSON(t *testing.T) {
	_, err := formatApprovalList(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestFormatAccountHealth_MalformedJSON(t *testing.T) {
	_, err := formatAccountHealth(json.RawMessage(`garbage`))
	assert.Error(t, err)
}

func TestFormatPlatformHealth_MalformedJSON(t *testing.T) {
	_, err := formatPlatformHealth(json.RawMessage(`garbage`))
	assert.Error(t, err)
}

func TestFormatJSON_ValidJSON(t *testing.T) {
	result := formatJSON(json.RawMessage(`{"a":1,"b":"two"}`))
	assert.Contains(t, result, "\"a\": 1")
	assert.Contains(t, result, "\"b\": \"two\"")
}

func TestFormatJSON_InvalidJSON(t *testing.T) {
	result := formatJSON(json.RawMessage(`not json`))
	assert.Equal(t, "not json", result)
}

func TestGetString_Fallback(t *testing.T) {
	m := map[string]any{"foo": "bar"}
	assert.Equal(t, "bar", getString(m, "missing", "foo"))
	assert.Equal(t, "", getString(m, "missing1", "missing2"))
}

func TestGetFloat_Fallback(t *testing.T) {
	m := map[string]any{"score": 95.5}
	v, ok := getFloat(m, "missing", "score")
	assert.True(t, ok)
	assert.Equal(t, 95.5, v)

	_, ok = getFloat(m, "missing1", "missing2")
	assert.False(t, ok)
}

// ============================================================
// Server wiring test
// ============================================================

func TestNewMCPServer_Constructs(t *testing.T) {
	s := NewMCPServer(Config{APIURL: "http://localhost:8080", Approver: "op"})
	require.NotNil(t, s)
}

// ============================================================
// Edge cases: handler never returns Go error
// ============================================================

func TestHandlers_NeverReturnGoError(t *testing.T) {
	// All handlers should return (result, nil) even on failures.
	// The failure is encoded in result.IsError, not in the Go error.
	h := NewHandlers(NewAPIClient(Config{
		APIURL:   "http://127.0.0.1:1", // unreachable
		Approver: "op",
	}))

	tests := []struct {
		name string
		fn   func() (*mcp.CallToolResult, error)
	}{
		{"ListPendingApprovals", func() (*mcp.CallToolResult, error) {
			return h.HandleListPendingApprovals(context.Background(), makeRequest(nil))
		}},
		{"ApproveAction", func() (*mcp.CallToolResult, error) {
			return h.HandleApproveAction(context.Background(), makeRequest(map[string]any{"approval_id": "apr_1"}))
		}},
		{"RejectAction", func() (*mcp.CallToolResult, error) {
			return h.HandleRejectAction(context.Background(), makeRequest(map[string]any{"approval_id": "apr_1"}))
		}},
		{"ListAccounts", func() (*mcp.CallToolResult, error) {
			return h.HandleListAccounts(context.Background(), makeRequest(nil))
		}},
		{"GetAccountHealth", func() (*mcp.CallToolResult, error) {
			return h.HandleGetAccountHealth(context.Background(), makeRequest(map[string]any{"account_id": "acc_1"}))
		}},
		{"GetActionHistory", func() (*mcp.CallToolResult, error) {
			return h.HandleGetActionHistory(context.Background(), makeRequest(map[string]any{"account_id": "acc_1"}))
		}},
		{"GetPlatformHealth", func() (*mcp.CallToolResult, error) {
			return h.HandleGetPlatformHealth(context.Background(), makeRequest(nil))
		}},
		{"GetDashboard", func() (*mcp.CallToolResult, error) {
			return h.HandleGetDashboard(context.Background(), makeRequest(nil))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.fn()
			assert.NoError(t, err, "handler should never return Go error")
			assert.NotNil(t, result, "handler should always return a result")
			assert.True(t, result.IsError, "unreachable server should produce isError result")
		})
	}
}
