package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *APIClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *APIClient) *Handlers {
	return &Handlers{client: client}
}

// HandleListPendingApprovals lists approvals awaiting a decision.
func (h *Handlers) HandleListPendingApprovals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID := req.GetString("account_id", "")

	raw, err := h.client.ListPendingApprovals(ctx, accountID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list pending approvals: %v", err)), nil
	}

	text, err := formatApprovalList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse approvals: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleApproveAction approves a pending approval request.
func (h *Handlers) HandleApproveAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	approvalID := req.GetString("approval_id", "")
	if approvalID == "" {
		return mcp.NewToolResultError("approval_id is required"), nil
	}
	notes := req.GetString("notes", "")

	raw, err := h.client.ApproveAction(ctx, approvalID, notes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Approval failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Approval %s granted.\n\n%s", approvalID, formatJSON(raw))), nil
}

// HandleRejectAction rejects a pending approval request.
func (h *Handlers) HandleRejectAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	approvalID := req.GetString("approval_id", "")
	if approvalID == "" {
		return mcp.NewToolResultError("approval_id is required"), nil
	}
	notes := req.GetString("notes", "")

	raw, err := h.client.RejectAction(ctx, approvalID, notes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Rejection failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Approval %s rejected. The action will not be executed.\n\n%s",
		approvalID, formatJSON(raw))), nil
}

// HandleListAccounts lists managed accounts.
func (h *Handlers) HandleListAccounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ListAccounts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
	}

	text, err := formatAccountList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse accounts: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetAccountHealth returns derived health metrics for an account.
func (h *Handlers) HandleGetAccountHealth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID := req.GetString("account_id", "")
	if accountID == "" {
		return mcp.NewToolResultError("account_id is required"), nil
	}

	raw, err := h.client.GetAccountHealth(ctx, accountID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get account health: %v", err)), nil
	}

	text, err := formatAccountHealth(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse health: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetActionHistory returns recent actions for an account.
func (h *Handlers) HandleGetActionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID := req.GetString("account_id", "")
	if accountID == "" {
		return mcp.NewToolResultError("account_id is required"), nil
	}
	limit := req.GetInt("limit", 20)

	raw, err := h.client.GetActionHistory(ctx, accountID, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get action history: %v", err)), nil
	}

	text, err := formatActionHistory(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse actions: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetPlatformHealth returns per-platform health snapshots.
func (h *Handlers) HandleGetPlatformHealth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetPlatformHealth(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get platform health: %v", err)), nil
	}

	text, err := formatPlatformHealth(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse platform health: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetDashboard returns the dashboard summary.
func (h *Handlers) HandleGetDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetDashboard(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get dashboard: %v", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// --- Formatting helpers ---

func formatApprovalList(raw json.RawMessage) (string, error) {
	var resp struct {
		Pending []map[string]any `json:"pending"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected approvals response format")
	}
	if len(resp.Pending) == 0 {
		return "No pending approvals.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d pending approval(s):\n\n", len(resp.Pending))
	for i, a := range resp.Pending {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, getString(a, "id"))
		fmt.Fprintf(&sb, "   Account: %s | Action: %s | Risk: %s\n",
			getString(a, "accountId"), getString(a, "actionType"),
			strings.ToUpper(getString(a, "riskLevel")))
		if reason := getString(a, "reasoning"); reason != "" {
			fmt.Fprintf(&sb, "   Reasoning: %s\n", reason)
		}
		if i < len(resp.Pending)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func formatAccountList(raw json.RawMessage) (string, error) {
	var resp struct {
		Accounts []map[string]any `json:"accounts"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected accounts response format")
	}
	if len(resp.Accounts) == 0 {
		return "No accounts registered.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d account(s):\n\n", len(resp.Accounts))
	for i, a := range resp.Accounts {
		fmt.Fprintf(&sb, "%d. @%s on %s\n", i+1,
			getString(a, "username"), getString(a, "platform"))
		fmt.Fprintf(&sb, "   ID: %s | Phase: %s | Status: %s\n",
			getString(a, "id"), getString(a, "phase"), getString(a, "status"))
	}
	return sb.String(), nil
}

func formatAccountHealth(raw json.RawMessage) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Account Health:\n")
	if v := getString(m, "accountId"); v != "" {
		fmt.Fprintf(&sb, "  Account: %s\n", v)
	}
	if v := getString(m, "phase"); v != "" {
		fmt.Fprintf(&sb, "  Phase: %s\n", v)
	}
	if v, ok := getFloat(m, "riskScore"); ok {
		fmt.Fprintf(&sb, "  Risk Score: %.2f\n", v)
	}
	if v, ok := getFloat(m, "followRatio"); ok {
		fmt.Fprintf(&sb, "  Follow Ratio: %.2f\n", v)
	}
	if v, ok := getFloat(m, "engagementRate"); ok {
		fmt.Fprintf(&sb, "  Engagement Rate: %.4f\n", v)
	}
	if v, ok := getFloat(m, "consecutiveErrors"); ok {
		fmt.Fprintf(&sb, "  Error Streak: %.0f\n", v)
	}
	if v, ok := getFloat(m, "ageDays"); ok {
		fmt.Fprintf(&sb, "  Account Age: %.0f days\n", v)
	}
	return sb.String(), nil
}

func formatActionHistory(raw json.RawMessage) (string, error) {
	var resp struct {
		Actions []map[string]any `json:"actions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected actions response format")
	}
	if len(resp.Actions) == 0 {
		return "No actions recorded for this account.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d action(s), newest first:\n\n", len(resp.Actions))
	for i, a := range resp.Actions {
		fmt.Fprintf(&sb, "%d. %s -> %s\n", i+1,
			getString(a, "actionType"), getString(a, "status"))
		if v := getString(a, "riskLevel"); v != "" {
			fmt.Fprintf(&sb, "   Risk: %s\n", strings.ToUpper(v))
		}
		if v, ok := getFloat(a, "delaySeconds"); ok && v > 0 {
			fmt.Fprintf(&sb, "   Delay: %.0fs\n", v)
		}
		if v := getString(a, "createdAt"); v != "" {
			fmt.Fprintf(&sb, "   At: %s\n", v)
		}
	}
	return sb.String(), nil
}

func formatPlatformHealth(raw json.RawMessage) (string, error) {
	var resp struct {
		Platforms map[string]map[string]any `json:"platforms"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected platform health response format")
	}
	if len(resp.Platforms) == 0 {
		return "No platform activity recorded yet.", nil
	}

	var sb strings.Builder
	sb.WriteString("Platform Health:\n\n")
	for name, p := range resp.Platforms {
		fmt.Fprintf(&sb, "%s: %s\n", name, getString(p, "status"))
		if v, ok := getFloat(p, "consecutiveErrors"); ok && v > 0 {
			fmt.Fprintf(&sb, "  Error streak: %.0f\n", v)
		}
		if v, ok := getFloat(p, "rateLimitsLastHour"); ok && v > 0 {
			fmt.Fprintf(&sb, "  Rate limits (last hour): %.0f\n", v)
		}
		if v, ok := getFloat(p, "backoffSeconds"); ok && v > 0 {
			fmt.Fprintf(&sb, "  Current backoff: %.0fs\n", v)
		}
		if v, ok := getFloat(p, "avgResponseMs"); ok && v > 0 {
			fmt.Fprintf(&sb, "  Avg response: %.0fms\n", v)
		}
	}
	return sb.String(), nil
}

func formatJSON(raw json.RawMessage) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	return pretty.String()
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
