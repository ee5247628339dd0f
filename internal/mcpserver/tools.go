package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the SocialSeed operator MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolListPendingApprovals = mcp.NewTool("list_pending_approvals",
	mcp.WithDescription(
		"List growth actions waiting for human approval. "+
			"Each entry shows the account, action type, risk level, and the AI's reasoning. "+
			"Use this before approving or rejecting."),
	mcp.WithString("account_id",
		mcp.Description("Only show approvals for this account")),
)

var ToolApproveAction = mcp.NewTool("approve_action",
	mcp.WithDescription(
		"Approve a pending growth action so the orchestrator may execute it. "+
			"Only use after reviewing the risk reasoning from list_pending_approvals."),
	mcp.WithString("approval_id",
		mcp.Required(),
		mcp.Description("The approval ID from list_pending_approvals (e.g. 'apr_...')")),
	mcp.WithString("notes",
		mcp.Description("Optional notes explaining the decision")),
)

var ToolRejectAction = mcp.NewTool("reject_action",
	mcp.WithDescription(
		"Reject a pending growth action. The action will not be executed. "+
			"Use when the risk reasoning suggests the action could endanger the account."),
	mcp.WithString("approval_id",
		mcp.Required(),
		mcp.Description("The approval ID from list_pending_approvals (e.g. 'apr_...')")),
	mcp.WithString("notes",
		mcp.Description("Optional notes explaining the decision")),
)

var ToolListAccounts = mcp.NewTool("list_accounts",
	mcp.WithDescription(
		"List all managed social accounts with their platform, growth phase, and status."),
)

var ToolGetAccountHealth = mcp.NewTool("get_account_health",
	mcp.WithDescription(
		"Get derived health metrics for an account: follow ratio, engagement rate, "+
			"error streak, account age, and current growth phase. "+
			"Use this to understand why actions are being flagged or why a phase "+
			"promotion has not happened."),
	mcp.WithString("account_id",
		mcp.Required(),
		mcp.Description("The account ID (e.g. 'acc_...')")),
)

var ToolGetActionHistory = mcp.NewTool("get_action_history",
	mcp.WithDescription(
		"Show recent actions executed (or blocked) for an account, newest first, "+
			"with status, risk level, and applied delays."),
	mcp.WithString("account_id",
		mcp.Required(),
		mcp.Description("The account ID (e.g. 'acc_...')")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of actions to return (default 20)")),
)

var ToolGetPlatformHealth = mcp.NewTool("get_platform_health",
	mcp.WithDescription(
		"Get per-platform API health: error streaks, recent rate limits, response times, "+
			"and the current backoff. Use this to diagnose widespread failures before "+
			"approving more actions."),
)

var ToolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription(
		"Get the operator dashboard summary: accounts by phase and status, pending "+
			"approval count, platform health, and AI provider statistics."),
)
