package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/socialseed/socialseed/internal/account"
	"github.com/socialseed/socialseed/internal/authenticity"
	"github.com/socialseed/socialseed/internal/idgen"
	"github.com/socialseed/socialseed/internal/orchestrator"
	"github.com/socialseed/socialseed/internal/phase"
	"github.com/socialseed/socialseed/internal/platform"
	"github.com/socialseed/socialseed/internal/validation"
)

func (s *Server) healthHandler(c *gin.Context) {
	results, healthy := s.checker.Run(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"healthy": healthy,
		"checks":  results,
		"version": "2.0.0",
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "socialseed",
		"description": "Phased social growth orchestration with risk-gated actions",
		"version":     "2.0.0",
		"platforms":   s.registry.Names(),
	})
}

type createAccountRequest struct {
	Platform         string  `json:"platform" binding:"required"`
	Username         string  `json:"username" binding:"required"`
	FollowerCount    int     `json:"followerCount"`
	FollowingCount   int     `json:"followingCount"`
	PostCount        int     `json:"postCount"`
	EngagementRate   float64 `json:"engagementRate"`
	AccountCreatedAt string  `json:"accountCreatedAt"` // RFC 3339; empty means unknown (stays phase_1)
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "platform and username are required",
		})
		return
	}
	req.Platform = strings.ToLower(req.Platform)
	if !validation.IsSupportedPlatform(req.Platform) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unsupported_platform",
			"message": "platform must be one of: " + strings.Join(s.registry.Names(), ", "),
		})
		return
	}

	var createdAt time.Time
	if req.AccountCreatedAt != "" {
		t, err := time.Parse(time.RFC3339, req.AccountCreatedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "accountCreatedAt must be RFC 3339",
			})
			return
		}
		createdAt = t
	}

	now := time.Now()
	a := &account.Account{
		ID:               idgen.WithPrefix("acc_"),
		Platform:         req.Platform,
		Username:         validation.SanitizeString(req.Username, 255),
		FollowerCount:    req.FollowerCount,
		FollowingCount:   req.FollowingCount,
		PostCount:        req.PostCount,
		EngagementRate:   req.EngagementRate,
		Phase:            string(phase.Phase1),
		Status:           account.StatusActive,
		AccountCreatedAt: createdAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.accounts.Create(c.Request.Context(), a); err != nil {
		s.logger.Error("failed to create account", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.accounts.List(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list accounts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if accounts == nil {
		accounts = []*account.Account{}
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

func (s *Server) getAccount(c *gin.Context) {
	a, err := s.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
			return
		}
		s.logger.Error("failed to get account", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) accountHealth(c *gin.Context) {
	h, err := s.pipeline.AccountHealth(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
			return
		}
		s.logger.Error("failed to derive account health", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) phaseHistory(c *gin.Context) {
	history, err := s.tracker.History(c.Request.Context(), c.Param("id"), limitParam(c))
	if err != nil {
		s.logger.Error("failed to list phase history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": history})
}

func (s *Server) riskHistory(c *gin.Context) {
	history, err := s.assessor.History(c.Request.Context(), c.Param("id"), limitParam(c))
	if err != nil {
		s.logger.Error("failed to list risk history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": history})
}

func (s *Server) actionHistory(c *gin.Context) {
	history, err := s.pipeline.ActionHistory(c.Request.Context(), c.Param("id"), limitParam(c))
	if err != nil {
		s.logger.Error("failed to list action history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if history == nil {
		history = []*orchestrator.ActionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"actions": history, "count": len(history)})
}

type executeActionRequest struct {
	ActionType string            `json:"actionType" binding:"required"`
	Target     map[string]string `json:"target"`
	Force      bool              `json:"force"`
}

func (s *Server) executeAction(c *gin.Context) {
	var req executeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "actionType is required",
		})
		return
	}
	if !platform.ActionType(req.ActionType).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_action_type",
			"message": "actionType must be one of: follow, unfollow, like, comment, share, view",
		})
		return
	}

	// Force-execution bypasses the approval gate; only admins may use it.
	if req.Force && !s.isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin_required"})
		return
	}

	// Cleared actions wait out a human-like delay that dwarfs the server's
	// write timeout, so execution is scheduled and the response carries the
	// action id to poll on the action-history endpoint.
	outcome, err := s.pipeline.Schedule(c.Request.Context(), &orchestrator.Request{
		AccountID:  c.Param("id"),
		ActionType: req.ActionType,
		Target:     req.Target,
		Force:      req.Force,
	})
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
			return
		}
		s.logger.Error("action pipeline failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if outcome.Status == orchestrator.StatusScheduled {
		c.JSON(http.StatusAccepted, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type analyzeTargetRequest struct {
	Phase   string               `json:"phase"`
	Profile authenticity.Profile `json:"profile" binding:"required"`
}

func (s *Server) analyzeTarget(c *gin.Context) {
	var req analyzeTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "profile is required",
		})
		return
	}

	analysis := s.analyzer.Analyze(c.Request.Context(), &req.Profile)
	resp := gin.H{"analysis": analysis}
	if req.Phase != "" {
		interact, reason := s.analyzer.ShouldInteract(c.Request.Context(), &req.Profile, req.Phase)
		resp["shouldInteract"] = interact
		resp["interactReason"] = reason
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) platformHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": s.pipeline.PlatformHealth()})
}

func (s *Server) dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		s.logger.Error("failed to list accounts for dashboard", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	byPhase := map[string]int{}
	byStatus := map[string]int{}
	for _, a := range accounts {
		byPhase[a.Phase]++
		byStatus[string(a.Status)]++
	}

	pending, err := s.workflow.GetPendingApprovals(ctx, "")
	if err != nil {
		s.logger.Error("failed to count pending approvals", "error", err)
		pending = nil
	}

	resp := gin.H{
		"accounts": gin.H{
			"total":    len(accounts),
			"byPhase":  byPhase,
			"byStatus": byStatus,
		},
		"pendingApprovals": len(pending),
		"platformHealth":   s.pipeline.PlatformHealth(),
		"aiProviders":      s.chain.ProviderStats(),
		"realtime":         s.realtimeHub.Stats(),
	}
	if s.proxyPool != nil {
		resp["proxies"] = s.proxyPool.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// isAdmin checks the admin secret header. Open when no secret is configured
// (development mode).
func (s *Server) isAdmin(c *gin.Context) bool {
	if s.cfg.AdminSecret == "" {
		return !s.cfg.IsProduction()
	}
	return c.GetHeader("X-Admin-Secret") == s.cfg.AdminSecret
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		return 20
	}
	return limit
}
