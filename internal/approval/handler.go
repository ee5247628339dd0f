package approval

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialseed/socialseed/internal/validation"
)

// Handler exposes the approval queue over HTTP.
type Handler struct {
	workflow *Workflow
	logger   *slog.Logger
}

// NewHandler creates an approval HTTP handler.
func NewHandler(workflow *Workflow, logger *slog.Logger) *Handler {
	return &Handler{workflow: workflow, logger: logger}
}

// RegisterRoutes mounts the approval endpoints on the given router group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/approvals/pending", h.listPending)
	r.GET("/approvals/:id", h.get)
	r.POST("/approvals/:id/approve", h.approve)
	r.POST("/approvals/:id/reject", h.reject)
}

func (h *Handler) listPending(c *gin.Context) {
	accountID := c.Query("account_id")
	if accountID != "" && !validation.IsValidAccountID(accountID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_account_id"})
		return
	}

	pending, err := h.workflow.GetPendingApprovals(c.Request.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to list pending approvals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if pending == nil {
		pending = []*Request{}
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get approval", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "approval_not_found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

type resolveRequest struct {
	Approver string `json:"approver" binding:"required"`
	Notes    string `json:"notes"`
}

func (h *Handler) approve(c *gin.Context) {
	h.resolve(c, true)
}

func (h *Handler) reject(c *gin.Context) {
	h.resolve(c, false)
}

func (h *Handler) resolve(c *gin.Context, approve bool) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "approver is required",
		})
		return
	}
	req.Notes = validation.SanitizeString(req.Notes, validation.MaxStringLength)

	id := c.Param("id")
	var (
		ok  bool
		err error
	)
	if approve {
		ok, err = h.workflow.Approve(c.Request.Context(), id, req.Approver, req.Notes)
	} else {
		ok, err = h.workflow.Reject(c.Request.Context(), id, req.Approver, req.Notes)
	}
	if err != nil {
		h.logger.Error("failed to resolve approval", "approval_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "not_pending",
			"message": "Approval does not exist or was already resolved",
		})
		return
	}

	status := StatusRejected
	if approve {
		status = StatusApproved
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}
