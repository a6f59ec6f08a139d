package api

import (
	"net/http"

	"github.com/adityarama/procurement-engine/internal/application/service"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the engine's boundary operations over HTTP
type Handler struct {
	definitions service.DefinitionService
	instances   service.InstanceService
	inbox       service.InboxService
	cases       service.CaseService
	logger      *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	definitions service.DefinitionService,
	instances service.InstanceService,
	inbox service.InboxService,
	cases service.CaseService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		definitions: definitions,
		instances:   instances,
		inbox:       inbox,
		cases:       cases,
		logger:      logger,
	}
}

// CreateDefinition handles POST /api/v1/definitions
func (h *Handler) CreateDefinition(c *gin.Context) {
	var input service.CreateDefinitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def, err := h.definitions.CreateDefinition(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, def)
}

// ActivateVersion handles POST /api/v1/definitions/:code/versions/:version/activate
func (h *Handler) ActivateVersion(c *gin.Context) {
	var uri struct {
		Code    string `uri:"code" binding:"required"`
		Version int    `uri:"version" binding:"required,min=1"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.definitions.ActivateVersion(c.Request.Context(), uri.Code, uri.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateInstance handles POST /api/v1/instances
func (h *Handler) CreateInstance(c *gin.Context) {
	var body struct {
		DefinitionCode string `json:"definition_code" binding:"required"`
		CaseID         string `json:"case_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := h.instances.CreateInstance(c.Request.Context(), body.DefinitionCode, body.CaseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, instance)
}

// GetInstance handles GET /api/v1/instances/:id
func (h *Handler) GetInstance(c *gin.Context) {
	instance, err := h.instances.GetInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	steps, err := h.instances.ListSteps(c.Request.Context(), instance.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instance": instance, "steps": steps})
}

// TransitionStep handles POST /api/v1/steps/:id/transition
func (h *Handler) TransitionStep(c *gin.Context) {
	var body struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := sessionFrom(c)
	step, err := h.instances.TransitionStep(c.Request.Context(), c.Param("id"),
		workflow.StepAction(body.Action), session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// CancelInstance handles POST /api/v1/instances/:id/cancel
func (h *Handler) CancelInstance(c *gin.Context) {
	instance, err := h.instances.CancelInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, instance)
}

// GetInboxCount handles GET /api/v1/inbox/count
func (h *Handler) GetInboxCount(c *gin.Context) {
	session := sessionFrom(c)
	count, err := h.inbox.GetInboxCount(c.Request.Context(), session.UserID, session.Roles)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.inbox.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ArchiveNotification handles POST /api/v1/notifications/:id/archive
func (h *Handler) ArchiveNotification(c *gin.Context) {
	if err := h.inbox.ArchiveNotification(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateCase handles POST /api/v1/cases
func (h *Handler) CreateCase(c *gin.Context) {
	var body struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.cases.CreateCase(c.Request.Context(), body.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCase handles GET /api/v1/cases/:id
func (h *Handler) GetCase(c *gin.Context) {
	found, err := h.cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}
