package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pmforge/changeflow/internal/application/service"
	"github.com/pmforge/changeflow/internal/attachment"
	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/internal/domain/workflow"
	"github.com/pmforge/changeflow/internal/storage"
	"github.com/pmforge/changeflow/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	changeService *service.ChangeRequestService
	attachments   *storage.AttachmentStore
	pdfReader     *attachment.PDFReader
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(changeService *service.ChangeRequestService, logger Logger) *Handlers {
	return &Handlers{
		changeService: changeService,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateRequestBody is the payload for creating a change request
type CreateRequestBody struct {
	RequestNumber         string  `json:"request_number" binding:"required"`
	Title                 string  `json:"title" binding:"required"`
	Description           string  `json:"description"`
	Justification         string  `json:"justification"`
	Priority              string  `json:"priority"`
	Department            string  `json:"department"`
	EstimatedCostImpact   float64 `json:"estimated_cost_impact"`
	EstimatedScheduleDays int     `json:"estimated_schedule_days"`
}

// ActionBody is the payload for executing a workflow action
type ActionBody struct {
	Action   string                 `json:"action" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// AnalysisBody is the payload for attaching an impact analysis
type AnalysisBody struct {
	TotalCostImpact     float64  `json:"total_cost_impact"`
	ScheduleImpactDays  int      `json:"schedule_impact_days"`
	AffectsCriticalPath bool     `json:"affects_critical_path"`
	AffectedWorkItems   []string `json:"affected_work_items"`
	Summary             string   `json:"summary"`
	RiskNotes           []string `json:"risk_notes"`
}

// ApprovalsBody is the payload for assigning an approval chain
type ApprovalsBody struct {
	Approvals []struct {
		ApproverName string    `json:"approver_name" binding:"required"`
		ApproverRole string    `json:"approver_role"`
		StepNumber   int       `json:"step_number"`
		DueDate      time.Time `json:"due_date" binding:"required"`
	} `json:"approvals" binding:"required"`
}

// ActualsBody is the payload for recording measured impact
type ActualsBody struct {
	ActualCostImpact   float64 `json:"actual_cost_impact"`
	ActualScheduleDays int     `json:"actual_schedule_days"`
}

// DecisionsBody is the payload for resolving a batch of approval decisions
type DecisionsBody struct {
	Decisions []struct {
		ApproverID string    `json:"approver_id" binding:"required"`
		Decision   string    `json:"decision" binding:"required"`
		Timestamp  time.Time `json:"timestamp" binding:"required"`
	} `json:"decisions" binding:"required"`
}

// callerFromHeaders builds the acting user from request headers. The gateway
// in front of this service is responsible for authenticating them.
func callerFromHeaders(c *gin.Context) workflow.User {
	user := workflow.User{
		ID:   c.GetHeader("X-User-ID"),
		Role: c.GetHeader("X-User-Role"),
	}
	if perms := c.GetHeader("X-User-Permissions"); perms != "" {
		user.Permissions = strings.Split(perms, ",")
	}
	return user
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request ID",
		})
		return 0, false
	}
	return id, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	if err := utils.ValidateRequestNumber(body.RequestNumber); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := utils.ValidateCostImpact(body.EstimatedCostImpact); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := utils.ValidateScheduleDays(body.EstimatedScheduleDays); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	caller := callerFromHeaders(c)
	request := &entity.ChangeRequest{
		RequestNumber:         body.RequestNumber,
		Title:                 utils.SanitizeString(body.Title),
		Description:           utils.SanitizeString(body.Description),
		Justification:         utils.SanitizeString(body.Justification),
		Priority:              body.Priority,
		RequestedBy:           caller.ID,
		Department:            body.Department,
		EstimatedCostImpact:   body.EstimatedCostImpact,
		EstimatedScheduleDays: body.EstimatedScheduleDays,
		SubmissionTime:        time.Now().UTC(),
	}

	if err := h.changeService.CreateDraft(c.Request.Context(), request); err != nil {
		h.logger.Error("Failed to create change request", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: request})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	request, err := h.changeService.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get change request", "id", id, "error", err)
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// ExecuteAction handles POST /api/requests/:id/actions
func (h *Handlers) ExecuteAction(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body ActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	result, err := h.changeService.ExecuteAction(
		c.Request.Context(), id, workflow.Action(body.Action), callerFromHeaders(c), body.Metadata)
	if err != nil {
		h.logger.Error("Failed to execute action", "id", id, "action", body.Action, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	// A refused transition is a well-formed negative outcome
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, Response{Success: result.Success, Data: result})
}

// AvailableActions handles GET /api/requests/:id/actions
func (h *Handlers) AvailableActions(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	actions, err := h.changeService.AvailableActions(c.Request.Context(), id, callerFromHeaders(c))
	if err != nil {
		h.logger.Error("Failed to list actions", "id", id, "error", err)
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: actions})
}

// GetProgress handles GET /api/requests/:id/progress
func (h *Handlers) GetProgress(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	report, err := h.changeService.Progress(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to report progress", "id", id, "error", err)
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// CheckConsistency handles GET /api/requests/:id/consistency
func (h *Handlers) CheckConsistency(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	report, err := h.changeService.CheckConsistency(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to check consistency", "id", id, "error", err)
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// GetEscalationPlan handles GET /api/requests/:id/escalation
func (h *Handlers) GetEscalationPlan(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	plan, err := h.changeService.PlanEscalation(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to plan escalation", "id", id, "error", err)
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: plan})
}

// AttachAnalysis handles POST /api/requests/:id/analysis
func (h *Handlers) AttachAnalysis(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body AnalysisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	analysis := &entity.ImpactAnalysis{
		RequestID:           id,
		TotalCostImpact:     body.TotalCostImpact,
		ScheduleImpactDays:  body.ScheduleImpactDays,
		AffectsCriticalPath: body.AffectsCriticalPath,
		AffectedWorkItems:   body.AffectedWorkItems,
		Summary:             utils.SanitizeString(body.Summary),
		RiskNotes:           body.RiskNotes,
		PreparedBy:          callerFromHeaders(c).ID,
	}

	if err := h.changeService.AttachAnalysis(c.Request.Context(), analysis); err != nil {
		h.logger.Error("Failed to attach analysis", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: analysis})
}

// DraftAnalysis handles POST /api/requests/:id/analysis/draft
func (h *Handlers) DraftAnalysis(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	// Feed any stored PDF attachments to the assessor
	supportingText := ""
	if h.attachments != nil && h.pdfReader != nil {
		request, err := h.changeService.Get(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
			return
		}
		text, err := h.pdfReader.ExtractAll(h.attachments.RequestDir(request.RequestNumber))
		if err != nil {
			h.logger.Error("Failed to extract attachment text", "id", id, "error", err)
		} else {
			supportingText = text
		}
	}

	analysis, err := h.changeService.DraftAnalysis(c.Request.Context(), id, supportingText)
	if err != nil {
		h.logger.Error("Failed to draft analysis", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: analysis})
}

// UploadAttachment handles POST /api/requests/:id/attachments
func (h *Handlers) UploadAttachment(c *gin.Context) {
	if h.attachments == nil {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: "attachment storage is not configured"})
		return
	}

	id, ok := requestID(c)
	if !ok {
		return
	}

	request, err := h.changeService.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing file field"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unreadable file"})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unreadable file"})
		return
	}

	path, err := h.attachments.Save(request.RequestNumber, file.Filename, content)
	if err != nil {
		h.logger.Error("Failed to save attachment", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"path": path}})
}

// ListAttachments handles GET /api/requests/:id/attachments
func (h *Handlers) ListAttachments(c *gin.Context) {
	if h.attachments == nil {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: "attachment storage is not configured"})
		return
	}

	id, ok := requestID(c)
	if !ok {
		return
	}

	request, err := h.changeService.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	names, err := h.attachments.List(request.RequestNumber)
	if err != nil {
		h.logger.Error("Failed to list attachments", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: names})
}

// AssignApprovals handles POST /api/requests/:id/approvals
func (h *Handlers) AssignApprovals(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body ApprovalsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	records := make([]entity.ApprovalRecord, 0, len(body.Approvals))
	for _, a := range body.Approvals {
		records = append(records, entity.ApprovalRecord{
			ApproverName: utils.SanitizeString(a.ApproverName),
			ApproverRole: utils.SanitizeString(a.ApproverRole),
			StepNumber:   a.StepNumber,
			DueDate:      a.DueDate,
		})
	}

	if err := h.changeService.AssignApprovals(c.Request.Context(), id, records); err != nil {
		h.logger.Error("Failed to assign approvals", "id", id, "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: records})
}

// RecordActuals handles POST /api/requests/:id/actuals
func (h *Handlers) RecordActuals(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body ActualsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	if err := utils.ValidateCostImpact(body.ActualCostImpact); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := utils.ValidateScheduleDays(body.ActualScheduleDays); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if err := h.changeService.RecordActuals(c.Request.Context(), id, body.ActualCostImpact, body.ActualScheduleDays); err != nil {
		h.logger.Error("Failed to record actuals", "id", id, "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ResolveDecisions handles POST /api/requests/:id/decisions/resolve
func (h *Handlers) ResolveDecisions(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body DecisionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	decisions := make([]workflow.ApprovalDecision, 0, len(body.Decisions))
	for _, d := range body.Decisions {
		decisions = append(decisions, workflow.ApprovalDecision{
			ApproverID: d.ApproverID,
			Decision:   d.Decision,
			Timestamp:  d.Timestamp,
		})
	}

	resolution, err := h.changeService.ResolveApprovals(c.Request.Context(), id, decisions)
	if err != nil {
		h.logger.Error("Failed to resolve decisions", "id", id, "error", err)
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "change request not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resolution})
}
