package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/handler/http/middleware"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
	"github.com/gin-gonic/gin"
)

type ChainHandler struct {
	svc *services.ChainService
}

func NewChainHandler(svc *services.ChainService) *ChainHandler {
	return &ChainHandler{
		svc: svc,
	}
}

type createChainRequest struct {
	Name  string `json:"name" binding:"required"`
	Steps []struct {
		HabitID                 string `json:"habit_id" binding:"required"`
		ExpectedDurationMinutes int    `json:"expected_duration_minutes"`
	} `json:"steps" binding:"required"`
}

type stepNotesRequest struct {
	Notes string `json:"notes"`
}

type skipStepRequest struct {
	Reason string `json:"reason"`
}

type startBreakRequest struct {
	Minutes int `json:"minutes"`
}

func (h *ChainHandler) RegisterRoutes(router *gin.RouterGroup) {
	chains := router.Group("/chains")
	{
		chains.POST("", h.CreateDefinition)
		chains.GET("", h.ListDefinitions)
		chains.POST("/:id/start", h.Start)
	}

	sessions := router.Group("/chain-sessions")
	{
		sessions.GET("/active", h.GetActive)
		sessions.GET("/past", h.ListPast)
		sessions.POST("/:id/complete", h.CompleteStep)
		sessions.POST("/:id/skip", h.SkipStep)
		sessions.POST("/:id/pause", h.Pause)
		sessions.POST("/:id/resume", h.Resume)
		sessions.POST("/:id/break/start", h.StartBreak)
		sessions.POST("/:id/break/end", h.EndBreak)
		sessions.POST("/:id/abandon", h.Abandon)
	}
}

func (h *ChainHandler) CreateDefinition(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req createChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "validation"})
		return
	}

	steps := make([]domain.ChainStep, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = domain.ChainStep{
			HabitID:                 s.HabitID,
			ExpectedDurationMinutes: s.ExpectedDurationMinutes,
		}
	}

	def, err := h.svc.CreateDefinition(c.Request.Context(), services.CreateChainInput{
		UserID: userID,
		Name:   req.Name,
		Steps:  steps,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"chain": def})
}

func (h *ChainHandler) ListDefinitions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	defs, err := h.svc.ListDefinitions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, defs)
}

func (h *ChainHandler) Start(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	session, err := h.svc.StartChain(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"session": session})
}

func (h *ChainHandler) GetActive(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	session, err := h.svc.GetActiveSession(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *ChainHandler) ListPast(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	sessions, err := h.svc.GetPastSessions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *ChainHandler) CompleteStep(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req stepNotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "validation"})
			return
		}
	}

	result, err := h.svc.CompleteCurrentStep(c.Request.Context(), c.Param("id"), userID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"result": result})
}

func (h *ChainHandler) SkipStep(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req skipStepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "validation"})
			return
		}
	}

	result, err := h.svc.SkipCurrentStep(c.Request.Context(), c.Param("id"), userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"result": result})
}

func (h *ChainHandler) Pause(c *gin.Context) {
	h.transition(c, h.svc.Pause)
}

func (h *ChainHandler) Resume(c *gin.Context) {
	h.transition(c, h.svc.Resume)
}

func (h *ChainHandler) EndBreak(c *gin.Context) {
	h.transition(c, h.svc.EndBreak)
}

func (h *ChainHandler) Abandon(c *gin.Context) {
	h.transition(c, h.svc.Abandon)
}

func (h *ChainHandler) StartBreak(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req startBreakRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "validation"})
			return
		}
	}

	session, err := h.svc.StartBreak(c.Request.Context(), c.Param("id"), userID, req.Minutes)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"session": session})
}

func (h *ChainHandler) transition(c *gin.Context, apply func(ctx context.Context, sessionID, userID string) (*domain.ChainSession, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	session, err := apply(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"session": session})
}
