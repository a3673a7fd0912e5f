package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/handler/http/middleware"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
)

type StatsHandler struct {
	stats    *services.StatsService
	insights *services.InsightService
	rewards  *services.RewardService
}

func NewStatsHandler(stats *services.StatsService, insights *services.InsightService, rewards *services.RewardService) *StatsHandler {
	return &StatsHandler{
		stats:    stats,
		insights: insights,
		rewards:  rewards,
	}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)
	r.GET("/stats/insight", h.GetInsight)
	r.GET("/rewards", h.GetRewards)
}

func (h *StatsHandler) GetStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	stats, err := h.stats.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetInsight(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	insight, err := h.insights.GetInsight(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, insight)
}

func (h *StatsHandler) GetRewards(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	state, history, err := h.rewards.GetState(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"state":   state,
		"history": history,
	})
}
