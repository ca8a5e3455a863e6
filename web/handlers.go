package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"payengine/models"
)

type createRunRequest struct {
	LiquidationEventID string `json:"liquidation_event_id" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.healthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "liquidation_event_id is required",
		})
		return
	}

	run, err := s.orchestrator.RunPayouts(c.Request.Context(), req.LiquidationEventID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrEventNotFound) {
			status = http.StatusNotFound
		}
		log.WithFields(log.Fields{
			"eventId": req.LiquidationEventID,
			"error":   err,
		}).Error("Payout run failed")
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"run":     run,
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := s.query.ListRuns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"runs":    runs,
		"count":   len(runs),
	})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, payouts, err := s.query.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "run not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"run":     run,
		"payouts": payouts,
	})
}

func (s *Server) handleListPayouts(c *gin.Context) {
	filter := models.PayoutFilter{
		LiquidationEventID: c.Query("event_id"),
		Country:            c.Query("country"),
		Status:             models.PayoutStatus(c.Query("status")),
		Rail:               c.Query("rail"),
	}

	payouts, err := s.query.ListPayouts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payouts": payouts,
		"count":   len(payouts),
	})
}

func (s *Server) handleGetPayout(c *gin.Context) {
	payout, err := s.query.GetPayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if payout == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "payout not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payout":  payout,
	})
}

func (s *Server) handleTracePayout(c *gin.Context) {
	payout, trail, err := s.query.TracePayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if payout == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "payout not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payout":  payout,
		"trail":   trail,
	})
}
