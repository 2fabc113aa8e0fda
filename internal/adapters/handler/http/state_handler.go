package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/core/domain"
	"github.com/habitloop/stats-engine/internal/core/services"
)

// syncDeadline bounds background syncs started from the bridge, which
// outlive the request that scheduled them.
const syncDeadline = time.Minute

type StateHandler struct {
	ctrl   *services.Controller
	logger *zap.Logger
}

func NewStateHandler(ctrl *services.Controller, logger *zap.Logger) *StateHandler {
	return &StateHandler{
		ctrl:   ctrl,
		logger: logger,
	}
}

type setScopeRequest struct {
	Scope string `json:"scope" binding:"required"`
}

type setDateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h *StateHandler) RegisterRoutes(api, intents *gin.RouterGroup) {
	api.GET("/state", h.GetState)
	api.GET("/state/stream", h.Stream)

	intents.POST("/refresh", h.Refresh)
	intents.PUT("/scope", h.SetScope)
	intents.PUT("/date", h.SetDate)
	intents.POST("/cache/clear", h.ClearCache)
}

func (h *StateHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.State())
}

// Stream delivers state snapshots as Server-Sent Events: the current
// state on connect, then one event per publish until the client hangs
// up.
func (h *StateHandler) Stream(c *gin.Context) {
	_, updates, cancel := h.ctrl.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("state", h.ctrl.State())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case state, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("state", state)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *StateHandler) Refresh(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncDeadline)
		defer cancel()

		if out := h.ctrl.Refresh(ctx); out.Err != nil {
			h.logger.Warn("bridge-triggered refresh failed", zap.Error(out.Err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "sync scheduled"})
}

func (h *StateHandler) SetScope(c *gin.Context) {
	var req setScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ctrl.SetScope(c.Request.Context(), req.Scope); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.ctrl.State())
}

func (h *StateHandler) SetDate(c *gin.Context) {
	var req setDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse(domain.DateKeyLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected YYYY-MM-DD"})
		return
	}

	h.ctrl.SetSelectedDate(c.Request.Context(), date)
	c.JSON(http.StatusOK, h.ctrl.State())
}

func (h *StateHandler) ClearCache(c *gin.Context) {
	if err := h.ctrl.ClearCache(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.ctrl.State())
}

func (h *StateHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidScope):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session is not authenticated"})
	default:
		h.logger.Error("bridge request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
