package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parking-iot-backend/internal/simulator"
)

const (
	defaultRecentEvents = 20
	maxBurstTicks       = 60
)

func (h *Handler) liveEnabled(c *gin.Context) bool {
	if h.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed is disabled"})
		return false
	}
	return true
}

// GetLiveStatus handles GET /api/live/status.
func (h *Handler) GetLiveStatus(c *gin.Context) {
	if !h.liveEnabled(c) {
		return
	}
	c.JSON(http.StatusOK, h.live.Snapshot())
}

// GetLiveEvents handles GET /api/live/events?limit=N, newest first.
func (h *Handler) GetLiveEvents(c *gin.Context) {
	if !h.liveEnabled(c) {
		return
	}
	limit := defaultRecentEvents
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, simulator.RecentEventsSize)
	}
	c.JSON(http.StatusOK, h.live.RecentEvents(limit))
}

// StartLive handles POST /api/live/start.
func (h *Handler) StartLive(c *gin.Context) {
	if !h.liveEnabled(c) {
		return
	}
	h.live.Start()
	h.onLiveChange()
	c.JSON(http.StatusOK, gin.H{"running": true})
}

// StopLive handles POST /api/live/stop. A tick already in progress completes.
func (h *Handler) StopLive(c *gin.Context) {
	if !h.liveEnabled(c) {
		return
	}
	h.live.Stop()
	h.onLiveChange()
	c.JSON(http.StatusOK, gin.H{"running": false})
}

// ResetLive handles POST /api/live/reset.
func (h *Handler) ResetLive(c *gin.Context) {
	if !h.liveEnabled(c) {
		return
	}
	h.live.Reset()
	h.onLiveChange()
	c.JSON(http.StatusOK, h.live.Snapshot())
}

type burstRequest struct {
	Ticks       int   `json:"ticks"`
	FacilityIDs []int `json:"facility_ids"`
}

// BurstLive handles POST /api/live/burst. An empty body bursts one tick over random facilities.
func (h *Handler) BurstLive(c *gin.Context) {
	if !h.liveEnabled(c) {
		return
	}
	var req burstRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Ticks < 0 || req.Ticks > maxBurstTicks {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticks must be between 1 and " + strconv.Itoa(maxBurstTicks)})
		return
	}

	res, err := h.live.Burst(c.Request.Context(), req.Ticks, req.FacilityIDs)
	if err != nil {
		if errors.Is(err, simulator.ErrUnknownFacility) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.onLiveChange()
	c.JSON(http.StatusOK, res)
}
