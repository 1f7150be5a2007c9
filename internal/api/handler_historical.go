package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-iot-backend/internal/parse"
	"parking-iot-backend/internal/simulator"
)

type historicalRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	BatchSize int    `json:"batch_size"`
	DryRun    bool   `json:"dry_run"`
	Resume    *bool  `json:"resume"`
	Seed      uint64 `json:"seed"`
}

func (h *Handler) historicalEnabled(c *gin.Context) bool {
	if h.historical == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "historical generation is disabled"})
		return false
	}
	return true
}

// StartHistorical handles POST /api/historical. The run continues in the background;
// poll GET /api/historical/progress for its state.
func (h *Handler) StartHistorical(c *gin.Context) {
	if !h.historicalEnabled(c) {
		return
	}
	var req historicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.BatchSize < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch_size must not be negative"})
		return
	}

	start, end, err := parse.DateRange(req.StartDate, req.EndDate, h.now(), h.traffic.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := simulator.Params{
		Start:     start,
		End:       end,
		BatchSize: req.BatchSize,
		DryRun:    req.DryRun,
		Resume:    req.Resume == nil || *req.Resume,
		Seed:      req.Seed,
	}
	if err := h.historical.Start(h.runCtx, params); err != nil {
		switch {
		case errors.Is(err, simulator.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, simulator.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	h.onHistoricalChange()

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "started",
		"start_date": start.Format(time.DateOnly),
		"end_date":   end.Format(time.DateOnly),
		"total_days": int(end.Sub(start).Hours()/24+0.5) + 1,
		"dry_run":    params.DryRun,
	})
}

// GetHistoricalProgress handles GET /api/historical/progress.
func (h *Handler) GetHistoricalProgress(c *gin.Context) {
	if !h.historicalEnabled(c) {
		return
	}
	cp, err := h.historical.Progress()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cp)
}

// ClearHistoricalProgress handles DELETE /api/historical/progress.
func (h *Handler) ClearHistoricalProgress(c *gin.Context) {
	if !h.historicalEnabled(c) {
		return
	}
	if err := h.historical.ClearProgress(); err != nil {
		if errors.Is(err, simulator.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.onHistoricalChange()
	c.Status(http.StatusNoContent)
}
