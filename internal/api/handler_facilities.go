package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-iot-backend/internal/model"
	"parking-iot-backend/internal/traffic"
)

// GetFacilities handles GET /api/facilities, optionally filtered by ?district=.
func (h *Handler) GetFacilities(c *gin.Context) {
	district := c.Query("district")
	if district == "" {
		c.JSON(http.StatusOK, h.registry.Facilities())
		return
	}
	d := model.District(district)
	if !d.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown district"})
		return
	}
	c.JSON(http.StatusOK, h.registry.ByDistrict(d))
}

type districtResponse struct {
	District   model.District  `json:"district"`
	Facilities int             `json:"facilities"`
	TotalSpots int             `json:"total_spots"`
	Pattern    traffic.Pattern `json:"pattern"`
	Current    currentTraffic  `json:"current"`
}

type currentTraffic struct {
	DayType   traffic.DayType `json:"day_type"`
	Hour      int             `json:"hour"`
	EntryRate float64         `json:"entry_rate"`
	ExitRate  float64         `json:"exit_rate"`
	Tag       string          `json:"traffic_pattern"`
}

// GetDistricts handles GET /api/districts: each district's pattern and its intensity right now.
func (h *Handler) GetDistricts(c *gin.Context) {
	now := h.now()
	responses := make([]districtResponse, 0, len(model.Districts))
	for _, d := range h.traffic.Districts() {
		p, _ := h.traffic.Pattern(d)
		in := h.traffic.Intensity(d, now)
		resp := districtResponse{
			District: d,
			Pattern:  p,
			Current: currentTraffic{
				DayType:   in.DayType,
				Hour:      in.Hour,
				EntryRate: in.EntryRate,
				ExitRate:  in.ExitRate,
				Tag:       in.Tag,
			},
		}
		for _, f := range h.registry.ByDistrict(d) {
			resp.Facilities++
			resp.TotalSpots += f.TotalSpots
		}
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}
