package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
	"github.com/mathieu-neron/adwatch/internal/service"
)

type CampaignHandler struct {
	svc *service.CampaignService
}

func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{svc: svc}
}

// ListActive handles GET /api/campaigns
func (h *CampaignHandler) ListActive(c fiber.Ctx) error {
	campaigns, fromCache, err := h.svc.ListActive(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load campaigns")
	}
	if fromCache {
		Metrics.CacheHits.Inc()
	} else {
		Metrics.CacheMisses.Inc()
	}

	return c.JSON(model.CampaignListResponse{Campaigns: campaigns, Count: len(campaigns)})
}
