package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
	"github.com/mathieu-neron/adwatch/internal/service"
)

type RewardHandler struct {
	sessions *service.SessionService
	ledger   *service.LedgerService
}

func NewRewardHandler(sessions *service.SessionService, ledger *service.LedgerService) *RewardHandler {
	return &RewardHandler{sessions: sessions, ledger: ledger}
}

// Claim handles POST /api/rewards/claim
func (h *RewardHandler) Claim(c fiber.Ctx) error {
	var req model.ClaimRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	campaignID, errMsg := middleware.ValidateCampaignID(req.CampaignID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	sess, err := sessionFor(c, h.sessions)
	if sess == nil {
		return err
	}

	result, err := h.ledger.Claim(c.Context(), sess, campaignID)
	if err != nil {
		Metrics.ClaimsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return ledgerErrorResponse(c, err, "REWARD_REJECTED")
	}
	Metrics.ClaimsTotal.WithLabelValues(string(result.Type)).Inc()

	resp := model.ClaimResponse{
		RewardType: result.Type,
		CouponCode: result.CouponCode,
		Balance:    sess.Wallet.Balance(),
	}
	if result.Type == model.RewardCash {
		amount := result.Amount
		resp.Amount = &amount
	}
	return c.JSON(resp)
}
