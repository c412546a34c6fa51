package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/adwatch/internal/model"
	"github.com/mathieu-neron/adwatch/internal/service"
)

type WithdrawalHandler struct {
	sessions    *service.SessionService
	withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(sessions *service.SessionService, withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{sessions: sessions, withdrawals: withdrawals}
}

// Withdraw handles POST /api/withdrawals
func (h *WithdrawalHandler) Withdraw(c fiber.Ctx) error {
	sess, err := sessionFor(c, h.sessions)
	if sess == nil {
		return err
	}

	result, err := h.withdrawals.Withdraw(c.Context(), sess)
	if err != nil {
		Metrics.WithdrawalsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return ledgerErrorResponse(c, err, "WITHDRAWAL_REJECTED")
	}
	if result.Resync {
		// Drop the stale session so the next open reloads the wallet from the profile.
		Metrics.WithdrawalsTotal.WithLabelValues("accepted_resync").Inc()
		h.sessions.Close(sess.UserID)
		return c.JSON(model.WithdrawalResponse{
			Success:        true,
			Message:        service.WithdrawalResyncMessage,
			Amount:         result.Amount,
			Balance:        result.Balance,
			ResyncRequired: true,
		})
	}
	Metrics.WithdrawalsTotal.WithLabelValues("accepted").Inc()

	return c.JSON(model.WithdrawalResponse{
		Success: true,
		Message: service.WithdrawalMessage,
		Amount:  result.Amount,
		Balance: result.Balance,
	})
}
