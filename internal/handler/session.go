package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
	"github.com/mathieu-neron/adwatch/internal/service"
)

type SessionHandler struct {
	sessions    *service.SessionService
	withdrawals *service.WithdrawalService
}

func NewSessionHandler(sessions *service.SessionService, withdrawals *service.WithdrawalService) *SessionHandler {
	return &SessionHandler{sessions: sessions, withdrawals: withdrawals}
}

// Open handles POST /api/sessions
func (h *SessionHandler) Open(c fiber.Ctx) error {
	sess, err := h.sessions.Open(c.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open session")
	}

	return c.Status(fiber.StatusCreated).JSON(walletResponse(sess, h.withdrawals))
}

// Close handles DELETE /api/sessions
func (h *SessionHandler) Close(c fiber.Ctx) error {
	if !h.sessions.Close(middleware.UserID(c)) {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "SESSION_NOT_FOUND", "No open session")
	}
	return c.JSON(fiber.Map{"success": true})
}

// Wallet handles GET /api/wallet
func (h *SessionHandler) Wallet(c fiber.Ctx) error {
	sess, err := sessionFor(c, h.sessions)
	if sess == nil {
		return err
	}
	return c.JSON(walletResponse(sess, h.withdrawals))
}

func walletResponse(sess *service.Session, withdrawals *service.WithdrawalService) model.WalletResponse {
	balance := sess.Wallet.Balance()
	return model.WalletResponse{
		Balance:       balance,
		MinWithdrawal: withdrawals.Minimum(),
		CanWithdraw:   withdrawals.CanWithdraw(balance),
	}
}
