package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/adwatch/internal/apperr"
	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/service"
)

// unknownOutcomeMessage tells the viewer a retry might double-apply.
const unknownOutcomeMessage = "The reward ledger did not confirm the outcome. Check your wallet before trying again."

// ledgerErrorResponse maps the reward-flow error taxonomy onto API errors.
// rejectCode distinguishes claim and withdrawal rejections.
func ledgerErrorResponse(c fiber.Ctx, err error, rejectCode string) error {
	var (
		ve *apperr.ValidationError
		rr *apperr.RemoteRejection
		te *apperr.TransportError
	)
	switch {
	case errors.Is(err, apperr.ErrInsufficientBalance) && errors.As(err, &ve):
		return middleware.ErrorResponse(c, fiber.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", ve.Reason)
	case errors.Is(err, apperr.ErrWithdrawalInProgress) && errors.As(err, &ve):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "WITHDRAWAL_IN_PROGRESS", ve.Reason)
	case errors.As(err, &ve):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_REQUEST", ve.Reason)
	case errors.As(err, &rr):
		return middleware.ErrorResponse(c, fiber.StatusConflict, rejectCode, rr.Reason)
	case errors.As(err, &te):
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "LEDGER_UNAVAILABLE", unknownOutcomeMessage)
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update wallet")
	}
}

// outcomeLabel names an error for the metrics result label.
func outcomeLabel(err error) string {
	var (
		rr *apperr.RemoteRejection
		te *apperr.TransportError
	)
	switch {
	case errors.Is(err, apperr.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, apperr.ErrWithdrawalInProgress):
		return "in_progress"
	case errors.As(err, &rr):
		return "rejected"
	case errors.As(err, &te):
		return "transport_error"
	default:
		return "error"
	}
}

// sessionFor returns the caller's open session, or writes a 404 response.
func sessionFor(c fiber.Ctx, sessions *service.SessionService) (*service.Session, error) {
	sess, err := sessions.Get(middleware.UserID(c))
	if err != nil {
		return nil, middleware.ErrorResponse(c, fiber.StatusNotFound, "SESSION_NOT_FOUND", "No open session. Open the dashboard first.")
	}
	return sess, nil
}
