package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/adwatch/internal/model"
	"github.com/mathieu-neron/adwatch/internal/service"
)

type PresentationHandler struct {
	sessions *service.SessionService
}

func NewPresentationHandler(sessions *service.SessionService) *PresentationHandler {
	return &PresentationHandler{sessions: sessions}
}

// Get handles GET /api/presentation
func (h *PresentationHandler) Get(c fiber.Ctx) error {
	sess, err := sessionFor(c, h.sessions)
	if sess == nil {
		return err
	}
	return c.JSON(presentationResponse(sess.Presenter, time.Now()))
}

// Dismiss handles POST /api/presentation/dismiss
func (h *PresentationHandler) Dismiss(c fiber.Ctx) error {
	sess, err := sessionFor(c, h.sessions)
	if sess == nil {
		return err
	}
	sess.Presenter.Dismiss()
	return c.JSON(fiber.Map{"success": true})
}

func presentationResponse(p *service.Presenter, now time.Time) model.PresentationResponse {
	cur := p.Current()
	resp := model.PresentationResponse{State: string(cur.State)}
	if cur.State != service.PresentationShowing || cur.Event == nil {
		return resp
	}

	resp.EventID = cur.Event.ID
	resp.RewardType = cur.Event.Result.Type
	shownAt := cur.ShownAt
	resp.ShownAt = &shownAt

	switch cur.Event.Result.Type {
	case model.RewardCash:
		amount := cur.Event.Result.Amount
		counter := p.CounterValue(now)
		expiresAt := cur.ExpiresAt
		resp.Amount = &amount
		resp.CounterValue = &counter
		resp.ExpiresAt = &expiresAt
	case model.RewardCoupon:
		resp.CouponCode = cur.Event.Result.CouponCode
	}
	return resp
}
