package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/adwatch/internal/handler"
	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
	"github.com/mathieu-neron/adwatch/internal/service"
)

const testUserID = "2b9c3f3e-6c1a-4f7e-9b1d-0a2f3c4d5e6f"

type stubStore struct{}

func (stubStore) Ping(ctx context.Context) error { return nil }

func (stubStore) FindProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return &model.Profile{UserID: userID, CashWallet: decimal.NewFromInt(5)}, nil
}

func (stubStore) ListActive(ctx context.Context) ([]model.Campaign, error) {
	return []model.Campaign{{ID: "c1", Name: "Launch", Status: model.CampaignActive}}, nil
}

func (stubStore) ClaimReward(ctx context.Context, userID, campaignID string) (*model.LedgerClaimReply, error) {
	return nil, nil
}

func (stubStore) RequestWithdrawal(ctx context.Context, userID string) (*model.LedgerWithdrawalReply, error) {
	return nil, nil
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()

	store := stubStore{}
	sessions := service.NewSessionService(store, time.Minute, nil)
	t.Cleanup(sessions.CloseAll)
	withdrawals := service.NewWithdrawalService(store, decimal.NewFromInt(15), time.Second)

	limits := middleware.NewRateLimits()
	t.Cleanup(limits.Stop)

	app := fiber.New()
	Setup(app, &Handlers{
		Health:       handler.NewHealthHandler(store, nil, sessions.Count),
		Session:      handler.NewSessionHandler(sessions, withdrawals),
		Campaign:     handler.NewCampaignHandler(service.NewCampaignService(store, nil)),
		Reward:       handler.NewRewardHandler(sessions, service.NewLedgerService(store, time.Second)),
		Withdrawal:   handler.NewWithdrawalHandler(sessions, withdrawals),
		Presentation: handler.NewPresentationHandler(sessions),
	}, limits, "*")
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, withUser bool) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if withUser {
		req.Header.Set(middleware.HeaderUserID, testUserID)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndMetricsNeedNoUser(t *testing.T) {
	app := newApp(t)

	assert.Equal(t, http.StatusOK, send(t, app, http.MethodGet, "/health/live", false).StatusCode)
	assert.Equal(t, http.StatusOK, send(t, app, http.MethodGet, "/health/ready", false).StatusCode)
	assert.Equal(t, http.StatusOK, send(t, app, http.MethodGet, "/metrics", false).StatusCode)
}

func TestCampaignsArePublic(t *testing.T) {
	app := newApp(t)

	resp := send(t, app, http.MethodGet, "/api/campaigns", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("X-RateLimit-Limit"))

	var body model.CampaignListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
}

func TestViewerRoutesRequireUser(t *testing.T) {
	app := newApp(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/sessions"},
		{http.MethodDelete, "/api/sessions"},
		{http.MethodGet, "/api/wallet"},
		{http.MethodPost, "/api/rewards/claim"},
		{http.MethodPost, "/api/withdrawals"},
		{http.MethodGet, "/api/presentation"},
		{http.MethodPost, "/api/presentation/dismiss"},
	}
	for _, r := range routes {
		resp := send(t, app, r.method, r.path, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.path)
	}
}

func TestWithdrawalRouteIsRateLimited(t *testing.T) {
	app := newApp(t)
	require.Equal(t, http.StatusCreated, send(t, app, http.MethodPost, "/api/sessions", true).StatusCode)

	for i := 0; i < 3; i++ {
		resp := send(t, app, http.MethodPost, "/api/withdrawals", true)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "request %d", i+1)
	}
	resp := send(t, app, http.MethodPost, "/api/withdrawals", true)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}
