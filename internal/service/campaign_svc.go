package service

import (
	"context"

	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
)

// CampaignReader is the read-only campaign store.
type CampaignReader interface {
	ListActive(ctx context.Context) ([]model.Campaign, error)
}

type CampaignService struct {
	repo  CampaignReader
	cache *CacheService
}

func NewCampaignService(repo CampaignReader, cache *CacheService) *CampaignService {
	return &CampaignService{repo: repo, cache: cache}
}

// ListActive returns Active campaigns, newest first. fromCache reports whether Redis served the list.
func (s *CampaignService) ListActive(ctx context.Context) (campaigns []model.Campaign, fromCache bool, err error) {
	if s.cache != nil {
		cached, err := s.cache.GetActiveCampaigns(ctx)
		if err != nil {
			middleware.Logger.Warn().Err(err).Msg("cache: get campaigns error")
		} else if cached != nil {
			return cached, true, nil
		}
	}

	campaigns, err = s.Refresh(ctx)
	return campaigns, false, err
}

// Refresh reloads Active campaigns from the store and rewrites the cache.
func (s *CampaignService) Refresh(ctx context.Context) ([]model.Campaign, error) {
	listed, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	campaigns := make([]model.Campaign, 0, len(listed))
	for _, c := range listed {
		if c.Status.Eligible() {
			campaigns = append(campaigns, c)
		}
	}
	if s.cache != nil {
		if err := s.cache.SetActiveCampaigns(ctx, campaigns); err != nil {
			middleware.Logger.Warn().Err(err).Msg("cache: set campaigns error")
		}
	}
	return campaigns, nil
}
