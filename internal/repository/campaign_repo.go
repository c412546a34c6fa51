package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mathieu-neron/adwatch/internal/model"
)

// MaxActiveCampaigns caps the catalog returned to viewers.
const MaxActiveCampaigns = 200

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

// ListActive returns campaigns with status Active, newest first.
func (r *CampaignRepo) ListActive(ctx context.Context) ([]model.Campaign, error) {
	query := `
		SELECT id::text, COALESCE(name, 'Untitled Campaign'), COALESCE(reward, 0)::text, status,
		       COALESCE(type, 'Video'), COALESCE(ad_creative_url, ''), thumbnail_url, created_at
		FROM campaigns
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, string(model.CampaignActive), MaxActiveCampaigns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := make([]model.Campaign, 0)
	for rows.Next() {
		var (
			c      model.Campaign
			reward string
			status string
		)
		if err := rows.Scan(&c.ID, &c.Name, &reward, &status, &c.Type, &c.AdCreativeURL, &c.ThumbnailURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Status = model.CampaignStatus(status)
		c.Reward, err = decimal.NewFromString(reward)
		if err != nil {
			return nil, fmt.Errorf("parse reward for campaign %s: %w", c.ID, err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return campaigns, nil
}
