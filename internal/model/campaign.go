package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus mirrors campaigns.status.
type CampaignStatus string

const (
	CampaignActive       CampaignStatus = "Active"
	CampaignPending      CampaignStatus = "Pending"
	CampaignUploading    CampaignStatus = "Uploading"
	CampaignUploadFailed CampaignStatus = "Upload Failed"
)

// Eligible reports whether viewers may claim a reward for the campaign.
func (s CampaignStatus) Eligible() bool {
	return s == CampaignActive
}

// Campaign is the read-only view of an advertiser campaign.
type Campaign struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Reward        decimal.Decimal `json:"reward"`
	Status        CampaignStatus  `json:"status"`
	Type          string          `json:"type"`
	AdCreativeURL string          `json:"adCreativeUrl"`
	ThumbnailURL  *string         `json:"thumbnailUrl,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CampaignListResponse is the API response for the campaign catalog.
type CampaignListResponse struct {
	Campaigns []Campaign `json:"campaigns"`
	Count     int        `json:"count"`
}
