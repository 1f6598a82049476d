package models

import "time"

// Competitor is a tracked business in the same market.
type Competitor struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Website    *string      `json:"website,omitempty"`
	Location   string       `json:"location"`
	Services   []string     `json:"services"`
	PriceRange *string      `json:"priceRange,omitempty"`
	Rating     *float64     `json:"rating,omitempty"`
	IsActive   bool         `json:"isActive"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Monitoring []Monitoring `json:"monitoring,omitempty"`
}

// CompetitorPatch is a partial update; nil fields are not touched.
type CompetitorPatch struct {
	Name       *string
	Website    *string
	Location   *string
	Services   []string
	PriceRange *string
	Rating     *float64
}

// Monitoring is one observation recorded against a competitor.
type Monitoring struct {
	ID           string    `json:"id"`
	CompetitorID string    `json:"competitorId"`
	CheckDate    time.Time `json:"checkDate"`
	PriceChanges *string   `json:"priceChanges,omitempty"`
	NewServices  *string   `json:"newServices,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Notes        *string   `json:"notes,omitempty"`

	// Populated only by history queries.
	CompetitorName     string `json:"competitorName,omitempty"`
	CompetitorLocation string `json:"competitorLocation,omitempty"`
}

// LocationStat counts active competitors in one location.
type LocationStat struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Analytics summarises the tracked market.
type Analytics struct {
	LocationStats         []LocationStat `json:"locationStats"`
	AverageRating         *float64       `json:"averageRating"`
	TotalRatedCompetitors int            `json:"totalRatedCompetitors"`
	RecentMonitoringCount int            `json:"recentMonitoringCount"`
}
