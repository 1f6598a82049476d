package competitors

import (
	"context"
	"time"

	"github.com/codesleeps/palmers/internal/server/models"
)

// Repository is the competitor store. Get, Update and AddMonitoring return
// common.ErrorNotFound when the competitor does not exist.
type Repository interface {
	ListActive(ctx context.Context, monitoringPerCompetitor int) ([]models.Competitor, error)
	Get(ctx context.Context, id string) (*models.Competitor, error)
	Create(ctx context.Context, c *models.Competitor) (*models.Competitor, error)
	Update(ctx context.Context, id string, patch models.CompetitorPatch) (*models.Competitor, error)

	AddMonitoring(ctx context.Context, m *models.Monitoring) (*models.Monitoring, error)
	ListMonitoring(ctx context.Context, competitorID string, limit int) ([]models.Monitoring, error)

	LocationStats(ctx context.Context) ([]models.LocationStat, error)
	RatingStats(ctx context.Context) (avg *float64, rated int, err error)
	CountMonitoringSince(ctx context.Context, since time.Time) (int, error)
}
