package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/codesleeps/palmers/internal/dbx"
	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/codesleeps/palmers/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

const (
	// LatestMonitoringPerCompetitor is how many monitoring entries the
	// competitor list embeds.
	LatestMonitoringPerCompetitor = 5
	DefaultMonitoringLimit        = 30
	MaxMonitoringLimit            = 500
	RecentMonitoringWindow        = 7 * 24 * time.Hour
)

// MonitoringInput is one observation about a competitor.
type MonitoringInput struct {
	PriceChanges *string
	NewServices  *string
	Rating       *float64
	Notes        *string
}

// CompetitorService manages tracked competitors and their monitoring log.
type CompetitorService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewCompetitorService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CompetitorService {
	return &CompetitorService{db: db, repomanager: m, logger: logger.With("module", "competitors"), now: time.Now}
}

// List returns active competitors by name with their latest monitoring.
func (s *CompetitorService) List(ctx context.Context) ([]models.Competitor, error) {
	list, err := s.repomanager.Competitors(s.db).ListActive(ctx, LatestMonitoringPerCompetitor)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Competitor{}
	}
	return list, nil
}

// Create validates a complete competitor and stores it.
func (s *CompetitorService) Create(ctx context.Context, in models.CompetitorPatch) (*models.Competitor, error) {
	if err := validateCompetitor(&in, true); err != nil {
		return nil, err
	}

	c := &models.Competitor{
		Name:       *in.Name,
		Website:    in.Website,
		Location:   *in.Location,
		Services:   in.Services,
		PriceRange: in.PriceRange,
		Rating:     in.Rating,
	}
	created, err := s.repomanager.Competitors(s.db).Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error creating competitor: %w", err)
	}
	s.logger.Info(ctx, "competitor added", "competitor_id", created.ID)
	return created, nil
}

// Update applies the fields set in patch. Missing competitors yield
// common.ErrorNotFound.
func (s *CompetitorService) Update(ctx context.Context, id string, patch models.CompetitorPatch) (*models.Competitor, error) {
	if err := validateCompetitor(&patch, false); err != nil {
		return nil, err
	}
	return s.repomanager.Competitors(s.db).Update(ctx, id, patch)
}

// AddMonitoring records an observation. The competitor check and the
// insert run in one transaction.
func (s *CompetitorService) AddMonitoring(ctx context.Context, competitorID string, in MonitoringInput) (*models.Monitoring, error) {
	if in.Rating != nil && !inRating(*in.Rating) {
		verr := &ValidationError{}
		verr.add("rating", "Rating must be between 0 and 5")
		return nil, verr
	}

	var created *models.Monitoring
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Competitors(tx)
		if _, err := repo.Get(ctx, competitorID); err != nil {
			return err
		}
		var err error
		created, err = repo.AddMonitoring(ctx, &models.Monitoring{
			CompetitorID: competitorID,
			PriceChanges: in.PriceChanges,
			NewServices:  in.NewServices,
			Rating:       in.Rating,
			Notes:        in.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Monitoring returns the newest entries for a competitor. A non-positive
// limit selects DefaultMonitoringLimit.
func (s *CompetitorService) Monitoring(ctx context.Context, competitorID string, limit int) ([]models.Monitoring, error) {
	if limit <= 0 {
		limit = DefaultMonitoringLimit
	}
	limit = min(limit, MaxMonitoringLimit)
	return s.repomanager.Competitors(s.db).ListMonitoring(ctx, competitorID, limit)
}

// Analytics summarises active competitors and the last week of monitoring.
func (s *CompetitorService) Analytics(ctx context.Context) (*models.Analytics, error) {
	repo := s.repomanager.Competitors(s.db)
	since := s.now().Add(-RecentMonitoringWindow)

	out := &models.Analytics{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := repo.LocationStats(gctx)
		out.LocationStats = stats
		return err
	})
	g.Go(func() error {
		avg, rated, err := repo.RatingStats(gctx)
		out.AverageRating, out.TotalRatedCompetitors = avg, rated
		return err
	})
	g.Go(func() error {
		n, err := repo.CountMonitoringSince(gctx, since)
		out.RecentMonitoringCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.LocationStats == nil {
		out.LocationStats = []models.LocationStat{}
	}
	return out, nil
}

// validateCompetitor trims and checks the fields set in p. When full is
// true the name, location and services are required.
func validateCompetitor(p *models.CompetitorPatch, full bool) error {
	verr := &ValidationError{}

	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
		if runeLen(*p.Name) < 2 {
			verr.add("name", "Company name must be at least 2 characters")
		}
	} else if full {
		verr.add("name", "Company name is required")
	}

	if p.Website != nil {
		*p.Website = strings.TrimSpace(*p.Website)
		if !validWebURL(*p.Website) {
			verr.add("website", "Website must be a valid URL")
		}
	}

	if p.Location != nil {
		*p.Location = strings.TrimSpace(*p.Location)
		if runeLen(*p.Location) < 3 {
			verr.add("location", "Location must be at least 3 characters")
		}
	} else if full {
		verr.add("location", "Location is required")
	}

	if p.Services != nil || full {
		if len(p.Services) == 0 {
			verr.add("services", "At least one service is required")
		}
	}

	if p.Rating != nil && !inRating(*p.Rating) {
		verr.add("rating", "Rating must be between 0 and 5")
	}

	return verr.orNil()
}
