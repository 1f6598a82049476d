// Package competitors provides the PostgreSQL-backed competitor and
// monitoring store.
package competitors

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/dbx"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/google/uuid"
)

const competitorColumns = `id, name, website, location, services, price_range, rating, is_active, created_at, updated_at`

const monitoringColumns = `id, competitor_id, check_date, price_changes, new_services, rating, notes`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCompetitor(row interface{ Scan(...any) error }) (*models.Competitor, error) {
	c := &models.Competitor{}
	var services []byte
	err := row.Scan(&c.ID, &c.Name, &c.Website, &c.Location, &services, &c.PriceRange,
		&c.Rating, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := decodeServices(services, &c.Services); err != nil {
		return nil, err
	}
	return c, nil
}

func scanMonitoring(row interface{ Scan(...any) error }, extra ...any) (*models.Monitoring, error) {
	m := &models.Monitoring{}
	dest := append([]any{&m.ID, &m.CompetitorID, &m.CheckDate, &m.PriceChanges, &m.NewServices, &m.Rating, &m.Notes}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func encodeServices(services []string) (string, error) {
	if services == nil {
		services = []string{}
	}
	b, err := json.Marshal(services)
	if err != nil {
		return "", fmt.Errorf("encode services: %w", err)
	}
	return string(b), nil
}

func decodeServices(raw []byte, out *[]string) error {
	*out = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode services: %w", err)
	}
	return nil
}

// ListActive returns active competitors ordered by name, each carrying at
// most monitoringPerCompetitor of its latest monitoring entries.
func (r *PostgresRepository) ListActive(ctx context.Context, monitoringPerCompetitor int) ([]models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE is_active ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Competitor
	index := map[string]int{}
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, err
		}
		index[c.ID] = len(result)
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(result) == 0 || monitoringPerCompetitor <= 0 {
		return result, nil
	}

	mquery :=
		`SELECT ` + monitoringColumns + ` FROM (
		   SELECT m.*, row_number() OVER (PARTITION BY m.competitor_id ORDER BY m.check_date DESC) AS rn
		   FROM competitor_monitoring m
		   JOIN competitors c ON c.id = m.competitor_id
		   WHERE c.is_active
		 ) latest
		 WHERE rn <= $1
		 ORDER BY competitor_id, check_date DESC`

	mrows, err := r.db.QueryContext(ctx, mquery, monitoringPerCompetitor)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		m, err := scanMonitoring(mrows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[m.CompetitorID]; ok {
			result[i].Monitoring = append(result[i].Monitoring, *m)
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Competitor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`
	return scanCompetitor(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts c as an active competitor, assigning a fresh UUID when ID
// is empty.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Competitor) (*models.Competitor, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	services, err := encodeServices(c.Services)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO competitors (id, name, website, location, services, price_range, rating)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING ` + competitorColumns

	return scanCompetitor(r.db.QueryRowContext(ctx, query,
		c.ID, c.Name, c.Website, c.Location, services, c.PriceRange, c.Rating))
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.CompetitorPatch) (*models.Competitor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	var services *string
	if patch.Services != nil {
		s, err := encodeServices(patch.Services)
		if err != nil {
			return nil, err
		}
		services = &s
	}

	query :=
		`UPDATE competitors SET
		   name        = COALESCE($2, name),
		   website     = COALESCE($3, website),
		   location    = COALESCE($4, location),
		   services    = COALESCE($5::jsonb, services),
		   price_range = COALESCE($6, price_range),
		   rating      = COALESCE($7, rating),
		   updated_at  = now()
		 WHERE id = $1
		 RETURNING ` + competitorColumns

	return scanCompetitor(r.db.QueryRowContext(ctx, query,
		id, patch.Name, patch.Website, patch.Location, services, patch.PriceRange, patch.Rating))
}

func (r *PostgresRepository) AddMonitoring(ctx context.Context, m *models.Monitoring) (*models.Monitoring, error) {
	if _, err := uuid.Parse(m.CompetitorID); err != nil {
		return nil, common.ErrorNotFound
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO competitor_monitoring (id, competitor_id, price_changes, new_services, rating, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + monitoringColumns

	created, err := scanMonitoring(r.db.QueryRowContext(ctx, query,
		m.ID, m.CompetitorID, m.PriceChanges, m.NewServices, m.Rating, m.Notes))
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return created, nil
}

// ListMonitoring returns the newest limit entries for a competitor, each
// annotated with the competitor's name and location.
func (r *PostgresRepository) ListMonitoring(ctx context.Context, competitorID string, limit int) ([]models.Monitoring, error) {
	if _, err := uuid.Parse(competitorID); err != nil {
		return []models.Monitoring{}, nil
	}

	query :=
		`SELECT m.id, m.competitor_id, m.check_date, m.price_changes, m.new_services, m.rating, m.notes,
		        c.name, c.location
		 FROM competitor_monitoring m
		 JOIN competitors c ON c.id = m.competitor_id
		 WHERE m.competitor_id = $1
		 ORDER BY m.check_date DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, competitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Monitoring{}
	for rows.Next() {
		var name, location string
		m, err := scanMonitoring(rows, &name, &location)
		if err != nil {
			return nil, err
		}
		m.CompetitorName = name
		m.CompetitorLocation = location
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) LocationStats(ctx context.Context) ([]models.LocationStat, error) {
	query :=
		`SELECT location, COUNT(id) FROM competitors
		 WHERE is_active
		 GROUP BY location
		 ORDER BY location`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	stats := []models.LocationStat{}
	for rows.Next() {
		var s models.LocationStat
		if err := rows.Scan(&s.Location, &s.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stats, nil
}

// RatingStats returns the average rating of active rated competitors (nil
// when none are rated) and how many are rated.
func (r *PostgresRepository) RatingStats(ctx context.Context) (*float64, int, error) {
	query :=
		`SELECT AVG(rating), COUNT(rating) FROM competitors
		 WHERE is_active AND rating IS NOT NULL`

	var avg sql.NullFloat64
	var rated int
	if err := r.db.QueryRowContext(ctx, query).Scan(&avg, &rated); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	if !avg.Valid {
		return nil, rated, nil
	}
	return &avg.Float64, rated, nil
}

func (r *PostgresRepository) CountMonitoringSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM competitor_monitoring WHERE check_date >= $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
