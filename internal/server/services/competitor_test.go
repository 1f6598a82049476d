package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newCompetitorService(t *testing.T) (*CompetitorService, *fakeCompetitorsRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	repo := &fakeCompetitorsRepo{}
	s := NewCompetitorService(db, &fakeRepoManager{c: repo}, logging.Nop{})
	s.now = func() time.Time { return testNow }
	return s, repo, mock
}

func validCompetitor() models.CompetitorPatch {
	return models.CompetitorPatch{
		Name:     ptr(" Cuts & Co "),
		Website:  ptr("https://cuts.example"),
		Location: ptr("Birmingham"),
		Services: []string{"cut"},
		Rating:   ptr(4.5),
	}
}

func TestCompetitorCreate(t *testing.T) {
	s, repo, _ := newCompetitorService(t)

	c, err := s.Create(context.Background(), validCompetitor())
	require.NoError(t, err)
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "Cuts & Co", repo.created.Name)
}

func TestCompetitorCreate_Validation(t *testing.T) {
	s, _, _ := newCompetitorService(t)

	cases := map[string]struct {
		mutate func(p *models.CompetitorPatch)
		field  string
	}{
		"short name":      {func(p *models.CompetitorPatch) { p.Name = ptr("A") }, "name"},
		"missing name":    {func(p *models.CompetitorPatch) { p.Name = nil }, "name"},
		"bad website":     {func(p *models.CompetitorPatch) { p.Website = ptr("cuts dot com") }, "website"},
		"short location":  {func(p *models.CompetitorPatch) { p.Location = ptr("B1") }, "location"},
		"no services":     {func(p *models.CompetitorPatch) { p.Services = nil }, "services"},
		"rating too high": {func(p *models.CompetitorPatch) { p.Rating = ptr(5.5) }, "rating"},
		"negative rating": {func(p *models.CompetitorPatch) { p.Rating = ptr(-1.0) }, "rating"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validCompetitor()
			tc.mutate(&in)
			_, err := s.Create(context.Background(), in)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
		})
	}
}

func TestCompetitorUpdate_Partial(t *testing.T) {
	s, repo, _ := newCompetitorService(t)

	_, err := s.Update(context.Background(), "id-1", models.CompetitorPatch{Rating: ptr(3.0)})
	require.NoError(t, err)
	assert.Nil(t, repo.lastPatch.Name)

	_, err = s.Update(context.Background(), "id-1", models.CompetitorPatch{Services: []string{}})
	assert.ErrorIs(t, err, common.ErrorValidation)

	repo.getErr = common.ErrorNotFound
	_, err = s.Update(context.Background(), "id-1", models.CompetitorPatch{Name: ptr("New Name")})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCompetitorAddMonitoring(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		s, repo, mock := newCompetitorService(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		m, err := s.AddMonitoring(context.Background(), "id-1", MonitoringInput{Notes: ptr("new prices")})
		require.NoError(t, err)
		assert.Equal(t, "id-1", m.CompetitorID)
		assert.Len(t, repo.added, 1)
	})

	t.Run("missing competitor rolls back", func(t *testing.T) {
		s, repo, mock := newCompetitorService(t)
		repo.getErr = common.ErrorNotFound
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := s.AddMonitoring(context.Background(), "id-1", MonitoringInput{})
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.Empty(t, repo.added)
	})

	t.Run("invalid rating", func(t *testing.T) {
		s, _, _ := newCompetitorService(t)
		_, err := s.AddMonitoring(context.Background(), "id-1", MonitoringInput{Rating: ptr(9.0)})
		assert.ErrorIs(t, err, common.ErrorValidation)
	})
}

func TestCompetitorMonitoring_Limit(t *testing.T) {
	s, repo, _ := newCompetitorService(t)

	_, err := s.Monitoring(context.Background(), "id-1", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMonitoringLimit, repo.lastLimit)

	_, err = s.Monitoring(context.Background(), "id-1", 10_000)
	require.NoError(t, err)
	assert.Equal(t, MaxMonitoringLimit, repo.lastLimit)
}

func TestCompetitorList(t *testing.T) {
	s, repo, _ := newCompetitorService(t)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Equal(t, LatestMonitoringPerCompetitor, repo.lastLimit)
}

func TestCompetitorAnalytics(t *testing.T) {
	s, repo, _ := newCompetitorService(t)

	a, err := s.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.LocationStat{{Location: "Birmingham", Count: 2}}, a.LocationStats)
	assert.InDelta(t, 4.5, *a.AverageRating, 1e-9)
	assert.Equal(t, 2, a.TotalRatedCompetitors)
	assert.Equal(t, 3, a.RecentMonitoringCount)
	assert.True(t, repo.lastSince.Equal(testNow.Add(-RecentMonitoringWindow)))

	repo.statsErr = errors.New("db down")
	_, err = s.Analytics(context.Background())
	assert.Error(t, err)
}
