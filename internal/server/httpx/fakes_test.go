package httpx

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/dbx"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/codesleeps/palmers/internal/server/repositories/competitors"
	"github.com/codesleeps/palmers/internal/server/repositories/users"
	"github.com/codesleeps/palmers/internal/server/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory user store.
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]models.User
	lookups int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]models.User{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = *u
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id string, hash string) error {
	return m.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	err := m.update(id, func(u *models.User) {
		if upd.FirstName != nil {
			u.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			u.LastName = *upd.LastName
		}
		if upd.Phone != nil {
			u.Phone = *upd.Phone
		}
	})
	if err != nil {
		return nil, err
	}
	return m.FindByID(context.Background(), id)
}

func (m *memUsers) SetActive(_ context.Context, id string, active bool) error {
	return m.update(id, func(u *models.User) { u.IsActive = active })
}

func (m *memUsers) update(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	m.byID[id] = u
	return nil
}

func (m *memUsers) setRole(t *testing.T, email string, role models.Role) {
	t.Helper()
	u, err := m.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NoError(t, m.update(u.ID, func(u *models.User) { u.Role = role }))
}

type memRepoManager struct {
	users *memUsers
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *memRepoManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *memRepoManager) Competitors(dbx.DBTX) competitors.Repository {
	return nil
}

// stubCompetitors is a CompetitorService with canned answers.
type stubCompetitors struct {
	err        error
	lastLimit  int
	lastID     string
	lastPatch  models.CompetitorPatch
	lastInput  services.MonitoringInput
	listResult []models.Competitor
}

func (s *stubCompetitors) List(context.Context) ([]models.Competitor, error) {
	return s.listResult, s.err
}

func (s *stubCompetitors) Create(_ context.Context, in models.CompetitorPatch) (*models.Competitor, error) {
	s.lastPatch = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Competitor{ID: "c-1", Name: *in.Name, Location: *in.Location, Services: in.Services, IsActive: true}, nil
}

func (s *stubCompetitors) Update(_ context.Context, id string, patch models.CompetitorPatch) (*models.Competitor, error) {
	s.lastID, s.lastPatch = id, patch
	if s.err != nil {
		return nil, s.err
	}
	return &models.Competitor{ID: id}, nil
}

func (s *stubCompetitors) AddMonitoring(_ context.Context, id string, in services.MonitoringInput) (*models.Monitoring, error) {
	s.lastID, s.lastInput = id, in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Monitoring{ID: "m-1", CompetitorID: id, Notes: in.Notes}, nil
}

func (s *stubCompetitors) Monitoring(_ context.Context, id string, limit int) ([]models.Monitoring, error) {
	s.lastID, s.lastLimit = id, limit
	return nil, s.err
}

func (s *stubCompetitors) Analytics(context.Context) (*models.Analytics, error) {
	if s.err != nil {
		return nil, s.err
	}
	avg := 4.2
	return &models.Analytics{
		LocationStats:         []models.LocationStat{{Location: "Birmingham", Count: 3}},
		AverageRating:         &avg,
		TotalRatedCompetitors: 3,
		RecentMonitoringCount: 7,
	}, nil
}

// countingResolver records how often it is consulted.
type countingResolver struct {
	mu    sync.Mutex
	calls int
	id    models.Identity
	err   error
}

func (c *countingResolver) ResolveSession(context.Context, string) (models.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.id, c.err
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}
