package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/dbx"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/codesleeps/palmers/internal/server/repositories/competitors"
	"github.com/codesleeps/palmers/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- users ---

type fakeUsersRepo struct {
	mu       sync.Mutex
	byID     map[string]*models.User
	findErr  error
	findByID int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) put(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			f.mu.Unlock()
			return nil, common.ErrorAlreadyExists
		}
	}
	f.mu.Unlock()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	return f.put(u), nil
}

func (f *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findByID++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(_ context.Context, id string, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsersRepo) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	return nil
}

// --- competitors ---

type fakeCompetitorsRepo struct {
	competitors.Repository // unimplemented methods panic

	getErr     error
	addErr     error
	added      []*models.Monitoring
	lastLimit  int
	lastSince  time.Time
	statsErr   error
	created    *models.Competitor
	lastPatch  models.CompetitorPatch
	listResult []models.Competitor
}

func (f *fakeCompetitorsRepo) ListActive(_ context.Context, n int) ([]models.Competitor, error) {
	f.lastLimit = n
	return f.listResult, nil
}

func (f *fakeCompetitorsRepo) Get(_ context.Context, id string) (*models.Competitor, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Competitor{ID: id, Name: "Cuts & Co"}, nil
}

func (f *fakeCompetitorsRepo) Create(_ context.Context, c *models.Competitor) (*models.Competitor, error) {
	c.ID = "c-1"
	c.IsActive = true
	f.created = c
	return c, nil
}

func (f *fakeCompetitorsRepo) Update(_ context.Context, id string, p models.CompetitorPatch) (*models.Competitor, error) {
	f.lastPatch = p
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Competitor{ID: id}, nil
}

func (f *fakeCompetitorsRepo) AddMonitoring(_ context.Context, m *models.Monitoring) (*models.Monitoring, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	m.ID = "m-1"
	f.added = append(f.added, m)
	return m, nil
}

func (f *fakeCompetitorsRepo) ListMonitoring(_ context.Context, _ string, limit int) ([]models.Monitoring, error) {
	f.lastLimit = limit
	return []models.Monitoring{}, nil
}

func (f *fakeCompetitorsRepo) LocationStats(context.Context) ([]models.LocationStat, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return []models.LocationStat{{Location: "Birmingham", Count: 2}}, nil
}

func (f *fakeCompetitorsRepo) RatingStats(context.Context) (*float64, int, error) {
	avg := 4.5
	return &avg, 2, nil
}

func (f *fakeCompetitorsRepo) CountMonitoringSince(_ context.Context, since time.Time) (int, error) {
	f.lastSince = since
	return 3, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	c *fakeCompetitorsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository {
	return m.u
}

func (m *fakeRepoManager) Competitors(dbx.DBTX) competitors.Repository {
	return m.c
}

// --- hashing ---

// countingHasher wraps a real hasher and records the digests Verify was
// asked to compare against.
type countingHasher struct {
	PasswordHasher

	mu       sync.Mutex
	verified []string
}

func (h *countingHasher) Verify(plaintext, digest string) (bool, error) {
	h.mu.Lock()
	h.verified = append(h.verified, digest)
	h.mu.Unlock()
	return h.PasswordHasher.Verify(plaintext, digest)
}

func (h *countingHasher) verifiedDigests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.verified...)
}
