// Package httpx is the REST surface of the Palmers API: routing, the
// session middleware, handlers and the JSON envelope.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server/auth"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/codesleeps/palmers/internal/server/services"
)

// UserService is the account behaviour the handlers depend on.
type UserService interface {
	SessionResolver
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// CompetitorService is the competitor tracking behaviour the handlers
// depend on.
type CompetitorService interface {
	List(ctx context.Context) ([]models.Competitor, error)
	Create(ctx context.Context, in models.CompetitorPatch) (*models.Competitor, error)
	Update(ctx context.Context, id string, patch models.CompetitorPatch) (*models.Competitor, error)
	AddMonitoring(ctx context.Context, competitorID string, in services.MonitoringInput) (*models.Monitoring, error)
	Monitoring(ctx context.Context, competitorID string, limit int) ([]models.Monitoring, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
}

// Handler serves the API endpoints.
type Handler struct {
	users       UserService
	competitors CompetitorService
	cookies     auth.CookieWriter
	logger      logging.Logger
	environment string
	now         func() time.Time
}

func NewHandler(users UserService, competitors CompetitorService, cookies auth.CookieWriter,
	environment string, logger logging.Logger) *Handler {
	return &Handler{
		users:       users,
		competitors: competitors,
		cookies:     cookies,
		logger:      logger.With("module", "http"),
		environment: environment,
		now:         time.Now,
	}
}

// decodeBody reads exactly one JSON object into dst, rejecting unknown
// fields. It writes the error response itself and reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("body must contain a single JSON object")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeErrorDetails(w, http.StatusBadRequest, msgInvalidBody, []services.FieldError{{Field: "body", Message: err.Error()}})
		return false
	}
	return true
}

// userResponse is the public view of a user; it never carries the digest.
type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Phone     string      `json:"phone,omitempty"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status      string `json:"status"`
		Message     string `json:"message"`
		Timestamp   string `json:"timestamp"`
		Environment string `json:"environment"`
	}{
		Status:      "success",
		Message:     "Palmers Backend API is running!",
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		Environment: h.environment,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route "+r.URL.RequestURI()+" not found")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
}
