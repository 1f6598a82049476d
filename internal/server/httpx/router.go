package httpx

import (
	"net/http"

	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// RouterOptions carries the cross-cutting settings of the router.
type RouterOptions struct {
	CORSOrigins []string
	Production  bool
}

// NewRouter wires every endpoint with its guard chain.
func NewRouter(h *Handler, a *Authenticator, opts RouterOptions, logger logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestIDMiddleware,
		recoverMiddleware(logger),
		loggingMiddleware(logger),
		securityHeadersMiddleware(opts.Production),
		corsMiddleware(trimOrigins(opts.CORSOrigins)),
		bodyLimitMiddleware(MaxBodyBytes),
	)
	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Get("/health", h.health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.With(a.OptionalAuthenticate).Post("/logout", h.logout)
		r.With(a.OptionalAuthenticate).Get("/me", h.me)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(a.Authenticate)
		r.Get("/profile", h.profile)
		r.Put("/profile", h.updateProfile)
		r.Put("/password", h.changePassword)
	})

	r.Route("/api/competitors", func(r chi.Router) {
		r.Use(a.Authenticate)

		staff := Authorize(models.RoleAdmin, models.RoleStaff)
		admin := Authorize(models.RoleAdmin)

		r.With(staff).Get("/", h.listCompetitors)
		r.With(admin).Post("/", h.createCompetitor)
		r.With(staff).Get("/analytics", h.analytics)
		r.With(admin).Put("/{id}", h.updateCompetitor)
		r.With(staff).Post("/{id}/monitoring", h.addMonitoring)
		r.With(staff).Get("/{id}/monitoring", h.listMonitoring)
	})

	return r
}
