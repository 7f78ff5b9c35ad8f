package http

import (
	"net/http"

	"github.com/atvirokodosprendimai/webbudget/internal/application"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/atvirokodosprendimai/webbudget/internal/obs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	CostCenters  *application.CostCenterService
	Users        *application.UserService
	Authorities  *application.AuthorityService
	Auth         *application.AuthService
	Audit        *application.AuditService
	Log          *zap.SugaredLogger
	Metrics      *obs.Metrics
	Ready        *ReadyProbe
	LoginLimiter *LoginLimiter
}

type Handler struct {
	costCenters *application.CostCenterService
	users       *application.UserService
	authorities *application.AuthorityService
	auth        *application.AuthService
	audit       *application.AuditService
	log         *zap.SugaredLogger
	ready       *ReadyProbe
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &Handler{
		costCenters: d.CostCenters,
		users:       d.Users,
		authorities: d.Authorities,
		auth:        d.Auth,
		audit:       d.Audit,
		log:         log,
		ready:       d.Ready,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}
	r.Use(LoggingMiddleware(log), middleware.Recoverer, SecurityHeaders)

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/authentication", func(ar chi.Router) {
		login := ar.With()
		if d.LoginLimiter != nil {
			login = ar.With(d.LoginLimiter.Middleware)
		}
		login.Post("/login", h.handleLogin)
		ar.With(h.requireAuth).Get("/me", h.handleMe)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(h.requireAuth)

		api.Route("/registration/cost-centers", func(cr chi.Router) {
			cr.Use(h.requireAuthority(domain.AuthorityRegistration))
			cr.Get("/", h.handleListCostCenters)
			cr.Post("/", h.handleCreateCostCenter)
			cr.Get("/{id}", h.handleGetCostCenter)
			cr.Put("/{id}", h.handleUpdateCostCenter)
			cr.Delete("/{id}", h.handleDeleteCostCenter)
		})

		api.Route("/administration", func(ar chi.Router) {
			ar.Use(h.requireAuthority(domain.AuthorityAdministration))

			ar.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.handleListUsers)
				ur.Post("/", h.handleCreateUser)
				ur.Get("/{id}", h.handleGetUser)
				ur.Put("/{id}", h.handleUpdateUser)
				ur.Delete("/{id}", h.handleDeleteUser)
				ur.Patch("/{id}/password", h.handleChangePassword)
				ur.Get("/{id}/grants", h.handleListGrants)
				ur.Post("/{id}/grants", h.handleGrant)
				ur.Delete("/{id}/grants/{authority}", h.handleRevoke)
			})

			ar.Route("/authorities", func(aur chi.Router) {
				aur.Get("/", h.handleListAuthorities)
				aur.Post("/", h.handleCreateAuthority)
				aur.Get("/{id}", h.handleGetAuthority)
				aur.Put("/{id}", h.handleUpdateAuthority)
				aur.Delete("/{id}", h.handleDeleteAuthority)
			})

			ar.Get("/audit-logs", h.handleListAuditLogs)
		})
	})

	return r
}
