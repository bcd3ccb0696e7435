package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	domainconfig "mailflow/domain/config"
	"mailflow/infrastructure/config"
	"mailflow/interfaces/http/rest/handlers"
	"mailflow/interfaces/http/rest/middleware"
	"mailflow/pkg/auth"
)

// Router wires the REST surface: the public token endpoint and the
// authenticated mail plan API.
type Router struct {
	planHandler *handlers.PlanHandler
	authHandler *handlers.AuthHandler
	validator   *auth.JWTValidator
	cfg         *config.Config
	domainCfg   *domainconfig.DomainConfig
	logger      *zap.Logger
}

// NewRouter creates the router.
func NewRouter(
	planHandler *handlers.PlanHandler,
	authHandler *handlers.AuthHandler,
	validator *auth.JWTValidator,
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		planHandler: planHandler,
		authHandler: authHandler,
		validator:   validator,
		cfg:         cfg,
		domainCfg:   domainCfg,
		logger:      logger,
	}
}

// Handler builds the http.Handler with the full middleware stack.
// Clients send trailing slashes on API paths, so paths are normalized
// before routing.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", rt.health)
	r.Get("/ready", rt.health)

	tokenLimiter := auth.NewIPRateLimiter(rt.domainCfg.TokenRequestsPerMinute)
	r.Route("/api", func(api chi.Router) {
		api.With(middleware.RateLimit(tokenLimiter)).Post("/token", rt.authHandler.Token)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticate(rt.validator, rt.logger))

			protected.Route("/mailplans", func(plans chi.Router) {
				plans.Get("/", rt.planHandler.List)
				plans.Post("/", rt.planHandler.Create)

				plans.Route("/{planID}", func(plan chi.Router) {
					plan.Get("/", rt.planHandler.Get)
					plan.Put("/", rt.planHandler.Update)
					plan.Patch("/", rt.planHandler.Patch)
					plan.Delete("/", rt.planHandler.Delete)
					plan.Post("/trigger", rt.planHandler.Trigger)
					plan.Get("/logs", rt.planHandler.Logs)
				})
			})
		})
	})

	return r
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
