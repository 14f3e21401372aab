package http

import (
	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/http/handlers"
	"github.com/geocoder89/clocktrack/internal/http/middlewares"
	"github.com/geocoder89/clocktrack/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the services the routes are served by. Prom and Gatherer are
// optional; without them no metrics are recorded or exposed.
type Deps struct {
	Tokens   middlewares.TokenVerifier
	Timer    handlers.TimerService
	Entries  handlers.EntriesService
	Owners   handlers.OwnershipResolver
	Clients  handlers.ClientsStore
	Projects handlers.ProjectsStore
	Tasks    handlers.TasksStore
	Running  handlers.RunningInvalidator

	Readiness    map[string]handlers.Pinger
	ShuttingDown func() bool
	Prom         *observability.Prom
	Gatherer     prometheus.Gatherer
}

func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware("clocktrack-api"))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(!cfg.IsLocal()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Readiness, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Tokens)
	limiter := middlewares.NewRateLimiter(cfg.RateLimitPerMinute)

	api := r.Group("/")
	api.Use(authMW.RequireAuth())
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	entries := handlers.NewTimeEntriesHandler(deps.Entries)
	api.GET("/time-entries", entries.List)
	api.GET("/time-entries/running", entries.Running)
	api.POST("/time-entries", entries.Create)
	api.PUT("/time-entries/:id", entries.Update)
	api.DELETE("/time-entries/:id", entries.Delete)

	timer := handlers.NewTimerHandler(deps.Timer)
	api.POST("/timer/start", timer.Start)
	api.POST("/timer/stop", timer.Stop)

	clients := handlers.NewClientsHandler(deps.Owners, deps.Clients, deps.Projects, deps.Running)
	api.GET("/clients", clients.List)
	api.POST("/clients", clients.Create)
	api.GET("/clients/:id", clients.Get)
	api.PUT("/clients/:id", clients.Update)
	api.DELETE("/clients/:id", clients.Delete)

	projects := handlers.NewProjectsHandler(deps.Owners, deps.Projects, deps.Tasks, deps.Running)
	api.GET("/clients/:id/projects", projects.List)
	api.POST("/clients/:id/projects", projects.Create)
	api.GET("/projects/:id", projects.Get)
	api.PUT("/projects/:id", projects.Update)
	api.DELETE("/projects/:id", projects.Delete)

	tasks := handlers.NewTasksHandler(deps.Owners, deps.Tasks, deps.Entries, deps.Running)
	api.GET("/projects/:id/tasks", tasks.List)
	api.POST("/projects/:id/tasks", tasks.Create)
	api.GET("/tasks/:id", tasks.Get)
	api.PUT("/tasks/:id", tasks.Update)
	api.DELETE("/tasks/:id", tasks.Delete)

	return r
}
