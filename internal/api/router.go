package api

import (
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/etiaam/etiaam-api/docs"
	"github.com/etiaam/etiaam-api/internal/api/handler"
	"github.com/etiaam/etiaam-api/internal/api/middleware"
	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
	"github.com/etiaam/etiaam-api/internal/infrastructure/http/handlers"
)

// Deps is everything the router needs. Services are built by the caller.
type Deps struct {
	Logger      zerolog.Logger
	Tokens      ports.TokenDecoder
	Auth        ports.AuthService
	Profiles    ports.ProfileService
	Evaluations ports.EvaluationService
	Plans       ports.PlanService

	// ReadinessChecks are pinged by GET /health/ready, keyed by dependency name.
	ReadinessChecks map[string]handlers.Check

	CORSOrigins   []string
	AuthRateRPS   float64
	AuthRateBurst int

	// TrustedProxies are the networks whose X-Forwarded-For header is
	// believed. When empty the socket peer address is the client IP.
	TrustedProxies []*net.IPNet

	// Registry replaces the default Prometheus registry when set.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	e.Validator = handler.NewValidator()
	e.IPExtractor = clientIPExtractor(d.TrustedProxies)

	// --- Global middleware ---
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Logger(d.Logger))
	e.Use(middleware.Recovery(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			handler.IdempotencyKeyHeader,
		},
	}))

	promCfg := echoprometheus.MiddlewareConfig{Namespace: "etiaam", Subsystem: "http"}
	metricsHandler := echoprometheus.NewHandler()
	if d.Registry != nil {
		promCfg.Registerer = d.Registry
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry})
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Operational routes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewReadinessHandler(d.ReadinessChecks, d.Logger).Readiness)
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	limit := middleware.AuthRateLimit(d.AuthRateRPS, d.AuthRateBurst)
	e.GET("/consent/latest", authHandler.LatestConsent)
	e.POST("/register", authHandler.Register, limit)
	e.POST("/login", authHandler.Login, limit)

	// --- Authenticated routes ---
	// Auth is attached per route: a root group with middleware would also
	// capture unknown paths and answer 401 instead of 404.
	auth := middleware.Auth(d.Tokens)
	professionalOnly := middleware.RBAC(domain.RoleProfessional)

	profiles := handler.NewProfileHandler(d.Profiles)
	e.POST("/profile", profiles.Upsert, auth)
	e.GET("/profile/:user_id", profiles.Get, auth)
	e.GET("/me", profiles.Me, auth)
	e.GET("/patients", profiles.ListPatients, auth, professionalOnly)
	e.GET("/patients/detail", profiles.ListPatientDetails, auth, professionalOnly)
	e.GET("/patients/detail/:id", profiles.GetPatientDetail, auth, professionalOnly)

	evaluations := handler.NewEvaluationHandler(d.Evaluations)
	e.POST("/evaluations", evaluations.Create, auth)
	e.GET("/evaluations/:user_id", evaluations.List, auth)
	e.GET("/evaluations/compare/:user_id", evaluations.Compare, auth)
	e.POST("/evaluations/competencies", evaluations.CreateCompetency, auth, professionalOnly)
	e.GET("/evaluations/competencies/:user_id", evaluations.ListCompetencies, auth)

	plans := handler.NewPlanHandler(d.Plans)
	e.POST("/plan", plans.Create, auth, professionalOnly)
	e.GET("/plan/latest/:patient_id", plans.Latest, auth)
	e.GET("/plan/history/:patient_id", plans.History, auth)
	e.GET("/plan/:plan_id", plans.Get, auth)
	e.PUT("/plan/close/:plan_id", plans.Close, auth, professionalOnly)
	e.PUT("/plan/objectives/:objective_id", plans.UpdateObjective, auth)

	return e
}

// clientIPExtractor decides what c.RealIP returns for the rate limiter and
// the consent audit row.
func clientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
