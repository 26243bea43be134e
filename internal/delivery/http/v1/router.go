package v1

import (
	"net/http"
	"time"

	"proofhire-backend/config"
	"proofhire-backend/internal/delivery/http/middleware"
	"proofhire-backend/internal/domain"
	"proofhire-backend/internal/usecase"
	"proofhire-backend/pkg/auth"
	"proofhire-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC      domain.AuthUsecase
	CandidateUC domain.CandidateUsecase
	ResumeUC    domain.ResumeUsecase
	RefereeUC   domain.RefereeUsecase
	ReviewUC    domain.ReviewUsecase
	HealthUC    usecase.HealthUsecase
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	// MetricsHandler serves /metrics; nil uses the default Prometheus registry.
	MetricsHandler http.Handler
	JWKSProvider   *auth.Provider
	Config         *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL, deps.Config.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.ErrorHandler())

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil, nil)
	}
	window := time.Duration(deps.Config.RateLimitWindowSeconds) * time.Second

	v1 := r.Group("/v1")

	// Public routes
	NewHealthHandler(v1, deps.HealthUC)
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWKSProvider, deps.Config, deps.AuthUC))
	protected.Use(middleware.CSRFMiddleware())

	me := protected.Group("/me")
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(domain.RoleReviewer, domain.RoleAdmin))
	{
		NewCandidateHandler(me, deps.CandidateUC)
		NewResumeHandler(me, admin, deps.ResumeUC,
			limiter.Limit(middleware.UploadRateLimitConfig(deps.Config.RateLimitUploadThreshold, window)))
		NewRefereeHandler(v1, me, deps.RefereeUC,
			limiter.Limit(middleware.InviteRateLimitConfig(deps.Config.RateLimitInviteThreshold, window)),
			limiter.Limit(middleware.ConfirmRateLimitConfig()))
		NewReviewHandler(admin, deps.ReviewUC)
	}

	return r
}
