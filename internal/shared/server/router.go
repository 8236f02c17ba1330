package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixme-backend/internal/diagnosis"
	"fixme-backend/internal/llm"
	"fixme-backend/internal/llm/openai"
	"fixme-backend/internal/services/health"
	"fixme-backend/internal/shared/config"
	"fixme-backend/internal/shared/metrics"
	"fixme-backend/internal/shared/server/middleware"
	"fixme-backend/internal/shared/server/respond"
)

// NewLLMClient builds the OpenAI client described by cfg.
func NewLLMClient(cfg config.Config) llm.Client {
	return openai.NewClient(openai.Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		VisionModel: cfg.OpenAIVisionModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: cfg.OpenAITemperature,
	})
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// A nil client means one is built from cfg.
func NewRouter(cfg config.Config, client llm.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}, nil)
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	if client == nil {
		client = NewLLMClient(cfg)
	}
	healthSvc := health.NewService(cfg.OpenAIConfigured())
	diagnosisSvc := diagnosis.NewService(client, cfg.AnalysisTimeout)
	diagnosisHandler := diagnosis.NewHandler(diagnosisSvc)

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, healthSvc.Info())
	})
	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	r.GET("/metrics", metrics.Handler())

	limited := r.Group("", middleware.RateLimit(limiter), middleware.BodyLimit(cfg.MaxRequestBodySize))
	diagnosisHandler.RegisterRoutes(limited)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "Not Found", "Not Found")
	})
	return r
}
