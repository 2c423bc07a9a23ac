package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"change-intake-service/internal/cache"
	"change-intake-service/internal/client"
	"change-intake-service/internal/handler"
	"change-intake-service/internal/metrics"
	"change-intake-service/internal/middleware"
	"change-intake-service/internal/ruleset"
	"change-intake-service/internal/service"
)

// Config holds the dependencies of the HTTP surface
type Config struct {
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer // nil serves the default registry
	BasePath    string
	CORSOrigins string
	Rules       ruleset.Source
	Webhook     client.WebhookClient
	Sessions    cache.SessionCache
	Redis       redis.Cmdable // nil when the session cache is not redis backed
	Intake      service.IntakeOptions
}

// Setup wires services and handlers and registers every route
func Setup(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	formService := service.NewFormService(cfg.Rules, cfg.Metrics, cfg.Logger)
	intakeService := service.NewIntakeService(cfg.Rules, cfg.Webhook, cfg.Sessions, cfg.Intake, cfg.Metrics, cfg.Logger)

	formHandler := handler.NewFormHandler(formService, cfg.Logger)
	chatHandler := handler.NewChatHandler(intakeService, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(intakeService, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Redis, cfg.Webhook, formService)

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group(cfg.BasePath)
	{
		api.GET("/questionnaire", formHandler.GetQuestionnaire)
		api.POST("/classify", formHandler.Classify)
		api.GET("/tiers", formHandler.GetTiers)
		api.GET("/catalog", formHandler.GetCatalog)
		api.POST("/validate", formHandler.Validate)
		api.GET("/rules/report", formHandler.GetRuleReport)

		api.POST("/chat", chatHandler.SendMessage)
		api.POST("/forward", chatHandler.Forward)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:sessionId", sessionHandler.GetSession)
			sessions.POST("/:sessionId/fields", sessionHandler.SaveFields)
			sessions.POST("/:sessionId/classification", sessionHandler.SaveClassification)
			sessions.POST("/:sessionId/submit", sessionHandler.Submit)
		}
	}

	return r
}
