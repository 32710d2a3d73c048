package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/rapid-dispatch/backend/internal/config"
	"github.com/rapid-dispatch/backend/internal/db"
	"github.com/rapid-dispatch/backend/internal/extract"
	"github.com/rapid-dispatch/backend/internal/http/handlers"
	"github.com/rapid-dispatch/backend/internal/http/middleware"
	"github.com/rapid-dispatch/backend/internal/service"

	_ "github.com/rapid-dispatch/backend/docs"
)

func Router(cfg config.Config, store *db.Store, assembler *service.Assembler, analyzer *service.ConversationAnalyzer, events service.EventsFetcher, chain extract.Chain, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Assembler: assembler,
		Analyzer:  analyzer,
		Events:    events,
		Chain:     chain,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/calls", h.ListCalls)
		api.GET("/calls/:id", h.CallDetails)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/calls", h.CreateCall)
		admin.PATCH("/calls/:id/status", h.UpdateCallStatus)
		admin.POST("/calls/:id/reanalyze", h.ReanalyzeCall)
		admin.POST("/analyze", h.AnalyzeConversation)
		admin.POST("/extract", h.ExtractIncident)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
