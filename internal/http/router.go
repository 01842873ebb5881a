package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/claimsbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/claimsbridge-backend/internal/http/middleware"
)

type RouterConfig struct {
	VeteranHandler   *httpH.VeteranHandler
	DocumentHandler  *httpH.DocumentHandler
	ConditionHandler *httpH.ConditionHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.VeteranHandler != nil {
			api.POST("/veterans", cfg.VeteranHandler.Register)
			api.GET("/veterans/:id", cfg.VeteranHandler.Get)
			api.GET("/veterans/:id/service-periods", cfg.VeteranHandler.ServicePeriods)
		}

		if cfg.DocumentHandler != nil {
			api.POST("/veterans/:id/documents", cfg.DocumentHandler.Upload)
			api.GET("/veterans/:id/documents", cfg.DocumentHandler.List)
			api.GET("/documents/:docId/status", cfg.DocumentHandler.Status)
		}

		if cfg.ConditionHandler != nil {
			api.GET("/veterans/:id/conditions", cfg.ConditionHandler.List)
			api.DELETE("/veterans/:id/conditions/:conditionId", cfg.ConditionHandler.Delete)
		}
	}

	return r
}
