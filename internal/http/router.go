package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-curriculum/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-curriculum/internal/http/middleware"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	HealthHandler     *httpH.HealthHandler
	MaterialHandler   *httpH.MaterialHandler
	CacheHandler      *httpH.CacheHandler
	LessonPlanHandler *httpH.LessonPlanHandler
	LedgerHandler     *httpH.LedgerHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(httpMW.CORS(cfg.AllowedOrigins))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	v1 := r.Group("/v1")
	{
		// Materials
		if cfg.MaterialHandler != nil {
			v1.POST("/materials", cfg.MaterialHandler.StageMaterials)
		}

		// Context caches
		if cfg.CacheHandler != nil {
			v1.POST("/caches", cfg.CacheHandler.CreateCache)
			v1.GET("/caches/*id", cfg.CacheHandler.GetCache)
			v1.DELETE("/caches/*id", cfg.CacheHandler.DeleteCache)
		}

		// Lesson plans
		if cfg.LessonPlanHandler != nil {
			v1.POST("/lesson-plans", cfg.LessonPlanHandler.GeneratePlan)
			v1.POST("/lesson-plans/interpret", cfg.LessonPlanHandler.InterpretOutput)
		}

		// Ledger
		if cfg.LedgerHandler != nil {
			v1.GET("/ledger/files", cfg.LedgerHandler.ListFiles)
			v1.GET("/ledger/handles", cfg.LedgerHandler.ListHandles)
			v1.GET("/ledger/handles/*id", cfg.LedgerHandler.GetHandle)
			v1.POST("/ledger/sweep", cfg.LedgerHandler.Sweep)
		}
	}

	return r
}
