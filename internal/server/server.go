// Package server wires the HTTP API: routing, authentication, and the
// handlers fronting the domain services.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/activity"
	apikeydomain "github.com/smallbiznis/credora/internal/apikey/domain"
	auditdomain "github.com/smallbiznis/credora/internal/audit/domain"
	"github.com/smallbiznis/credora/internal/config"
	customerdomain "github.com/smallbiznis/credora/internal/customer/domain"
	dashboarddomain "github.com/smallbiznis/credora/internal/dashboard/domain"
	feedbackdomain "github.com/smallbiznis/credora/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/credora/internal/invoice/domain"
	"github.com/smallbiznis/credora/internal/invoice/render"
	"github.com/smallbiznis/credora/internal/observability/logger"
	"github.com/smallbiznis/credora/internal/observability/metrics"
	projectdomain "github.com/smallbiznis/credora/internal/project/domain"
	"github.com/smallbiznis/credora/internal/ratelimit"
	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
	receiptdomain "github.com/smallbiznis/credora/internal/receipt/domain"
)

type Server struct {
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	engine *gin.Engine

	customerSvc  customerdomain.Service
	invoiceSvc   invoicedomain.Service
	receiptSvc   receiptdomain.Service
	projectSvc   projectdomain.Service
	feedbackSvc  feedbackdomain.Service
	ratingSvc    ratingdomain.Service
	dashboardSvc dashboarddomain.Service
	apikeySvc    apikeydomain.Service
	auditSvc     auditdomain.Service

	recorder *activity.Recorder
	renderer render.Renderer
	limiter  *ratelimit.Limiter
}

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	Engine *gin.Engine

	CustomerSvc  customerdomain.Service
	InvoiceSvc   invoicedomain.Service
	ReceiptSvc   receiptdomain.Service
	ProjectSvc   projectdomain.Service
	FeedbackSvc  feedbackdomain.Service
	RatingSvc    ratingdomain.Service
	DashboardSvc dashboarddomain.Service
	APIKeySvc    apikeydomain.Service
	AuditSvc     auditdomain.Service

	Recorder *activity.Recorder
	Renderer render.Renderer
	Limiter  *ratelimit.Limiter
}

// NewEngine builds the gin engine with logging and metrics middleware.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.Environment == "production" || cfg.IsCloud() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:          p.Config,
		db:           p.DB,
		log:          p.Log.Named("server"),
		engine:       p.Engine,
		customerSvc:  p.CustomerSvc,
		invoiceSvc:   p.InvoiceSvc,
		receiptSvc:   p.ReceiptSvc,
		projectSvc:   p.ProjectSvc,
		feedbackSvc:  p.FeedbackSvc,
		ratingSvc:    p.RatingSvc,
		dashboardSvc: p.DashboardSvc,
		apikeySvc:    p.APIKeySvc,
		auditSvc:     p.AuditSvc,
		recorder:     p.Recorder,
		renderer:     p.Renderer,
		limiter:      p.Limiter,
	}
}

// RegisterAPIRoutes mounts the public API under /api behind API-key auth.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.Use(s.APIKeyRequired())
	api.Use(s.limiter.Middleware())

	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.GET("/customers/:id/rating", s.GetCustomerRating)
	api.GET("/customers/:id/activities", s.ListCustomerActivities)

	api.POST("/ratings/run", s.RunBulkRating)

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/html", s.RenderInvoiceHTML)
	api.POST("/invoices/:id/send", s.SendInvoice)
	api.POST("/invoices/:id/pay", s.PayInvoice)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)

	api.POST("/receipts", s.CreateReceipt)
	api.GET("/receipts", s.ListReceipts)
	api.POST("/receipts/:id/complete", s.CompleteReceipt)
	api.POST("/receipts/:id/cancel", s.CancelReceipt)

	api.POST("/projects", s.CreateProject)
	api.GET("/projects", s.ListProjects)
	api.POST("/projects/:id/complete", s.CompleteProject)
	api.POST("/projects/:id/archive", s.ArchiveProject)

	api.POST("/feedbacks", s.CreateFeedback)
	api.GET("/feedbacks", s.ListFeedbacks)
	api.POST("/feedbacks/:id/send", s.SendFeedback)
	api.POST("/feedbacks/:id/complete", s.CompleteFeedback)
	api.POST("/feedbacks/:id/cancel", s.CancelFeedback)

	api.GET("/dashboard/ratings", s.GetRatingDistribution)
	api.GET("/dashboard/risk", s.ListRiskCustomers)
	api.GET("/dashboard/activity", s.ListRatingActivity)

	api.GET("/audit", s.ListAuditLogs)

	api.POST("/apikeys", s.CreateAPIKey)
	api.GET("/apikeys", s.ListAPIKeys)
	api.DELETE("/apikeys/:key_id", s.RevokeAPIKey)

	if s.cfg.Environment != "production" {
		api.POST("/test/cleanup", s.TestCleanup)
	}
}

// Health reports liveness and database reachability.
func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server starting", zap.String("addr", s.cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
