package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/corpsledger/internal/audit/domain"
	authdomain "github.com/smallbiznis/corpsledger/internal/auth/domain"
	"github.com/smallbiznis/corpsledger/internal/authorization"
	beveragedomain "github.com/smallbiznis/corpsledger/internal/beverage/domain"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/observability"
	obslogger "github.com/smallbiznis/corpsledger/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/corpsledger/internal/observability/metrics"
	obstracing "github.com/smallbiznis/corpsledger/internal/observability/tracing"
	"github.com/smallbiznis/corpsledger/internal/ratelimit"
	reconciledomain "github.com/smallbiznis/corpsledger/internal/reconcile/domain"
	reimbursementdomain "github.com/smallbiznis/corpsledger/internal/reimbursement/domain"
	reportdomain "github.com/smallbiznis/corpsledger/internal/report/domain"
	statisticsdomain "github.com/smallbiznis/corpsledger/internal/statistics/domain"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/smallbiznis/corpsledger/pkg/filestore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger, ledgerMetrics *obsmetrics.LedgerMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log, obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ledgerMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine           *gin.Engine
	cfg              config.Config
	log              *zap.Logger
	clock            clock.Clock
	authsvc          authdomain.Service
	authzSvc         authorization.Service
	auditSvc         auditdomain.Service
	memberSvc        memberdomain.Service
	transactionSvc   txdomain.Service
	reconcileSvc     reconciledomain.Service
	statisticsSvc    statisticsdomain.Service
	reportSvc        reportdomain.Service
	reimbursementSvc reimbursementdomain.Service
	beverageSvc      beveragedomain.Service
	store            *filestore.Store
	loginLimiter     *ratelimit.LoginLimiter
	ledgerMetrics    *obsmetrics.LedgerMetrics
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	Log              *zap.Logger
	Clock            clock.Clock
	Authsvc          authdomain.Service
	AuthzSvc         authorization.Service
	AuditSvc         auditdomain.Service
	MemberSvc        memberdomain.Service
	TransactionSvc   txdomain.Service
	ReconcileSvc     reconciledomain.Service
	StatisticsSvc    statisticsdomain.Service
	ReportSvc        reportdomain.Service
	ReimbursementSvc reimbursementdomain.Service
	BeverageSvc      beveragedomain.Service
	Store            *filestore.Store
	LoginLimiter     *ratelimit.LoginLimiter   `optional:"true"`
	LedgerMetrics    *obsmetrics.LedgerMetrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		log:              p.Log.Named("http.server"),
		clock:            p.Clock,
		authsvc:          p.Authsvc,
		authzSvc:         p.AuthzSvc,
		auditSvc:         p.AuditSvc,
		memberSvc:        p.MemberSvc,
		transactionSvc:   p.TransactionSvc,
		reconcileSvc:     p.ReconcileSvc,
		statisticsSvc:    p.StatisticsSvc,
		reportSvc:        p.ReportSvc,
		reimbursementSvc: p.ReimbursementSvc,
		beverageSvc:      p.BeverageSvc,
		store:            p.Store,
		loginLimiter:     p.LoginLimiter,
		ledgerMetrics:    p.LedgerMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerMemberRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerMemberRoutes() {
	me := s.engine.Group("/api/me")
	me.Use(s.AuthRequired(), s.AuthorizeRoute())

	me.GET("", s.GetMyAccount)
	me.GET("/transactions", s.ListMyTransactions)
	me.GET("/report", s.GetMyReport)
	me.GET("/statement", s.DownloadMyStatement)

	me.GET("/reimbursements", s.ListMyReimbursements)
	me.POST("/reimbursements", s.SubmitReimbursement)
	me.GET("/bank-details", s.GetMyBankDetails)
	me.PUT("/bank-details", s.SaveMyBankDetails)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")
	admin.Use(s.AuthRequired(), s.AuthorizeRoute())

	// -------- Members --------
	admin.GET("/members", s.ListMembers)
	admin.POST("/members", s.SaveMember)
	admin.POST("/members/bulk-title", s.BulkChangeTitle)
	admin.GET("/members/:email", s.GetMember)
	admin.PUT("/members/:email/title", s.ChangeTitle)
	admin.PUT("/members/:email/residency", s.ChangeResidency)
	admin.GET("/members/:email/balance", s.GetBalanceAsOf)

	// -------- Transactions --------
	admin.GET("/transactions", s.ListTransactionsByType)
	admin.GET("/transactions/:id", s.GetTransactionByID)
	admin.GET("/members/:email/transactions", s.ListMemberTransactions)
	admin.POST("/members/:email/transactions", s.CreateTransaction)
	admin.PATCH("/members/:email/transactions/:id", s.UpdateTransaction)
	admin.DELETE("/members/:email/transactions/:id", s.DeleteTransaction)

	// -------- Reconciliation --------
	admin.GET("/reconcile/preview", s.PreviewMissingFees)
	admin.POST("/reconcile/run", s.RunReconcile)
	admin.POST("/reconcile/save", s.SaveMissingPayments)

	// -------- Statistics --------
	admin.GET("/statistics/trend", s.GetDebtTrend)
	admin.GET("/statistics/debtors", s.GetDebtors)

	// -------- Reports --------
	admin.POST("/reports/send-all", s.SendAllReports)
	admin.GET("/reports/:email", s.GetReport)
	admin.POST("/reports/:email/send", s.SendReport)
	admin.GET("/reports/:email/statement", s.DownloadStatement)

	// -------- Reimbursements --------
	admin.GET("/reimbursements/pending", s.ListPendingReimbursements)
	admin.POST("/reimbursements/:id/approve", s.ApproveReimbursement)
	admin.GET("/members/:email/reimbursements", s.ListMemberReimbursements)
	admin.GET("/members/:email/bank-details", s.GetMemberBankDetails)

	// -------- Beverages --------
	admin.GET("/beverages/assortment", s.GetAssortment)
	admin.GET("/beverages/reports", s.ListBeverageReports)
	admin.POST("/beverages/reports", s.CreateBeverageReport)
	admin.GET("/beverages/reports/:id", s.GetBeverageReport)
	admin.POST("/beverages/reports/:id/bill", s.BillBeverageReport)

	// -------- Audit --------
	admin.GET("/audit/:email", s.ListAuditLogs)

	// -------- Import / export --------
	admin.GET("/export", s.ExportLedger)
	admin.POST("/import", s.ImportLedger)
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError("id", "invalid_id", "invalid id")
	}
	return id, nil
}
