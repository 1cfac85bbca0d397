package router

import (
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/config"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/handler"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/infra"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/middleware"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/service"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// ledger worker for the pool to consume.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, ledgerCB *infra.CircuitBreaker) (*gin.Engine, *worker.LedgerWorker, repository.OutboxRepository) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	ledgerClient := infra.NewLedgerClient(cfg.LedgerURL)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	sessionRepo := repository.NewCashSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, storeRepo, rdb)
	stockSvc := service.NewStockLedger(stockRepo, cfg.StockAllowOversell)
	sessionSvc := service.NewCashSessionService(sessionRepo)
	voucherSvc := service.NewVoucherService(voucherRepo)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	saleSvc := service.NewSaleService(saleRepo, sessionSvc, sessionRepo, stockSvc, productRepo, storeRepo, voucherSvc, outboxRepo, dispatcher, cfg)
	returnSvc := service.NewReturnService(returnRepo, saleRepo, stockSvc, storeRepo, voucherSvc, cfg)

	ledgerWorker := worker.NewLedgerWorker(ledgerClient, outboxRepo, ledgerCB, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	saleH := handler.NewSaleHandler(saleSvc, returnSvc)
	returnH := handler.NewReturnHandler(returnSvc)
	voucherH := handler.NewVoucherHandler(voucherSvc)
	productH := handler.NewProductHandler(productSvc)
	outboxH := handler.NewOutboxHandler(outboxRepo, dispatcher)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, ledgerCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")
		supervisors := middleware.RequireRole("supervisor", "admin")

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", anyStaff, sessionH.Open)
			sessions.POST("/:id/close", anyStaff, sessionH.Close)
			sessions.POST("/:id/withdrawals", supervisors, sessionH.Withdraw)
			sessions.GET("/active", anyStaff, sessionH.GetActive)
			sessions.GET("/:id/report", anyStaff, sessionH.Report)
			sessions.GET("/history", supervisors, sessionH.History)
		}

		v1.POST("/sales", anyStaff, saleH.Create)
		v1.GET("/sales", anyStaff, saleH.List)
		v1.GET("/sales/:id", anyStaff, saleH.Get)
		v1.GET("/sales/:id/returns", anyStaff, saleH.ListReturns)

		v1.POST("/returns", anyStaff, returnH.Create)

		v1.GET("/vouchers/:code", anyStaff, voucherH.Validate)

		v1.GET("/products/search", anyStaff, productH.Search)
		v1.GET("/products/barcode/:code", anyStaff, productH.Barcode)

		outbox := v1.Group("/outbox", supervisors)
		{
			outbox.GET("", outboxH.ListUndelivered)
			outbox.POST("/:id/redeliver", outboxH.Redeliver)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, ledgerWorker, outboxRepo
}
