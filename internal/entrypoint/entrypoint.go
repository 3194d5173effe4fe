package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/availability"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/dashboard"
	"github.com/mrlokans/librarium/internal/database"
	auditRepo "github.com/mrlokans/librarium/internal/database/audit"
	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/database/categories"
	"github.com/mrlokans/librarium/internal/database/events"
	"github.com/mrlokans/librarium/internal/database/genres"
	"github.com/mrlokans/librarium/internal/database/inventory"
	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/database/memberships"
	txstore "github.com/mrlokans/librarium/internal/database/payments"
	"github.com/mrlokans/librarium/internal/database/sessions"
	"github.com/mrlokans/librarium/internal/database/shifts"
	"github.com/mrlokans/librarium/internal/database/staff"
	"github.com/mrlokans/librarium/internal/database/users"
	http_controllers "github.com/mrlokans/librarium/internal/http"
	"github.com/mrlokans/librarium/internal/payments"
	"github.com/mrlokans/librarium/internal/scheduler"
	"github.com/mrlokans/librarium/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the workers and the database go away
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// OpenDatabase connects to the configured database and migrates it.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	if cfg.Database.Driver == "" || cfg.Database.Driver == config.DriverSQLite {
		if err := ensureParentDir(cfg.Database.Path); err != nil {
			return nil, err
		}
	}
	return database.NewDatabase(cfg.Database)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// NewAuthService builds the account service on top of db.
func NewAuthService(db *database.Database, cfg *config.Config) *auth.Service {
	return auth.NewService(db.DB, users.NewRepository(db.DB), cfg.Auth)
}

func csrfSecret(cfg config.Auth) []byte {
	if cfg.SessionSecret != "" {
		secret, err := hex.DecodeString(cfg.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			secret = []byte(cfg.SessionSecret)
		}
		return secret
	}
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	decoded, _ := hex.DecodeString(secret)
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return decoded
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Librarium v%s (%s)", version, cfg.Global.Env)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.SQLDB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB: %v", err)
	}

	// Accounts and sessions
	usersRepo := users.NewRepository(db.DB)
	authService := auth.NewService(db.DB, usersRepo, cfg.Auth)
	sessionManager, err := auth.NewSessionManager(sqlDB, db.DriverName(), cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(authService, sessionManager)

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	authController := auth.NewAuthController(authService, sessionManager, cfg.Auth, auditService)

	if hasOwner, err := authService.HasOwner(); err == nil && !hasOwner {
		log.Printf("No owner account found. POST /api/setup or run 'librarium create-owner' to create one.")
	}

	// Repositories
	loansRepo := loans.NewRepository(db.DB, loans.Policy{
		DurationDays: cfg.Library.LoanDurationDays,
		MaxBooks:     cfg.Library.LoanMaxBooks,
		FinePerDay:   cfg.Library.LoanFinePerDay,
	})
	sessionsRepo := sessions.NewRepository(db.DB)
	eventsRepo := events.NewRepository(db.DB)
	membershipsRepo := memberships.NewRepository(db.DB)
	txRepo := txstore.NewRepository(db.DB)

	checker := availability.NewChecker(sessionsRepo, eventsRepo, cfg.Library.SessionMaxCapacity)

	if cfg.Payment.ServerKey == "" {
		log.Printf("WARNING: PAYMENT_SERVER_KEY is not set. Checkout and payment notifications will answer 503 until it is configured.")
	}
	paymentService := payments.NewService(
		payments.NewClient(cfg.Payment),
		txRepo, membershipsRepo, eventsRepo, usersRepo,
		payments.Options{
			ServerKey:     cfg.Payment.ServerKey,
			MembershipFee: cfg.Library.MembershipFee,
			Expiry:        cfg.Payment.Expiry,
		},
	)

	dashboardService, err := dashboard.NewService(sqlDB, db.DriverName(), dashboard.Options{
		SessionCapacity:   cfg.Library.SessionMaxCapacity,
		LowStockThreshold: cfg.Library.LowStockThreshold,
	})
	if err != nil {
		log.Fatalf("Failed to initialize dashboard: %v", err)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var sched *scheduler.Scheduler
	if cfg.Tasks.Enabled {
		if err := ensureParentDir(cfg.Tasks.DBPath); err != nil {
			log.Fatalf("Failed to prepare task queue directory: %v", err)
		}
		taskClient, err = tasks.NewClient(cfg.Tasks.DBPath, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}

		taskClient.Register(
			tasks.NewMarkOverdueLoansQueue(loansRepo),
			tasks.NewExpirePendingPaymentsQueue(paymentService, cfg.Payment.Expiry),
			tasks.NewCleanupAuditEventsQueue(auditService),
			tasks.NewSyncPaymentStatusQueue(paymentService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Scheduler.Enabled {
			sched = scheduler.New(taskClient, scheduler.Jobs(cfg.Scheduler, cfg.Audit.RetentionDays))
			if err := sched.Start(taskCtx); err != nil {
				log.Fatalf("Failed to start scheduler: %v", err)
			}
		}
	} else {
		log.Printf("Task queue disabled: overdue loans and stale payments will not be processed")
	}

	routerCfg := http_controllers.RouterConfig{
		Version:            version,
		Development:        cfg.IsDevelopment(),
		Categories:         categories.NewRepository(db.DB),
		Genres:             genres.NewRepository(db.DB),
		Books:              books.NewRepository(db.DB),
		Loans:              loansRepo,
		Inventory:          inventory.NewRepository(db.DB),
		Shifts:             shifts.NewRepository(db.DB),
		Sessions:           sessionsRepo,
		Events:             eventsRepo,
		Memberships:        membershipsRepo,
		Transactions:       txRepo,
		Staff:              staff.NewRepository(db.DB),
		Visitors:           usersRepo,
		Availability:       checker,
		Accounts:           authService,
		Payments:           paymentService,
		Dashboard:          dashboardService,
		AuditLog:           auditService,
		Auditor:            auditService,
		Database:           db,
		Migrator:           db,
		LowStockThreshold:  cfg.Library.LowStockThreshold,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		AuthService:        authService,
		SessionManager:     sessionManager,
		AuthMiddleware:     authMiddleware,
		AuthController:     authController,
		CSRFSecret:         csrfSecret(cfg.Auth),
		SecureCookies:      cfg.Auth.SecureCookies,
	}
	// Interfaces must stay nil when the queue is off
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}
	if sched != nil {
		routerCfg.Scheduler = sched
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		authController.Stop()
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}
		auditService.Wait()
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	Serve(router, cfg, onShutdown)
}
